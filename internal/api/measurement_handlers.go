package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
	"github.com/vladimiradmaev/eyecare-tracker/internal/interfaces"
	"github.com/vladimiradmaev/eyecare-tracker/internal/utils"
)

// measurementHandler serves CRUD for one measurement kind. build decodes and
// validates a request body into an unsaved measurement owned by userID.
type measurementHandler[T domain.Measurement] struct {
	service interfaces.MeasurementServiceInterface[T]
	build   func(w http.ResponseWriter, r *http.Request, userID string, update bool) (T, error)
}

func (h *measurementHandler[T]) routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List handles GET /?from=&to=
func (h *measurementHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	dr, err := parseDateRange(r)
	if err != nil {
		respondError(w, err)
		return
	}

	items, err := h.service.List(r.Context(), userIDFromContext(r.Context()), dr)
	if err != nil {
		respondError(w, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	respondJSON(w, http.StatusOK, items)
}

// Create handles POST /
func (h *measurementHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	m, err := h.build(w, r, userID, false)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.Create(r.Context(), userID, m); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

// Get handles GET /{id}
func (h *measurementHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Get(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// Update handles PUT /{id}. The body replaces the whole record.
func (h *measurementHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	m, err := h.build(w, r, userID, true)
	if err != nil {
		respondError(w, err)
		return
	}
	m.SetRecordID(chi.URLParam(r, "id"))

	if err := h.service.Update(r.Context(), userID, m); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// Delete handles DELETE /{id}
func (h *measurementHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondNoContent(w)
}

// parseDateRange reads from/to. A bare date in "to" covers that whole day.
func parseDateRange(r *http.Request) (domain.DateRange, error) {
	var dr domain.DateRange
	q := r.URL.Query()

	if raw := q.Get("from"); raw != "" {
		from, _, err := utils.ParseDateParam(raw)
		if err != nil {
			return dr, apperrors.NewValidationError("from: " + err.Error())
		}
		dr.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, dateOnly, err := utils.ParseDateParam(raw)
		if err != nil {
			return dr, apperrors.NewValidationError("to: " + err.Error())
		}
		if dateOnly {
			to = utils.EndOfDay(to)
		}
		dr.To = &to
	}
	return dr, nil
}

func requireDate(date *time.Time, update bool) error {
	if update && date == nil {
		return apperrors.NewValidationError("date is required")
	}
	return nil
}

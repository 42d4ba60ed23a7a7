package api

import (
	"net/http"
	"strconv"

	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
	"github.com/vladimiradmaev/eyecare-tracker/internal/interfaces"
	"github.com/vladimiradmaev/eyecare-tracker/internal/session"
)

type authHandler struct {
	auth  interfaces.AuthServiceInterface
	users interfaces.UserServiceInterface
}

type signUpRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,excludes=/"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type sessionResponse struct {
	Screen    session.Screen `json:"screen"`
	Onboarded bool           `json:"onboarded"`
	UserID    string         `json:"userId,omitempty"`
}

// SignUp handles POST /auth/signup
func (h *authHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := ValidateStruct(req); err != nil {
		respondError(w, err)
		return
	}

	s, err := h.auth.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, s)
}

// SignIn handles POST /auth/signin
func (h *authHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := ValidateStruct(req); err != nil {
		respondError(w, err)
		return
	}

	s, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

// SignOut handles POST /auth/signout. Only the presented token is revoked.
func (h *authHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), r.Header.Get("Authorization")); err != nil {
		respondError(w, err)
		return
	}
	respondNoContent(w)
}

// Me handles GET /me
func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetProfile(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// UpdateMe handles PUT /me
func (h *authHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := ValidateStruct(req); err != nil {
		respondError(w, err)
		return
	}

	u, err := h.users.UpdateName(r.Context(), userIDFromContext(r.Context()), req.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// Session handles GET /session?onboarded=true. The token is optional; an
// invalid or revoked one routes to the login screen.
func (h *authHandler) Session(w http.ResponseWriter, r *http.Request) {
	state := session.State{}
	if raw := r.URL.Query().Get("onboarded"); raw != "" {
		onboarded, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, apperrors.NewValidationError("onboarded must be true or false"))
			return
		}
		state.Onboarded = onboarded
	}

	if token := r.Header.Get("Authorization"); token != "" {
		claims, err := h.auth.Authenticate(r.Context(), token)
		switch {
		case err == nil:
			state.UserID = claims.UserID
		case apperrors.TypeOf(err) == apperrors.ErrorTypeOperationFailed:
			respondError(w, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, sessionResponse{
		Screen:    session.Route(state),
		Onboarded: state.Onboarded,
		UserID:    state.UserID,
	})
}

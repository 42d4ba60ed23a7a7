package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
	"github.com/vladimiradmaev/eyecare-tracker/internal/metrics"
	"github.com/vladimiradmaev/eyecare-tracker/internal/store"
)

// MeasurementRepository provides CRUD for one measurement collection on top
// of a document store
type MeasurementRepository[T domain.Measurement] struct {
	store      store.DocumentStore
	collection string
	resource   string
	decode     func(id string, doc map[string]any) (T, error)
	metrics    *metrics.Collector
}

var (
	_ domain.MeasurementRepository[*domain.GlaucomaMeasurement]        = (*MeasurementRepository[*domain.GlaucomaMeasurement])(nil)
	_ domain.MeasurementRepository[*domain.RetinaInjectionMeasurement] = (*MeasurementRepository[*domain.RetinaInjectionMeasurement])(nil)
)

func NewGlaucomaRepository(s store.DocumentStore, m *metrics.Collector) *MeasurementRepository[*domain.GlaucomaMeasurement] {
	return &MeasurementRepository[*domain.GlaucomaMeasurement]{
		store:      s,
		collection: domain.CollectionGlaucoma,
		resource:   "glaucoma measurement",
		decode:     domain.DecodeGlaucoma,
		metrics:    m,
	}
}

func NewRetinaInjectionRepository(s store.DocumentStore, m *metrics.Collector) *MeasurementRepository[*domain.RetinaInjectionMeasurement] {
	return &MeasurementRepository[*domain.RetinaInjectionMeasurement]{
		store:      s,
		collection: domain.CollectionRetina,
		resource:   "retina injection measurement",
		decode:     domain.DecodeRetinaInjection,
		metrics:    m,
	}
}

// Create stores a new record and assigns its id. A new record never carries
// the edited flag.
func (r *MeasurementRepository[T]) Create(ctx context.Context, m T) error {
	if m.RecordID() != "" {
		return apperrors.NewValidationError(fmt.Sprintf("%s already has id %s", r.resource, m.RecordID()))
	}
	m.SetEdited(domain.Flag{})

	id, err := r.store.Create(ctx, r.collection, m.Encode())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", r.resource, err)
	}
	m.SetRecordID(id)
	r.metrics.RecordWritten(r.collection, "create")
	return nil
}

// Update replaces a stored record and marks it edited
func (r *MeasurementRepository[T]) Update(ctx context.Context, m T) error {
	if m.RecordID() == "" {
		return apperrors.NewValidationError(fmt.Sprintf("%s has no id", r.resource))
	}
	m.SetEdited(domain.FlagOf(true))

	if err := r.store.Update(ctx, r.collection, m.RecordID(), m.Encode()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NewNotFoundError(r.resource, m.RecordID())
		}
		return fmt.Errorf("failed to update %s: %w", r.resource, err)
	}
	r.metrics.RecordWritten(r.collection, "update")
	return nil
}

func (r *MeasurementRepository[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	doc, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return zero, apperrors.NewNotFoundError(r.resource, id)
		}
		return zero, fmt.Errorf("failed to get %s: %w", r.resource, err)
	}
	return r.decodeDocument(*doc)
}

// ListByUser returns the user's records in the range, newest first. A single
// malformed record fails the whole listing.
func (r *MeasurementRepository[T]) ListByUser(ctx context.Context, userID string, dr domain.DateRange) ([]T, error) {
	docs, err := r.store.Find(ctx, r.collection, store.Query{
		UserID: userID,
		From:   dr.From,
		To:     dr.To,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", r.resource, err)
	}

	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		m, err := r.decodeDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MeasurementRepository[T]) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, r.collection, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NewNotFoundError(r.resource, id)
		}
		return fmt.Errorf("failed to delete %s: %w", r.resource, err)
	}
	return nil
}

func (r *MeasurementRepository[T]) decodeDocument(doc store.Document) (T, error) {
	m, err := r.decode(doc.ID, doc.Data)
	if err != nil {
		r.metrics.RecordMalformed(r.collection)
		var zero T
		return zero, err
	}
	return m, nil
}

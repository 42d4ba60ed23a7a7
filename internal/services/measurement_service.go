package services

import (
	"context"
	"errors"

	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
)

// MeasurementService scopes measurement CRUD to the signed-in user. Records
// owned by someone else are reported as not found.
type MeasurementService[T domain.Measurement] struct {
	repo       domain.MeasurementRepository[T]
	resource   string
	errHandler *apperrors.Handler
}

type (
	GlaucomaService = MeasurementService[*domain.GlaucomaMeasurement]
	RetinaService   = MeasurementService[*domain.RetinaInjectionMeasurement]
)

func NewMeasurementService[T domain.Measurement](repo domain.MeasurementRepository[T], resource string, h *apperrors.Handler) *MeasurementService[T] {
	if h == nil {
		h = apperrors.NewHandler(nil)
	}
	return &MeasurementService[T]{repo: repo, resource: resource, errHandler: h}
}

func (s *MeasurementService[T]) Create(ctx context.Context, userID string, m T) error {
	if m.OwnerID() != userID {
		return apperrors.NewUnauthorizedError("cannot create a record for another user")
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return s.fail(ctx, "create "+s.resource, err)
	}
	return nil
}

func (s *MeasurementService[T]) Get(ctx context.Context, userID, id string) (T, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		var zero T
		return zero, s.fail(ctx, "get "+s.resource, err)
	}
	if m.OwnerID() != userID {
		var zero T
		return zero, apperrors.NewNotFoundError(s.resource, id)
	}
	return m, nil
}

// Update replaces a record the user owns. Ownership cannot be transferred.
func (s *MeasurementService[T]) Update(ctx context.Context, userID string, m T) error {
	if _, err := s.Get(ctx, userID, m.RecordID()); err != nil {
		return err
	}
	if m.OwnerID() != userID {
		return apperrors.NewUnauthorizedError("cannot move a record to another user")
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return s.fail(ctx, "update "+s.resource, err)
	}
	return nil
}

func (s *MeasurementService[T]) List(ctx context.Context, userID string, r domain.DateRange) ([]T, error) {
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return nil, apperrors.NewValidationError("from must not be after to")
	}
	items, err := s.repo.ListByUser(ctx, userID, r)
	if err != nil {
		return nil, s.fail(ctx, "list "+s.resource, err)
	}
	return items, nil
}

func (s *MeasurementService[T]) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail(ctx, "delete "+s.resource, err)
	}
	return nil
}

// fail passes application errors through and turns anything else, a backend
// failure, into OperationFailed. Both are logged.
func (s *MeasurementService[T]) fail(ctx context.Context, operation string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Type == apperrors.ErrorTypeMalformedRecord {
			s.errHandler.Handle(ctx, appErr)
		}
		return err
	}
	return s.errHandler.LogAndReturn(ctx, apperrors.NewOperationFailedError(err, operation))
}

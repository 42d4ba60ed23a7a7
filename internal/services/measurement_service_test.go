package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
	"github.com/vladimiradmaev/eyecare-tracker/internal/repository"
	"github.com/vladimiradmaev/eyecare-tracker/internal/store"
)

func newRetinaService() *RetinaService {
	repo := repository.NewRetinaInjectionRepository(store.NewMemoryStore(), nil)
	return NewMeasurementService[*domain.RetinaInjectionMeasurement](repo, "retina injection measurement", nil)
}

func TestMeasurementService_OwnershipScoping(t *testing.T) {
	ctx := context.Background()
	svc := newRetinaService()

	m := domain.NewRetinaInjectionMeasurement("alice", domain.EyeLeft, "Ranibizumab", "0.8", 260)
	require.NoError(t, svc.Create(ctx, "alice", m))

	got, err := svc.Get(ctx, "alice", m.ID)
	require.NoError(t, err)
	assert.Equal(t, 260, got.CRT)

	_, err = svc.Get(ctx, "mallory", m.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	intruder := *m
	intruder.CRT = 1
	assert.True(t, errors.Is(svc.Update(ctx, "mallory", &intruder), apperrors.ErrNotFound))
	assert.True(t, errors.Is(svc.Delete(ctx, "mallory", m.ID), apperrors.ErrNotFound))

	list, err := svc.List(ctx, "mallory", domain.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, list)

	err = svc.Create(ctx, "mallory", domain.NewRetinaInjectionMeasurement("alice", domain.EyeLeft, "x", "y", 1))
	assert.Equal(t, apperrors.ErrorTypePermission, apperrors.TypeOf(err))
}

func TestMeasurementService_UpdateMarksEdited(t *testing.T) {
	ctx := context.Background()
	svc := newRetinaService()

	m := domain.NewRetinaInjectionMeasurement("alice", domain.EyeLeft, "Ranibizumab", "0.8", 260)
	require.NoError(t, svc.Create(ctx, "alice", m))
	assert.False(t, m.IsEdited())

	m.Vision = "0.9"
	require.NoError(t, svc.Update(ctx, "alice", m))

	got, err := svc.Get(ctx, "alice", m.ID)
	require.NoError(t, err)
	assert.True(t, got.IsEdited())
	assert.Equal(t, "0.9", got.Vision)

	moved := *got
	moved.UserID = "bob"
	assert.Equal(t, apperrors.ErrorTypePermission, apperrors.TypeOf(svc.Update(ctx, "alice", &moved)))
}

func TestMeasurementService_ListRangeValidation(t *testing.T) {
	svc := newRetinaService()
	from := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	_, err := svc.List(context.Background(), "alice", domain.DateRange{From: &from, To: &to})
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestMeasurementService_BackendFailureIsOperationFailed(t *testing.T) {
	ctx := context.Background()
	backendErr := errors.New("deadline exceeded")
	mock := &MockRetinaRepository{
		CreateFunc: func(context.Context, *domain.RetinaInjectionMeasurement) error { return backendErr },
		ListByUserFunc: func(context.Context, string, domain.DateRange) ([]*domain.RetinaInjectionMeasurement, error) {
			return nil, backendErr
		},
	}
	svc := NewMeasurementService[*domain.RetinaInjectionMeasurement](mock, "retina injection measurement", nil)

	err := svc.Create(ctx, "alice", domain.NewRetinaInjectionMeasurement("alice", domain.EyeRight, "x", "y", 1))
	assert.True(t, errors.Is(err, apperrors.ErrOperationFailed))
	assert.True(t, errors.Is(err, backendErr))

	_, err = svc.List(ctx, "alice", domain.DateRange{})
	assert.True(t, errors.Is(err, apperrors.ErrOperationFailed))
}

func TestMeasurementService_MalformedRecordPassesThrough(t *testing.T) {
	mock := &MockRetinaRepository{
		GetFunc: func(context.Context, string) (*domain.RetinaInjectionMeasurement, error) {
			return nil, apperrors.NewMalformedRecordError(domain.CollectionRetina, domain.KeyCRT, "is missing")
		},
	}
	svc := NewMeasurementService[*domain.RetinaInjectionMeasurement](mock, "retina injection measurement", nil)

	_, err := svc.Get(context.Background(), "alice", "r-1")
	assert.True(t, errors.Is(err, apperrors.ErrMalformedRecord))
	assert.False(t, errors.Is(err, apperrors.ErrOperationFailed))

	assert.Error(t, svc.Delete(context.Background(), "alice", "r-1"))
	assert.Equal(t, int32(0), mock.DeleteCallCount)
}

func TestMeasurementService_Delete(t *testing.T) {
	ctx := context.Background()
	mock := &MockRetinaRepository{
		GetFunc: func(_ context.Context, id string) (*domain.RetinaInjectionMeasurement, error) {
			m := domain.NewRetinaInjectionMeasurement("alice", domain.EyeRight, "x", "y", 1)
			m.ID = id
			return m, nil
		},
	}
	svc := NewMeasurementService[*domain.RetinaInjectionMeasurement](mock, "retina injection measurement", nil)

	require.NoError(t, svc.Delete(ctx, "alice", "r-1"))
	assert.Equal(t, int32(1), mock.DeleteCallCount)
}

package services

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
)

var _ domain.MeasurementRepository[*domain.RetinaInjectionMeasurement] = (*MockRetinaRepository)(nil)

// MockRetinaRepository is a Func-field mock of the retina measurement repository
type MockRetinaRepository struct {
	CreateFunc     func(ctx context.Context, m *domain.RetinaInjectionMeasurement) error
	UpdateFunc     func(ctx context.Context, m *domain.RetinaInjectionMeasurement) error
	GetFunc        func(ctx context.Context, id string) (*domain.RetinaInjectionMeasurement, error)
	ListByUserFunc func(ctx context.Context, userID string, r domain.DateRange) ([]*domain.RetinaInjectionMeasurement, error)
	DeleteFunc     func(ctx context.Context, id string) error

	UpdateCallCount int32
	DeleteCallCount int32
}

func (m *MockRetinaRepository) Create(ctx context.Context, r *domain.RetinaInjectionMeasurement) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, r)
	}
	return nil
}

func (m *MockRetinaRepository) Update(ctx context.Context, r *domain.RetinaInjectionMeasurement) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, r)
	}
	return nil
}

func (m *MockRetinaRepository) Get(ctx context.Context, id string) (*domain.RetinaInjectionMeasurement, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, errors.New("GetFunc not implemented in mock")
}

func (m *MockRetinaRepository) ListByUser(ctx context.Context, userID string, r domain.DateRange) ([]*domain.RetinaInjectionMeasurement, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, r)
	}
	return nil, nil
}

func (m *MockRetinaRepository) Delete(ctx context.Context, id string) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

var _ domain.UserRepository = (*MockUserRepository)(nil)

type MockUserRepository struct {
	SaveFunc func(ctx context.Context, u *domain.User) error
	GetFunc  func(ctx context.Context, id string) (*domain.User, error)
}

func (m *MockUserRepository) Save(ctx context.Context, u *domain.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, u)
	}
	return nil
}

func (m *MockUserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, errors.New("GetFunc not implemented in mock")
}

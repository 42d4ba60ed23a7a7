package services

import (
	"context"
	"errors"
	"strings"

	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
)

type UserService struct {
	users      domain.UserRepository
	errHandler *apperrors.Handler
}

func NewUserService(users domain.UserRepository, h *apperrors.Handler) *UserService {
	if h == nil {
		h = apperrors.NewHandler(nil)
	}
	return &UserService{users: users, errHandler: h}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, "get profile", err)
	}
	return u, nil
}

// UpdateName changes the display name. The email is tied to the credential
// and is not editable here.
func (s *UserService) UpdateName(ctx context.Context, userID, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}

	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Name = name
	if err := s.users.Save(ctx, u); err != nil {
		return nil, s.fail(ctx, "update profile", err)
	}
	return u, nil
}

func (s *UserService) fail(ctx context.Context, operation string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return s.errHandler.LogAndReturn(ctx, apperrors.NewOperationFailedError(err, operation))
}

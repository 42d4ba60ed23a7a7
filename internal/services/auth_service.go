package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vladimiradmaev/eyecare-tracker/internal/auth"
	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
	"github.com/vladimiradmaev/eyecare-tracker/internal/kv"
	"github.com/vladimiradmaev/eyecare-tracker/internal/logger"
	"github.com/vladimiradmaev/eyecare-tracker/internal/repository"
)

const (
	minPasswordLength = 8
	revokedKeyPrefix  = "revoked:"

	// the normalized email keys the credential document, so it must be a
	// valid document id on every backend
	emailRules = "required,email,excludes=/"
)

var validate = validator.New()

// Session is a signed-in user with the token that proves it
type Session struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

type AuthService struct {
	users       domain.UserRepository
	credentials domain.CredentialRepository
	tokens      *auth.TokenManager
	revoked     kv.Store
	errHandler  *apperrors.Handler
}

func NewAuthService(
	users domain.UserRepository,
	credentials domain.CredentialRepository,
	tokens *auth.TokenManager,
	revoked kv.Store,
	h *apperrors.Handler,
) *AuthService {
	if h == nil {
		h = apperrors.NewHandler(nil)
	}
	return &AuthService{
		users:       users,
		credentials: credentials,
		tokens:      tokens,
		revoked:     revoked,
		errHandler:  h,
	}
}

func errInvalidLogin() error {
	return apperrors.NewUnauthorizedError("invalid email or password")
}

// SignUp registers a new account and signs it in
func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = repository.NormalizeEmail(email)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	if err := validate.Var(email, emailRules); err != nil {
		return nil, apperrors.NewValidationError("email is not valid")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{ID: uuid.New().String(), Name: name, Email: email}
	cred := &domain.Credential{Email: email, UserID: user.ID, PasswordHash: hash}
	if err := s.credentials.Create(ctx, cred); err != nil {
		return nil, s.fail(ctx, "sign up", err)
	}
	if err := s.users.Save(ctx, user); err != nil {
		// leave no credential without a profile behind
		if delErr := s.credentials.Delete(ctx, email); delErr != nil {
			logger.Error("Failed to remove orphaned credential", "email", email, "error", delErr)
		}
		return nil, s.fail(ctx, "sign up", err)
	}

	logger.Info("User signed up", "user_id", user.ID)
	return s.issue(user)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	cred, err := s.credentials.Get(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errInvalidLogin()
		}
		return nil, s.fail(ctx, "sign in", err)
	}
	if !auth.CheckPasswordHash(password, cred.PasswordHash) {
		return nil, errInvalidLogin()
	}

	user, err := s.users.Get(ctx, cred.UserID)
	if err != nil {
		return nil, s.fail(ctx, "sign in", err)
	}
	return s.issue(user)
}

// SignOut revokes the token until it would have expired anyway
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return apperrors.NewUnauthorizedError("invalid session token")
	}

	ttl := s.tokens.Remaining(claims)
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Set(ctx, revokedKeyPrefix+claims.ID, claims.UserID, ttl); err != nil {
		return s.errHandler.LogAndReturn(ctx, apperrors.NewOperationFailedError(err, "sign out"))
	}
	logger.Info("User signed out", "user_id", claims.UserID)
	return nil
}

// Authenticate returns the claims of a valid, unrevoked token
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperrors.NewUnauthorizedError("session expired")
		}
		return nil, apperrors.NewUnauthorizedError("invalid session token")
	}

	_, err = s.revoked.Get(ctx, revokedKeyPrefix+claims.ID)
	switch {
	case err == nil:
		return nil, apperrors.NewUnauthorizedError("session has been signed out")
	case !errors.Is(err, kv.ErrNotFound):
		return nil, s.errHandler.LogAndReturn(ctx, apperrors.NewOperationFailedError(err, "check session"))
	}
	return claims, nil
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, _, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Token: token}, nil
}

func (s *AuthService) fail(ctx context.Context, operation string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return s.errHandler.LogAndReturn(ctx, apperrors.NewOperationFailedError(err, operation))
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
	"github.com/vladimiradmaev/eyecare-tracker/internal/store"
)

// UserRepository handles user profile documents, keyed by auth uid
type UserRepository struct {
	store store.DocumentStore
}

var _ domain.UserRepository = (*UserRepository)(nil)

func NewUserRepository(s store.DocumentStore) *UserRepository {
	return &UserRepository{store: s}
}

// Save creates or replaces the profile
func (r *UserRepository) Save(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		return apperrors.NewValidationError("user has no id")
	}
	if err := r.store.Put(ctx, domain.CollectionUsers, u.ID, u.Encode()); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	doc, err := r.store.Get(ctx, domain.CollectionUsers, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return domain.DecodeUser(doc.ID, doc.Data)
}

// CredentialRepository stores sign-in secrets keyed by normalized email
type CredentialRepository struct {
	store store.DocumentStore
}

var _ domain.CredentialRepository = (*CredentialRepository)(nil)

func NewCredentialRepository(s store.DocumentStore) *CredentialRepository {
	return &CredentialRepository{store: s}
}

// NormalizeEmail is the credential key form of an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores a new credential. It fails with a conflict when the email is
// already registered. The existence check and the write are not atomic.
func (r *CredentialRepository) Create(ctx context.Context, c *domain.Credential) error {
	key := NormalizeEmail(c.Email)
	_, err := r.store.Get(ctx, domain.CollectionCredentials, key)
	switch {
	case err == nil:
		return apperrors.ErrEmailTaken
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("failed to check credential: %w", err)
	}

	if err := r.store.Put(ctx, domain.CollectionCredentials, key, c.Encode()); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	c.Email = key
	return nil
}

func (r *CredentialRepository) Get(ctx context.Context, email string) (*domain.Credential, error) {
	key := NormalizeEmail(email)
	doc, err := r.store.Get(ctx, domain.CollectionCredentials, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("credential", key)
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return domain.DecodeCredential(doc.ID, doc.Data)
}

func (r *CredentialRepository) Delete(ctx context.Context, email string) error {
	key := NormalizeEmail(email)
	if err := r.store.Delete(ctx, domain.CollectionCredentials, key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NewNotFoundError("credential", key)
		}
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

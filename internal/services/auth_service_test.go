package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/eyecare-tracker/internal/auth"
	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
	"github.com/vladimiradmaev/eyecare-tracker/internal/kv"
	"github.com/vladimiradmaev/eyecare-tracker/internal/repository"
	"github.com/vladimiradmaev/eyecare-tracker/internal/store"
)

type authFixture struct {
	svc   *AuthService
	users *repository.UserRepository
	creds *repository.CredentialRepository
	mr    *miniredis.Miniredis
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	docs := store.NewMemoryStore()
	mr := miniredis.RunT(t)
	revoked := kv.NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	f := &authFixture{
		users: repository.NewUserRepository(docs),
		creds: repository.NewCredentialRepository(docs),
		mr:    mr,
	}
	f.svc = NewAuthService(f.users, f.creds, auth.NewTokenManager("test-secret", "eyecare-tracker", time.Hour), revoked, nil)
	return f
}

func TestAuthService_SignUpSignIn(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	session, err := f.svc.SignUp(ctx, "Anna Petrova", "Anna@Example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", session.User.Email)
	assert.NotEmpty(t, session.Token)

	stored, err := f.users.Get(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna Petrova", stored.Name)

	signedIn, err := f.svc.SignIn(ctx, "anna@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, signedIn.User.ID)

	claims, err := f.svc.Authenticate(ctx, signedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
}

func TestAuthService_SignUpValidation(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	tests := []struct {
		name, fullName, email, password string
	}{
		{"missing name", " ", "a@example.com", "longenough"},
		{"bad email", "Anna", "not-an-email", "longenough"},
		{"display name form", "Anna", "Anna <a@example.com>", "longenough"},
		{"slash in email", "Anna", "a/b@example.com", "longenough"},
		{"short password", "Anna", "a@example.com", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SignUp(ctx, tt.fullName, tt.email, tt.password)
			assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
		})
	}

	_, err := f.svc.SignUp(ctx, "Anna", "a@example.com", "longenough")
	require.NoError(t, err)
	_, err = f.svc.SignUp(ctx, "Other", "A@example.com", "longenough")
	assert.True(t, errors.Is(err, apperrors.ErrEmailTaken))
}

func TestAuthService_SignInRejects(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	_, err := f.svc.SignUp(ctx, "Anna", "anna@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = f.svc.SignIn(ctx, "anna@example.com", "wrong-pass")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = f.svc.SignIn(ctx, "nobody@example.com", "s3cret-pass")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAuthService_SignOutRevokes(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	session, err := f.svc.SignUp(ctx, "Anna", "anna@example.com", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, f.svc.SignOut(ctx, session.Token))

	_, err = f.svc.Authenticate(ctx, session.Token)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	// the revocation entry expires with the token
	keys := f.mr.Keys()
	require.Len(t, keys, 1)
	assert.InDelta(t, time.Hour.Seconds(), f.mr.TTL(keys[0]).Seconds(), 5)

	// other sessions of the same user stay valid
	again, err := f.svc.SignIn(ctx, "anna@example.com", "s3cret-pass")
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, again.Token)
	assert.NoError(t, err)
}

func TestAuthService_SignOutBackendFailure(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	session, err := f.svc.SignUp(ctx, "Anna", "anna@example.com", "s3cret-pass")
	require.NoError(t, err)

	f.mr.Close()

	err = f.svc.SignOut(ctx, session.Token)
	assert.True(t, errors.Is(err, apperrors.ErrOperationFailed))

	_, err = f.svc.Authenticate(ctx, session.Token)
	assert.True(t, errors.Is(err, apperrors.ErrOperationFailed))
}

func TestAuthService_SignOutInvalidToken(t *testing.T) {
	f := newAuthFixture(t)
	err := f.svc.SignOut(context.Background(), "garbage")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAuthService_SignUpRollsBackCredential(t *testing.T) {
	ctx := context.Background()
	docs := store.NewMemoryStore()
	creds := repository.NewCredentialRepository(docs)
	users := &MockUserRepository{
		SaveFunc: func(context.Context, *domain.User) error { return errors.New("write timeout") },
	}
	svc := NewAuthService(users, creds, auth.NewTokenManager("s", "i", time.Hour), kv.NewMemoryStore(), nil)

	_, err := svc.SignUp(ctx, "Anna", "anna@example.com", "s3cret-pass")
	assert.True(t, errors.Is(err, apperrors.ErrOperationFailed))

	_, err = creds.Get(ctx, "anna@example.com")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUserService_UpdateName(t *testing.T) {
	ctx := context.Background()
	users := repository.NewUserRepository(store.NewMemoryStore())
	require.NoError(t, users.Save(ctx, &domain.User{ID: "uid-1", Name: "Anna", Email: "anna@example.com"}))
	svc := NewUserService(users, nil)

	u, err := svc.UpdateName(ctx, "uid-1", "  Anna Petrova ")
	require.NoError(t, err)
	assert.Equal(t, "Anna Petrova", u.Name)
	assert.Equal(t, "AP", u.Initials())

	_, err = svc.UpdateName(ctx, "uid-1", "")
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))

	_, err = svc.GetProfile(ctx, "uid-2")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/eyecare-tracker/internal/kv"
	"github.com/vladimiradmaev/eyecare-tracker/internal/session"
)

func TestManager_GetDefaultsToFreshSession(t *testing.T) {
	m := NewManager(kv.NewMemoryStore())

	s, err := m.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, ChatSession{}, s)
	assert.Equal(t, session.ScreenOnboarding, session.Route(s.SessionState()))
}

func TestManager_SaveAndSetStep(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	m := NewManager(store)

	require.NoError(t, m.Save(ctx, 42, ChatSession{Onboarded: true, UserID: "uid-1", Token: "tok"}))
	require.NoError(t, m.SetStep(ctx, 42, WaitingForReminder))

	s, err := m.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, ChatSession{Onboarded: true, UserID: "uid-1", Token: "tok", Step: WaitingForReminder}, s)
	assert.Equal(t, session.ScreenAuthenticated, session.Route(s.SessionState()))

	other, err := m.Get(ctx, 43)
	require.NoError(t, err)
	assert.False(t, other.Onboarded)

	// a restarted process sees the same session
	s, err = NewManager(store).Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", s.UserID)
}

func TestChatSession_SignOutKeepsOnboarding(t *testing.T) {
	s := ChatSession{Onboarded: true, UserID: "uid-1", Token: "tok", Step: WaitingForToken}
	s.SignOut()
	assert.Equal(t, ChatSession{Onboarded: true}, s)
	assert.Equal(t, session.ScreenLogin, session.Route(s.SessionState()))
}

func TestManager_Clear(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kv.NewMemoryStore())
	require.NoError(t, m.Save(ctx, 42, ChatSession{Onboarded: true}))
	require.NoError(t, m.Clear(ctx, 42))

	s, err := m.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, s.Onboarded)
}

func TestManager_CorruptSession(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, sessionKey(42), "{not json", 0))

	_, err := NewManager(store).Get(ctx, 42)
	assert.Error(t, err)
}

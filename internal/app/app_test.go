package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/eyecare-tracker/internal/config"
	"github.com/vladimiradmaev/eyecare-tracker/internal/kv"
	"github.com/vladimiradmaev/eyecare-tracker/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		HTTP:        config.HTTPConfig{Address: "127.0.0.1:0", ReadTimeout: time.Second, WriteTimeout: time.Second},
		Auth:        config.AuthConfig{JWTIssuer: "eyecare-tracker", TokenTTL: time.Hour},
		Storage:     config.StorageConfig{Backend: config.BackendMemory},
		Reminder:    config.ReminderConfig{MinInterval: time.Minute},
	}
}

func TestBuild_ServesAPIWithoutBot(t *testing.T) {
	a, err := build(testConfig(), store.NewMemoryStore(), kv.NewMemoryStore())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	assert.Nil(t, a.bot)

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := `{"name":"Anna Petrova","email":"anna@example.com","password":"s3cret-pass"}`
	rec = httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body)))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestReminderChainsSurviveRestart(t *testing.T) {
	ctx := context.Background()
	docs, shared := store.NewMemoryStore(), kv.NewMemoryStore()

	first, err := build(testConfig(), docs, shared)
	require.NoError(t, err)
	_, err = first.Scheduler.Schedule(ctx, 42, "Тимолол", 8*time.Hour)
	require.NoError(t, err)
	first.Scheduler.Stop()

	second, err := build(testConfig(), docs, shared)
	require.NoError(t, err)
	t.Cleanup(second.Scheduler.Stop)

	restored, err := second.Scheduler.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, restored)
	require.Len(t, second.Scheduler.Active(42), 1)
	assert.Equal(t, "Тимолол", second.Scheduler.Active(42)[0].Medication)
}

func TestRun_StopsOnCancel(t *testing.T) {
	a, err := build(testConfig(), store.NewMemoryStore(), kv.NewMemoryStore())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

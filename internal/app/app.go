// Package app wires the stores, services and front ends into a running
// process.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/vladimiradmaev/eyecare-tracker/internal/api"
	"github.com/vladimiradmaev/eyecare-tracker/internal/auth"
	"github.com/vladimiradmaev/eyecare-tracker/internal/bot"
	"github.com/vladimiradmaev/eyecare-tracker/internal/bot/handlers"
	"github.com/vladimiradmaev/eyecare-tracker/internal/bot/state"
	"github.com/vladimiradmaev/eyecare-tracker/internal/config"
	"github.com/vladimiradmaev/eyecare-tracker/internal/database"
	"github.com/vladimiradmaev/eyecare-tracker/internal/database/migrations"
	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
	"github.com/vladimiradmaev/eyecare-tracker/internal/kv"
	"github.com/vladimiradmaev/eyecare-tracker/internal/logger"
	"github.com/vladimiradmaev/eyecare-tracker/internal/metrics"
	"github.com/vladimiradmaev/eyecare-tracker/internal/reminder"
	"github.com/vladimiradmaev/eyecare-tracker/internal/repository"
	"github.com/vladimiradmaev/eyecare-tracker/internal/services"
	"github.com/vladimiradmaev/eyecare-tracker/internal/store"
)

const (
	metricsNamespace = "eyecare"
	shutdownTimeout  = 10 * time.Second
)

// App is a fully wired process
type App struct {
	cfg       *config.Config
	docs      store.DocumentStore
	kv        kv.Store
	Metrics   *metrics.Collector
	Scheduler *reminder.Scheduler
	Handler   http.Handler
	bot       *bot.Bot
}

// New opens the backends and builds every service. Without a Telegram token
// the bot is disabled and due reminders are only logged.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	docs, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}
	kvStore, err := kv.Open(cfg.Redis)
	if err != nil {
		docs.Close()
		return nil, fmt.Errorf("failed to open key-value store: %w", err)
	}
	logger.Info("Storage opened", "backend", cfg.Storage.Backend, "redis", cfg.Redis.Enabled())

	return build(cfg, docs, kvStore)
}

func build(cfg *config.Config, docs store.DocumentStore, kvStore kv.Store) (*App, error) {
	a := &App{
		cfg:     cfg,
		docs:    docs,
		kv:      kvStore,
		Metrics: metrics.New(metricsNamespace),
	}
	errHandler := apperrors.NewHandler(logger.GetLogger())

	users := repository.NewUserRepository(docs)
	authSvc := services.NewAuthService(users, repository.NewCredentialRepository(docs),
		auth.NewTokenManager(cfg.SigningSecret(), cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL), kvStore, errHandler)
	glaucomaSvc := services.NewMeasurementService[*domain.GlaucomaMeasurement](
		repository.NewGlaucomaRepository(docs, a.Metrics), "glaucoma measurement", errHandler)
	retinaSvc := services.NewMeasurementService[*domain.RetinaInjectionMeasurement](
		repository.NewRetinaInjectionRepository(docs, a.Metrics), "retina injection measurement", errHandler)

	var botAPI *tgbotapi.BotAPI
	var notifier reminder.Notifier = logNotifier{}
	if cfg.TelegramToken != "" {
		var err error
		if botAPI, err = bot.NewAPI(cfg.TelegramToken); err != nil {
			return nil, err
		}
		notifier = bot.NewNotifier(botAPI)
	}
	a.Scheduler = reminder.NewScheduler(kvStore, notifier, cfg.Reminder.MinInterval, a.Metrics)

	if botAPI != nil {
		a.bot = bot.NewBot(botAPI, handlers.Dependencies{
			Auth:      authSvc,
			Glaucoma:  glaucomaSvc,
			Retina:    retinaSvc,
			Reminders: a.Scheduler,
		}, state.NewManager(kvStore))
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN is not set, the bot is disabled")
	}

	a.Handler = api.NewRouter(api.Services{
		Auth:     authSvc,
		Users:    services.NewUserService(users, errHandler),
		Glaucoma: glaucomaSvc,
		Retina:   retinaSvc,
	}, cfg.HTTP, a.Metrics).Setup()

	return a, nil
}

// Run serves until ctx is cancelled, then shuts everything down
func (a *App) Run(ctx context.Context) error {
	if _, err := a.Scheduler.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore reminders: %w", err)
	}

	server := &http.Server{
		Addr:         a.cfg.HTTP.Address,
		Handler:      a.Handler,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if a.bot != nil {
		g.Go(func() error {
			if err := a.bot.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("bot: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		a.Scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases the stores
func (a *App) Close() error {
	a.Scheduler.Stop()
	return errors.Join(a.kv.Close(), a.docs.Close())
}

// Migrate applies pending SQL migrations to the postgres backend
func Migrate(cfg *config.Config) ([]string, error) {
	db, err := database.Connect(cfg.DB.DSN())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	defer sqlDB.Close()

	m, err := migrations.New()
	if err != nil {
		return nil, err
	}
	pending, err := m.Pending(db)
	if err != nil {
		return nil, err
	}
	if err := m.Run(db); err != nil {
		return nil, err
	}
	return pending, nil
}

// logNotifier stands in for the bot when it is disabled
type logNotifier struct{}

func (logNotifier) NotifyReminder(_ context.Context, r reminder.Reminder) error {
	logger.Info("Reminder due", "chat_id", r.ChatID, "medication", r.Medication, "reminder_id", r.ID)
	return nil
}

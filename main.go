package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/vladimiradmaev/eyecare-tracker/internal/app"
	"github.com/vladimiradmaev/eyecare-tracker/internal/config"
	"github.com/vladimiradmaev/eyecare-tracker/internal/logger"
)

func main() {
	cmd := &cli.Command{
		Name:   "eyecare-tracker",
		Usage:  "Eye care patient tracker: HTTP API, Telegram bot and medication reminders",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file to load before reading the environment",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, the bot and the reminder scheduler",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply pending postgres migrations",
				Action: migrate,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the environment and initializes logging
func setup(cmd *cli.Command) (*config.Config, error) {
	if err := godotenv.Load(cmd.String("env-file")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s not loaded: %v\n", cmd.String("env-file"), err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()

	logger.Info("Starting eyecare tracker...", "environment", cfg.Environment)
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}

func migrate(_ context.Context, cmd *cli.Command) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()

	applied, err := app.Migrate(cfg)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Migrations complete", "applied", len(applied), "ids", applied)
	return nil
}

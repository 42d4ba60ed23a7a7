package database

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vladimiradmaev/eyecare-tracker/internal/config"
	"github.com/vladimiradmaev/eyecare-tracker/internal/database/migrations"
	"github.com/vladimiradmaev/eyecare-tracker/internal/logger"
)

// DocumentRecord is one document of any collection. The owner and visit date
// are lifted out of the body so history queries can use the index.
type DocumentRecord struct {
	Collection string         `gorm:"primaryKey;size:64"`
	ID         string         `gorm:"primaryKey;size:255"`
	UserID     *string        `gorm:"size:128"`
	Date       *time.Time     `gorm:"type:timestamptz"`
	Body       datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (DocumentRecord) TableName() string {
	return "documents"
}

// NewPostgresDB connects and brings the schema up to date
func NewPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	logger.Info("Database connection established and migrations completed")
	return db, nil
}

// Connect opens a connection without running migrations
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate runs the pending schema migrations
func Migrate(db *gorm.DB) error {
	migrator, err := migrations.New()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := migrator.Run(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

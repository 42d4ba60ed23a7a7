package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/vladimiradmaev/eyecare-tracker/internal/logger"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

// Migration represents a database migration
type Migration struct {
	ID   string
	Up   func(*gorm.DB) error
	Down func(*gorm.DB) error
}

// MigrationRecord represents a record of executed migrations
type MigrationRecord struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt int64  `gorm:"autoCreateTime"`
}

// Migrator runs registered migrations in id order, each at most once
type Migrator struct {
	migrations map[string]Migration
}

// New returns a migrator preloaded with the embedded SQL migrations
func New() (*Migrator, error) {
	m := &Migrator{migrations: make(map[string]Migration)}
	if err := m.LoadSQL(sqlFiles, "sql"); err != nil {
		return nil, err
	}
	return m, nil
}

// Register adds a new migration to the registry
func (m *Migrator) Register(id string, up, down func(*gorm.DB) error) {
	m.migrations[id] = Migration{
		ID:   id,
		Up:   up,
		Down: down,
	}
}

// IDs returns the registered migration ids in execution order
func (m *Migrator) IDs() []string {
	ids := make([]string, 0, len(m.migrations))
	for id := range m.migrations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadSQL registers every .sql file in dir as a migration named after the file
func (m *Migrator) LoadSQL(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".sql")
		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		statement := string(content)
		m.Register(id, func(db *gorm.DB) error {
			return db.Exec(statement).Error
		}, nil) // no down migration for SQL files
	}
	return nil
}

// Pending returns the ids that have not been executed yet
func (m *Migrator) Pending(db *gorm.DB) ([]string, error) {
	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var executed []MigrationRecord
	if err := db.Find(&executed).Error; err != nil {
		return nil, fmt.Errorf("failed to get executed migrations: %w", err)
	}
	done := make(map[string]bool, len(executed))
	for _, r := range executed {
		done[r.ID] = true
	}

	var pending []string
	for _, id := range m.IDs() {
		if !done[id] {
			pending = append(pending, id)
		}
	}
	return pending, nil
}

// Run executes all pending migrations
func (m *Migrator) Run(db *gorm.DB) error {
	pending, err := m.Pending(db)
	if err != nil {
		return err
	}

	for _, id := range pending {
		logger.Info("Running migration", "id", id)
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.migrations[id].Up(tx); err != nil {
				return fmt.Errorf("failed to run migration %s: %w", id, err)
			}
			if err := tx.Create(&MigrationRecord{ID: id}).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", id, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		logger.Info("Completed migration", "id", id)
	}
	return nil
}

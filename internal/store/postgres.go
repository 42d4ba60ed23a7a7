package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vladimiradmaev/eyecare-tracker/internal/config"
	"github.com/vladimiradmaev/eyecare-tracker/internal/database"
	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
)

// PostgresStore keeps documents as jsonb rows of a single table
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(cfg config.DBConfig) (*PostgresStore, error) {
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		return nil, err
	}
	return NewPostgresStoreWithDB(db), nil
}

func NewPostgresStoreWithDB(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func toRecord(collection, id string, data map[string]any) (*database.DocumentRecord, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	rec := &database.DocumentRecord{
		Collection: collection,
		ID:         id,
		Body:       datatypes.JSON(body),
	}
	if owner := documentOwner(data); owner != "" {
		rec.UserID = &owner
	}
	if date, ok := documentDate(data); ok {
		rec.Date = &date
	}
	return rec, nil
}

func fromRecord(rec *database.DocumentRecord) (Document, error) {
	data, err := domain.DecodeDocumentJSON(rec.Body)
	if err != nil {
		return Document{}, fmt.Errorf("failed to decode document %s: %w", rec.ID, err)
	}
	return Document{ID: rec.ID, Data: data}, nil
}

func (s *PostgresStore) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	rec, err := toRecord(collection, uuid.New().String(), data)
	if err != nil {
		return "", err
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	return rec.ID, nil
}

func (s *PostgresStore) Put(ctx context.Context, collection, id string, data map[string]any) error {
	rec, err := toRecord(collection, id, data)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "date", "body", "updated_at"}),
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, data map[string]any) error {
	rec, err := toRecord(collection, id, data)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Model(&database.DocumentRecord{}).
		Where("collection = ? AND id = ?", collection, id).
		Updates(map[string]any{
			"user_id": rec.UserID,
			"date":    rec.Date,
			"body":    rec.Body,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var rec database.DocumentRecord
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	doc, err := fromRecord(&rec)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *PostgresStore) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	tx := s.db.WithContext(ctx).Where("collection = ?", collection)
	if q.UserID != "" {
		tx = tx.Where("user_id = ?", q.UserID)
	}
	if q.From != nil {
		tx = tx.Where("date >= ?", *q.From)
	}
	if q.To != nil {
		tx = tx.Where("date <= ?", *q.To)
	}
	tx = tx.Order("date DESC NULLS LAST")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var recs []database.DocumentRecord
	if err := tx.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	docs := make([]Document, 0, len(recs))
	for i := range recs {
		doc, err := fromRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	result := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&database.DocumentRecord{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vladimiradmaev/eyecare-tracker/internal/config"
	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
)

// ErrNotFound is returned when a document does not exist
var ErrNotFound = errors.New("document not found")

// Document is a stored record together with its id
type Document struct {
	ID   string
	Data map[string]any
}

// Query selects documents of one owner, optionally bounded by an inclusive
// date range on the "date" key. Zero Limit means no limit.
type Query struct {
	UserID string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// DocumentStore is the document database contract shared by every backend.
// Ordering, retry and consistency semantics are those of the backend.
type DocumentStore interface {
	// Create stores data under a new backend-assigned id
	Create(ctx context.Context, collection string, data map[string]any) (string, error)
	// Put stores data under the given id, replacing any existing document
	Put(ctx context.Context, collection, id string, data map[string]any) error
	// Update replaces an existing document, ErrNotFound if there is none
	Update(ctx context.Context, collection, id string, data map[string]any) error
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Find returns the documents matching q, newest first
	Find(ctx context.Context, collection string, q Query) ([]Document, error)
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

// Open connects to the backend selected in the config
func Open(ctx context.Context, cfg *config.Config) (DocumentStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendFirestore:
		return NewFirestoreStore(ctx, cfg.Firestore)
	case config.BackendDynamoDB:
		return NewDynamoDBStore(ctx, cfg.DynamoDB)
	case config.BackendPostgres:
		return NewPostgresStore(cfg.DB)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// documentDate extracts the visit date used for range queries and ordering
func documentDate(data map[string]any) (time.Time, bool) {
	switch v := data[domain.KeyDate].(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		return t, err == nil
	default:
		return time.Time{}, false
	}
}

func documentOwner(data map[string]any) string {
	s, _ := data[domain.KeyUserID].(string)
	return s
}

// matches reports whether a document satisfies q
func (q Query) matches(data map[string]any) bool {
	if q.UserID != "" && documentOwner(data) != q.UserID {
		return false
	}
	if q.From == nil && q.To == nil {
		return true
	}
	date, ok := documentDate(data)
	if !ok {
		return false
	}
	if q.From != nil && date.Before(*q.From) {
		return false
	}
	if q.To != nil && date.After(*q.To) {
		return false
	}
	return true
}

// sortNewestFirst orders documents by date descending. Undated documents go last.
func sortNewestFirst(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		di, iok := documentDate(docs[i].Data)
		dj, jok := documentDate(docs[j].Data)
		if iok != jok {
			return iok
		}
		return di.After(dj)
	})
}

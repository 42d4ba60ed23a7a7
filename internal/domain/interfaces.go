package domain

import (
	"context"
	"time"
)

// Measurement is implemented by every stored visit record
type Measurement interface {
	RecordID() string
	SetRecordID(id string)
	OwnerID() string
	SetEdited(f Flag)
	Encode() map[string]any
}

func (m *GlaucomaMeasurement) RecordID() string      { return m.ID }
func (m *GlaucomaMeasurement) SetRecordID(id string) { m.ID = id }
func (m *GlaucomaMeasurement) OwnerID() string       { return m.UserID }
func (m *GlaucomaMeasurement) SetEdited(f Flag)      { m.Edited = f }

func (m *RetinaInjectionMeasurement) RecordID() string      { return m.ID }
func (m *RetinaInjectionMeasurement) SetRecordID(id string) { m.ID = id }
func (m *RetinaInjectionMeasurement) OwnerID() string       { return m.UserID }
func (m *RetinaInjectionMeasurement) SetEdited(f Flag)      { m.Edited = f }

// DateRange bounds a history query. Nil ends are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// MeasurementRepository persists one kind of measurement
type MeasurementRepository[T Measurement] interface {
	Create(ctx context.Context, m T) error
	Update(ctx context.Context, m T) error
	Get(ctx context.Context, id string) (T, error)
	ListByUser(ctx context.Context, userID string, r DateRange) ([]T, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository persists user profiles keyed by auth uid
type UserRepository interface {
	Save(ctx context.Context, u *User) error
	Get(ctx context.Context, id string) (*User, error)
}

// Credential is the sign-in secret for one email address
type Credential struct {
	Email        string
	UserID       string
	PasswordHash string
}

// CredentialRepository stores password hashes keyed by normalized email
type CredentialRepository interface {
	Create(ctx context.Context, c *Credential) error
	Get(ctx context.Context, email string) (*Credential, error)
	Delete(ctx context.Context, email string) error
}

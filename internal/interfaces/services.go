package interfaces

import (
	"context"
	"time"

	"github.com/vladimiradmaev/eyecare-tracker/internal/auth"
	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
	"github.com/vladimiradmaev/eyecare-tracker/internal/reminder"
	"github.com/vladimiradmaev/eyecare-tracker/internal/services"
)

// AuthServiceInterface defines the contract for sign-up, sign-in and sessions
type AuthServiceInterface interface {
	SignUp(ctx context.Context, name, email, password string) (*services.Session, error)
	SignIn(ctx context.Context, email, password string) (*services.Session, error)
	SignOut(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// UserServiceInterface defines the contract for profile operations
type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateName(ctx context.Context, userID, name string) (*domain.User, error)
}

// MeasurementServiceInterface defines the contract for one measurement kind
type MeasurementServiceInterface[T domain.Measurement] interface {
	Create(ctx context.Context, userID string, m T) error
	Get(ctx context.Context, userID, id string) (T, error)
	Update(ctx context.Context, userID string, m T) error
	List(ctx context.Context, userID string, r domain.DateRange) ([]T, error)
	Delete(ctx context.Context, userID, id string) error
}

type (
	GlaucomaServiceInterface = MeasurementServiceInterface[*domain.GlaucomaMeasurement]
	RetinaServiceInterface   = MeasurementServiceInterface[*domain.RetinaInjectionMeasurement]
)

// ReminderSchedulerInterface defines the contract for medication reminder chains
type ReminderSchedulerInterface interface {
	Schedule(ctx context.Context, chatID int64, medication string, interval time.Duration) (reminder.Reminder, error)
	Cancel(ctx context.Context, chatID int64, medication string) (bool, error)
	Active(chatID int64) []reminder.Reminder
}

var (
	_ AuthServiceInterface       = (*services.AuthService)(nil)
	_ UserServiceInterface       = (*services.UserService)(nil)
	_ GlaucomaServiceInterface   = (*services.GlaucomaService)(nil)
	_ RetinaServiceInterface     = (*services.RetinaService)(nil)
	_ ReminderSchedulerInterface = (*reminder.Scheduler)(nil)
)

// Package reminder runs medication-reminder chains. Each delivered reminder
// schedules the next one with the same interval and medication under a new
// id, so a chain repeats until it is cancelled.
package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
	"github.com/vladimiradmaev/eyecare-tracker/internal/kv"
	"github.com/vladimiradmaev/eyecare-tracker/internal/logger"
	"github.com/vladimiradmaev/eyecare-tracker/internal/metrics"
)

const keyPrefix = "reminder:"

// Reminder is one scheduled notification of a chain
type Reminder struct {
	ID         string        `json:"id"`
	ChatID     int64         `json:"chatId"`
	Medication string        `json:"medication"`
	Interval   time.Duration `json:"interval"`
	DueAt      time.Time     `json:"dueAt"`
}

// Notifier delivers a due reminder to its recipient
type Notifier interface {
	NotifyReminder(ctx context.Context, r Reminder) error
}

type timer interface {
	Stop() bool
}

type chain struct {
	current Reminder
	timer   timer
}

// Scheduler owns the armed timers. Each chain, identified by chat and
// medication, has at most one armed timer.
type Scheduler struct {
	store       kv.Store
	notifier    Notifier
	metrics     *metrics.Collector
	errHandler  *apperrors.Handler
	minInterval time.Duration

	now       func() time.Time
	afterFunc func(d time.Duration, f func()) timer

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	chains  map[string]*chain
	stopped bool
}

func NewScheduler(store kv.Store, notifier Notifier, minInterval time.Duration, m *metrics.Collector) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:       store,
		notifier:    notifier,
		metrics:     m,
		errHandler:  apperrors.NewHandler(logger.GetLogger()),
		minInterval: minInterval,
		now:         time.Now,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
		ctx:    ctx,
		cancel: cancel,
		chains: make(map[string]*chain),
	}
}

// normalizeMedication folds case and whitespace so "Eye drops" and
// "eye  drops" address the same chain
func normalizeMedication(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}

func chainKey(chatID int64, medication string) string {
	return keyPrefix + strconv.FormatInt(chatID, 10) + ":" + normalizeMedication(medication)
}

// LatestKey is where the id of the most recent reminder of a chain is kept
func LatestKey(chatID int64, medication string) string {
	return chainKey(chatID, medication) + ":latest"
}

func pendingKey(chatID int64, medication string) string {
	return chainKey(chatID, medication) + ":pending"
}

// Schedule starts a chain, replacing any chain for the same chat and medication
func (s *Scheduler) Schedule(ctx context.Context, chatID int64, medication string, interval time.Duration) (Reminder, error) {
	medication = strings.TrimSpace(medication)
	if medication == "" {
		return Reminder{}, apperrors.NewValidationError("medication name is required")
	}
	if interval < s.minInterval {
		return Reminder{}, apperrors.NewValidationError(fmt.Sprintf("interval must be at least %s", s.minInterval))
	}

	r := Reminder{
		ID:         uuid.New().String(),
		ChatID:     chatID,
		Medication: medication,
		Interval:   interval,
		DueAt:      s.now().Add(interval),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return Reminder{}, apperrors.NewValidationError("reminder scheduler is stopped")
	}
	if err := s.persist(ctx, r); err != nil {
		return Reminder{}, s.errHandler.LogAndReturn(ctx, apperrors.NewOperationFailedError(err, "schedule reminder"))
	}
	s.arm(r)

	logger.Info("Reminder chain scheduled", "chat_id", chatID, "medication", medication, "interval", interval.String(), "reminder_id", r.ID)
	return r, nil
}

// Cancel ends a chain. It reports whether a chain existed.
func (s *Scheduler) Cancel(ctx context.Context, chatID int64, medication string) (bool, error) {
	key := chainKey(chatID, medication)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, active := s.chains[key]
	if active {
		c.timer.Stop()
		delete(s.chains, key)
	}

	_, err := s.store.Get(ctx, pendingKey(chatID, medication))
	persisted := err == nil
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return active, s.errHandler.LogAndReturn(ctx, apperrors.NewOperationFailedError(err, "cancel reminder"))
	}

	for _, k := range []string{pendingKey(chatID, medication), LatestKey(chatID, medication)} {
		if err := s.store.Delete(ctx, k); err != nil {
			return active, s.errHandler.LogAndReturn(ctx, apperrors.NewOperationFailedError(err, "cancel reminder"))
		}
	}

	if active || persisted {
		logger.Info("Reminder chain cancelled", "chat_id", chatID, "medication", medication)
	}
	return active || persisted, nil
}

// LatestID returns the id of the most recent reminder of a chain
func (s *Scheduler) LatestID(ctx context.Context, chatID int64, medication string) (string, error) {
	id, err := s.store.Get(ctx, LatestKey(chatID, medication))
	if errors.Is(err, kv.ErrNotFound) {
		return "", apperrors.NewNotFoundError("reminder", chainKey(chatID, medication))
	}
	if err != nil {
		return "", apperrors.NewOperationFailedError(err, "read latest reminder")
	}
	return id, nil
}

// Active returns the armed reminders of a chat ordered by due time
func (s *Scheduler) Active(chatID int64) []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Reminder
	for _, c := range s.chains {
		if c.current.ChatID == chatID {
			out = append(out, c.current)
		}
	}
	sortByDue(out)
	return out
}

// Restore re-arms the chains persisted by a previous process. Overdue
// reminders fire immediately.
func (s *Scheduler) Restore(ctx context.Context) (int, error) {
	keys, err := s.store.Scan(ctx, keyPrefix)
	if err != nil {
		return 0, s.errHandler.LogAndReturn(ctx, apperrors.NewOperationFailedError(err, "restore reminders"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restored := 0
	for _, key := range keys {
		if !strings.HasSuffix(key, ":pending") {
			continue
		}
		raw, err := s.store.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, kv.ErrNotFound) {
				logger.Warn("Failed to read pending reminder", "key", key, "error", err)
			}
			continue
		}
		var r Reminder
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			logger.Warn("Skipping unreadable pending reminder", "key", key, "error", err)
			continue
		}
		if _, exists := s.chains[chainKey(r.ChatID, r.Medication)]; exists {
			continue
		}
		s.arm(r)
		restored++
	}

	logger.Info("Reminder chains restored", "count", restored)
	return restored, nil
}

// Stop disarms every timer. Persisted chains stay in the store for Restore.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for key, c := range s.chains {
		c.timer.Stop()
		delete(s.chains, key)
	}
	s.cancel()
}

// persist records r as the latest and pending reminder of its chain. Callers hold mu.
func (s *Scheduler) persist(ctx context.Context, r Reminder) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode reminder: %w", err)
	}
	if err := s.store.Set(ctx, pendingKey(r.ChatID, r.Medication), string(data), 0); err != nil {
		return err
	}
	return s.store.Set(ctx, LatestKey(r.ChatID, r.Medication), r.ID, 0)
}

// arm replaces the chain's timer with one firing at r.DueAt. Callers hold mu.
func (s *Scheduler) arm(r Reminder) {
	key := chainKey(r.ChatID, r.Medication)
	if old, ok := s.chains[key]; ok {
		old.timer.Stop()
	}

	delay := r.DueAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	s.chains[key] = &chain{
		current: r,
		timer:   s.afterFunc(delay, func() { s.deliver(r) }),
	}
}

// deliver notifies the recipient and schedules the next reminder of the chain
func (s *Scheduler) deliver(r Reminder) {
	key := chainKey(r.ChatID, r.Medication)
	if !s.isCurrent(key, r.ID) {
		return
	}

	ctx := s.ctx
	if err := s.notifier.NotifyReminder(ctx, r); err != nil {
		s.metrics.ReminderOutcome(metrics.ReminderFailed)
		s.errHandler.Handle(ctx, apperrors.NewOperationFailedError(err, "deliver reminder").
			WithContext("reminder_id", r.ID))
	} else {
		s.metrics.ReminderOutcome(metrics.ReminderDelivered)
	}

	next := Reminder{
		ID:         uuid.New().String(),
		ChatID:     r.ChatID,
		Medication: r.Medication,
		Interval:   r.Interval,
		DueAt:      s.now().Add(r.Interval),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// cancelled, replaced or stopped while the notification was in flight
	if s.stopped {
		return
	}
	if c, ok := s.chains[key]; !ok || c.current.ID != r.ID {
		return
	}

	if err := s.persist(ctx, next); err != nil {
		s.errHandler.Handle(ctx, apperrors.NewOperationFailedError(err, "reschedule reminder").
			WithContext("reminder_id", next.ID))
	}
	s.arm(next)
	logger.Debug("Reminder rescheduled", "chat_id", r.ChatID, "medication", r.Medication, "previous_id", r.ID, "reminder_id", next.ID)
}

func (s *Scheduler) isCurrent(key, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chains[key]
	return ok && !s.stopped && c.current.ID == id
}

func sortByDue(rs []Reminder) {
	sort.Slice(rs, func(i, j int) bool {
		return rs[i].DueAt.Before(rs[j].DueAt)
	})
}

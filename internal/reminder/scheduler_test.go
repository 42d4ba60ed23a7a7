package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
	"github.com/vladimiradmaev/eyecare-tracker/internal/kv"
	"github.com/vladimiradmaev/eyecare-tracker/internal/metrics"
)

type fakeTimer struct {
	delay   time.Duration
	fire    func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

// fakeClock arms timers without running them. Tests fire them explicitly.
type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
}

func (c *fakeClock) afterFunc(d time.Duration, f func()) timer {
	t := &fakeTimer{delay: d, fire: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) armed() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

type recordingNotifier struct {
	mu        sync.Mutex
	delivered []Reminder
	err       error
}

func (n *recordingNotifier) NotifyReminder(_ context.Context, r Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delivered = append(n.delivered, r)
	return n.err
}

// failingStore fails every write
type failingStore struct {
	kv.Store
}

func (failingStore) Set(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}

func newTestScheduler(t *testing.T, store kv.Store, n Notifier, m *metrics.Collector) (*Scheduler, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)}
	s := NewScheduler(store, n, time.Minute, m)
	s.now = func() time.Time { return clock.now }
	s.afterFunc = clock.afterFunc
	t.Cleanup(s.Stop)
	return s, clock
}

func TestScheduler_ScheduleRecordsLatest(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	s, clock := newTestScheduler(t, store, &recordingNotifier{}, nil)

	r, err := s.Schedule(ctx, 42, "Latanoprost", 12*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, clock.now.Add(12*time.Hour), r.DueAt)

	latest, err := s.LatestID(ctx, 42, "Latanoprost")
	require.NoError(t, err)
	assert.Equal(t, r.ID, latest)

	val, err := store.Get(ctx, "reminder:42:latanoprost:latest")
	require.NoError(t, err)
	assert.Equal(t, r.ID, val)

	armed := clock.armed()
	require.Len(t, armed, 1)
	assert.Equal(t, 12*time.Hour, armed[0].delay)
}

func TestScheduler_DeliveryReschedulesWithNewID(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	collector := metrics.New("test")
	s, clock := newTestScheduler(t, kv.NewMemoryStore(), notifier, collector)

	first, err := s.Schedule(ctx, 42, "Timolol", 8*time.Hour)
	require.NoError(t, err)

	seen := map[string]bool{first.ID: true}
	for i := 0; i < 3; i++ {
		armed := clock.armed()
		require.Len(t, armed, 1)
		clock.now = clock.now.Add(armed[0].delay)
		armed[0].fire()

		latest, err := s.LatestID(ctx, 42, "Timolol")
		require.NoError(t, err)
		assert.False(t, seen[latest], "reminder id reused")
		seen[latest] = true

		active := s.Active(42)
		require.Len(t, active, 1)
		assert.Equal(t, latest, active[0].ID)
		assert.Equal(t, "Timolol", active[0].Medication)
		assert.Equal(t, 8*time.Hour, active[0].Interval)
	}

	require.Len(t, notifier.delivered, 3)
	assert.Equal(t, first.ID, notifier.delivered[0].ID)
	for _, r := range notifier.delivered {
		assert.Equal(t, "Timolol", r.Medication)
		assert.Equal(t, 8*time.Hour, r.Interval)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(collector.Reminders.WithLabelValues(metrics.ReminderDelivered)))
}

func TestScheduler_DeliveryFailureKeepsChain(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{err: errors.New("telegram: chat not found")}
	collector := metrics.New("test")
	s, clock := newTestScheduler(t, kv.NewMemoryStore(), notifier, collector)

	first, err := s.Schedule(ctx, 7, "Brimonidine", time.Hour)
	require.NoError(t, err)

	clock.armed()[0].fire()

	latest, err := s.LatestID(ctx, 7, "Brimonidine")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, latest)
	assert.Len(t, clock.armed(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Reminders.WithLabelValues(metrics.ReminderFailed)))
}

func TestScheduler_CancelStopsChain(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	s, clock := newTestScheduler(t, kv.NewMemoryStore(), notifier, nil)

	_, err := s.Schedule(ctx, 42, "Latanoprost", time.Hour)
	require.NoError(t, err)
	timer := clock.armed()[0]

	existed, err := s.Cancel(ctx, 42, "latanoprost")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Empty(t, clock.armed())
	assert.Empty(t, s.Active(42))

	// a timer that already fired before cancellation must not deliver
	timer.fire()
	assert.Empty(t, notifier.delivered)
	assert.Empty(t, clock.armed())

	_, err = s.LatestID(ctx, 42, "Latanoprost")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	existed, err = s.Cancel(ctx, 42, "Latanoprost")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestScheduler_ScheduleReplacesSameMedication(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestScheduler(t, kv.NewMemoryStore(), &recordingNotifier{}, nil)

	_, err := s.Schedule(ctx, 42, "Eye drops", time.Hour)
	require.NoError(t, err)
	second, err := s.Schedule(ctx, 42, "eye  DROPS", 2*time.Hour)
	require.NoError(t, err)

	armed := clock.armed()
	require.Len(t, armed, 1)
	assert.Equal(t, 2*time.Hour, armed[0].delay)

	active := s.Active(42)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)
}

func TestScheduler_ScheduleValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, kv.NewMemoryStore(), &recordingNotifier{}, nil)

	_, err := s.Schedule(ctx, 1, "  ", time.Hour)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))

	_, err = s.Schedule(ctx, 1, "Timolol", 30*time.Second)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestScheduler_PersistFailureIsOperationFailed(t *testing.T) {
	s, clock := newTestScheduler(t, failingStore{Store: kv.NewMemoryStore()}, &recordingNotifier{}, nil)

	_, err := s.Schedule(context.Background(), 1, "Timolol", time.Hour)
	assert.True(t, errors.Is(err, apperrors.ErrOperationFailed))
	assert.Empty(t, clock.armed())
}

func TestScheduler_RestoreRearmsPersistedChains(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	before, clock := newTestScheduler(t, store, &recordingNotifier{}, nil)
	_, err := before.Schedule(ctx, 1, "Timolol", 6*time.Hour)
	require.NoError(t, err)
	_, err = before.Schedule(ctx, 2, "Aflibercept", 24*time.Hour)
	require.NoError(t, err)
	before.Stop()

	notifier := &recordingNotifier{}
	after, afterClock := newTestScheduler(t, store, notifier, nil)
	afterClock.now = clock.now.Add(7 * time.Hour)

	n, err := after.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	armed := afterClock.armed()
	require.Len(t, armed, 2)
	delays := map[time.Duration]bool{armed[0].delay: true, armed[1].delay: true}
	assert.True(t, delays[0], "overdue reminder fires immediately")
	assert.True(t, delays[17*time.Hour])

	require.Len(t, after.Active(1), 1)
	assert.Equal(t, "Timolol", after.Active(1)[0].Medication)
}

func TestScheduler_StopPreventsRescheduling(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	s, clock := newTestScheduler(t, kv.NewMemoryStore(), notifier, nil)

	_, err := s.Schedule(ctx, 1, "Timolol", time.Hour)
	require.NoError(t, err)
	timer := clock.armed()[0]

	s.Stop()
	timer.fire()
	assert.Empty(t, notifier.delivered)

	_, err = s.Schedule(ctx, 1, "Timolol", time.Hour)
	assert.Error(t, err)
}

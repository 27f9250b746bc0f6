package oplock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type breakCall struct {
	sessionID uint64
	nodeID    uuid.UUID
	level     Level
}

// fakeNotifier records notifications and optionally reacts to them.
type fakeNotifier struct {
	mu      sync.Mutex
	calls   []breakCall
	err     error
	onBreak func(sessionID uint64, nodeID uuid.UUID)
}

func (f *fakeNotifier) SendOplockBreak(sessionID uint64, nodeID uuid.UUID, newLevel Level) error {
	f.mu.Lock()
	f.calls = append(f.calls, breakCall{sessionID, nodeID, newLevel})
	onBreak, err := f.onBreak, f.err
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if onBreak != nil {
		onBreak(sessionID, nodeID)
	}
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type breakRecord struct {
	result string
	wait   time.Duration
}

// recordingMetrics captures oplock break outcomes.
type recordingMetrics struct {
	mu     sync.Mutex
	breaks []breakRecord
}

func (r *recordingMetrics) RecordRequest(string, string, time.Duration, string) {}
func (r *recordingMetrics) RecordRequestStart(string, string)                    {}
func (r *recordingMetrics) RecordRequestEnd(string, string)                      {}
func (r *recordingMetrics) RecordOplockBreak(result string, wait time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breaks = append(r.breaks, breakRecord{result, wait})
}

// ackingNotifier acknowledges every break from a separate goroutine, as a
// client answering over the wire would.
func ackingNotifier(m *Manager) *fakeNotifier {
	return &fakeNotifier{onBreak: func(sid uint64, id uuid.UUID) {
		go func() {
			_ = m.Acknowledge(id, sid, LevelNone)
		}()
	}}
}

func newTestManager(timeout time.Duration) *Manager {
	return NewManager(Config{BreakTimeout: timeout})
}

// ============================================================================
// Level Tests
// ============================================================================

func TestLevelString(t *testing.T) {
	assert.Equal(t, "None", LevelNone.String())
	assert.Equal(t, "LevelII", LevelII.String())
	assert.Equal(t, "Exclusive", LevelExclusive.String())
	assert.Equal(t, "Batch", LevelBatch.String())
	assert.Equal(t, "Level(0x42)", Level(0x42).String())
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"none": LevelNone, "ii": LevelII, "exclusive": LevelExclusive, "Batch": LevelBatch,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("lease")
	assert.Error(t, err)
}

func TestBreakResultString(t *testing.T) {
	assert.Equal(t, "none", BreakNone.String())
	assert.Equal(t, "acknowledged", BreakAcknowledged.String())
	assert.Equal(t, "timeout", BreakTimeout.String())
	assert.Equal(t, "notify_failed", BreakNotifyFailed.String())
	assert.Equal(t, "canceled", BreakCanceled.String())
}

func TestNewManagerDefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultBreakTimeout, NewManager(Config{}).BreakTimeout())
	assert.Equal(t, time.Second, NewManager(Config{BreakTimeout: time.Second}).BreakTimeout())
}

// ============================================================================
// Grant and Conflict Tests
// ============================================================================

func TestGrant(t *testing.T) {
	node := uuid.New()

	t.Run("ExclusiveBlocksOthers", func(t *testing.T) {
		m := newTestManager(time.Second)
		assert.Equal(t, LevelExclusive, m.Grant(node, 1, LevelExclusive))
		assert.Equal(t, LevelNone, m.Grant(node, 2, LevelExclusive))
		assert.Equal(t, LevelNone, m.Grant(node, 2, LevelII))
		assert.Equal(t, LevelExclusive, m.Level(node))
		assert.Equal(t, 1, m.Holders(node))
	})

	t.Run("LevelIICoexists", func(t *testing.T) {
		m := newTestManager(time.Second)
		assert.Equal(t, LevelII, m.Grant(node, 1, LevelII))
		assert.Equal(t, LevelII, m.Grant(node, 2, LevelII))
		assert.Equal(t, LevelNone, m.Grant(node, 3, LevelBatch))
		assert.Equal(t, 2, m.Holders(node))
	})

	t.Run("SameSessionUpgrades", func(t *testing.T) {
		m := newTestManager(time.Second)
		m.Grant(node, 1, LevelII)
		assert.Equal(t, LevelBatch, m.Grant(node, 1, LevelBatch))
		assert.Equal(t, LevelBatch, m.Level(node))
	})

	t.Run("NoneIsNotRecorded", func(t *testing.T) {
		m := newTestManager(time.Second)
		assert.Equal(t, LevelNone, m.Grant(node, 1, LevelNone))
		assert.Zero(t, m.Holders(node))
	})
}

func TestConflict(t *testing.T) {
	m := newTestManager(time.Second)
	node := uuid.New()

	assert.False(t, m.Conflict(node, 1))

	m.Grant(node, 1, LevelBatch)
	assert.False(t, m.Conflict(node, 1), "own oplock never conflicts")
	assert.True(t, m.Conflict(node, 2))

	m.Release(node, 1)
	assert.False(t, m.Conflict(node, 2))
	assert.False(t, m.Conflict(uuid.New(), 2))
}

// ============================================================================
// Break Tests
// ============================================================================

func TestBreakNothingHeld(t *testing.T) {
	m := newTestManager(time.Second)
	n := &fakeNotifier{}
	m.SetNotifier(n)

	assert.Equal(t, BreakNone, m.Break(context.Background(), uuid.New(), 1))
	assert.Zero(t, n.count())
}

func TestBreakOwnOplockUntouched(t *testing.T) {
	m := newTestManager(time.Second)
	node := uuid.New()
	m.Grant(node, 1, LevelExclusive)

	assert.Equal(t, BreakNone, m.Break(context.Background(), node, 1))
	assert.Equal(t, LevelExclusive, m.Level(node))
}

func TestBreakAcknowledged(t *testing.T) {
	m := newTestManager(5 * time.Second)
	rec := &recordingMetrics{}
	m.SetMetrics(rec)
	n := ackingNotifier(m)
	m.SetNotifier(n)

	node := uuid.New()
	m.Grant(node, 7, LevelBatch)

	result := m.Break(context.Background(), node, 1)

	assert.Equal(t, BreakAcknowledged, result)
	assert.False(t, m.Conflict(node, 1))
	assert.Equal(t, LevelNone, m.Level(node))
	require.Len(t, n.calls, 1)
	assert.Equal(t, breakCall{7, node, LevelNone}, n.calls[0])
	require.Len(t, rec.breaks, 1)
	assert.Equal(t, "acknowledged", rec.breaks[0].result)
}

func TestBreakCompletedByRelease(t *testing.T) {
	m := newTestManager(5 * time.Second)
	node := uuid.New()
	m.SetNotifier(&fakeNotifier{onBreak: func(sid uint64, id uuid.UUID) {
		go m.Release(id, sid)
	}})
	m.Grant(node, 7, LevelExclusive)

	assert.Equal(t, BreakAcknowledged, m.Break(context.Background(), node, 1))
	assert.Zero(t, m.Holders(node))
}

func TestBreakMultipleLevelIIHolders(t *testing.T) {
	m := newTestManager(5 * time.Second)
	n := ackingNotifier(m)
	m.SetNotifier(n)

	node := uuid.New()
	m.Grant(node, 1, LevelII)
	m.Grant(node, 2, LevelII)
	m.Grant(node, 3, LevelII)

	assert.Equal(t, BreakAcknowledged, m.Break(context.Background(), node, 1))
	assert.Equal(t, 2, n.count())
	assert.Equal(t, 1, m.Holders(node))
	assert.Equal(t, LevelII, m.Level(node))
}

func TestBreakTimeoutRevokes(t *testing.T) {
	m := newTestManager(20 * time.Millisecond)
	rec := &recordingMetrics{}
	m.SetMetrics(rec)
	m.SetNotifier(&fakeNotifier{})

	node := uuid.New()
	m.Grant(node, 7, LevelBatch)

	start := time.Now()
	result := m.Break(context.Background(), node, 1)

	assert.Equal(t, BreakTimeout, result)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.False(t, m.Conflict(node, 1))
	require.Len(t, rec.breaks, 1)
	assert.Equal(t, "timeout", rec.breaks[0].result)

	assert.ErrorIs(t, m.Acknowledge(node, 7, LevelNone), ErrNoOplock)
}

func TestBreakNotifyFailure(t *testing.T) {
	m := newTestManager(time.Second)
	m.SetNotifier(&fakeNotifier{err: errors.New("connection reset")})

	node := uuid.New()
	m.Grant(node, 7, LevelExclusive)

	start := time.Now()
	assert.Equal(t, BreakNotifyFailed, m.Break(context.Background(), node, 1))
	assert.Less(t, time.Since(start), time.Second, "failed notification must not wait")
	assert.Zero(t, m.Holders(node))
}

func TestBreakWithoutNotifier(t *testing.T) {
	m := newTestManager(time.Second)
	node := uuid.New()
	m.Grant(node, 7, LevelExclusive)

	assert.Equal(t, BreakNotifyFailed, m.Break(context.Background(), node, 1))
	assert.Zero(t, m.Holders(node))
}

func TestBreakCanceled(t *testing.T) {
	m := newTestManager(time.Minute)
	m.SetNotifier(&fakeNotifier{})
	node := uuid.New()
	m.Grant(node, 7, LevelExclusive)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	assert.Equal(t, BreakCanceled, m.Break(ctx, node, 1))
	assert.Zero(t, m.Holders(node))
}

func TestConcurrentBreaksNotifyOnce(t *testing.T) {
	m := newTestManager(5 * time.Second)
	node := uuid.New()

	notified := make(chan struct{})
	n := &fakeNotifier{onBreak: func(uint64, uuid.UUID) { close(notified) }}
	m.SetNotifier(n)
	m.Grant(node, 7, LevelBatch)

	results := make(chan BreakResult, 2)
	go func() { results <- m.Break(context.Background(), node, 1) }()
	<-notified
	go func() { results <- m.Break(context.Background(), node, 2) }()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, m.Acknowledge(node, 7, LevelNone))

	for i := 0; i < 2; i++ {
		select {
		case r := <-results:
			assert.Contains(t, []BreakResult{BreakAcknowledged, BreakNone}, r)
		case <-time.After(2 * time.Second):
			t.Fatal("break did not complete")
		}
	}
	assert.Equal(t, 1, n.count())
}

func TestGrantDeniedWhileBreaking(t *testing.T) {
	m := newTestManager(5 * time.Second)
	node := uuid.New()

	notified := make(chan struct{})
	m.SetNotifier(&fakeNotifier{onBreak: func(uint64, uuid.UUID) { close(notified) }})
	m.Grant(node, 7, LevelII)

	done := make(chan BreakResult, 1)
	go func() { done <- m.Break(context.Background(), node, 1) }()
	<-notified

	assert.Equal(t, LevelNone, m.Grant(node, 7, LevelBatch))
	m.Release(node, 7)
	assert.Equal(t, BreakAcknowledged, <-done)
}

// ============================================================================
// Acknowledge Tests
// ============================================================================

func TestAcknowledgeErrors(t *testing.T) {
	m := newTestManager(time.Second)
	node := uuid.New()

	assert.ErrorIs(t, m.Acknowledge(node, 7, LevelNone), ErrNoOplock)

	m.Grant(node, 7, LevelExclusive)
	assert.ErrorIs(t, m.Acknowledge(node, 8, LevelNone), ErrNoOplock)
	assert.ErrorIs(t, m.Acknowledge(node, 7, LevelNone), ErrNoBreakPending)

	notified := make(chan struct{})
	m.SetNotifier(&fakeNotifier{onBreak: func(uint64, uuid.UUID) { close(notified) }})
	done := make(chan BreakResult, 1)
	go func() { done <- m.Break(context.Background(), node, 1) }()
	<-notified

	assert.ErrorIs(t, m.Acknowledge(node, 7, LevelII), ErrInvalidAckLevel)
	require.NoError(t, m.Acknowledge(node, 7, LevelNone))
	assert.Equal(t, BreakAcknowledged, <-done)
}

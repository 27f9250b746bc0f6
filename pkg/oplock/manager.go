package oplock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/dittosmb/internal/logger"
	"github.com/marmos91/dittosmb/pkg/metrics"
)

// pendingBreak is closed once the holder acknowledges, releases or is
// revoked.
type pendingBreak struct {
	done chan struct{}
}

// nodeState tracks the oplocks held on one node.
type nodeState struct {
	holders map[uint64]Level
	pending map[uint64]*pendingBreak
}

// Manager tracks oplocks per node and performs blocking breaks.
type Manager struct {
	mu      sync.Mutex
	nodes   map[uuid.UUID]*nodeState
	notify  BreakNotifier
	metrics metrics.SMBMetrics
	timeout time.Duration
}

// NewManager creates a manager. A zero BreakTimeout uses
// DefaultBreakTimeout.
func NewManager(cfg Config) *Manager {
	timeout := cfg.BreakTimeout
	if timeout <= 0 {
		timeout = DefaultBreakTimeout
	}
	return &Manager{
		nodes:   make(map[uuid.UUID]*nodeState),
		timeout: timeout,
	}
}

// SetNotifier sets the callback used to deliver break notifications.
func (m *Manager) SetNotifier(n BreakNotifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notify = n
}

// SetMetrics sets the metrics sink for break outcomes. nil disables it.
func (m *Manager) SetMetrics(sm metrics.SMBMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = sm
}

// BreakTimeout returns the configured acknowledgment timeout.
func (m *Manager) BreakTimeout() time.Duration {
	return m.timeout
}

// Grant requests an oplock for sessionID on nodeID and returns the level
// actually granted. Level II coexists with other Level II holders; any
// other combination with a different session is granted LevelNone. The
// caller may Break and retry.
func (m *Manager) Grant(nodeID uuid.UUID, sessionID uint64, requested Level) Level {
	if requested == LevelNone {
		return LevelNone
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.nodes[nodeID]
	if st == nil {
		st = &nodeState{
			holders: make(map[uint64]Level),
			pending: make(map[uint64]*pendingBreak),
		}
		m.nodes[nodeID] = st
	}

	for sid, lvl := range st.holders {
		if sid == sessionID {
			continue
		}
		if lvl != LevelII || requested != LevelII {
			logger.Debug("Oplock: grant denied",
				logger.KeyNodeID, nodeID.String(),
				logger.KeySessionID, sessionID,
				"holder", sid,
				logger.KeyOplockLevel, lvl.String())
			m.gcLocked(nodeID, st)
			return LevelNone
		}
	}
	if _, breaking := st.pending[sessionID]; breaking {
		return LevelNone
	}

	st.holders[sessionID] = requested
	logger.Debug("Oplock: granted",
		logger.KeyNodeID, nodeID.String(),
		logger.KeySessionID, sessionID,
		logger.KeyOplockLevel, requested.String())
	return requested
}

// Conflict reports whether a session other than sessionID holds an oplock
// on nodeID. Any such oplock conflicts with a metadata change since the
// holder may have cached the old attributes.
func (m *Manager) Conflict(nodeID uuid.UUID, sessionID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.nodes[nodeID]
	if st == nil {
		return false
	}
	for sid := range st.holders {
		if sid != sessionID {
			return true
		}
	}
	return false
}

type breakTarget struct {
	sessionID uint64
	level     Level
	pb        *pendingBreak
	initiate  bool
}

// Break breaks every oplock on nodeID held by a session other than
// sessionID down to LevelNone and waits until each holder has
// acknowledged, released or been revoked. Holders that do not answer
// within the break timeout are revoked. Break joins a break already in
// progress rather than notifying the holder twice.
func (m *Manager) Break(ctx context.Context, nodeID uuid.UUID, sessionID uint64) BreakResult {
	start := time.Now()

	m.mu.Lock()
	notify, sink := m.notify, m.metrics
	var targets []breakTarget
	if st := m.nodes[nodeID]; st != nil {
		for sid, lvl := range st.holders {
			if sid == sessionID {
				continue
			}
			t := breakTarget{sessionID: sid, level: lvl, pb: st.pending[sid]}
			if t.pb == nil {
				t.pb = &pendingBreak{done: make(chan struct{})}
				t.initiate = true
				st.pending[sid] = t.pb
			}
			targets = append(targets, t)
		}
	}
	m.mu.Unlock()

	if len(targets) == 0 {
		return BreakNone
	}

	result := BreakAcknowledged
	waiting := targets[:0]
	for _, t := range targets {
		if !t.initiate {
			waiting = append(waiting, t)
			continue
		}

		logger.DebugCtx(ctx, "Oplock: initiating break",
			logger.KeyNodeID, nodeID.String(),
			logger.KeySessionID, t.sessionID,
			logger.KeyOplockLevel, t.level.String())

		err := errNoNotifier
		if notify != nil {
			err = notify.SendOplockBreak(t.sessionID, nodeID, LevelNone)
		}
		if err != nil {
			logger.WarnCtx(ctx, "Oplock: failed to send break notification",
				logger.KeyNodeID, nodeID.String(),
				logger.KeySessionID, t.sessionID,
				logger.KeyError, err)
			m.revoke(nodeID, t.sessionID, t.pb)
			result = max(result, BreakNotifyFailed)
			continue
		}
		waiting = append(waiting, t)
	}

	waitCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	for _, t := range waiting {
		select {
		case <-t.pb.done:
		case <-waitCtx.Done():
			outcome := BreakTimeout
			if ctx.Err() != nil {
				outcome = BreakCanceled
			}
			logger.WarnCtx(ctx, "Oplock: break not acknowledged, revoking",
				logger.KeyNodeID, nodeID.String(),
				logger.KeySessionID, t.sessionID,
				logger.KeyBreakResult, outcome.String())
			m.revoke(nodeID, t.sessionID, t.pb)
			result = max(result, outcome)
		}
	}

	elapsed := time.Since(start)
	if sink != nil {
		sink.RecordOplockBreak(result.String(), elapsed)
	}
	logger.DebugCtx(ctx, "Oplock: break complete",
		logger.KeyNodeID, nodeID.String(),
		logger.KeyBreakResult, result.String(),
		logger.KeyDurationMs, float64(elapsed.Microseconds())/1000.0)
	return result
}

// Acknowledge records a holder's answer to a break. Breaks always target
// LevelNone, so any other level is rejected.
func (m *Manager) Acknowledge(nodeID uuid.UUID, sessionID uint64, newLevel Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.nodes[nodeID]
	if st == nil {
		return ErrNoOplock
	}
	if _, held := st.holders[sessionID]; !held {
		return ErrNoOplock
	}
	pb := st.pending[sessionID]
	if pb == nil {
		return ErrNoBreakPending
	}
	if newLevel != LevelNone {
		return fmt.Errorf("%w: got %s, expected %s", ErrInvalidAckLevel, newLevel, LevelNone)
	}

	m.dropLocked(nodeID, st, sessionID)
	logger.Debug("Oplock: break acknowledged",
		logger.KeyNodeID, nodeID.String(),
		logger.KeySessionID, sessionID)
	return nil
}

// Release drops sessionID's oplock on nodeID, for example on close. A
// release during a break completes the break for that holder.
func (m *Manager) Release(nodeID uuid.UUID, sessionID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st := m.nodes[nodeID]; st != nil {
		m.dropLocked(nodeID, st, sessionID)
	}
}

// Level returns the strongest oplock held on nodeID.
func (m *Manager) Level(nodeID uuid.UUID) Level {
	m.mu.Lock()
	defer m.mu.Unlock()

	best := LevelNone
	if st := m.nodes[nodeID]; st != nil {
		for _, lvl := range st.holders {
			best = max(best, lvl)
		}
	}
	return best
}

// Holders returns the number of sessions holding an oplock on nodeID.
func (m *Manager) Holders(nodeID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st := m.nodes[nodeID]; st != nil {
		return len(st.holders)
	}
	return 0
}

// revoke drops a holder whose break failed or timed out. It is a no-op if
// the holder already answered.
func (m *Manager) revoke(nodeID uuid.UUID, sessionID uint64, pb *pendingBreak) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.nodes[nodeID]
	if st == nil || st.pending[sessionID] != pb {
		return
	}
	m.dropLocked(nodeID, st, sessionID)
}

// dropLocked removes a holder and completes its pending break.
// Must be called with m.mu held.
func (m *Manager) dropLocked(nodeID uuid.UUID, st *nodeState, sessionID uint64) {
	delete(st.holders, sessionID)
	if pb := st.pending[sessionID]; pb != nil {
		delete(st.pending, sessionID)
		close(pb.done)
	}
	m.gcLocked(nodeID, st)
}

func (m *Manager) gcLocked(nodeID uuid.UUID, st *nodeState) {
	if len(st.holders) == 0 && len(st.pending) == 0 {
		delete(m.nodes, nodeID)
	}
}

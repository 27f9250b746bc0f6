// Package oplock arbitrates opportunistic locks held by SMB sessions on
// metadata nodes.
//
// An oplock lets a client cache file state locally. Before the server
// changes state a holder may have cached, it breaks the holder's oplock:
// the holder is notified, given the break timeout to acknowledge, and
// then loses the oplock whether it answered or not.
//
// Levels follow [MS-CIFS] 2.2.4.64 / [MS-SMB2] 2.2.14: Level II is shared
// read caching and may be held by several sessions at once; Exclusive and
// Batch are held by a single session.
package oplock

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Level is an oplock level as carried on the wire.
type Level uint8

const (
	LevelNone      Level = 0x00
	LevelII        Level = 0x01
	LevelExclusive Level = 0x08
	LevelBatch     Level = 0x09
)

// String returns the level name used in logs.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "None"
	case LevelII:
		return "LevelII"
	case LevelExclusive:
		return "Exclusive"
	case LevelBatch:
		return "Batch"
	default:
		return fmt.Sprintf("Level(0x%02X)", uint8(l))
	}
}

// ParseLevel parses a level name as accepted in configuration and flags.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "none", "None":
		return LevelNone, nil
	case "ii", "II", "level2", "LevelII":
		return LevelII, nil
	case "exclusive", "Exclusive":
		return LevelExclusive, nil
	case "batch", "Batch":
		return LevelBatch, nil
	}
	return LevelNone, fmt.Errorf("unknown oplock level %q", s)
}

// BreakResult is the outcome of a Break call. When several holders were
// broken the worst outcome is reported.
type BreakResult int

const (
	// BreakNone means there was nothing to break.
	BreakNone BreakResult = iota
	// BreakAcknowledged means every holder acknowledged or released.
	BreakAcknowledged
	// BreakTimeout means at least one holder was revoked after the timeout.
	BreakTimeout
	// BreakNotifyFailed means a holder could not be notified and was revoked.
	BreakNotifyFailed
	// BreakCanceled means the caller's context ended first.
	BreakCanceled
)

// String returns the outcome label used in logs and metrics.
func (r BreakResult) String() string {
	switch r {
	case BreakNone:
		return "none"
	case BreakAcknowledged:
		return "acknowledged"
	case BreakTimeout:
		return "timeout"
	case BreakNotifyFailed:
		return "notify_failed"
	case BreakCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("BreakResult(%d)", int(r))
	}
}

// DefaultBreakTimeout is the Windows default wait for a break acknowledgment.
const DefaultBreakTimeout = 35 * time.Second

// Config configures a Manager.
type Config struct {
	// BreakTimeout bounds how long Break waits for each acknowledgment.
	BreakTimeout time.Duration `mapstructure:"break_timeout" yaml:"break_timeout" validate:"gte=0"`
}

// BreakNotifier delivers break notifications to the holding session.
type BreakNotifier interface {
	// SendOplockBreak asks sessionID to drop its oplock on nodeID down to
	// newLevel. It must not block on the acknowledgment.
	SendOplockBreak(sessionID uint64, nodeID uuid.UUID, newLevel Level) error
}

var (
	// ErrNoOplock is returned when acknowledging an oplock that is not held.
	ErrNoOplock = errors.New("oplock: no oplock held")

	// ErrNoBreakPending is returned when acknowledging without a break.
	ErrNoBreakPending = errors.New("oplock: no break pending")

	// ErrInvalidAckLevel is returned when an acknowledgment keeps a higher
	// level than the break asked for.
	ErrInvalidAckLevel = errors.New("oplock: invalid acknowledgment level")

	errNoNotifier = errors.New("oplock: no break notifier configured")
)

// Package handlers provides SMB1 command handlers.
//
// Handlers receive an immutable SMBHandlerContext describing the session,
// tree and principal of one request, and talk to the node store and the
// oplock arbiter only through the NodeService and OplockArbiter
// interfaces.
package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittosmb/pkg/bufpool"
	"github.com/marmos91/dittosmb/pkg/metadata"
	"github.com/marmos91/dittosmb/pkg/metrics"
	"github.com/marmos91/dittosmb/pkg/oplock"
)

// NodeService is the subset of the node store used by SMB1 handlers.
// *metadata.NodeStore implements it.
type NodeService interface {
	ResolvePath(ctx context.Context, ident *metadata.Identity, root, cwd metadata.Handle, path string) (metadata.Handle, string, error)
	Lookup(ctx context.Context, ident *metadata.Identity, dir metadata.Handle, name string, follow bool) (metadata.Handle, error)
	SetDosAttributes(h metadata.Handle, attrs uint32)
	SetModifyTime(h metadata.Handle, mtime time.Time)
	CommitAttributes(ctx context.Context, ident *metadata.Identity, h metadata.Handle) error
}

// OplockArbiter decides whether a request must break another session's
// oplock before it proceeds. *oplock.Manager implements it.
type OplockArbiter interface {
	Conflict(nodeID uuid.UUID, sessionID uint64) bool
	Break(ctx context.Context, nodeID uuid.UUID, sessionID uint64) oplock.BreakResult
}

var (
	_ NodeService   = (*metadata.NodeStore)(nil)
	_ OplockArbiter = (*oplock.Manager)(nil)
)

// Handler manages SMB1 protocol handling.
type Handler struct {
	Store   NodeService
	Oplocks OplockArbiter

	// Metrics may be nil.
	Metrics metrics.SMBMetrics

	// Buffers supplies scratch memory for decoded path strings.
	Buffers *bufpool.Pool

	StartTime time.Time
}

// NewHandler creates a Handler using the global buffer pool. oplocks and m
// may be nil.
func NewHandler(store NodeService, oplocks OplockArbiter, m metrics.SMBMetrics) *Handler {
	return &Handler{
		Store:     store,
		Oplocks:   oplocks,
		Metrics:   m,
		Buffers:   bufpool.Default(),
		StartTime: time.Now(),
	}
}

func (h *Handler) buffers() *bufpool.Pool {
	if h.Buffers == nil {
		return bufpool.Default()
	}
	return h.Buffers
}

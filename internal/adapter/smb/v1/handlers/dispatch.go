package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/dittosmb/internal/adapter/smb/header"
	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
	"github.com/marmos91/dittosmb/internal/logger"
	"github.com/marmos91/dittosmb/pkg/metadata"
	"github.com/marmos91/dittosmb/pkg/registry"
)

// Result is the outcome of one dispatched command.
type Result struct {
	Status   types.Status
	DosError types.DosError
	Body     []byte
}

func errorResult(m ErrorMapping) *Result {
	body, _ := encodeEmpty()
	return &Result{Status: m.Status, DosError: m.DosError, Body: body}
}

// Dispatch runs the handler registered for cmd. Commands without a
// handler get STATUS_NOT_SUPPORTED.
func (h *Handler) Dispatch(hc *SMBHandlerContext, cmd types.Command, body []byte) *Result {
	switch cmd {
	case types.SMBComSetInformation:
		resp, err := h.SetInformation(hc, body)
		if err != nil {
			logger.Warn("SET_INFORMATION handler error", logger.Err(err))
			return errorResult(mappingInternal)
		}
		out, err := resp.Encode()
		if err != nil {
			logger.Warn("SET_INFORMATION encode failed", logger.Err(err))
			return errorResult(mappingInternal)
		}
		return &Result{Status: resp.Status, DosError: resp.DosError, Body: out}
	default:
		logger.Debug("unsupported SMB1 command", logger.Command(cmd.String()))
		return errorResult(mappingNotSupported)
	}
}

// ============================================================================
// Sessions
// ============================================================================

// SessionTable maps SMB1 UIDs to the principals they authenticated as.
type SessionTable struct {
	mu       sync.RWMutex
	sessions map[uint16]*metadata.Identity
}

// NewSessionTable creates an empty table.
func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[uint16]*metadata.Identity)}
}

// Add binds uid to ident, replacing any previous binding.
func (t *SessionTable) Add(uid uint16, ident *metadata.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[uid] = ident
}

// Remove drops uid.
func (t *SessionTable) Remove(uid uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, uid)
}

// Identity returns the principal bound to uid.
func (t *SessionTable) Identity(uid uint16) (*metadata.Identity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ident, ok := t.sessions[uid]
	return ident, ok
}

// ============================================================================
// Message Handling
// ============================================================================

// Conn is the per-connection state needed to route SMB1 requests.
type Conn struct {
	ClientAddr string
	Location   *time.Location
	Registry   *registry.Registry
	Sessions   *SessionTable
}

// HandleMessage processes one SMB1 message (header plus command body) and
// returns the encoded reply. An error means the message could not be
// parsed at all and no reply can be built.
func (h *Handler) HandleMessage(ctx context.Context, conn *Conn, msg []byte) ([]byte, error) {
	hdr, err := header.Parse(msg)
	if err != nil {
		return nil, fmt.Errorf("parse SMB1 header: %w", err)
	}
	if hdr.IsReply() {
		return nil, fmt.Errorf("unexpected SMB1 reply for %s", hdr.Command)
	}

	reply := hdr.Reply()
	res := h.route(ctx, conn, hdr, msg[header.HeaderSize:])
	reply.SetError(res.Status, res.DosError)

	out := reply.Encode()
	return append(out, res.Body...), nil
}

func (h *Handler) route(ctx context.Context, conn *Conn, hdr *header.SMB1Header, body []byte) *Result {
	ident, ok := conn.Sessions.Identity(hdr.UID)
	if !ok {
		logger.Debug("SMB1 request on unknown session",
			logger.ClientIP(conn.ClientAddr),
			logger.SessionID(uint64(hdr.UID)))
		return errorResult(ErrorMapping{types.StatusSMBBadUID, srv(types.ErrSrvBadUID)})
	}

	tree, ok := conn.Registry.GetTree(hdr.TID)
	if !ok {
		logger.Debug("SMB1 request on unknown tree",
			logger.ClientIP(conn.ClientAddr),
			logger.TreeID(hdr.TID))
		return errorResult(ErrorMapping{types.StatusSMBBadTID, srv(types.ErrSrvInvalidTID)})
	}

	hc := NewSMBHandlerContext(ctx, conn.ClientAddr, uint64(hdr.UID), hdr.TID, hdr.MID).
		WithTree(tree).
		WithIdentity(ident).
		WithUnicode(hdr.IsUnicode())
	if conn.Location != nil {
		hc = hc.WithLocation(conn.Location)
	}
	return h.Dispatch(hc, hdr.Command, body)
}

package handlers

import (
	"context"
	"time"

	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
	"github.com/marmos91/dittosmb/internal/logger"
	"github.com/marmos91/dittosmb/pkg/metadata"
	"github.com/marmos91/dittosmb/pkg/registry"
)

// ShareInfo describes the tree a request was sent on.
type ShareInfo struct {
	Name     string
	Type     types.ShareType
	ReadOnly bool
}

// SMBHandlerContext carries per-request state through SMB1 handlers.
// It is built by the dispatch layer for each request and never modified
// by a handler; the With* helpers return copies.
type SMBHandlerContext struct {
	// Context for cancellation and deadlines
	Context context.Context

	// ClientAddr is the remote address of the client
	ClientAddr string

	// SessionID is the SMB1 UID of the request
	SessionID uint64

	// TreeID is the SMB1 TID of the request
	TreeID uint16

	// MessageID is the SMB1 MID of the request
	MessageID uint16

	// Identity is the principal the request runs as
	Identity *metadata.Identity

	Share ShareInfo

	// Root and Cwd are borrowed from the tree connection. Handlers
	// must not release them. Both are nil on non-disk shares.
	Root metadata.Handle
	Cwd  metadata.Handle

	// Location is the connection's time zone, used for UTIME values
	Location *time.Location

	// Unicode is set when the header carried FLAGS2_UNICODE
	Unicode bool
}

// NewSMBHandlerContext creates a handler context from header identifiers.
// Tree and identity fields are filled in by WithTree and WithIdentity.
func NewSMBHandlerContext(ctx context.Context, clientAddr string, sessionID uint64, treeID uint16, messageID uint16) *SMBHandlerContext {
	return &SMBHandlerContext{
		Context:    ctx,
		ClientAddr: clientAddr,
		SessionID:  sessionID,
		TreeID:     treeID,
		MessageID:  messageID,
		Location:   time.Local,
	}
}

// WithTree returns a copy bound to a tree connection.
func (c *SMBHandlerContext) WithTree(tree *registry.Tree) *SMBHandlerContext {
	n := *c
	n.TreeID = tree.ID
	n.Share = ShareInfo{
		Name:     tree.Share.Name,
		Type:     tree.Share.Type,
		ReadOnly: tree.Share.ReadOnly,
	}
	n.Root = tree.Root
	n.Cwd = tree.Cwd
	return &n
}

// WithIdentity returns a copy running as ident.
func (c *SMBHandlerContext) WithIdentity(ident *metadata.Identity) *SMBHandlerContext {
	n := *c
	n.Identity = ident
	return &n
}

// WithLocation returns a copy using loc for local time conversion.
func (c *SMBHandlerContext) WithLocation(loc *time.Location) *SMBHandlerContext {
	n := *c
	n.Location = loc
	return &n
}

// WithUnicode returns a copy with the string encoding set.
func (c *SMBHandlerContext) WithUnicode(unicode bool) *SMBHandlerContext {
	n := *c
	n.Unicode = unicode
	return &n
}

// logContext builds the request-scoped logging fields.
func (c *SMBHandlerContext) logContext(command string) *logger.LogContext {
	var username string
	if c.Identity != nil {
		username = c.Identity.Username
	}
	return logger.NewLogContext(c.ClientAddr).
		WithCommand(command).
		WithTree(c.Share.Name, c.TreeID).
		WithSession(c.SessionID, username)
}

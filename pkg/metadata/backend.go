package metadata

import (
	"context"

	"github.com/google/uuid"
)

// Backend persists nodes. Implementations must be safe for concurrent use
// and return *errors.StoreError values for expected failures.
//
// Child names are matched case-insensitively using FoldName while the
// stored Node.Name preserves the case it was created with.
type Backend interface {
	// LoadNode returns a copy of the node with the given id,
	// or ErrNotFound.
	LoadNode(ctx context.Context, id uuid.UUID) (*Node, error)

	// LookupChild returns the id of the entry named name in directory
	// parent, or ErrNotFound.
	LookupChild(ctx context.Context, parent uuid.UUID, name string) (uuid.UUID, error)

	// StoreNode creates or replaces a node and, for non-root nodes, its
	// directory entry. The write is atomic.
	StoreNode(ctx context.Context, n *Node) error

	// ShareRoot returns the root node id of a share, or ErrNotFound.
	ShareRoot(ctx context.Context, share string) (uuid.UUID, error)

	// CreateShareRoot creates the root directory for a share.
	// It fails with ErrAlreadyExists when the share already has one.
	CreateShareRoot(ctx context.Context, share string, attr FileAttr) (*Node, error)

	// Close releases backend resources.
	Close() error
}

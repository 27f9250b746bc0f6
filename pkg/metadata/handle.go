package metadata

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/marmos91/dittosmb/internal/logger"
)

// Handle is a counted reference to a cached node. Every Handle obtained
// from a NodeStore must be released exactly once.
type Handle interface {
	ID() uuid.UUID
	Name() string
	Share() string

	// Attr returns the node's attributes including uncommitted changes.
	Attr() FileAttr

	IsDirectory() bool

	// Release drops the reference. A second Release on the same Handle
	// is counted as a double release and otherwise ignored.
	Release()
}

// Unwrapper is implemented by Handle decorators so the NodeStore can
// recover its own reference.
type Unwrapper interface {
	Unwrap() Handle
}

type nodeRef struct {
	store    *NodeStore
	entry    *cacheEntry
	released atomic.Bool
}

func (r *nodeRef) ID() uuid.UUID {
	return r.entry.id
}

func (r *nodeRef) Name() string {
	r.entry.mu.Lock()
	defer r.entry.mu.Unlock()
	return r.entry.node.Name
}

func (r *nodeRef) Share() string {
	r.entry.mu.Lock()
	defer r.entry.mu.Unlock()
	return r.entry.node.Share
}

func (r *nodeRef) Attr() FileAttr {
	r.entry.mu.Lock()
	defer r.entry.mu.Unlock()
	return r.entry.node.FileAttr
}

func (r *nodeRef) IsDirectory() bool {
	return r.Attr().Type == FileTypeDirectory
}

func (r *nodeRef) Release() {
	if !r.released.CompareAndSwap(false, true) {
		r.store.doubleReleases.Add(1)
		logger.Warn("node reference released twice", logger.NodeID(r.entry.id))
		return
	}
	r.store.put(r.entry)
}

// node returns a snapshot of the cached node.
func (r *nodeRef) node() *Node {
	r.entry.mu.Lock()
	defer r.entry.mu.Unlock()
	return r.entry.node.Clone()
}

package metadata

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittosmb/internal/logger"
	"github.com/marmos91/dittosmb/pkg/metadata/errors"
)

// RefStats reports node reference accounting for a NodeStore.
type RefStats struct {
	Acquired       int64
	Released       int64
	Outstanding    int64
	DoubleReleases int64
	Cached         int
}

// cacheEntry is one in-memory node shared by every Handle that refers to it.
// Pending attribute changes live in node until CommitAttributes; committed
// is the last state known to be in the backend.
type cacheEntry struct {
	id uuid.UUID

	mu        sync.Mutex
	node      *Node
	committed *Node
	dirty     bool

	// refs is guarded by NodeStore.mu
	refs int
}

// NodeStore is a reference-counted node cache over a Backend. Nodes stay
// cached while at least one Handle refers to them; uncommitted changes
// are dropped when the last reference goes away.
type NodeStore struct {
	backend Backend

	mu       sync.Mutex
	entries  map[uuid.UUID]*cacheEntry
	readOnly map[string]bool

	now func() time.Time

	acquired       atomic.Int64
	released       atomic.Int64
	doubleReleases atomic.Int64
}

// NewNodeStore creates a NodeStore backed by b.
func NewNodeStore(b Backend) *NodeStore {
	return &NodeStore{
		backend:  b,
		entries:  make(map[uuid.UUID]*cacheEntry),
		readOnly: make(map[string]bool),
		now:      time.Now,
	}
}

// Backend returns the underlying persistence layer.
func (s *NodeStore) Backend() Backend {
	return s.backend
}

// SetReadOnly marks a share read-only; commits on its nodes fail with ErrReadOnly.
func (s *NodeStore) SetReadOnly(share string, readOnly bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readOnly[FoldName(share)] = readOnly
}

func (s *NodeStore) isReadOnly(share string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readOnly[FoldName(share)]
}

// Stats returns current reference accounting.
func (s *NodeStore) Stats() RefStats {
	s.mu.Lock()
	cached := len(s.entries)
	s.mu.Unlock()

	acq := s.acquired.Load()
	rel := s.released.Load()
	return RefStats{
		Acquired:       acq,
		Released:       rel,
		Outstanding:    acq - rel,
		DoubleReleases: s.doubleReleases.Load(),
		Cached:         cached,
	}
}

// acquire returns a new reference to node id, loading it from the backend
// when it is not cached.
func (s *NodeStore) acquire(ctx context.Context, id uuid.UUID) (Handle, error) {
	if ref := s.tryAcquireCached(id); ref != nil {
		return ref, nil
	}

	n, err := s.backend.LoadNode(ctx, id)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.NewStaleHandleError(id.String())
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		e = &cacheEntry{id: id, node: n, committed: n.Clone()}
		s.entries[id] = e
	}
	e.refs++
	s.acquired.Add(1)
	return &nodeRef{store: s, entry: e}, nil
}

func (s *NodeStore) tryAcquireCached(id uuid.UUID) *nodeRef {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	e.refs++
	s.acquired.Add(1)
	return &nodeRef{store: s, entry: e}
}

// put drops one reference and evicts the entry on the last one.
func (s *NodeStore) put(e *cacheEntry) {
	s.released.Add(1)

	s.mu.Lock()
	e.refs--
	evict := e.refs == 0
	if evict {
		delete(s.entries, e.id)
	}
	s.mu.Unlock()

	if evict {
		e.mu.Lock()
		dirty := e.dirty
		e.mu.Unlock()
		if dirty {
			logger.Debug("discarding uncommitted attributes", logger.NodeID(e.id))
		}
	}
}

// ref recovers this store's reference from h, looking through decorators.
func (s *NodeStore) ref(h Handle) (*nodeRef, bool) {
	for h != nil {
		if r, ok := h.(*nodeRef); ok {
			return r, r.store == s
		}
		u, ok := h.(Unwrapper)
		if !ok {
			return nil, false
		}
		h = u.Unwrap()
	}
	return nil, false
}

// Root returns a reference to the root directory of share.
func (s *NodeStore) Root(ctx context.Context, share string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := s.backend.ShareRoot(ctx, share)
	if err != nil {
		return nil, err
	}
	return s.acquire(ctx, id)
}

// Parent returns a reference to the parent of h. The parent of a share
// root is the root itself.
func (s *NodeStore) Parent(ctx context.Context, h Handle) (Handle, error) {
	r, ok := s.ref(h)
	if !ok {
		return nil, errors.NewStaleHandleError(h.ID().String())
	}
	n := r.node()
	if n.IsRoot() {
		return s.acquire(ctx, n.ID)
	}
	return s.acquire(ctx, n.ParentID)
}

// Lookup resolves name inside directory dir. When follow is set, a
// symlink final component is expanded relative to dir.
func (s *NodeStore) Lookup(ctx context.Context, ident *Identity, dir Handle, name string, follow bool) (Handle, error) {
	return s.lookup(ctx, ident, dir, name, follow, 0)
}

func (s *NodeStore) lookup(ctx context.Context, ident *Identity, dir Handle, name string, follow bool, depth int) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !dir.IsDirectory() {
		return nil, errors.NewNotDirectoryError(dir.Name())
	}

	switch name {
	case "", ".":
		return s.acquire(ctx, dir.ID())
	case "..":
		return s.Parent(ctx, dir)
	}

	id, err := s.backend.LookupChild(ctx, dir.ID(), name)
	if err != nil {
		return nil, err
	}
	h, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}

	attr := h.Attr()
	if !follow || attr.Type != FileTypeSymlink {
		return h, nil
	}
	h.Release()

	return s.followLink(ctx, ident, dir, attr.LinkTarget, depth+1)
}

// followLink expands a symlink target found in dir.
func (s *NodeStore) followLink(ctx context.Context, ident *Identity, dir Handle, target string, depth int) (Handle, error) {
	if depth > MaxSymlinkDepth {
		return nil, errors.New(errors.ErrTooManyLinks, target, "too many levels of symbolic links")
	}

	absolute, comps, err := splitPath(target)
	if err != nil {
		return nil, err
	}

	start := dir
	if absolute {
		root, err := s.Root(ctx, dir.Share())
		if err != nil {
			return nil, err
		}
		defer root.Release()
		start = root
	}

	if len(comps) == 0 {
		return s.acquire(ctx, start.ID())
	}

	parent, err := s.walk(ctx, ident, start, comps[:len(comps)-1], depth)
	if err != nil {
		return nil, err
	}
	defer parent.Release()

	return s.lookup(ctx, ident, parent, comps[len(comps)-1], true, depth)
}

// Create adds a new entry named name under dir. It is used to seed shares
// and by tests; the SMB handlers in this module never create nodes.
func (s *NodeStore) Create(ctx context.Context, ident *Identity, dir Handle, name string, attr FileAttr) (Handle, error) {
	if ident == nil {
		return nil, errors.NewAccessDeniedError("no identity")
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if !dir.IsDirectory() {
		return nil, errors.NewNotDirectoryError(dir.Name())
	}
	if s.isReadOnly(dir.Share()) {
		return nil, errors.NewReadOnlyError(dir.Share())
	}

	if _, err := s.backend.LookupChild(ctx, dir.ID(), name); err == nil {
		return nil, errors.NewAlreadyExistsError(name)
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	if attr.Mtime.IsZero() {
		attr.Mtime = now
	}
	attr.Atime = now
	attr.Ctime = now
	attr.Crtime = now

	n := &Node{
		ID:       uuid.New(),
		ParentID: dir.ID(),
		Share:    dir.Share(),
		Name:     name,
		FileAttr: attr,
	}
	if err := s.backend.StoreNode(ctx, n); err != nil {
		return nil, err
	}
	return s.acquire(ctx, n.ID)
}

// SetDosAttributes records new DOS attribute bits on the cached node.
// The change is persisted by CommitAttributes.
func (s *NodeStore) SetDosAttributes(h Handle, attrs uint32) {
	r, ok := s.ref(h)
	if !ok {
		logger.Error("SetDosAttributes on foreign handle", logger.NodeID(h.ID()))
		return
	}
	r.entry.mu.Lock()
	defer r.entry.mu.Unlock()
	r.entry.node.DosAttributes = attrs
	r.entry.dirty = true
}

// SetModifyTime records a new modification time on the cached node.
// No other timestamp is affected until commit.
func (s *NodeStore) SetModifyTime(h Handle, mtime time.Time) {
	r, ok := s.ref(h)
	if !ok {
		logger.Error("SetModifyTime on foreign handle", logger.NodeID(h.ID()))
		return
	}
	r.entry.mu.Lock()
	defer r.entry.mu.Unlock()
	r.entry.node.Mtime = mtime
	r.entry.dirty = true
}

// CommitAttributes writes pending attribute changes of h to the backend
// and bumps the change time. A node with no pending change is a no-op.
// When the commit fails the pending changes are rolled back, so other
// holders of the node never observe or later persist them.
func (s *NodeStore) CommitAttributes(ctx context.Context, ident *Identity, h Handle) error {
	r, ok := s.ref(h)
	if !ok {
		return errors.NewStaleHandleError(h.ID().String())
	}

	e := r.entry
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.dirty {
		return nil
	}
	if err := s.commitLocked(ctx, ident, e); err != nil {
		logger.Debug("rolling back uncommitted attributes", logger.NodeID(e.id), logger.Err(err))
		e.node = e.committed.Clone()
		e.dirty = false
		return err
	}
	return nil
}

func (s *NodeStore) commitLocked(ctx context.Context, ident *Identity, e *cacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ident == nil {
		return errors.NewAccessDeniedError("no identity")
	}
	if s.isReadOnly(e.node.Share) {
		return errors.NewReadOnlyError(e.node.Share)
	}

	n := e.node.Clone()
	n.Ctime = s.now()
	if err := s.backend.StoreNode(ctx, n); err != nil {
		if _, ok := errors.CodeOf(err); ok {
			return err
		}
		return errors.NewIOError("commit attributes", err)
	}

	e.node = n
	e.committed = n.Clone()
	e.dirty = false
	return nil
}

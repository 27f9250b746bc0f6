package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
	"github.com/marmos91/dittosmb/internal/logger"
	"github.com/marmos91/dittosmb/pkg/metadata"
	metaerrors "github.com/marmos91/dittosmb/pkg/metadata/errors"
)

var (
	// ErrShareNotFound is returned for names that are not configured.
	ErrShareNotFound = errors.New("share not found")

	// ErrShareExists is returned when a name is registered twice.
	ErrShareExists = errors.New("share already exists")

	// ErrNotDiskShare is returned when a filesystem root is requested
	// for a share that has none.
	ErrNotDiskShare = errors.New("share is not a disk share")
)

// Registry manages the configured shares and the tree connections made to
// them. It owns the NodeStore that every disk share is served from.
//
// Example usage:
//
//	reg := registry.NewRegistry(metadata.NewNodeStore(backend))
//	_ = reg.AddShare(registry.Share{Name: "data", Type: types.ShareTypeDisk})
//
//	tree, _ := reg.TreeConnect(ctx, "DATA", "10.0.0.5")
//	defer reg.TreeDisconnect(tree)
type Registry struct {
	store *metadata.NodeStore

	mu     sync.RWMutex
	shares map[string]*Share
	trees  map[uint16]*Tree

	nextTID atomic.Uint32
}

// Tree is an active tree connection. Root and Cwd are references owned
// by the connection and released by TreeDisconnect; request handlers
// borrow them and must not release them.
type Tree struct {
	ID          uint16
	Share       Share
	ClientAddr  string
	ConnectedAt time.Time

	Root metadata.Handle
	Cwd  metadata.Handle
}

// NewRegistry creates an empty registry serving disk shares from store.
func NewRegistry(store *metadata.NodeStore) *Registry {
	return &Registry{
		store:  store,
		shares: make(map[string]*Share),
		trees:  make(map[uint16]*Tree),
	}
}

// Store returns the node store shared by all disk shares.
func (r *Registry) Store() *metadata.NodeStore {
	return r.store
}

func shareKey(name string) string {
	return metadata.FoldName(name)
}

// AddShare registers a share. Names are compared case-insensitively.
func (r *Registry) AddShare(share Share) error {
	name := strings.TrimSpace(share.Name)
	if name == "" {
		return fmt.Errorf("cannot add share with empty name")
	}
	if strings.ContainsAny(name, `\/`) {
		return fmt.Errorf("share name %q must not contain path separators", name)
	}
	share.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()

	key := shareKey(name)
	if _, exists := r.shares[key]; exists {
		return fmt.Errorf("%w: %q", ErrShareExists, name)
	}

	s := share
	r.shares[key] = &s
	if s.IsDisk() {
		r.store.SetReadOnly(s.Name, s.ReadOnly)
	}

	logger.Debug("share added",
		logger.Share(s.Name),
		"type", s.Type.String(),
		"read_only", s.ReadOnly)
	return nil
}

// RemoveShare unregisters a share. Existing tree connections keep their
// references until they disconnect.
func (r *Registry) RemoveShare(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := shareKey(name)
	if _, exists := r.shares[key]; !exists {
		return fmt.Errorf("%w: %q", ErrShareNotFound, name)
	}
	delete(r.shares, key)
	return nil
}

// GetShare returns a copy of the named share.
func (r *Registry) GetShare(name string) (*Share, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.shares[shareKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrShareNotFound, name)
	}
	c := *s
	return &c, nil
}

// ListShares returns all shares ordered by name.
func (r *Registry) ListShares() []Share {
	r.mu.RLock()
	out := make([]Share, 0, len(r.shares))
	for _, s := range r.shares {
		out = append(out, *s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return shareKey(out[i].Name) < shareKey(out[j].Name)
	})
	return out
}

// CountShares returns the number of registered shares.
func (r *Registry) CountShares() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shares)
}

// RootHandle returns a new reference to the root directory of a disk
// share, creating the root in the backend the first time it is needed.
// The caller releases the handle.
func (r *Registry) RootHandle(ctx context.Context, name string) (metadata.Handle, error) {
	share, err := r.GetShare(name)
	if err != nil {
		return nil, err
	}
	if !share.IsDisk() {
		return nil, fmt.Errorf("%w: %q is %s", ErrNotDiskShare, share.Name, share.Type)
	}

	root, err := r.store.Root(ctx, share.Name)
	if err == nil {
		return root, nil
	}
	if !metaerrors.Is(err, metaerrors.ErrNotFound) {
		return nil, err
	}

	_, err = r.store.Backend().CreateShareRoot(ctx, share.Name, rootAttributes())
	if err != nil && !metaerrors.Is(err, metaerrors.ErrAlreadyExists) {
		return nil, fmt.Errorf("create root of share %q: %w", share.Name, err)
	}
	if err == nil {
		logger.Info("share root created", logger.Share(share.Name))
	}
	return r.store.Root(ctx, share.Name)
}

func rootAttributes() metadata.FileAttr {
	now := time.Now()
	return metadata.FileAttr{
		Type:          metadata.FileTypeDirectory,
		DosAttributes: uint32(types.FileAttributeDirectory),
		Mode:          0o755,
		Atime:         now,
		Mtime:         now,
		Ctime:         now,
		Crtime:        now,
	}
}

// TreeConnect opens a tree connection to a share. Disk shares get root and
// working directory references; other share types get none.
func (r *Registry) TreeConnect(ctx context.Context, name, clientAddr string) (*Tree, error) {
	share, err := r.GetShare(name)
	if err != nil {
		return nil, err
	}

	tree := &Tree{
		Share:       *share,
		ClientAddr:  clientAddr,
		ConnectedAt: time.Now(),
	}

	if share.IsDisk() {
		root, err := r.RootHandle(ctx, share.Name)
		if err != nil {
			return nil, err
		}
		cwd, err := r.store.Lookup(ctx, nil, root, ".", false)
		if err != nil {
			root.Release()
			return nil, err
		}
		tree.Root = root
		tree.Cwd = cwd
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		tid := uint16(r.nextTID.Add(1))
		if tid == 0 || tid == 0xFFFF {
			continue
		}
		if _, used := r.trees[tid]; used {
			continue
		}
		tree.ID = tid
		break
	}
	r.trees[tree.ID] = tree

	logger.Debug("tree connected",
		logger.Share(share.Name),
		logger.TreeID(tree.ID),
		logger.ClientIP(clientAddr))
	return tree, nil
}

// GetTree returns the active tree connection with the given id.
func (r *Registry) GetTree(tid uint16) (*Tree, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trees[tid]
	return t, ok
}

// TreeDisconnect closes a tree connection and releases its references.
// Disconnecting the same tree twice is a no-op.
func (r *Registry) TreeDisconnect(tree *Tree) {
	if tree == nil {
		return
	}

	r.mu.Lock()
	cur, ok := r.trees[tree.ID]
	if ok && cur == tree {
		delete(r.trees, tree.ID)
	}
	r.mu.Unlock()

	if !ok || cur != tree {
		return
	}
	if tree.Cwd != nil {
		tree.Cwd.Release()
	}
	if tree.Root != nil {
		tree.Root.Release()
	}
	logger.Debug("tree disconnected", logger.Share(tree.Share.Name), logger.TreeID(tree.ID))
}

// ListTrees returns the active tree connections.
func (r *Registry) ListTrees() []*Tree {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tree, 0, len(r.trees))
	for _, t := range r.trees {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close disconnects every tree and closes the backend.
func (r *Registry) Close() error {
	for _, t := range r.ListTrees() {
		r.TreeDisconnect(t)
	}
	return r.store.Backend().Close()
}

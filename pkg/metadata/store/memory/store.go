// Package memory implements an in-memory metadata.Backend. Contents are
// lost when the process exits; it is the default backend for tests and
// ephemeral shares.
package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/marmos91/dittosmb/pkg/metadata"
)

// MemoryMetadataStore keeps nodes in maps guarded by a single RWMutex.
// Nodes are copied on the way in and out so callers never share memory
// with the store.
type MemoryMetadataStore struct {
	mu sync.RWMutex

	nodes    map[uuid.UUID]*metadata.Node
	children map[uuid.UUID]map[string]uuid.UUID // parent -> folded name -> child
	shares   map[string]uuid.UUID               // folded share name -> root

	failNext error
	closed   bool
}

var _ metadata.Backend = (*MemoryMetadataStore)(nil)

// NewMemoryMetadataStore creates an empty store.
func NewMemoryMetadataStore() *MemoryMetadataStore {
	return &MemoryMetadataStore{
		nodes:    make(map[uuid.UUID]*metadata.Node),
		children: make(map[uuid.UUID]map[string]uuid.UUID),
		shares:   make(map[string]uuid.UUID),
	}
}

// FailNextStore makes the next StoreNode call return err without
// changing the store.
func (store *MemoryMetadataStore) FailNextStore(err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.failNext = err
}

// Len returns the number of stored nodes.
func (store *MemoryMetadataStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.nodes)
}

// Close marks the store closed. Subsequent calls fail with an I/O error.
func (store *MemoryMetadataStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.closed = true
	return nil
}

package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/marmos91/dittosmb/pkg/metadata"
	"github.com/marmos91/dittosmb/pkg/metadata/errors"
)

var errClosed = errors.New(errors.ErrIOError, "", "store is closed")

// LoadNode returns a copy of the node with the given id.
func (store *MemoryMetadataStore) LoadNode(ctx context.Context, id uuid.UUID) (*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.closed {
		return nil, errClosed
	}
	n, ok := store.nodes[id]
	if !ok {
		return nil, errors.NewNotFoundError(id.String(), "node")
	}
	return n.Clone(), nil
}

// LookupChild returns the id of name inside parent, ignoring case.
func (store *MemoryMetadataStore) LookupChild(ctx context.Context, parent uuid.UUID, name string) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.closed {
		return uuid.Nil, errClosed
	}
	if _, ok := store.nodes[parent]; !ok {
		return uuid.Nil, errors.NewStaleHandleError(parent.String())
	}
	id, ok := store.children[parent][metadata.FoldName(name)]
	if !ok {
		return uuid.Nil, errors.NewNotFoundError(name, "file")
	}
	return id, nil
}

// StoreNode creates or replaces n and its directory entry.
func (store *MemoryMetadataStore) StoreNode(ctx context.Context, n *metadata.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if store.closed {
		return errClosed
	}
	if err := store.failNext; err != nil {
		store.failNext = nil
		return err
	}

	if !n.IsRoot() {
		parent, ok := store.nodes[n.ParentID]
		if !ok {
			return errors.NewNotFoundError(n.ParentID.String(), "parent")
		}
		if parent.Type != metadata.FileTypeDirectory {
			return errors.NewNotDirectoryError(parent.Name)
		}

		key := metadata.FoldName(n.Name)
		entries := store.children[n.ParentID]
		if entries == nil {
			entries = make(map[string]uuid.UUID)
			store.children[n.ParentID] = entries
		}
		if existing, ok := entries[key]; ok && existing != n.ID {
			return errors.NewAlreadyExistsError(n.Name)
		}
		entries[key] = n.ID
	}

	store.nodes[n.ID] = n.Clone()
	return nil
}

// ShareRoot returns the root node id of share.
func (store *MemoryMetadataStore) ShareRoot(ctx context.Context, share string) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.closed {
		return uuid.Nil, errClosed
	}
	id, ok := store.shares[metadata.FoldName(share)]
	if !ok {
		return uuid.Nil, errors.NewNotFoundError(share, "share")
	}
	return id, nil
}

// CreateShareRoot creates the root directory of share.
func (store *MemoryMetadataStore) CreateShareRoot(ctx context.Context, share string, attr metadata.FileAttr) (*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if store.closed {
		return nil, errClosed
	}
	key := metadata.FoldName(share)
	if _, ok := store.shares[key]; ok {
		return nil, errors.NewAlreadyExistsError(share)
	}

	attr.Type = metadata.FileTypeDirectory
	root := &metadata.Node{
		ID:       uuid.New(),
		Share:    share,
		FileAttr: attr,
	}
	store.nodes[root.ID] = root
	store.shares[key] = root.ID
	return root.Clone(), nil
}

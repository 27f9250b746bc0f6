package badger

import (
	"context"
	stderrors "errors"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/marmos91/dittosmb/pkg/metadata"
	"github.com/marmos91/dittosmb/pkg/metadata/errors"
)

// asStoreError leaves StoreErrors alone and wraps everything else as an
// I/O failure.
func asStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.CodeOf(err); ok {
		return err
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.NewIOError(op, err)
}

func getNode(txn *badgerdb.Txn, id uuid.UUID) (*metadata.Node, error) {
	item, err := txn.Get(keyFile(id))
	if err == badgerdb.ErrKeyNotFound {
		return nil, errors.NewNotFoundError(id.String(), "node")
	}
	if err != nil {
		return nil, err
	}

	var n *metadata.Node
	err = item.Value(func(val []byte) error {
		var decErr error
		n, decErr = decodeNode(val)
		return decErr
	})
	return n, err
}

func getUUID(txn *badgerdb.Txn, key []byte, notFound error) (uuid.UUID, error) {
	item, err := txn.Get(key)
	if err == badgerdb.ErrKeyNotFound {
		return uuid.Nil, notFound
	}
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err = item.Value(func(val []byte) error {
		var decErr error
		id, decErr = decodeUUID(val)
		return decErr
	})
	return id, err
}

// LoadNode returns the node with the given id.
func (s *BadgerMetadataStore) LoadNode(ctx context.Context, id uuid.UUID) (*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var n *metadata.Node
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		n, err = getNode(txn, id)
		return err
	})
	if err != nil {
		return nil, asStoreError("load node", err)
	}
	return n, nil
}

// LookupChild returns the id of name inside parent, ignoring case.
func (s *BadgerMetadataStore) LookupChild(ctx context.Context, parent uuid.UUID, name string) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err := s.db.View(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(keyFile(parent)); err == badgerdb.ErrKeyNotFound {
			return errors.NewStaleHandleError(parent.String())
		} else if err != nil {
			return err
		}

		var err error
		id, err = getUUID(txn, keyChild(parent, name), errors.NewNotFoundError(name, "file"))
		return err
	})
	if err != nil {
		return uuid.Nil, asStoreError("lookup child", err)
	}
	return id, nil
}

// StoreNode writes n and, for non-root nodes, its directory entry in a
// single transaction.
func (s *BadgerMetadataStore) StoreNode(ctx context.Context, n *metadata.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		if !n.IsRoot() {
			parent, err := getNode(txn, n.ParentID)
			if err != nil {
				return err
			}
			if parent.Type != metadata.FileTypeDirectory {
				return errors.NewNotDirectoryError(parent.Name)
			}

			childKey := keyChild(n.ParentID, n.Name)
			existing, err := getUUID(txn, childKey, nil)
			if err != nil {
				return err
			}
			if existing != uuid.Nil && existing != n.ID {
				return errors.NewAlreadyExistsError(n.Name)
			}
			if existing == uuid.Nil {
				if err := txn.Set(childKey, n.ID[:]); err != nil {
					return err
				}
			}
		}

		data, err := encodeNode(n)
		if err != nil {
			return err
		}
		return txn.Set(keyFile(n.ID), data)
	})
	return asStoreError("store node", err)
}

// ShareRoot returns the root node id of share.
func (s *BadgerMetadataStore) ShareRoot(ctx context.Context, share string) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		id, err = getUUID(txn, keyShare(share), errors.NewNotFoundError(share, "share"))
		return err
	})
	if err != nil {
		return uuid.Nil, asStoreError("share root", err)
	}
	return id, nil
}

// CreateShareRoot creates the root directory of share.
func (s *BadgerMetadataStore) CreateShareRoot(ctx context.Context, share string, attr metadata.FileAttr) (*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	attr.Type = metadata.FileTypeDirectory
	root := &metadata.Node{
		ID:       uuid.New(),
		Share:    share,
		FileAttr: attr,
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(keyShare(share)); err == nil {
			return errors.NewAlreadyExistsError(share)
		} else if err != badgerdb.ErrKeyNotFound {
			return err
		}

		data, err := encodeNode(root)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFile(root.ID), data); err != nil {
			return err
		}
		return txn.Set(keyShare(share), root.ID[:])
	})
	if err != nil {
		return nil, asStoreError("create share root", err)
	}
	return root, nil
}

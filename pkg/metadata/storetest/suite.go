// Package storetest holds a conformance suite every metadata.Backend
// implementation runs from its own tests.
package storetest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittosmb/pkg/metadata"
	"github.com/marmos91/dittosmb/pkg/metadata/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// BackendFactory creates a fresh Backend for each test. It receives
// *testing.T so it can use t.TempDir() and t.Cleanup().
type BackendFactory func(t *testing.T) metadata.Backend

// RunConformanceSuite runs the full suite against backends from factory.
func RunConformanceSuite(t *testing.T, factory BackendFactory) {
	t.Helper()

	t.Run("ShareRoots", func(t *testing.T) {
		runShareRootTests(t, factory)
	})

	t.Run("Nodes", func(t *testing.T) {
		runNodeTests(t, factory)
	})

	t.Run("DirectoryEntries", func(t *testing.T) {
		runEntryTests(t, factory)
	})
}

// createTestShare creates a share root and returns it.
func createTestShare(t *testing.T, b metadata.Backend, share string) *metadata.Node {
	t.Helper()

	root, err := b.CreateShareRoot(t.Context(), share, metadata.FileAttr{Mode: 0o755})
	require.NoError(t, err, "CreateShareRoot(%q)", share)
	return root
}

// createTestNode stores a child node under parent and returns it.
func createTestNode(t *testing.T, b metadata.Backend, parent *metadata.Node, name string, typ metadata.FileType) *metadata.Node {
	t.Helper()

	n := &metadata.Node{
		ID:       uuid.New(),
		ParentID: parent.ID,
		Share:    parent.Share,
		Name:     name,
		FileAttr: metadata.FileAttr{
			Type:  typ,
			Mtime: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, b.StoreNode(t.Context(), n), "StoreNode(%q)", name)
	return n
}

func runShareRootTests(t *testing.T, factory BackendFactory) {
	t.Run("CreateAndResolve", func(t *testing.T) {
		b := factory(t)
		root := createTestShare(t, b, "Public")

		assert.Equal(t, metadata.FileTypeDirectory, root.Type)
		assert.True(t, root.IsRoot())

		id, err := b.ShareRoot(t.Context(), "PUBLIC")
		require.NoError(t, err)
		assert.Equal(t, root.ID, id)
	})

	t.Run("DuplicateShare", func(t *testing.T) {
		b := factory(t)
		createTestShare(t, b, "public")

		_, err := b.CreateShareRoot(t.Context(), "Public", metadata.FileAttr{})
		assert.True(t, errors.Is(err, errors.ErrAlreadyExists), "got %v", err)
	})

	t.Run("MissingShare", func(t *testing.T) {
		b := factory(t)
		_, err := b.ShareRoot(t.Context(), "nope")
		assert.True(t, errors.Is(err, errors.ErrNotFound), "got %v", err)
	})
}

func runNodeTests(t *testing.T, factory BackendFactory) {
	t.Run("RoundTrip", func(t *testing.T) {
		b := factory(t)
		root := createTestShare(t, b, "s")
		n := createTestNode(t, b, root, "Report.DOC", metadata.FileTypeRegular)

		n.DosAttributes = 0x23
		n.Mtime = time.Date(2025, 7, 4, 9, 30, 0, 0, time.UTC)
		require.NoError(t, b.StoreNode(t.Context(), n))

		got, err := b.LoadNode(t.Context(), n.ID)
		require.NoError(t, err)
		assert.Equal(t, "Report.DOC", got.Name)
		assert.Equal(t, root.ID, got.ParentID)
		assert.Equal(t, uint32(0x23), got.DosAttributes)
		assert.True(t, n.Mtime.Equal(got.Mtime), "mtime %v != %v", got.Mtime, n.Mtime)
	})

	t.Run("LoadReturnsCopy", func(t *testing.T) {
		b := factory(t)
		root := createTestShare(t, b, "s")
		n := createTestNode(t, b, root, "a", metadata.FileTypeRegular)

		got, err := b.LoadNode(t.Context(), n.ID)
		require.NoError(t, err)
		got.DosAttributes = 0xFF

		again, err := b.LoadNode(t.Context(), n.ID)
		require.NoError(t, err)
		assert.Zero(t, again.DosAttributes)
	})

	t.Run("MissingNode", func(t *testing.T) {
		b := factory(t)
		_, err := b.LoadNode(t.Context(), uuid.New())
		assert.True(t, errors.Is(err, errors.ErrNotFound), "got %v", err)
	})

	t.Run("MissingParent", func(t *testing.T) {
		b := factory(t)
		createTestShare(t, b, "s")

		err := b.StoreNode(t.Context(), &metadata.Node{
			ID:       uuid.New(),
			ParentID: uuid.New(),
			Share:    "s",
			Name:     "orphan",
		})
		assert.True(t, errors.Is(err, errors.ErrNotFound), "got %v", err)
	})

	t.Run("ParentNotDirectory", func(t *testing.T) {
		b := factory(t)
		root := createTestShare(t, b, "s")
		file := createTestNode(t, b, root, "file", metadata.FileTypeRegular)

		err := b.StoreNode(t.Context(), &metadata.Node{
			ID:       uuid.New(),
			ParentID: file.ID,
			Share:    "s",
			Name:     "child",
		})
		assert.True(t, errors.Is(err, errors.ErrNotDirectory), "got %v", err)
	})
}

func runEntryTests(t *testing.T, factory BackendFactory) {
	t.Run("CaseInsensitiveLookup", func(t *testing.T) {
		b := factory(t)
		root := createTestShare(t, b, "s")
		n := createTestNode(t, b, root, "Résumé.txt", metadata.FileTypeRegular)

		for _, name := range []string{"Résumé.txt", "RÉSUMÉ.TXT", "résumé.TXT"} {
			id, err := b.LookupChild(t.Context(), root.ID, name)
			require.NoError(t, err, name)
			assert.Equal(t, n.ID, id, name)
		}
	})

	t.Run("NameCollision", func(t *testing.T) {
		b := factory(t)
		root := createTestShare(t, b, "s")
		createTestNode(t, b, root, "dup", metadata.FileTypeRegular)

		err := b.StoreNode(t.Context(), &metadata.Node{
			ID:       uuid.New(),
			ParentID: root.ID,
			Share:    "s",
			Name:     "DUP",
		})
		assert.True(t, errors.Is(err, errors.ErrAlreadyExists), "got %v", err)
	})

	t.Run("MissingChild", func(t *testing.T) {
		b := factory(t)
		root := createTestShare(t, b, "s")

		_, err := b.LookupChild(t.Context(), root.ID, "ghost")
		assert.True(t, errors.Is(err, errors.ErrNotFound), "got %v", err)
	})

	t.Run("StaleParent", func(t *testing.T) {
		b := factory(t)
		_, err := b.LookupChild(t.Context(), uuid.New(), "x")
		assert.True(t, errors.Is(err, errors.ErrStaleHandle), "got %v", err)
	})

	t.Run("NestedDirectories", func(t *testing.T) {
		b := factory(t)
		root := createTestShare(t, b, "s")
		dir := createTestNode(t, b, root, "docs", metadata.FileTypeDirectory)
		leaf := createTestNode(t, b, dir, "leaf", metadata.FileTypeRegular)

		id, err := b.LookupChild(t.Context(), dir.ID, "leaf")
		require.NoError(t, err)
		assert.Equal(t, leaf.ID, id)

		_, err = b.LookupChild(t.Context(), root.ID, "leaf")
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	})
}

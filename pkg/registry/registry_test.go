package registry

import (
	"context"
	"testing"

	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
	"github.com/marmos91/dittosmb/pkg/metadata"
	metaerrors "github.com/marmos91/dittosmb/pkg/metadata/errors"
	"github.com/marmos91/dittosmb/pkg/metadata/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(metadata.NewNodeStore(memory.NewMemoryMetadataStore()))
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func TestAddShare(t *testing.T) {
	reg := newTestRegistry(t)

	require.NoError(t, reg.AddShare(Share{Name: "Data", Type: types.ShareTypeDisk}))
	assert.Equal(t, 1, reg.CountShares())

	t.Run("names are case-insensitive", func(t *testing.T) {
		s, err := reg.GetShare("DATA")
		require.NoError(t, err)
		assert.Equal(t, "Data", s.Name)

		err = reg.AddShare(Share{Name: "data"})
		assert.ErrorIs(t, err, ErrShareExists)
	})

	t.Run("rejects bad names", func(t *testing.T) {
		assert.Error(t, reg.AddShare(Share{Name: "  "}))
		assert.Error(t, reg.AddShare(Share{Name: `a\b`}))
		assert.Error(t, reg.AddShare(Share{Name: "a/b"}))
	})

	t.Run("returned share is a copy", func(t *testing.T) {
		s, err := reg.GetShare("data")
		require.NoError(t, err)
		s.ReadOnly = true

		again, err := reg.GetShare("data")
		require.NoError(t, err)
		assert.False(t, again.ReadOnly)
	})
}

func TestGetShareNotFound(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.GetShare("missing")
	assert.ErrorIs(t, err, ErrShareNotFound)
	assert.ErrorIs(t, reg.RemoveShare("missing"), ErrShareNotFound)
}

func TestListSharesSorted(t *testing.T) {
	reg := newTestRegistry(t)
	for _, name := range []string{"zeta", "Alpha", "IPC$"} {
		typ := types.ShareTypeDisk
		if name == "IPC$" {
			typ = types.ShareTypeIPC
		}
		require.NoError(t, reg.AddShare(Share{Name: name, Type: typ}))
	}

	var names []string
	for _, s := range reg.ListShares() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Alpha", "IPC$", "zeta"}, names)

	require.NoError(t, reg.RemoveShare("ALPHA"))
	assert.Equal(t, 2, reg.CountShares())
}

func TestRootHandleCreatesRootOnce(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)
	require.NoError(t, reg.AddShare(Share{Name: "data", Type: types.ShareTypeDisk}))

	first, err := reg.RootHandle(ctx, "data")
	require.NoError(t, err)
	defer first.Release()

	second, err := reg.RootHandle(ctx, "DATA")
	require.NoError(t, err)
	defer second.Release()

	assert.Equal(t, first.ID(), second.ID())
	assert.True(t, first.IsDirectory())
	assert.Equal(t, uint32(types.FileAttributeDirectory), first.Attr().DosAttributes)
}

func TestRootHandleNonDiskShare(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.AddShare(Share{Name: "IPC$", Type: types.ShareTypeIPC}))

	_, err := reg.RootHandle(context.Background(), "IPC$")
	assert.ErrorIs(t, err, ErrNotDiskShare)
}

func TestReadOnlyShareRejectsCommit(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)
	require.NoError(t, reg.AddShare(Share{Name: "ro", Type: types.ShareTypeDisk, ReadOnly: true}))

	root, err := reg.RootHandle(ctx, "ro")
	require.NoError(t, err)
	defer root.Release()

	ident := &metadata.Identity{Username: "alice"}
	reg.Store().SetDosAttributes(root, uint32(types.FileAttributeHidden))
	err = reg.Store().CommitAttributes(ctx, ident, root)
	assert.True(t, metaerrors.Is(err, metaerrors.ErrReadOnly))
}

func TestTreeConnectLifecycle(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)
	require.NoError(t, reg.AddShare(Share{Name: "data", Type: types.ShareTypeDisk}))
	require.NoError(t, reg.AddShare(Share{Name: "IPC$", Type: types.ShareTypeIPC}))

	disk, err := reg.TreeConnect(ctx, "data", "10.0.0.5")
	require.NoError(t, err)
	require.NotNil(t, disk.Root)
	require.NotNil(t, disk.Cwd)
	assert.Equal(t, disk.Root.ID(), disk.Cwd.ID())
	assert.NotZero(t, disk.ID)

	ipc, err := reg.TreeConnect(ctx, "ipc$", "10.0.0.5")
	require.NoError(t, err)
	assert.Nil(t, ipc.Root)
	assert.NotEqual(t, disk.ID, ipc.ID)

	got, ok := reg.GetTree(disk.ID)
	require.True(t, ok)
	assert.Same(t, disk, got)
	assert.Len(t, reg.ListTrees(), 2)

	reg.TreeDisconnect(disk)
	reg.TreeDisconnect(disk)
	reg.TreeDisconnect(ipc)

	_, ok = reg.GetTree(disk.ID)
	assert.False(t, ok)

	stats := reg.Store().Stats()
	assert.Zero(t, stats.Outstanding)
	assert.Zero(t, stats.DoubleReleases)
}

func TestCloseDisconnectsTrees(t *testing.T) {
	ctx := context.Background()
	store := metadata.NewNodeStore(memory.NewMemoryMetadataStore())
	reg := NewRegistry(store)
	require.NoError(t, reg.AddShare(Share{Name: "data", Type: types.ShareTypeDisk}))

	_, err := reg.TreeConnect(ctx, "data", "10.0.0.5")
	require.NoError(t, err)

	require.NoError(t, reg.Close())
	assert.Empty(t, reg.ListTrees())
	assert.Zero(t, store.Stats().Outstanding)
}

package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
	"github.com/marmos91/dittosmb/pkg/metadata/store/badger"
	"github.com/marmos91/dittosmb/pkg/metadata/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeRegistry(t *testing.T) {
	ctx := context.Background()
	cfg := GetDefaultConfig()
	cfg.Shares = append(cfg.Shares, ShareConfig{Name: "archive", Type: "disk", ReadOnly: true})

	reg, err := InitializeRegistry(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = reg.Close() }()

	assert.Equal(t, 3, reg.CountShares())
	_, isMemory := reg.Store().Backend().(*memory.MemoryMetadataStore)
	assert.True(t, isMemory)

	ipc, err := reg.GetShare("ipc$")
	require.NoError(t, err)
	assert.Equal(t, types.ShareTypeIPC, ipc.Type)

	archive, err := reg.GetShare("archive")
	require.NoError(t, err)
	assert.True(t, archive.ReadOnly)
}

func TestInitializeRegistry_Badger(t *testing.T) {
	ctx := context.Background()
	cfg := GetDefaultConfig()
	cfg.Metadata.Type = "badger"
	cfg.Metadata.Badger.Path = filepath.Join(t.TempDir(), "meta")

	reg, err := InitializeRegistry(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = reg.Close() }()

	_, isBadger := reg.Store().Backend().(*badger.BadgerMetadataStore)
	assert.True(t, isBadger)

	root, err := reg.RootHandle(ctx, "data")
	require.NoError(t, err)
	root.Release()
}

func TestInitializeRegistry_Errors(t *testing.T) {
	ctx := context.Background()

	cfg := GetDefaultConfig()
	cfg.Shares = nil
	_, err := InitializeRegistry(ctx, cfg)
	assert.Error(t, err)

	cfg = GetDefaultConfig()
	cfg.Shares[0].Type = "bogus"
	_, err = InitializeRegistry(ctx, cfg)
	assert.Error(t, err)

	cfg = GetDefaultConfig()
	cfg.Metadata.Type = "badger"
	_, err = InitializeRegistry(ctx, cfg)
	assert.Error(t, err)
}

func TestIdentityConversion(t *testing.T) {
	id := IdentityConfig{Username: "alice", Domain: "CORP", UID: 1000, GID: 100}.ToIdentity()
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, "CORP", id.Domain)
	assert.Equal(t, uint32(1000), id.UID)
	assert.False(t, id.Guest)
}

package config

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/dittosmb/pkg/bufpool"
	"github.com/marmos91/dittosmb/pkg/metadata"
	"github.com/marmos91/dittosmb/pkg/metadata/store/badger"
	"github.com/marmos91/dittosmb/pkg/metadata/store/memory"
	"github.com/marmos91/dittosmb/pkg/metrics"
	"github.com/marmos91/dittosmb/pkg/oplock"
)

// CreateMetadataBackend opens the node store backend selected by cfg.
func CreateMetadataBackend(ctx context.Context, cfg MetadataConfig) (metadata.Backend, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.NewMemoryMetadataStore(), nil
	case "badger":
		return createBadgerBackend(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown metadata store type: %q", cfg.Type)
	}
}

func createBadgerBackend(ctx context.Context, cfg BadgerConfig) (*badger.BadgerMetadataStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("badger metadata store requires path to be set")
	}
	store, err := badger.Open(ctx, badger.Config{
		DBPath:           cfg.Path,
		SyncWrites:       cfg.SyncWrites,
		BlockCacheSizeMB: cfg.BlockCacheMB,
		IndexCacheSizeMB: cfg.IndexCacheMB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return store, nil
}

// ReportBackendMetrics publishes cache statistics for backends that keep
// them. It is a no-op for the memory backend.
func ReportBackendMetrics(b metadata.Backend, m metrics.BadgerMetrics) {
	if bs, ok := b.(*badger.BadgerMetadataStore); ok && m != nil {
		bs.ReportCacheMetrics(m)
	}
}

// CreateOplockManager builds the oplock arbiter from configuration.
func CreateOplockManager(cfg oplock.Config) *oplock.Manager {
	return oplock.NewManager(cfg)
}

// CreateBufferPool builds the scratch buffer pool from configuration.
func CreateBufferPool(cfg ServerConfig) *bufpool.Pool {
	buffers := cfg.Buffers
	return bufpool.NewPool(&buffers)
}

// Location returns the time zone UTIME values are interpreted in.
func (c ServerConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// Package badger implements a persistent metadata.Backend on BadgerDB.
package badger

import (
	"context"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/dittosmb/internal/logger"
	"github.com/marmos91/dittosmb/pkg/metadata"
	"github.com/marmos91/dittosmb/pkg/metrics"
)

// Config controls how the database is opened.
type Config struct {
	// DBPath is the directory holding the database files.
	DBPath string

	// InMemory keeps the database in RAM. DBPath is ignored.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// BlockCacheSizeMB and IndexCacheSizeMB size the read caches.
	// Zero selects 64MB and 32MB.
	BlockCacheSizeMB int64
	IndexCacheSizeMB int64
}

// BadgerMetadataStore persists nodes in BadgerDB.
type BadgerMetadataStore struct {
	db *badgerdb.DB
}

var _ metadata.Backend = (*BadgerMetadataStore)(nil)

// Open opens (creating if needed) a BadgerDB metadata store.
func Open(ctx context.Context, cfg Config) (*BadgerMetadataStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badgerdb.DefaultOptions(cfg.DBPath)
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	}

	// Node records are small JSON documents; compression is not worth it.
	opts = opts.WithLoggingLevel(badgerdb.WARNING).
		WithCompression(options.None).
		WithSyncWrites(cfg.SyncWrites)

	blockCacheMB := cfg.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := cfg.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20).
		WithIndexCacheSize(indexCacheMB << 20)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}

	logger.Debug("badger metadata store opened",
		logger.StoreType("badger"), logger.Path(cfg.DBPath))

	return &BadgerMetadataStore{db: db}, nil
}

// Close closes the database.
func (s *BadgerMetadataStore) Close() error {
	return s.db.Close()
}

// ReportCacheMetrics publishes the block and index cache counters. A nil
// sink is ignored.
func (s *BadgerMetadataStore) ReportCacheMetrics(m metrics.BadgerMetrics) {
	if m == nil {
		return
	}
	if bc := s.db.BlockCacheMetrics(); bc != nil {
		m.RecordCacheStats("block", bc.Hits(), bc.Misses(), bc.Ratio())
	}
	if ic := s.db.IndexCacheMetrics(); ic != nil {
		m.RecordCacheStats("index", ic.Hits(), ic.Misses(), ic.Ratio())
	}
}

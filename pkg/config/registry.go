package config

import (
	"context"
	"fmt"

	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
	"github.com/marmos91/dittosmb/internal/logger"
	"github.com/marmos91/dittosmb/pkg/metadata"
	"github.com/marmos91/dittosmb/pkg/registry"
)

// InitializeRegistry opens the configured metadata backend and registers
// every configured share on it. Share roots are created lazily on first
// tree connect.
//
// Example:
//
//	cfg, _ := config.Load("config.yaml")
//	reg, err := config.InitializeRegistry(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer reg.Close()
func InitializeRegistry(ctx context.Context, cfg *Config) (*registry.Registry, error) {
	logger.Debug("initializing registry from configuration")

	if len(cfg.Shares) == 0 {
		return nil, fmt.Errorf("no shares configured")
	}

	backend, err := CreateMetadataBackend(ctx, cfg.Metadata)
	if err != nil {
		return nil, err
	}

	reg := registry.NewRegistry(metadata.NewNodeStore(backend))
	if err := addShares(reg, cfg.Shares); err != nil {
		_ = reg.Close()
		return nil, fmt.Errorf("failed to add shares: %w", err)
	}

	logger.Info("registry initialized",
		logger.StoreType(cfg.Metadata.Type),
		"shares", reg.CountShares())
	return reg, nil
}

func addShares(reg *registry.Registry, shares []ShareConfig) error {
	for _, sc := range shares {
		st, err := types.ParseShareType(sc.Type)
		if err != nil {
			return fmt.Errorf("share %q: %w", sc.Name, err)
		}
		if err := reg.AddShare(registry.Share{
			Name:     sc.Name,
			Type:     st,
			ReadOnly: sc.ReadOnly,
			Comment:  sc.Comment,
		}); err != nil {
			return err
		}
	}
	return nil
}

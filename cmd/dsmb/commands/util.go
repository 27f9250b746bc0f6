package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
	"github.com/marmos91/dittosmb/internal/adapter/smb/v1/handlers"
	"github.com/marmos91/dittosmb/internal/cli/output"
	"github.com/marmos91/dittosmb/internal/logger"
	"github.com/marmos91/dittosmb/internal/telemetry"
	"github.com/marmos91/dittosmb/pkg/config"
	"github.com/marmos91/dittosmb/pkg/metadata"
	"github.com/marmos91/dittosmb/pkg/metrics"
	"github.com/marmos91/dittosmb/pkg/metrics/prometheus"
	"github.com/marmos91/dittosmb/pkg/oplock"
	"github.com/marmos91/dittosmb/pkg/registry"
	"github.com/spf13/cobra"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// cliClientAddr is the client address reported for requests issued by the CLI.
const cliClientAddr = "cli"

// app is everything a command needs to issue requests against the
// configured store.
type app struct {
	cfg      *config.Config
	registry *registry.Registry
	oplocks  *oplock.Manager
	handler  *handlers.Handler
	identity *metadata.Identity
	location *time.Location

	closers []func(context.Context) error
}

// openApp loads configuration and brings up logging, telemetry,
// metrics and the node store. The caller must Close the result.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.MustLoad(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := InitLogger(cfg); err != nil {
		return nil, err
	}

	rt := &app{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			_ = rt.Close(context.Background())
		}
	}()

	telemetryCfg := cfg.Telemetry
	telemetryCfg.ServiceVersion = Version
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	rt.closers = append(rt.closers, telemetryShutdown)

	profilingStop, err := telemetry.InitProfiling(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize profiling: %w", err)
	}
	rt.closers = append(rt.closers, func(context.Context) error { return profilingStop() })

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	reg, err := config.InitializeRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rt.registry = reg
	rt.closers = append(rt.closers, func(context.Context) error { return reg.Close() })
	config.ReportBackendMetrics(reg.Store().Backend(), prometheus.NewBadgerMetrics())

	smbMetrics := prometheus.NewSMBMetrics()
	rt.oplocks = config.CreateOplockManager(cfg.Oplock)
	rt.oplocks.SetMetrics(smbMetrics)

	rt.handler = handlers.NewHandler(reg.Store(), rt.oplocks, smbMetrics)
	rt.handler.Buffers = config.CreateBufferPool(cfg.Server)

	if rt.location, err = cfg.Server.Location(); err != nil {
		return nil, err
	}
	rt.identity = cfg.Identity.ToIdentity()

	logger.Debug("store ready",
		logger.StoreType(cfg.Metadata.Type),
		"shares", reg.CountShares(),
		"time_zone", rt.location.String())
	ok = true
	return rt, nil
}

// Close shuts the app down in reverse order of construction.
func (rt *app) Close(ctx context.Context) error {
	var firstErr error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	rt.closers = nil
	return firstErr
}

// connect opens a tree connection to share. The caller must disconnect it.
func (rt *app) connect(ctx context.Context, share string) (*registry.Tree, error) {
	tree, err := rt.registry.TreeConnect(ctx, share, cliClientAddr)
	if err != nil {
		return nil, fmt.Errorf("tree connect %q: %w", share, err)
	}
	return tree, nil
}

// handlerContext builds the context a request on tree runs with.
func (rt *app) handlerContext(ctx context.Context, tree *registry.Tree, sessionID uint64, mid uint16, unicode bool) *handlers.SMBHandlerContext {
	return handlers.NewSMBHandlerContext(ctx, cliClientAddr, sessionID, tree.ID, mid).
		WithTree(tree).
		WithIdentity(rt.identity).
		WithUnicode(unicode).
		WithLocation(rt.location)
}

// resolve looks up path on tree, following symlinks. The caller must
// release the returned handle.
func (rt *app) resolve(ctx context.Context, tree *registry.Tree, path string) (metadata.Handle, error) {
	if !tree.Share.IsDisk() {
		return nil, fmt.Errorf("share %q is not a disk share", tree.Share.Name)
	}
	store := rt.registry.Store()
	dir, name, err := store.ResolvePath(ctx, rt.identity, tree.Root, tree.Cwd, path)
	if err != nil {
		return nil, err
	}
	defer dir.Release()
	return store.Lookup(ctx, rt.identity, dir, name, true)
}

// newPrinter returns a printer for the global --output flag writing to
// the command's output.
func newPrinter(cmd *cobra.Command) (*output.Printer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(cmd.OutOrStdout(), format), nil
}

// parseAttributes accepts attribute names ("hidden,system", "none") or a
// numeric value ("0x22", "34").
func parseAttributes(s string) (types.FileAttributes, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseUint(s, 0, 16); err == nil {
		return types.FileAttributes(v), nil
	}
	attrs, ok := types.ParseFileAttributes(s)
	if !ok {
		return 0, fmt.Errorf("invalid file attributes %q", s)
	}
	return attrs, nil
}

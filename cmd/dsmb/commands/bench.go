package commands

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
	"github.com/marmos91/dittosmb/internal/adapter/smb/v1/handlers"
	"github.com/marmos91/dittosmb/internal/logger"
	"github.com/marmos91/dittosmb/pkg/metadata"
	metaerrors "github.com/marmos91/dittosmb/pkg/metadata/errors"
	"github.com/marmos91/dittosmb/pkg/metrics"
	"github.com/marmos91/dittosmb/pkg/oplock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	benchShare       string
	benchFile        string
	benchRequests    int
	benchConcurrency int
	benchContend     bool
	benchAckDelay    time.Duration
)

// benchHolderSession is the session that holds an oplock on the bench
// file when --contend is set.
const benchHolderSession = 0xFFFF

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Load-test the SET_INFORMATION handler",
	Long: `Issue SET_INFORMATION requests against one file from several workers
and report latency percentiles.

With --contend a simulated client holds a batch oplock on the file
before every request, so each request breaks it and waits for the
acknowledgment, which arrives after --ack-delay.

When metrics are enabled in the configuration the Prometheus endpoint
is served for the duration of the run.

Examples:
  dsmb bench --share public --requests 10000 --concurrency 16
  dsmb bench --share public --contend --ack-delay 2ms`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().StringVar(&benchShare, "share", "", "Share name (required)")
	benchCmd.Flags().StringVar(&benchFile, "file", `\bench.dat`, "Target file, created when missing")
	benchCmd.Flags().IntVar(&benchRequests, "requests", 1000, "Total number of requests")
	benchCmd.Flags().IntVar(&benchConcurrency, "concurrency", 8, "Number of concurrent workers")
	benchCmd.Flags().BoolVar(&benchContend, "contend", false, "Break a held oplock on every request")
	benchCmd.Flags().DurationVar(&benchAckDelay, "ack-delay", time.Millisecond, "Delay before the oplock holder acknowledges a break")
	_ = benchCmd.MarkFlagRequired("share")
}

// benchResult summarizes a run.
type benchResult struct {
	Requests    int           `json:"requests" yaml:"requests"`
	Concurrency int           `json:"concurrency" yaml:"concurrency"`
	Failures    int64         `json:"failures" yaml:"failures"`
	Elapsed     time.Duration `json:"elapsed_ns" yaml:"elapsed_ns"`
	PerSecond   float64       `json:"requests_per_second" yaml:"requests_per_second"`
	P50         time.Duration `json:"p50_ns" yaml:"p50_ns"`
	P90         time.Duration `json:"p90_ns" yaml:"p90_ns"`
	P99         time.Duration `json:"p99_ns" yaml:"p99_ns"`
	Max         time.Duration `json:"max_ns" yaml:"max_ns"`
}

// Headers implements output.TableRenderer.
func (r *benchResult) Headers() []string {
	return []string{"Requests", "Workers", "Failures", "Elapsed", "Req/s", "p50", "p90", "p99", "Max"}
}

// Rows implements output.TableRenderer.
func (r *benchResult) Rows() [][]string {
	return [][]string{{
		fmt.Sprint(r.Requests),
		fmt.Sprint(r.Concurrency),
		fmt.Sprint(r.Failures),
		r.Elapsed.Round(time.Millisecond).String(),
		fmt.Sprintf("%.0f", r.PerSecond),
		r.P50.String(),
		r.P90.String(),
		r.P99.String(),
		r.Max.String(),
	}}
}

// ackingHolder is a simulated oplock holder that acknowledges every break
// after a fixed delay.
type ackingHolder struct {
	manager *oplock.Manager
	delay   time.Duration
	wg      sync.WaitGroup
}

func (a *ackingHolder) SendOplockBreak(sessionID uint64, nodeID uuid.UUID, newLevel oplock.Level) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		time.Sleep(a.delay)
		if err := a.manager.Acknowledge(nodeID, sessionID, newLevel); err != nil {
			logger.Debug("bench: late oplock acknowledgment", logger.Err(err))
		}
	}()
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchRequests <= 0 || benchConcurrency <= 0 {
		return fmt.Errorf("--requests and --concurrency must be positive")
	}
	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rt, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(context.Background()) }()

	if rt.cfg.Metrics.Enabled {
		server := metrics.NewServer(metrics.ServerConfig{Port: rt.cfg.Metrics.Port})
		go func() {
			if err := server.Start(ctx); err != nil {
				logger.Error("metrics server error", logger.Err(err))
			}
		}()
	}

	tree, err := rt.connect(ctx, benchShare)
	if err != nil {
		return err
	}
	defer rt.registry.TreeDisconnect(tree)

	target, err := benchTarget(ctx, rt, tree.Root, tree.Cwd)
	if err != nil {
		return err
	}
	nodeID := target.ID()
	target.Release()

	holder := &ackingHolder{manager: rt.oplocks, delay: benchAckDelay}
	if benchContend {
		rt.oplocks.SetNotifier(holder)
	}

	latencies := make([]time.Duration, benchRequests)
	var next atomic.Int64
	var failures atomic.Int64

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < benchConcurrency; w++ {
		session := uint64(w + 1)
		g.Go(func() error {
			for {
				i := int(next.Add(1)) - 1
				if i >= benchRequests {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				if benchContend {
					rt.oplocks.Grant(nodeID, benchHolderSession, oplock.LevelBatch)
				}

				req := &handlers.SetInformationRequest{
					FileAttributes: benchAttributes(i),
					LastWriteTime:  types.AbsoluteToLocal(rt.location, time.Now()),
					FileName:       benchFile,
				}
				body, err := req.Encode(false)
				if err != nil {
					return err
				}

				t0 := time.Now()
				hc := rt.handlerContext(gctx, tree, session, uint16(i), false)
				res := rt.handler.Dispatch(hc, types.SMBComSetInformation, body)
				latencies[i] = time.Since(t0)
				if res.Status.IsError() {
					failures.Add(1)
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)
	holder.wg.Wait()

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	return printer.Print(&benchResult{
		Requests:    benchRequests,
		Concurrency: benchConcurrency,
		Failures:    failures.Load(),
		Elapsed:     elapsed,
		PerSecond:   float64(benchRequests) / elapsed.Seconds(),
		P50:         percentile(latencies, 50),
		P90:         percentile(latencies, 90),
		P99:         percentile(latencies, 99),
		Max:         latencies[len(latencies)-1],
	})
}

// benchTarget opens the bench file, creating it when missing.
func benchTarget(ctx context.Context, rt *app, root, cwd metadata.Handle) (metadata.Handle, error) {
	store := rt.registry.Store()
	dir, name, err := store.ResolvePath(ctx, rt.identity, root, cwd, benchFile)
	if err != nil {
		return nil, err
	}
	defer dir.Release()

	h, err := store.Lookup(ctx, rt.identity, dir, name, true)
	if err == nil {
		return h, nil
	}
	if !metaerrors.Is(err, metaerrors.ErrNotFound) {
		return nil, err
	}
	return store.Create(ctx, rt.identity, dir, name, metadata.FileAttr{Type: metadata.FileTypeRegular, Mode: 0o644})
}

// benchAttributes alternates between two attribute sets so every
// request leaves the node dirty.
func benchAttributes(i int) types.FileAttributes {
	if i%2 == 0 {
		return types.FileAttributeArchive
	}
	return types.FileAttributeArchive | types.FileAttributeHidden
}

// percentile returns the p-th percentile of sorted.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted)*p + 99) / 100
	if idx > 0 {
		idx--
	}
	return sorted[idx]
}

// Command cachesim replays an access trace through the multi-core cache
// hierarchy and prints per-core statistics plus the top miss locations.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/cachesim/config"
	"github.com/IvanBrykalov/cachesim/internal/util"
	"github.com/IvanBrykalov/cachesim/metrics/prom"
	"github.com/IvanBrykalov/cachesim/sim"
	"github.com/IvanBrykalov/cachesim/trace"
)

var (
	flagConfig  string
	flagCores   int
	flagPolicy  string
	flagL2      bool
	flagLimit   int
	flagRegions bool
	flagMetrics string
	flagDebug   bool

	flagIBlk, flagIAssoc, flagISize    int
	flagITagl                          uint
	flagDBlk, flagDAssoc, flagDSize    int
	flagDTagl                          uint
	flagL2Blk, flagL2Assoc, flagL2Size int
	flagL2Tagl                         uint
)

var rootCmd = &cobra.Command{
	Use:   "cachesim [flags] <trace file>",
	Short: "multi-core set-associative cache simulator",
	Long: `cachesim estimates the hit/miss behavior of instruction and data
streams without modeling data values. It replays a trace file (one access
per line, "-" for stdin) against per-core L1 instruction/data caches and an
optional unified L2, and reports per-core and aggregate statistics together
with the instruction locations causing the most misses.`,
	Args:         cobra.ExactArgs(1),
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flagConfig, "config", "", "YAML configuration file")
	f.IntVar(&flagCores, "cores", 1, "number of simulated cores")
	f.StringVar(&flagPolicy, "replace", "lru", "eviction policy: lru | fifo | rand")
	f.BoolVar(&flagL2, "l2", false, "enable the unified L2 cache")
	f.IntVar(&flagLimit, "limit", 32, "top-N instruction locations to report")
	f.BoolVar(&flagRegions, "regions", false, "record only between BEGIN/END markers")
	f.StringVar(&flagMetrics, "metrics", "", "serve Prometheus metrics at addr (e.g. :8080); empty = disabled")
	f.BoolVar(&flagDebug, "debug", false, "enable debug logging")

	f.IntVar(&flagIBlk, "iblksize", 64, "L1-I block size")
	f.IntVar(&flagIAssoc, "iassoc", 8, "L1-I associativity")
	f.IntVar(&flagISize, "icachesize", 64*8*32, "L1-I total size")
	f.UintVar(&flagITagl, "itaglsize", 53, "L1-I low-tag width")
	f.IntVar(&flagDBlk, "dblksize", 64, "L1-D block size")
	f.IntVar(&flagDAssoc, "dassoc", 8, "L1-D associativity")
	f.IntVar(&flagDSize, "dcachesize", 64*8*32, "L1-D total size")
	f.UintVar(&flagDTagl, "dtaglsize", 53, "L1-D low-tag width")
	f.IntVar(&flagL2Blk, "l2blksize", 64, "L2 block size")
	f.IntVar(&flagL2Assoc, "l2assoc", 16, "L2 associativity")
	f.IntVar(&flagL2Size, "l2cachesize", 64*16*2048, "L2 total size")
	f.UintVar(&flagL2Tagl, "l2taglsize", 45, "L2 low-tag width")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func run(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if flagDebug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}

	h, err := sim.New(params)
	if err != nil {
		return err
	}
	slog.Debug("hierarchy built",
		"cores", h.Cores(), "l2", h.L2Enabled(), "policy", cfg.Policy)

	if flagMetrics != "" {
		prometheus.MustRegister(prom.NewCollector(h, "cachesim", "", nil))
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			slog.Info("metrics: serving", "addr", flagMetrics)
			if err := http.ListenAndServe(flagMetrics, nil); err != nil {
				slog.Error("metrics server", "err", err)
			}
		}()
	}

	in := os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	// The final report runs through atexit so it is also emitted when a
	// later stage aborts the process.
	var stats replayStats
	atexit.Register(func() {
		fmt.Println(h.Snapshot(false))
		fmt.Println(h.TopLocations(cfg.Limit))
		slog.Debug("replayed",
			"fetches", stats.fetches.Load(),
			"reads", stats.reads.Load(),
			"writes", stats.writes.Load())
	})

	return replay(h, trace.NewScanner(in), cfg.Cores, &stats, os.Stdout)
}

// resolveConfig layers flag overrides over the optional config file over the
// defaults. Only flags the user actually set override the file.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		var err error
		if cfg, err = config.Load(flagConfig); err != nil {
			return config.Config{}, err
		}
	}

	set := func(name string, apply func()) {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	set("cores", func() { cfg.Cores = flagCores })
	set("replace", func() { cfg.Policy = flagPolicy })
	set("l2", func() { cfg.UseL2 = flagL2 })
	set("limit", func() { cfg.Limit = flagLimit })
	set("regions", func() { cfg.GateRegions = flagRegions })

	set("iblksize", func() { cfg.L1I.BlockSize = flagIBlk })
	set("iassoc", func() { cfg.L1I.Assoc = flagIAssoc })
	set("icachesize", func() { cfg.L1I.Size = flagISize })
	set("itaglsize", func() { cfg.L1I.LowTagBits = flagITagl })
	set("dblksize", func() { cfg.L1D.BlockSize = flagDBlk })
	set("dassoc", func() { cfg.L1D.Assoc = flagDAssoc })
	set("dcachesize", func() { cfg.L1D.Size = flagDSize })
	set("dtaglsize", func() { cfg.L1D.LowTagBits = flagDTagl })
	set("l2blksize", func() { cfg.L2.BlockSize = flagL2Blk; cfg.UseL2 = true })
	set("l2assoc", func() { cfg.L2.Assoc = flagL2Assoc; cfg.UseL2 = true })
	set("l2cachesize", func() { cfg.L2.Size = flagL2Size; cfg.UseL2 = true })
	set("l2taglsize", func() { cfg.L2.LowTagBits = flagL2Tagl; cfg.UseL2 = true })

	return cfg, nil
}

// replayStats are hot counters shared by all replay workers; the padding
// keeps them on separate cache lines.
type replayStats struct {
	fetches util.PaddedAtomicUint64
	reads   util.PaddedAtomicUint64
	writes  util.PaddedAtomicUint64
}

// replay feeds trace records to one goroutine per core, preserving per-core
// order while letting cores run concurrently. Region markers quiesce the
// workers first, so the window boundaries are exact.
func replay(h *sim.Hierarchy, sc *trace.Scanner, cores int, stats *replayStats, out io.Writer) error {
	feeds, g := startWorkers(h, cores, stats)
	stop := func() error {
		for _, ch := range feeds {
			close(ch)
		}
		return g.Wait()
	}

	for {
		rec, err := sc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = stop()
			return err
		}

		switch rec.Kind {
		case trace.RegionBegin:
			if err := stop(); err != nil {
				return err
			}
			h.RegionStart()
			feeds, g = startWorkers(h, cores, stats)
		case trace.RegionEnd:
			if err := stop(); err != nil {
				return err
			}
			fmt.Fprintln(out, h.RegionEnd())
			feeds, g = startWorkers(h, cores, stats)
		default:
			feeds[rec.Core%cores] <- rec
		}
	}
	return stop()
}

func startWorkers(h *sim.Hierarchy, cores int, stats *replayStats) ([]chan trace.Record, *errgroup.Group) {
	feeds := make([]chan trace.Record, cores)
	g := &errgroup.Group{}
	for i := range feeds {
		ch := make(chan trace.Record, 1024)
		feeds[i] = ch
		g.Go(func() error {
			// Data accesses are attributed to the location of the most
			// recent fetch on this core, the way an instrumented
			// instruction charges its own memory callbacks.
			var cur *sim.Location
			for rec := range ch {
				switch rec.Kind {
				case trace.Fetch:
					cur = h.Location(rec.Addr, rec.Disas, "")
					h.RecordInstructionFetch(rec.Core, rec.Addr, cur)
					stats.fetches.Add(1)
				case trace.Read:
					h.RecordDataAccess(rec.Core, rec.Addr, cur)
					stats.reads.Add(1)
				case trace.Write:
					h.RecordDataAccess(rec.Core, rec.Addr, cur)
					stats.writes.Add(1)
				}
			}
			return nil
		})
	}
	return feeds, g
}

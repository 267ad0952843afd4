package main

import (
	"fmt"

	sigar "github.com/cloudfoundry/gosigar"
	"github.com/spf13/cobra"

	"github.com/joshuapare/poolkit/internal/logger"
	"github.com/joshuapare/poolkit/internal/workload"
	"github.com/joshuapare/poolkit/mem/flist"
)

var (
	statsPoolSize  int
	statsSize      int
	statsCount     int
	statsFreeEvery int
)

func init() {
	cmd := newStatsCmd()
	cmd.Flags().IntVar(&statsPoolSize, "pool-size", 0, "Initial pool size (default $POOLKIT_POOL_SIZE or 4096)")
	cmd.Flags().IntVar(&statsSize, "size", 64, "Bytes per allocation")
	cmd.Flags().IntVar(&statsCount, "count", 10000, "Number of allocations")
	cmd.Flags().IntVar(&statsFreeEvery, "free-every", 3, "Free every k-th allocation immediately (0 = never)")
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Run a synthetic churn and show allocator statistics",
		Long: `The stats command allocates --count blocks of --size bytes, freeing every
--free-every-th one right away, and then reports pool, free-list and
fragmentation statistics together with host memory figures.

Example:
  poolctl stats
  poolctl stats --size 24 --count 1000000 --free-every 2
  POOLKIT_POOL_SIZE=65536 poolctl stats --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats()
		},
	}
	return cmd
}

// HostMemory is the machine-wide memory snapshot reported next to the
// allocator figures.
type HostMemory struct {
	Total uint64 `json:"total"`
	Used  uint64 `json:"used"`
	Free  uint64 `json:"free"`
}

// StatsReport is the JSON form of the stats command.
type StatsReport struct {
	PoolSize int                  `json:"pool_size"`
	Churn    workload.ChurnResult `json:"churn"`
	Stats    flist.Stats          `json:"stats"`
	Host     *HostMemory          `json:"host,omitempty"`
}

func runStats() error {
	poolSize := statsPoolSize
	if poolSize <= 0 {
		poolSize = env.PoolSize
	}
	if statsCount < 0 || statsSize < 0 {
		return fmt.Errorf("--count and --size must not be negative")
	}

	opts, err := allocOptions()
	if err != nil {
		return err
	}
	a, err := flist.New(poolSize, opts)
	if err != nil {
		return fmt.Errorf("failed to create allocator: %w", err)
	}
	defer a.Destroy()

	printVerbose("Churning %d x %d bytes, freeing every %d\n", statsCount, statsSize, statsFreeEvery)
	report := StatsReport{
		PoolSize: poolSize,
		Churn:    workload.Churn(a, statsSize, statsCount, statsFreeEvery),
		Stats:    a.Stats(),
		Host:     hostMemory(),
	}
	if err := a.Verify(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(report)
	}

	printInfo("\nAllocator Statistics:\n")
	printInfo("  Initial pool:   %s\n", bytesOf(poolSize))
	printInfo("  Allocations:    %s (%s freed, %s failed)\n", num.Sprintf("%d", report.Churn.Allocs),
		num.Sprintf("%d", report.Churn.Frees), num.Sprintf("%d", report.Churn.Failed))
	printStats(report.Stats)
	if h := report.Host; h != nil {
		printInfo("\nHost Memory:\n")
		printInfo("  Total:          %s\n", bytesOf(int(h.Total)))
		printInfo("  Used:           %s\n", bytesOf(int(h.Used)))
		printInfo("  Free:           %s\n", bytesOf(int(h.Free)))
	}
	return nil
}

// hostMemory samples system memory, or returns nil where gosigar cannot.
func hostMemory() *HostMemory {
	m := sigar.Mem{}
	if err := m.Get(); err != nil {
		logger.Debug("host memory unavailable", "err", err)
		return nil
	}
	return &HostMemory{Total: m.Total, Used: m.Used, Free: m.Free}
}

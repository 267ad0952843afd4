package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/poolkit/internal/workload"
)

func init() {
	rootCmd.AddCommand(newReplayCmd())
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <workload.yaml>",
		Short: "Replay an allocation trace",
		Long: `The replay command runs a YAML allocation trace against a fresh
allocator. Every live payload is filled with a pattern that is checked when
it is freed, so overlapping or corrupted blocks are reported.

Workload format:
  pool_size: 4096          # initial pool capacity (required)
  min_pool_size: 65536     # floor for grown pools (optional)
  max_bytes: 1048576       # cap on total pool memory (optional)
  poison: true             # fill freed payloads (optional)
  steps:
    - {op: alloc, id: a, size: 64}
    - op: repeat
      count: 1000
      steps:
        - {op: alloc, id: "tmp{i}", size: 24}
        - {op: free, id: "tmp{i}"}
    - {op: free, id: a}

Example:
  poolctl replay trace.yaml
  poolctl replay trace.yaml --backing heap --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
	return cmd
}

func runReplay(args []string) error {
	path := args[0]

	printVerbose("Loading workload: %s\n", path)
	w, err := workload.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load workload: %w", err)
	}

	opts, err := allocOptions()
	if err != nil {
		return err
	}
	rep, err := w.Replay(opts)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	if jsonOut {
		if err := printJSON(rep); err != nil {
			return err
		}
	} else {
		printInfo("\nReplay: %s\n", path)
		printInfo("  Allocations:    %s (%s failed)\n", num.Sprintf("%d", rep.Allocs), num.Sprintf("%d", rep.Failed))
		printInfo("  Frees:          %s (%s unknown ids)\n", num.Sprintf("%d", rep.Frees), num.Sprintf("%d", rep.UnknownFrees))
		printInfo("  Still live:     %s\n", num.Sprintf("%d", rep.Leaked))
		printInfo("  Corrupted:      %s\n", num.Sprintf("%d", rep.Corrupted))
		printStats(rep.Stats)
	}

	if rep.Corrupted > 0 {
		return fmt.Errorf("%d payload(s) corrupted", rep.Corrupted)
	}
	return nil
}

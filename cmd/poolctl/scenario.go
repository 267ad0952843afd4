package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/poolkit/internal/workload"
)

var (
	scenarioN int
)

func init() {
	cmd := newScenarioCmd()
	cmd.Flags().IntVarP(&scenarioN, "n", "n", 0, "Number of operations (0 = scenario default)")
	rootCmd.AddCommand(cmd)
}

func newScenarioCmd() *cobra.Command {
	var names []string
	for _, s := range workload.Scenarios {
		names = append(names, s.Name)
	}
	cmd := &cobra.Command{
		Use:   "scenario <" + strings.Join(names, "|") + "|all>",
		Short: "Run a built-in allocator scenario",
		Long: `The scenario command runs one of the self-checking allocator workloads
and reports whether it passed, how many pools it needed and the final
statistics.

Scenarios:
  a  single 6000 byte pool, 500 word-sized requests, every 4th freed
  b  200 byte allocator, 2000 word-sized requests, every 11th freed
  c  ints pushed one at a time into a vector over a free-list allocator
  d  10 byte pool refuses 100 bytes, an allocator of the same size grows

Example:
  poolctl scenario a
  poolctl scenario c --n 100000000
  poolctl scenario all --json`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: append(names, "all"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(args)
		},
	}
	return cmd
}

func runScenario(args []string) error {
	var run []workload.Scenario
	if strings.EqualFold(args[0], "all") {
		run = workload.Scenarios
	} else {
		s, ok := workload.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown scenario %q", args[0])
		}
		run = []workload.Scenario{s}
	}

	opts, err := allocOptions()
	if err != nil {
		return err
	}

	results := make([]workload.Result, 0, len(run))
	failed := 0
	for _, s := range run {
		printVerbose("Running scenario %s: %s\n", s.Name, s.Description)
		res, err := s.Run(scenarioN, opts)
		if err != nil {
			return err
		}
		if !res.Passed {
			failed++
		}
		results = append(results, res)
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			printResult(res)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d scenario(s) failed", failed)
	}
	return nil
}

func printResult(res workload.Result) {
	status := "PASS"
	if !res.Passed {
		status = "FAIL"
	}
	printInfo("\nScenario %s: %s\n", strings.ToUpper(res.Name), status)
	printInfo("  Operations:     %s in %s\n", num.Sprintf("%d", res.N), res.Elapsed.Round(time.Microsecond))
	printInfo("  Failures:       %s\n", num.Sprintf("%d", res.Failures))
	if res.Want != 0 {
		printInfo("  Sum:            %s (want %s)\n", num.Sprintf("%d", res.Sum), num.Sprintf("%d", res.Want))
	}
	if res.Detail != "" {
		printInfo("  Detail:         %s\n", res.Detail)
	}
	printStats(res.Stats)
}

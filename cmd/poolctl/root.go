package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/joshuapare/poolkit/internal/logger"
	"github.com/joshuapare/poolkit/mem/flist"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	jsonOut  bool
	logLevel string
	backing  string
	poison   bool

	// env holds POOLKIT_* defaults, loaded before every command.
	env envConfig
)

// envConfig lists the environment variables poolctl reads. Flags given on
// the command line win over them.
type envConfig struct {
	Verbose  bool   `envconfig:"VERBOSE"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"warn"`
	PoolSize int    `envconfig:"POOL_SIZE" default:"4096"`
	Backing  string `envconfig:"BACKING"   default:"mapped"`
}

const envPrefix = "POOLKIT"

var rootCmd = &cobra.Command{
	Use:   "poolctl",
	Short: "Exercise and inspect free-list pool allocators",
	Long: `poolctl drives the poolkit free-list allocator: it runs the built-in
scenarios, replays allocation traces from YAML files and reports pool
statistics next to host memory figures.

Environment:
  POOLKIT_VERBOSE     default for --verbose
  POOLKIT_LOG_LEVEL   default for --log-level
  POOLKIT_POOL_SIZE   default initial pool size for stats
  POOLKIT_BACKING     default for --backing`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logs")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&backing, "backing", "mapped", "Pool memory: mapped or heap")
	rootCmd.PersistentFlags().BoolVar(&poison, "poison", false, "Fill freed payloads with 0xFF")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup applies environment defaults and configures logging.
func setup(cmd *cobra.Command, _ []string) error {
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	flags := cmd.Flags()
	if !flags.Changed("verbose") {
		verbose = env.Verbose
	}
	if !flags.Changed("log-level") {
		logLevel = env.LogLevel
	}
	if !flags.Changed("backing") {
		backing = env.Backing
	}

	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	if verbose && !flags.Changed("log-level") {
		level = slog.LevelDebug
	}
	logger.Init(logger.Options{
		Enabled: true,
		Writer:  os.Stderr,
		JSON:    jsonOut,
		Level:   level,
	})
	return nil
}

// allocOptions builds allocator options from the global flags.
func allocOptions() (*flist.Options, error) {
	opts := &flist.Options{Poison: poison}
	switch strings.ToLower(backing) {
	case "", "mapped", "mmap":
		opts.Backing = flist.BackingMapped
	case "heap":
		opts.Backing = flist.BackingHeap
	default:
		return nil, fmt.Errorf("unknown backing %q (want mapped or heap)", backing)
	}
	return opts, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

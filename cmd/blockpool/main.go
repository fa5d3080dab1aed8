package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/memtools/blockpool/internal/demo"
	"github.com/memtools/blockpool/pkg/config"
	"github.com/memtools/blockpool/pkg/logger"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	root := &cobra.Command{
		Use:   "blockpool",
		Short: "blockpool - fixed-size-block memory pool",
		Long: `blockpool is a fixed-size-block memory pool: a pre-reserved region
subdivided into equal slots, allocated and reclaimed in O(1) with
detection of double frees, foreign pointers, and misaligned pointers.`,
	}

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("blockpool v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	// Demo command
	var configFile string
	var slotSize, slotCount int
	var backing, logLevel string
	var zeroOnRelease, enableMetrics bool

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the memory pool demo scenario",
		Long: `Run the scripted demo scenario: fill part of the pool with example
records, release one, attempt a double free, observe LIFO reuse,
exhaust the pool, and destroy it, logging statistics after each phase.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDemoConfig(configFile)
			if err != nil {
				return err
			}

			// Command line flags override the file where explicitly set.
			if cmd.Flags().Changed("slot-size") {
				cfg.Pool.SlotSize = slotSize
			}
			if cmd.Flags().Changed("slot-count") {
				cfg.Pool.SlotCount = slotCount
			}
			if cmd.Flags().Changed("backing") {
				cfg.Pool.Backing = backing
			}
			if cmd.Flags().Changed("zero-on-release") {
				cfg.Pool.ZeroOnRelease = zeroOnRelease
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Observability.LogLevel = logLevel
			}
			if cmd.Flags().Changed("enable-metrics") {
				cfg.Observability.EnableMetrics = enableMetrics
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			return runDemo(cfg)
		},
	}

	demoCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to demo configuration JSON file (optional)")
	demoCmd.Flags().IntVar(&slotSize, "slot-size", 48, "Slot size in bytes (rounded up to the pointer width)")
	demoCmd.Flags().IntVar(&slotCount, "slot-count", 5, "Total number of slots")
	demoCmd.Flags().StringVar(&backing, "backing", config.BackingHeap, "Backing region provider (heap, mmap)")
	demoCmd.Flags().BoolVar(&zeroOnRelease, "zero-on-release", false, "Zero slot bytes when they return to the free list")
	demoCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	demoCmd.Flags().BoolVar(&enableMetrics, "enable-metrics", true, "Enable prometheus collectors for the demo pool")

	root.AddCommand(demoCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadDemoConfig loads the demo configuration from a file, or returns
// defaults when no file is given.
func loadDemoConfig(path string) (*config.DemoConfig, error) {
	if path == "" {
		return config.NewDemoConfig(), nil
	}
	return config.Load(path)
}

// runDemo executes the demo scenario and logs the outcome.
func runDemo(cfg *config.DemoConfig) error {
	if err := logger.Init(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: "console",
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	log := logger.With(
		zap.String("component", "blockpool-cli"),
		zap.Int("slot_size", cfg.Pool.SlotSize),
		zap.Int("slot_count", cfg.Pool.SlotCount),
		zap.String("backing", cfg.Pool.Backing),
	)

	log.Info("starting demo scenario")

	report, err := demo.Run(cfg, log)
	if err != nil {
		return fmt.Errorf("demo scenario failed: %w", err)
	}

	log.Info("demo scenario completed",
		zap.Bool("double_free_rejected", report.DoubleFreeRejected),
		zap.Bool("reused_released_slot", report.ReusedReleasedSlot),
		zap.Bool("exhaustion_observed", report.ExhaustionObserved))

	return nil
}

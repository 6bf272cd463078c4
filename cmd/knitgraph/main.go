// Package main provides the knitgraph CLI entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/knitgraph/knitgraph/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	configPath string
	dbPath     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "knitgraph",
	Short: "Knitting pattern generation from contour curves",
	Long: `knitgraph derives machine-knittable stitch patterns from stacks of
contour curves. The generate command runs the full pipeline: contours
are divided into courses, connected by weft and warp edges, segmented,
sampled at stitch gauge, dualized and topologically sorted into a
pattern matrix. Networks and matrices can be persisted to SQLite.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Trace pipeline decisions to stderr")
	rootCmd.Version = Version
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration from the --config
// file, the environment and the --db flag.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if dbPath != "" {
		cfg.DB = dbPath
	}

	return cfg, nil
}

// newLogger returns a stderr text logger at Debug when --verbose is
// set, Info otherwise.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

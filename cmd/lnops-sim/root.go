package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lnops-sim/internal/config"
	"lnops-sim/internal/scenario"
)

var (
	configPath  string
	schemaPath  string
	catalogPath string
	trackID     string
	logLevel    string
	reportDir   string
)

var rootCmd = &cobra.Command{
	Use:          "lnops-sim",
	Short:        "Lightning node adversarial stress test",
	Long:         "lnops-sim runs the adversarial stress test exam: keep a Lightning node alive for a fixed window while incidents spawn and drain its uptime.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "config/stresstest.yaml", "Path to stress test configuration YAML")
	pf.StringVar(&schemaPath, "schema", "schemas/stresstest.cue", "Path to CUE schema file")
	pf.StringVar(&catalogPath, "catalog", "", "Path to an extra scenario catalog YAML")
	pf.StringVar(&trackID, "track", "", "Learning track to draw incidents from")
	pf.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&reportDir, "report-dir", "", "Write a Markdown incident report per finished run into this directory")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(tracksCmd)
}

// session is what every subcommand loads before it runs.
type session struct {
	cfg     *config.Config
	catalog *scenario.Catalog
}

// loadSession resolves config, environment and flags, in that order of
// precedence from lowest to highest, and loads the scenario catalog.
func loadSession(cmd *cobra.Command, log *slog.Logger) (*session, error) {
	cfgFile := optionalPath(cmd, "config", configPath)
	schemaFile := optionalPath(cmd, "schema", schemaPath)

	cfg, err := config.Load(cfgFile, schemaFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("track") {
		cfg.Track = trackID
	}
	if catalogPath != "" {
		cfg.CatalogPath = catalogPath
	}

	cat, err := scenario.LoadWithBuiltIn(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if !cat.Has(cfg.Track) {
		log.Warn("unknown track, using default", "track", cfg.Track, "default", cat.Resolve(cfg.Track))
	}
	return &session{cfg: cfg, catalog: cat}, nil
}

// optionalPath drops a default file path that does not exist, so the binary
// still runs with built-in defaults outside the repository checkout.
func optionalPath(cmd *cobra.Command, flag, path string) string {
	if cmd.Flags().Changed(flag) {
		return path
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return path
}

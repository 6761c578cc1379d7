package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"lnops-sim/internal/admin"
	"lnops-sim/internal/logging"
	"lnops-sim/internal/sim"
)

var (
	playLogFile   string
	playTrace     string
	playAdminAddr string
	playSeed      int64
	playTick      time.Duration
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the stress test in the terminal",
	Long:  "play opens the interactive incident console. Select incidents, apply mitigations and keep uptime above zero until the countdown ends.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// The alt screen owns the terminal, so logs go to a file or nowhere.
		log := logging.Discard()
		if playLogFile != "" {
			f, err := os.OpenFile(playLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
			log = logging.NewWithWriter(f, logLevel)
		}
		slog.SetDefault(log)

		sess, err := loadSession(cmd, log)
		if err != nil {
			return err
		}
		cfg := sess.cfg
		if cmd.Flags().Changed("seed") {
			cfg.Seed = playSeed
		}
		if cmd.Flags().Changed("tick") {
			cfg.TickInterval = playTick
		}
		if cmd.Flags().Changed("admin") {
			cfg.AdminAddr = playAdminAddr
		}
		if cmd.Flags().Changed("trace-file") {
			cfg.TraceFile = playTrace
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		writer, cleanup, err := newTraceWriter(sess.catalog.Resolve(cfg.Track), cfg.Rules, true, true, cfg.TraceFile)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		engine := sim.NewEngine(cfg, sess.catalog, writer, sim.WithLogger(log), sim.WithOutcome(reportOutcome(reportDir, log)))
		go engine.Run(ctx)

		if cfg.AdminAddr != "" {
			srv := admin.NewServer(engine, log)
			go func() {
				if err := srv.Start(ctx, cfg.AdminAddr); err != nil {
					log.Error("admin server failed", "err", err)
				}
			}()
		}

		console := sim.NewTUIWriter(engine, sim.RulesFrom(cfg.Rules), tea.WithAltScreen(), tea.WithContext(ctx))
		if err := console.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("console: %w", err)
		}
		if out, ok := engine.Outcome(); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: score %.1f, %d threats neutralized\n", out.Result, out.Score, out.Resolved)
		}
		return nil
	},
}

func init() {
	f := playCmd.Flags()
	f.StringVar(&playLogFile, "log-file", "", "Write logs to this file while the console is open")
	f.StringVar(&playTrace, "trace-file", "", "Path to export the tick trace (JSONL)")
	f.StringVar(&playAdminAddr, "admin", "", "Serve the admin UI on this address (e.g. :8080)")
	f.Int64Var(&playSeed, "seed", 0, "Random seed (0 picks one from the clock)")
	f.DurationVar(&playTick, "tick", time.Second, "Clock period (e.g. 500ms for a faster drill)")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lnops-sim/internal/admin"
	"lnops-sim/internal/incident"
	"lnops-sim/internal/logging"
	"lnops-sim/internal/sim"
)

var (
	simSeed      int64
	simTick      time.Duration
	simTrace     string
	simJSON      bool
	simQuiet     bool
	simRealtime  bool
	simRuns      int
	simAdminAddr string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the stress test headless with an autopilot responder",
	Long:  "simulate plays one or more stress test runs without a human, printing the tick, action and outcome trace and optionally exporting it as JSONL.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.NewWithWriter(cmd.ErrOrStderr(), logLevel)
		sess, err := loadSession(cmd, log)
		if err != nil {
			return err
		}
		cfg := sess.cfg
		if cmd.Flags().Changed("seed") {
			cfg.Seed = simSeed
		}
		if cmd.Flags().Changed("tick") {
			cfg.TickInterval = simTick
		}
		if cmd.Flags().Changed("admin") {
			cfg.AdminAddr = simAdminAddr
		}
		if cmd.Flags().Changed("trace-file") {
			cfg.TraceFile = simTrace
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if simRuns < 1 {
			return fmt.Errorf("runs must be at least 1, got %d", simRuns)
		}

		writer, cleanup, err := newTraceWriter(sess.catalog.Resolve(cfg.Track), cfg.Rules, simJSON, simQuiet, cfg.TraceFile)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		engine := sim.NewEngine(cfg, sess.catalog, writer, sim.WithLogger(log), sim.WithOutcome(reportOutcome(reportDir, log)))
		defer engine.Exit()

		var pilotRand sim.Random
		if cfg.Seed != 0 {
			pilotRand = sim.NewRandom(cfg.Seed + 1)
		}
		pilot := sim.NewAutopilot(engine, pilotRand, log)

		if cfg.AdminAddr != "" {
			srv := admin.NewServer(engine, log)
			go func() {
				if err := srv.Start(ctx, cfg.AdminAddr); err != nil {
					log.Error("admin server failed", "err", err)
				}
			}()
		}
		if simRealtime {
			go engine.Run(ctx)
		}

		var outcomes []incident.OutcomeRow
		for i := 0; i < simRuns; i++ {
			if i > 0 {
				engine.Retry()
			}
			var out incident.OutcomeRow
			if simRealtime {
				out, err = pilot.Play(ctx)
			} else {
				out, err = pilot.Drive(ctx, engine.Step)
			}
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, sim.ErrExited) {
					log.Info("stress test interrupted")
					break
				}
				return err
			}
			outcomes = append(outcomes, out)
		}
		printSummary(cmd, outcomes)
		return nil
	},
}

func printSummary(cmd *cobra.Command, outcomes []incident.OutcomeRow) {
	if len(outcomes) == 0 {
		return
	}
	passed := 0
	var total float64
	for _, o := range outcomes {
		if o.Success() {
			passed++
		}
		total += o.Score
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "runs=%d passed=%d failed=%d mean_score=%.1f\n",
		len(outcomes), passed, len(outcomes)-passed, total/float64(len(outcomes)))
}

func init() {
	f := simulateCmd.Flags()
	f.Int64Var(&simSeed, "seed", 0, "Random seed (0 picks one from the clock)")
	f.DurationVar(&simTick, "tick", time.Second, "Clock period when --realtime is set (e.g. 250ms)")
	f.StringVar(&simTrace, "trace-file", "", "Path to export the tick trace (JSONL); actions and outcome go to .actions and .outcome")
	f.BoolVar(&simJSON, "json", false, "Print the trace as JSON lines even on a terminal")
	f.BoolVar(&simQuiet, "quiet", false, "Do not print the trace to STDOUT")
	f.BoolVar(&simRealtime, "realtime", false, "Wait for the clock instead of stepping as fast as possible")
	f.IntVar(&simRuns, "runs", 1, "Number of consecutive runs")
	f.StringVar(&simAdminAddr, "admin", "", "Serve the admin UI on this address (e.g. :8080)")
}

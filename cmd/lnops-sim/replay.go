package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lnops-sim/internal/config"
	"lnops-sim/internal/sim"
)

var (
	replayInput string
	replaySpeed float64
	replayJSON  bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded tick trace",
	Long:  "replay feeds tick rows from a JSONL trace file back to STDOUT at a speed multiplier.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		writer := sim.NewStdoutWriter("replay", sim.RulesFrom(config.DefaultRules()), replayJSON)
		n, err := sim.ReplayLogFile(replayInput, writer, replaySpeed)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "replayed %d ticks\n", n)
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to tick trace file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 disables delays)")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "Print JSON lines even on a terminal")
	replayCmd.MarkFlagRequired("input")
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lnops-sim/internal/logging"
)

var tracksVerbose bool

var tracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "List the scenario catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := loadSession(cmd, logging.NewWithWriter(cmd.ErrOrStderr(), logLevel))
		if err != nil {
			return err
		}
		cat := sess.catalog
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TRACK\tINCIDENTS\tDEFAULT")
		for _, id := range cat.Tracks() {
			def := ""
			if id == cat.Resolve("") {
				def = "*"
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\n", id, len(cat.Templates(id)), def)
			if !tracksVerbose {
				continue
			}
			for _, t := range cat.Templates(id) {
				fmt.Fprintf(tw, "  %s\t%s\t%s (decay %.1f)\n", t.Type, t.Severity, t.Title, t.DecayRate)
			}
		}
		return tw.Flush()
	},
}

func init() {
	tracksCmd.Flags().BoolVarP(&tracksVerbose, "verbose", "v", false, "List every incident template")
}

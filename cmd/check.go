package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that Anki is running with AnkiConnect",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator(false)
		if err != nil {
			return err
		}
		out := o.Check(cmd.Context())
		if err := report(out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "✓ AnkiConnect v%d reachable at %s\n", out.Version, cfg.Anki.URL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var packageCmd = &cobra.Command{
	Use:   "package <source>",
	Short: "Write an .apkg file to import into Anki",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := loadBundle(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		o, err := newOrchestrator(true)
		if err != nil {
			return err
		}
		out := o.Package(cmd.Context(), b, flagDeck)
		if err := report(out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "✓ Packaged %d notes\n", out.Count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(packageCmd)
}

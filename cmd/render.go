package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KNN-07/NotebookLM2Anki/core/render"
)

var flagFormat string

var renderCmd = &cobra.Command{
	Use:   "render <source>",
	Short: "Write a review sheet (Markdown, PDF, JSON or YAML)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := render.ByFormat(flagFormat)
		if err != nil {
			return err
		}
		b, err := loadBundle(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		o, err := newOrchestrator(true)
		if err != nil {
			return err
		}
		return report(o.Render(b, flagDeck, r))
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVar(&flagFormat, "format", "markdown", "Output format: markdown, pdf, json or yaml")
}

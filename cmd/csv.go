package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KNN-07/NotebookLM2Anki/core/orchestrate"
)

var flagCSVMode string

var csvCmd = &cobra.Command{
	Use:   "csv <source>",
	Short: "Write quizzes and flashcards as CSV files",
	Long: `CSV writes one file per kind, named <deck>-quizzes.csv and <deck>-flashcards.csv.

Modes:
  all                quizzes and flashcards, with header rows
  quizzes            quizzes only
  flashcards         flashcards only
  no-header          quizzes and flashcards, without header rows
  quiz-as-flashcard  each quiz as Front=question, Back=correct answer`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := orchestrate.ParseCSVMode(flagCSVMode)
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
		return report(o.CSV(b, flagDeck, mode))
	},
}

func init() {
	rootCmd.AddCommand(csvCmd)
	csvCmd.Flags().StringVar(&flagCSVMode, "mode", string(orchestrate.CSVAll), "CSV mode")
}

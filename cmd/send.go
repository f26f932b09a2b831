package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KNN-07/NotebookLM2Anki/core"
	"github.com/KNN-07/NotebookLM2Anki/core/orchestrate"
)

var flagKind string

var sendCmd = &cobra.Command{
	Use:   "send <source>",
	Short: "Add quizzes and flashcards to a running Anki",
	Long: `Send creates the deck, registers the note types if Anki lacks them, and adds
every extracted note in one batch per kind. Notes Anki rejects as duplicates
are counted but do not fail the run.

Examples:
  notebooklm2anki send ./notebook.html
  notebooklm2anki send ./notebook.html --kind quizzes --deck "Biology 101"`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVar(&flagKind, "kind", string(core.KindAll), "What to send: all, quizzes or flashcards")
}

func runSend(cmd *cobra.Command, args []string) error {
	kind, err := core.ParseKind(flagKind)
	if err != nil {
		return err
	}
	b, err := loadBundle(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	o, err := newOrchestrator(false)
	if err != nil {
		return err
	}

	out := o.Send(cmd.Context(), b, flagDeck, kind)
	if err := report(out); err != nil {
		return err
	}
	deck := orchestrate.ResolveDeckName(flagDeck, b, cfg.Deck.FallbackName)
	fmt.Fprintf(os.Stdout, "✓ Added %d/%d notes to %q\n", out.Count, out.Total, deck)
	if out.Count < out.Total {
		fmt.Fprintf(os.Stdout, "  %d skipped (already in the collection)\n", out.Total-out.Count)
	}
	return nil
}

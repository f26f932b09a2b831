package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/KNN-07/NotebookLM2Anki/core"
)

const previewWidth = 60

var inspectCmd = &cobra.Command{
	Use:   "inspect <source>",
	Short: "List what a page holds without exporting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := loadBundle(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s\n\n", b.Title)

		if len(b.Quizzes) > 0 {
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetTitle("Quizzes")
			t.AppendHeader(table.Row{"#", "Question", "Options", "Correct"})
			for i, q := range b.Quizzes {
				t.AppendRow(table.Row{i + 1, preview(q.Question), len(q.Options), correctLetters(q)})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
		}

		if len(b.Flashcards) > 0 {
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetTitle("Flashcards")
			t.AppendHeader(table.Row{"#", "Front", "Back"})
			for i, c := range b.Flashcards {
				t.AppendRow(table.Row{i + 1, preview(c.Front), preview(c.Back)})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

// correctLetters lists the letters of every correct option, or "-" for none.
func correctLetters(q core.Quiz) string {
	var letters []string
	for i, o := range q.Options {
		if o.IsCorrect {
			letters = append(letters, core.Letter(i))
		}
	}
	if len(letters) == 0 {
		return "-"
	}
	return strings.Join(letters, ",")
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > previewWidth {
		return string(r[:previewWidth-1]) + "…"
	}
	return s
}

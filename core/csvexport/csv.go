// Package csvexport renders quizzes and flashcards as CSV text for Anki's
// File > Import dialog. Every value is quoted; text is written as extracted,
// without math normalization.
package csvexport

import (
	"strings"

	"github.com/KNN-07/NotebookLM2Anki/core"
	"github.com/KNN-07/NotebookLM2Anki/core/notetype"
	"github.com/KNN-07/NotebookLM2Anki/core/output"
)

// Kind names the file suffix of one CSV export.
type Kind string

const (
	KindQuizzes            Kind = "quizzes"
	KindFlashcards         Kind = "flashcards"
	KindQuizzesAsFlashcard Kind = "quiz-flashcards"
)

var (
	quizHeader = []string{
		"Question", "Hint",
		"Option1", "Flag1", "Rationale1",
		"Option2", "Flag2", "Rationale2",
		"Option3", "Flag3", "Rationale3",
		"Option4", "Flag4", "Rationale4",
	}
	flashcardHeader = []string{"Front", "Back"}
)

// Quizzes renders one 14-column row per quiz.
func Quizzes(qs []core.Quiz, includeHeader bool) string {
	var b strings.Builder
	if includeHeader {
		writeHeader(&b, quizHeader)
	}
	row := make([]string, 0, len(quizHeader))
	for _, q := range qs {
		row = append(row[:0], q.Question, q.Hint)
		for i := range core.MaxOptions {
			o := q.OptionAt(i)
			row = append(row, o.Text, notetype.Flag(o.IsCorrect), o.Rationale)
		}
		writeRow(&b, row)
	}
	return b.String()
}

// Flashcards renders one Front,Back row per card.
func Flashcards(cs []core.Flashcard, includeHeader bool) string {
	var b strings.Builder
	if includeHeader {
		writeHeader(&b, flashcardHeader)
	}
	for _, c := range cs {
		writeRow(&b, []string{c.Front, c.Back})
	}
	return b.String()
}

// QuizzesAsFlashcards turns each quiz into a Front,Back row holding the
// question and the text of its first correct option. Quizzes with an empty
// question or no correct option are skipped.
func QuizzesAsFlashcards(qs []core.Quiz, includeHeader bool) string {
	var b strings.Builder
	if includeHeader {
		writeHeader(&b, flashcardHeader)
	}
	for _, q := range qs {
		if q.Question == "" {
			continue
		}
		correct, ok := q.CorrectOption()
		if !ok {
			continue
		}
		writeRow(&b, []string{q.Question, correct.Text})
	}
	return b.String()
}

// FileName returns "<sanitized deck>-<kind>.csv".
func FileName(deckName string, kind Kind) string {
	return output.Sanitize(deckName) + "-" + string(kind) + ".csv"
}

// escapeField quotes v and doubles embedded quotes. Only the empty string
// counts as missing; "0" and "false" are written as themselves.
func escapeField(v string) string {
	if v == "" {
		return `""`
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// writeHeader writes column names bare, the way Anki's importer expects them.
func writeHeader(b *strings.Builder, cols []string) {
	b.WriteString(strings.Join(cols, ","))
	b.WriteByte('\n')
}

func writeRow(b *strings.Builder, values []string) {
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeField(v))
	}
	b.WriteByte('\n')
}

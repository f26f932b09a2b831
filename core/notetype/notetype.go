// Package notetype defines the two Anki note types every sink writes:
// an interactive multiple-choice quiz and a plain front/back flashcard.
// Templates and styling are embedded assets and are never edited at runtime.
package notetype

import (
	_ "embed"
	"fmt"
	"slices"

	"github.com/KNN-07/NotebookLM2Anki/core"
)

var (
	//go:embed templates/quiz_front.html
	quizFront string
	//go:embed templates/quiz_back.html
	quizBack string
	//go:embed templates/quiz.css
	quizCSS string

	//go:embed templates/flashcard_front.html
	flashcardFront string
	//go:embed templates/flashcard_back.html
	flashcardBack string
	//go:embed templates/flashcard.css
	flashcardCSS string
)

// Template is one card template of a note type.
type Template struct {
	Name  string
	Front string
	Back  string
}

// Schema describes a note type: its stable id, field order, card template
// and styling.
type Schema struct {
	ID       int64
	Name     string
	Fields   []string
	Template Template
	CSS      string
}

var quizSchema = Schema{
	ID:   1609234567890,
	Name: "NotebookLM Quiz",
	Fields: []string{
		"Question", "Hint", "ArchDiagram",
		"Option1", "Flag1", "Rationale1",
		"Option2", "Flag2", "Rationale2",
		"Option3", "Flag3", "Rationale3",
		"Option4", "Flag4", "Rationale4",
	},
	Template: Template{Name: "Quiz Card", Front: quizFront, Back: quizBack},
	CSS:      quizCSS,
}

var flashcardSchema = Schema{
	ID:       1609234567891,
	Name:     "NotebookLM Flashcard",
	Fields:   []string{"Front", "Back"},
	Template: Template{Name: "Flashcard", Front: flashcardFront, Back: flashcardBack},
	CSS:      flashcardCSS,
}

// Quiz returns the quiz note type. The returned Fields slice is a copy.
func Quiz() Schema { return quizSchema.clone() }

// Flashcard returns the flashcard note type. The returned Fields slice is a copy.
func Flashcard() Schema { return flashcardSchema.clone() }

func (s Schema) clone() Schema {
	s.Fields = slices.Clone(s.Fields)
	return s
}

// FieldMap pairs values with the schema's field names, as AnkiConnect expects.
func (s Schema) FieldMap(values []string) (map[string]string, error) {
	if len(values) != len(s.Fields) {
		return nil, fmt.Errorf("note type %q has %d fields, got %d values", s.Name, len(s.Fields), len(values))
	}
	m := make(map[string]string, len(values))
	for i, name := range s.Fields {
		m[name] = values[i]
	}
	return m, nil
}

// Flag renders a correctness flag the way the card templates read it.
func Flag(correct bool) string {
	if correct {
		return "True"
	}
	return "False"
}

// QuizFields returns the 15 ordered field values of a quiz note. Empty option
// slots yield empty text and a "False" flag. ArchDiagram is always empty.
// Text passes through n unless n is nil.
func QuizFields(q core.Quiz, n core.Normalizer) []string {
	text := textFunc(n)

	values := make([]string, 0, len(quizSchema.Fields))
	values = append(values, text(q.Question), text(q.Hint), "")
	for i := range core.MaxOptions {
		o := q.OptionAt(i)
		values = append(values, text(o.Text), Flag(o.IsCorrect), text(o.Rationale))
	}
	return values
}

// FlashcardFields returns the front and back values of a flashcard note.
func FlashcardFields(c core.Flashcard, n core.Normalizer) []string {
	text := textFunc(n)
	return []string{text(c.Front), text(c.Back)}
}

func textFunc(n core.Normalizer) func(string) string {
	if n == nil {
		return func(s string) string { return s }
	}
	return n.Normalize
}

package core

import (
	"fmt"
	"time"
)

// MaxOptions is the number of answer slots a quiz note carries.
const MaxOptions = 4

// Kind selects which records of a Bundle an export covers.
type Kind string

const (
	KindAll        Kind = "all"
	KindQuizzes    Kind = "quizzes"
	KindFlashcards Kind = "flashcards"
)

// ParseKind maps a user-supplied string onto a Kind. The empty string means all.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindAll:
		return KindAll, nil
	case KindQuizzes, KindFlashcards:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown kind %q: use all, quizzes or flashcards", s)
	}
}

// Label is the deck suffix used when decks are split by kind.
func (k Kind) Label() string {
	switch k {
	case KindQuizzes:
		return "Quizzes"
	case KindFlashcards:
		return "Flashcards"
	default:
		return ""
	}
}

// Option is one answer choice of a quiz.
type Option struct {
	Text      string `json:"text" yaml:"text"`
	IsCorrect bool   `json:"is_correct" yaml:"is_correct"`
	Rationale string `json:"rationale" yaml:"rationale"`
}

// Quiz is one multiple-choice item. Options are ordered and lettered A–D by
// position; the model does not require exactly one correct option.
type Quiz struct {
	Question string   `json:"question" yaml:"question"`
	Hint     string   `json:"hint" yaml:"hint"`
	Options  []Option `json:"options" yaml:"options"`
}

// CorrectOption returns the first option flagged correct.
func (q Quiz) CorrectOption() (Option, bool) {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o, true
		}
	}
	return Option{}, false
}

// CorrectCount returns how many options are flagged correct.
func (q Quiz) CorrectCount() int {
	n := 0
	for _, o := range q.Options {
		if o.IsCorrect {
			n++
		}
	}
	return n
}

// OptionAt returns the option in slot i, or the zero Option for an empty slot.
func (q Quiz) OptionAt(i int) Option {
	if i < 0 || i >= len(q.Options) {
		return Option{}
	}
	return q.Options[i]
}

// Letter returns the display letter for slot i ("A" for 0).
func Letter(i int) string {
	return string(rune('A' + i))
}

// Flashcard is a plain two-sided card.
type Flashcard struct {
	Front string `json:"front" yaml:"front"`
	Back  string `json:"back" yaml:"back"`
}

// Bundle is everything one extraction pass found on a notebook page.
// It is built once and never mutated by the sinks that read it.
type Bundle struct {
	Title       string      `json:"title" yaml:"title"`
	Quizzes     []Quiz      `json:"quizzes" yaml:"quizzes"`
	Flashcards  []Flashcard `json:"flashcards" yaml:"flashcards"`
	ExtractedAt time.Time   `json:"extracted_at" yaml:"extracted_at"`
}

// IsEmpty reports whether the bundle holds no records at all.
func (b *Bundle) IsEmpty() bool {
	return b == nil || (len(b.Quizzes) == 0 && len(b.Flashcards) == 0)
}

// Total returns the number of records of the given kind.
func (b *Bundle) Total(kind Kind) int {
	if b == nil {
		return 0
	}
	switch kind {
	case KindQuizzes:
		return len(b.Quizzes)
	case KindFlashcards:
		return len(b.Flashcards)
	default:
		return len(b.Quizzes) + len(b.Flashcards)
	}
}

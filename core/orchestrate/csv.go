package orchestrate

import (
	"errors"
	"fmt"

	"github.com/KNN-07/NotebookLM2Anki/core"
	"github.com/KNN-07/NotebookLM2Anki/core/csvexport"
	"github.com/KNN-07/NotebookLM2Anki/core/output"
)

// CSVMode selects what a CSV export writes.
type CSVMode string

const (
	CSVAll             CSVMode = "all"
	CSVQuizzes         CSVMode = "quizzes"
	CSVFlashcards      CSVMode = "flashcards"
	CSVNoHeader        CSVMode = "no-header"
	CSVQuizAsFlashcard CSVMode = "quiz-as-flashcard"
)

// ParseCSVMode maps a user-supplied mode; the empty string means all.
func ParseCSVMode(s string) (CSVMode, error) {
	switch m := CSVMode(s); m {
	case "":
		return CSVAll, nil
	case CSVAll, CSVQuizzes, CSVFlashcards, CSVNoHeader, CSVQuizAsFlashcard:
		return m, nil
	default:
		return "", fmt.Errorf("unknown csv mode %q: use all, quizzes, flashcards, no-header or quiz-as-flashcard", s)
	}
}

type csvFile struct {
	kind csvexport.Kind
	body string
	rows int
	of   int
}

// CSV writes one file per record kind the mode covers. Kinds without records
// are skipped; an export that would write nothing fails.
func (o *Orchestrator) CSV(b *core.Bundle, deckOverride string, mode CSVMode) Outcome {
	if o.deps.Writer == nil {
		return failure(errors.New("output writer is not configured"))
	}
	if b.IsEmpty() {
		return failure(errNothingToExport)
	}
	deck := o.deckName(deckOverride, b)

	header := mode != CSVNoHeader
	var files []csvFile
	addQuizzes := func() {
		if len(b.Quizzes) > 0 {
			files = append(files, csvFile{csvexport.KindQuizzes, csvexport.Quizzes(b.Quizzes, header), len(b.Quizzes), len(b.Quizzes)})
		}
	}
	addFlashcards := func() {
		if len(b.Flashcards) > 0 {
			files = append(files, csvFile{csvexport.KindFlashcards, csvexport.Flashcards(b.Flashcards, header), len(b.Flashcards), len(b.Flashcards)})
		}
	}

	switch mode {
	case CSVAll, CSVNoHeader:
		addQuizzes()
		addFlashcards()
	case CSVQuizzes:
		addQuizzes()
	case CSVFlashcards:
		addFlashcards()
	case CSVQuizAsFlashcard:
		if n := convertible(b.Quizzes); n > 0 {
			files = append(files, csvFile{csvexport.KindQuizzesAsFlashcard, csvexport.QuizzesAsFlashcards(b.Quizzes, true), n, len(b.Quizzes)})
		}
	default:
		return failure(fmt.Errorf("unknown csv mode %q", mode))
	}
	if len(files) == 0 {
		return failure(fmt.Errorf("nothing to export for csv mode %q", mode))
	}

	out := Outcome{Details: make(map[core.Kind]Detail, len(files))}
	for _, f := range files {
		path, err := o.deps.Writer.Write(csvexport.FileName(deck, f.kind), []byte(f.body))
		if err != nil {
			out.Error = message(err)
			return out
		}
		out.Files = append(out.Files, path)
		out.Count += f.rows
		out.Total += f.of
		out.Details[detailKind(f.kind)] = Detail{Count: f.rows, Total: f.of}
	}
	out.Success = true
	return out
}

// convertible counts quizzes that yield a quiz-as-flashcard row.
func convertible(qs []core.Quiz) int {
	n := 0
	for _, q := range qs {
		if _, ok := q.CorrectOption(); ok && q.Question != "" {
			n++
		}
	}
	return n
}

func detailKind(k csvexport.Kind) core.Kind {
	if k == csvexport.KindFlashcards {
		return core.KindFlashcards
	}
	return core.KindQuizzes
}

func sheetName(deck, ext string) string {
	return output.Sanitize(deck) + ext
}

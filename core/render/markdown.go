// Package render turns a Bundle into review sheets for reading outside Anki.
// This file implements the Markdown renderer, which the PDF renderer builds on.
package render

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/KNN-07/NotebookLM2Anki/core"
)

// MarkdownRenderer writes quizzes and flashcards as a Markdown study sheet.
// Field text may carry HTML from the page; it is converted to Markdown.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render builds the sheet: a title, a Quizzes section with lettered options
// and the correct one marked, then a Flashcards section.
func (r *MarkdownRenderer) Render(b *core.Bundle) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("nothing to render")
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "# %s\n\n", b.Title)
	if !b.ExtractedAt.IsZero() {
		fmt.Fprintf(&buf, "_Extracted %s_\n\n", b.ExtractedAt.Format("2006-01-02 15:04 MST"))
	}

	if len(b.Quizzes) > 0 {
		buf.WriteString("## Quizzes\n\n")
		for i, q := range b.Quizzes {
			question, err := inline(q.Question)
			if err != nil {
				return nil, fmt.Errorf("quiz %d question: %w", i+1, err)
			}
			fmt.Fprintf(&buf, "### %d. %s\n\n", i+1, question)

			if q.Hint != "" {
				hint, err := inline(q.Hint)
				if err != nil {
					return nil, fmt.Errorf("quiz %d hint: %w", i+1, err)
				}
				fmt.Fprintf(&buf, "_Hint: %s_\n\n", hint)
			}

			for j, o := range q.Options {
				text, err := inline(o.Text)
				if err != nil {
					return nil, fmt.Errorf("quiz %d option %s: %w", i+1, core.Letter(j), err)
				}
				marker := ""
				if o.IsCorrect {
					marker = " **(correct)**"
				}
				fmt.Fprintf(&buf, "- **%s.** %s%s\n", core.Letter(j), text, marker)
				if o.Rationale != "" {
					rationale, err := inline(o.Rationale)
					if err != nil {
						return nil, fmt.Errorf("quiz %d rationale %s: %w", i+1, core.Letter(j), err)
					}
					fmt.Fprintf(&buf, "  > %s\n", rationale)
				}
			}
			buf.WriteString("\n")
		}
	}

	if len(b.Flashcards) > 0 {
		buf.WriteString("## Flashcards\n\n")
		for i, c := range b.Flashcards {
			front, err := inline(c.Front)
			if err != nil {
				return nil, fmt.Errorf("flashcard %d front: %w", i+1, err)
			}
			back, err := inline(c.Back)
			if err != nil {
				return nil, fmt.Errorf("flashcard %d back: %w", i+1, err)
			}
			fmt.Fprintf(&buf, "### %d. %s\n\n%s\n\n", i+1, front, back)
		}
	}

	return []byte(buf.String()), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}

// inline converts a field to single-line Markdown. Plain text without tags
// is returned as is so math delimiters are not escaped.
func inline(field string) (string, error) {
	s := field
	if strings.ContainsAny(field, "<&") {
		md, err := htmltomarkdown.ConvertString(field)
		if err != nil {
			return "", err
		}
		s = md
	}
	return strings.Join(strings.Fields(s), " "), nil
}

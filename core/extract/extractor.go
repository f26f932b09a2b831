// Package extract implements the Extractor interface.
// It reads the data-app-data attribute NotebookLM stores on its root element,
// decodes it, and maps quizzes and flashcards onto the canonical Bundle:
//  1. Find the carrier element and its serialized JSON
//  2. Undo the page's HTML entity escaping, then parse
//  3. Resolve and sanitize the notebook title
//  4. Map quiz and flashcard lists, coercing correctness flags to booleans
package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/KNN-07/NotebookLM2Anki/core"
	"github.com/KNN-07/NotebookLM2Anki/core/config"
)

const (
	carrierSelector   = "[data-app-data]"
	carrierAttr       = "data-app-data"
	titleInputSel     = `input[placeholder="Notebook title"]`
	titleLabelSel     = ".title-label"
	documentSuffix    = "- NotebookLM"
	FallbackTitle     = "Unknown Notebook"
	deckPathSeparator = "::"
)

// ParseError reports a carrier whose contents are not valid JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", carrierAttr, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError lists quizzes rejected by the strict correct-answer mode.
type ValidationError struct {
	// Quizzes holds zero-based indexes of offending quizzes.
	Quizzes []int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d quiz(zes) do not have exactly one correct option: %v", len(e.Quizzes), e.Quizzes)
}

// appData mirrors the parts of the page JSON we read. List fields stay raw so a
// present-but-wrong-typed value can be told apart from a missing one, and so
// one off-typed item cannot sink its siblings.
type appData struct {
	Title           any             `json:"title"`
	Quiz            json.RawMessage `json:"quiz"`
	MostRecentQuery *struct {
		Quiz json.RawMessage `json:"quiz"`
	} `json:"mostRecentQuery"`
	Flashcards json.RawMessage `json:"flashcards"`
}

// HTMLExtractor pulls quiz and flashcard data out of a NotebookLM page.
type HTMLExtractor struct {
	mode   config.CorrectAnswerMode
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an HTMLExtractor.
type Option func(*HTMLExtractor)

// WithCorrectAnswerMode sets how quizzes with zero or several correct options are treated.
func WithCorrectAnswerMode(m config.CorrectAnswerMode) Option {
	return func(e *HTMLExtractor) { e.mode = m }
}

// WithClock replaces time.Now for the ExtractedAt stamp.
func WithClock(now func() time.Time) Option {
	return func(e *HTMLExtractor) { e.now = now }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *HTMLExtractor) { e.logger = l }
}

// New creates an HTMLExtractor in permissive mode.
func New(opts ...Option) *HTMLExtractor {
	e := &HTMLExtractor{
		mode:   config.CorrectPermissive,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses html and returns the notebook's content. A page without a
// carrier element, or with an empty one, yields (nil, nil).
func (e *HTMLExtractor) Extract(html string) (*core.Bundle, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	carrier := doc.Find(carrierSelector).First()
	if carrier.Length() == 0 {
		e.logger.Debug("no data-app-data element found")
		return nil, nil
	}
	raw, _ := carrier.Attr(carrierAttr)
	if raw == "" {
		e.logger.Debug("data-app-data attribute is empty")
		return nil, nil
	}

	var data appData
	if err := json.Unmarshal([]byte(UnescapeHTML(raw)), &data); err != nil {
		e.logger.Warn("malformed app data", "error", err)
		return nil, &ParseError{Err: err}
	}

	title := textOf(data.Title)
	if title == "" {
		title = titleFromPage(doc)
	}

	b := &core.Bundle{
		Title:       SanitizeTitle(title),
		Quizzes:     e.quizzes(data),
		Flashcards:  e.flashcards(data),
		ExtractedAt: e.now().UTC(),
	}

	if err := e.checkCorrectAnswers(b.Quizzes); err != nil {
		return nil, err
	}

	e.logger.Debug("extracted notebook",
		"title", b.Title, "quizzes", len(b.Quizzes), "flashcards", len(b.Flashcards))
	return b, nil
}

// titleFromPage walks the DOM fallbacks for the notebook title.
func titleFromPage(doc *goquery.Document) string {
	if v, ok := doc.Find(titleInputSel).First().Attr("value"); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	if label := strings.TrimSpace(doc.Find(titleLabelSel).First().Text()); label != "" {
		return label
	}
	docTitle := doc.Find("title").First().Text()
	if strings.Contains(docTitle, documentSuffix) {
		if t := strings.TrimSpace(strings.Replace(docTitle, documentSuffix, "", 1)); t != "" {
			return t
		}
	}
	return FallbackTitle
}

// SanitizeTitle keeps a notebook title from being read as a deck path.
func SanitizeTitle(name string) string {
	s := strings.TrimSpace(strings.ReplaceAll(name, deckPathSeparator, " - "))
	if s == "" {
		return FallbackTitle
	}
	return s
}

func (e *HTMLExtractor) quizzes(data appData) []core.Quiz {
	list := data.Quiz
	if isAbsent(list) && data.MostRecentQuery != nil {
		list = data.MostRecentQuery.Quiz
	}
	items := e.objects(list, "quiz")

	quizzes := make([]core.Quiz, 0, len(items))
	for i, item := range items {
		opts := e.objects(item["answerOptions"], "answer option")
		if len(opts) > core.MaxOptions {
			e.logger.Warn("dropping extra answer options", "quiz", i, "options", len(opts))
			opts = opts[:core.MaxOptions]
		}
		options := make([]core.Option, 0, len(opts))
		for _, o := range opts {
			options = append(options, core.Option{
				Text:      text(o["text"]),
				IsCorrect: ToTriBool(value(o["isCorrect"])),
				Rationale: text(o["rationale"]),
			})
		}
		quizzes = append(quizzes, core.Quiz{
			Question: text(item["question"]),
			Hint:     text(item["hint"]),
			Options:  options,
		})
	}
	return quizzes
}

func (e *HTMLExtractor) flashcards(data appData) []core.Flashcard {
	items := e.objects(data.Flashcards, "flashcard")
	cards := make([]core.Flashcard, 0, len(items))
	for _, item := range items {
		cards = append(cards, core.Flashcard{Front: text(item["f"]), Back: text(item["b"])})
	}
	return cards
}

// objects decodes raw as an array and keeps the elements that are JSON
// objects. A missing or non-array value yields no elements.
func (e *HTMLExtractor) objects(raw json.RawMessage, what string) []map[string]json.RawMessage {
	if isAbsent(raw) {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		e.logger.Warn("expected a list", "item", what, "error", err)
		return nil
	}
	out := make([]map[string]json.RawMessage, 0, len(elems))
	for i, el := range elems {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(el, &obj); err != nil || obj == nil {
			e.logger.Warn("skipping malformed entry", "item", what, "index", i)
			continue
		}
		out = append(out, obj)
	}
	return out
}

func (e *HTMLExtractor) checkCorrectAnswers(quizzes []core.Quiz) error {
	if e.mode == config.CorrectPermissive {
		return nil
	}
	var bad []int
	for i, q := range quizzes {
		if n := q.CorrectCount(); n != 1 {
			bad = append(bad, i)
			if e.mode == config.CorrectWarn {
				e.logger.Warn("quiz does not have exactly one correct option",
					"quiz", i, "correct", n, "question", q.Question)
			}
		}
	}
	if e.mode == config.CorrectStrict && len(bad) > 0 {
		return &ValidationError{Quizzes: bad}
	}
	return nil
}

// isAbsent reports a missing or null JSON value.
func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

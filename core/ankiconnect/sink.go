package ankiconnect

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/KNN-07/NotebookLM2Anki/core"
	"github.com/KNN-07/NotebookLM2Anki/core/config"
	"github.com/KNN-07/NotebookLM2Anki/core/normalize"
	"github.com/KNN-07/NotebookLM2Anki/core/notetype"
)

const deckSeparator = "::"

// Result counts the notes of one batch.
type Result struct {
	Count int `json:"count"`
	Total int `json:"total"`
}

// Sink files one kind of record per Send call into Anki.
type Sink struct {
	client     *Client
	deck       config.DeckConfig
	tags       []string
	timeout    time.Duration
	normalizer core.Normalizer
	logger     *slog.Logger
}

// NewSink binds client to the deck and tag settings in cfg.
func NewSink(client *Client, cfg config.Config, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		client:     client,
		deck:       cfg.Deck,
		tags:       slices.Clone(cfg.Tags),
		timeout:    cfg.Anki.Timeout,
		normalizer: normalize.New(),
		logger:     logger,
	}
}

// DeckPath returns the full "::" path notes of kind are filed under.
func (s *Sink) DeckPath(deckName string, kind core.Kind) string {
	path := s.deck.Parent + deckSeparator + deckName
	if s.deck.Parent == "" {
		path = deckName
	}
	if s.deck.SplitByKind && kind.Label() != "" {
		path += deckSeparator + kind.Label()
	}
	return path
}

// Send creates the deck, makes sure the note type exists and adds every
// record of kind from b in one batch. kind must be quizzes or flashcards.
// Steps are not rolled back when a later one fails.
func (s *Sink) Send(ctx context.Context, b *core.Bundle, deckName string, kind core.Kind) (Result, error) {
	var (
		schema notetype.Schema
		values [][]string
	)
	switch kind {
	case core.KindQuizzes:
		schema = notetype.Quiz()
		for _, q := range b.Quizzes {
			values = append(values, notetype.QuizFields(q, s.normalizer))
		}
	case core.KindFlashcards:
		schema = notetype.Flashcard()
		for _, c := range b.Flashcards {
			values = append(values, notetype.FlashcardFields(c, s.normalizer))
		}
	default:
		return Result{}, fmt.Errorf("send: kind must be %s or %s, got %q", core.KindQuizzes, core.KindFlashcards, kind)
	}
	if len(values) == 0 {
		return Result{}, fmt.Errorf("no %s to send", kind)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	deck := s.DeckPath(deckName, kind)
	if _, err := s.client.CreateDeck(ctx, deck); err != nil {
		return Result{}, fmt.Errorf("creating deck %q: %w", deck, err)
	}
	if err := s.ensureModel(ctx, schema); err != nil {
		return Result{}, err
	}

	notes := make([]Note, 0, len(values))
	for _, v := range values {
		fields, err := schema.FieldMap(v)
		if err != nil {
			return Result{}, err
		}
		notes = append(notes, Note{
			DeckName:  deck,
			ModelName: schema.Name,
			Fields:    fields,
			Tags:      s.tags,
		})
	}

	ids, err := s.client.AddNotes(ctx, notes)
	if err != nil {
		return Result{}, fmt.Errorf("adding notes to %q: %w", deck, err)
	}

	res := Result{Total: len(notes)}
	for _, id := range ids {
		if id != nil {
			res.Count++
		}
	}
	s.logger.Debug("notes added", "deck", deck, "added", res.Count, "total", res.Total)

	if res.Count == 0 {
		return res, fmt.Errorf("%w. Check if '%s' note type exists", ErrNoneAdded, schema.Name)
	}
	return res, nil
}

// ensureModel creates the note type when Anki does not know it. A failed
// create is logged and ignored; the following addNotes reports the outcome.
func (s *Sink) ensureModel(ctx context.Context, schema notetype.Schema) error {
	names, err := s.client.ModelNames(ctx)
	if err != nil {
		return fmt.Errorf("listing note types: %w", err)
	}
	if slices.Contains(names, schema.Name) {
		return nil
	}
	if err := s.client.CreateModel(ctx, schema); err != nil {
		s.logger.Warn("failed to create note type", "model", schema.Name, "error", err)
	}
	return nil
}

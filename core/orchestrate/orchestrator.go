// Package orchestrate routes user actions to the export sinks and folds each
// sink's result into a single Outcome. Errors never cross this boundary: a
// failed action is an Outcome with Success false and a readable message.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KNN-07/NotebookLM2Anki/core"
	"github.com/KNN-07/NotebookLM2Anki/core/ankiconnect"
	"github.com/KNN-07/NotebookLM2Anki/core/apkg"
	"github.com/KNN-07/NotebookLM2Anki/core/config"
)

// Detail counts one kind of record within an action.
type Detail struct {
	Count int `json:"count"`
	Total int `json:"total"`
}

// Outcome is what every action reports back.
type Outcome struct {
	Success bool                 `json:"success"`
	Count   int                  `json:"count"`
	Total   int                  `json:"total"`
	Error   string               `json:"error,omitempty"`
	Files   []string             `json:"files,omitempty"`
	Details map[core.Kind]Detail `json:"details,omitempty"`
	Version int                  `json:"version,omitempty"`
}

func failure(err error) Outcome {
	return Outcome{Error: message(err)}
}

// message turns err into the text shown to the user. Connectivity failures
// collapse to the fixed hint; the cause is only logged.
func message(err error) string {
	if errors.Is(err, ankiconnect.ErrUnreachable) {
		return ankiconnect.ErrUnreachable.Error()
	}
	return err.Error()
}

// Sender files records into a running Anki.
type Sender interface {
	Send(ctx context.Context, b *core.Bundle, deckName string, kind core.Kind) (ankiconnect.Result, error)
}

// VersionChecker reports the AnkiConnect protocol version.
type VersionChecker interface {
	Version(ctx context.Context) (int, error)
}

// PackageBuilder produces .apkg bytes.
type PackageBuilder interface {
	Build(ctx context.Context, b *core.Bundle, deckName string) ([]byte, error)
}

// FileWriter stores an export file and returns where it went.
type FileWriter interface {
	Write(name string, data []byte) (string, error)
}

// Deps are the collaborators an Orchestrator dispatches to. Any may be nil
// when the matching action is not used.
type Deps struct {
	Sender   Sender
	Checker  VersionChecker
	Packager PackageBuilder
	Writer   FileWriter
	Logger   *slog.Logger
}

// Orchestrator runs one action at a time against the configured sinks.
type Orchestrator struct {
	cfg  config.Config
	deps Deps
	log  *slog.Logger
}

// New creates an Orchestrator.
func New(cfg config.Config, deps Deps) *Orchestrator {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{cfg: cfg, deps: deps, log: log}
}

// ResolveDeckName picks the deck name: a non-blank override, then the bundle
// title, then fallback.
func ResolveDeckName(override string, b *core.Bundle, fallback string) string {
	if s := strings.TrimSpace(override); s != "" {
		return s
	}
	if b != nil && strings.TrimSpace(b.Title) != "" {
		return b.Title
	}
	return fallback
}

func (o *Orchestrator) deckName(override string, b *core.Bundle) string {
	return ResolveDeckName(override, b, o.cfg.Deck.FallbackName)
}

var errNothingToExport = errors.New("no quizzes or flashcards found")

// Check probes the AnkiConnect endpoint.
func (o *Orchestrator) Check(ctx context.Context) Outcome {
	if o.deps.Checker == nil {
		return failure(errors.New("connectivity check is not configured"))
	}
	if o.cfg.Anki.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Anki.Timeout)
		defer cancel()
	}
	v, err := o.deps.Checker.Version(ctx)
	if err != nil {
		o.log.Debug("connectivity check failed", "error", err)
		return failure(err)
	}
	return Outcome{Success: true, Version: v}
}

// Send files records of kind into Anki. For KindAll, quizzes are sent before
// flashcards, each only when present, and the counts are summed. A batch
// where Anki rejected every note does not stop the next one; the action only
// fails on it when nothing at all was added. Any other error ends the action.
func (o *Orchestrator) Send(ctx context.Context, b *core.Bundle, deckOverride string, kind core.Kind) Outcome {
	if o.deps.Sender == nil {
		return failure(errors.New("anki sink is not configured"))
	}
	if b == nil {
		return failure(errNothingToExport)
	}
	deck := o.deckName(deckOverride, b)

	kinds := []core.Kind{kind}
	if kind == core.KindAll {
		if b.IsEmpty() {
			return failure(errNothingToExport)
		}
		kinds = kinds[:0]
		for _, k := range []core.Kind{core.KindQuizzes, core.KindFlashcards} {
			if b.Total(k) > 0 {
				kinds = append(kinds, k)
			}
		}
	}

	out := Outcome{Details: make(map[core.Kind]Detail, len(kinds))}
	var rejected []error
	for _, k := range kinds {
		res, err := o.deps.Sender.Send(ctx, b, deck, k)
		out.Details[k] = Detail{Count: res.Count, Total: res.Total}
		out.Count += res.Count
		out.Total += res.Total
		switch {
		case errors.Is(err, ankiconnect.ErrNoneAdded):
			o.log.Warn("anki rejected every note", "kind", k, "deck", deck, "total", res.Total)
			rejected = append(rejected, err)
		case err != nil:
			o.log.Debug("send failed", "kind", k, "deck", deck, "error", err)
			out.Error = message(err)
			return out
		default:
			o.log.Info("sent to anki", "kind", k, "deck", deck, "added", res.Count, "total", res.Total)
		}
	}
	if out.Count == 0 && len(rejected) > 0 {
		out.Error = message(errors.Join(rejected...))
		return out
	}
	out.Success = true
	return out
}

// Package builds an .apkg file for every record in b and writes it.
func (o *Orchestrator) Package(ctx context.Context, b *core.Bundle, deckOverride string) Outcome {
	if o.deps.Packager == nil || o.deps.Writer == nil {
		return failure(errors.New("package sink is not configured"))
	}
	if b.IsEmpty() {
		return failure(errNothingToExport)
	}
	deck := o.deckName(deckOverride, b)

	data, err := o.deps.Packager.Build(ctx, b, deck)
	if err != nil {
		o.log.Debug("package build failed", "deck", deck, "error", err)
		return failure(err)
	}
	path, err := o.deps.Writer.Write(apkg.FileName(deck), data)
	if err != nil {
		return failure(err)
	}

	total := b.Total(core.KindAll)
	return Outcome{
		Success: true,
		Count:   total,
		Total:   total,
		Files:   []string{path},
		Details: map[core.Kind]Detail{
			core.KindQuizzes:    {Count: len(b.Quizzes), Total: len(b.Quizzes)},
			core.KindFlashcards: {Count: len(b.Flashcards), Total: len(b.Flashcards)},
		},
	}
}

// Render writes b through r as a review sheet named after the deck.
func (o *Orchestrator) Render(b *core.Bundle, deckOverride string, r core.Renderer) Outcome {
	if o.deps.Writer == nil {
		return failure(errors.New("output writer is not configured"))
	}
	if b.IsEmpty() {
		return failure(errNothingToExport)
	}
	deck := o.deckName(deckOverride, b)

	data, err := r.Render(b)
	if err != nil {
		return failure(fmt.Errorf("render: %w", err))
	}
	path, err := o.deps.Writer.Write(sheetName(deck, r.Extension()), data)
	if err != nil {
		return failure(err)
	}
	total := b.Total(core.KindAll)
	return Outcome{Success: true, Count: total, Total: total, Files: []string{path}}
}

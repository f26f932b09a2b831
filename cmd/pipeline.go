package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/KNN-07/NotebookLM2Anki/core"
	"github.com/KNN-07/NotebookLM2Anki/core/ankiconnect"
	"github.com/KNN-07/NotebookLM2Anki/core/apkg"
	"github.com/KNN-07/NotebookLM2Anki/core/extract"
	"github.com/KNN-07/NotebookLM2Anki/core/fetch"
	"github.com/KNN-07/NotebookLM2Anki/core/orchestrate"
	"github.com/KNN-07/NotebookLM2Anki/core/output"
)

var errNoContent = errors.New("no quizzes or flashcards found on the page")

// loadBundle runs a source through fetch and extract.
func loadBundle(ctx context.Context, source string) (*core.Bundle, error) {
	loader := fetch.NewLoader(fetch.New(), os.Stdin)
	var extractor core.Extractor = extract.New(
		extract.WithCorrectAnswerMode(cfg.Extract.CorrectAnswers),
		extract.WithLogger(slog.Default()),
	)

	// 1. Load
	page, err := loader.Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	// 2. Extract
	b, err := extractor.Extract(page.HTML)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	if b.IsEmpty() {
		return nil, errNoContent
	}
	slog.Debug("loaded notebook", "source", page.Source, "title", b.Title,
		"quizzes", len(b.Quizzes), "flashcards", len(b.Flashcards))
	return b, nil
}

// newOrchestrator wires every sink from cfg. The writer is only created
// when needed so commands that write nothing never touch the disk.
func newOrchestrator(withWriter bool) (*orchestrate.Orchestrator, error) {
	logger := slog.Default()
	client := ankiconnect.NewClient(cfg.Anki, logger)
	deps := orchestrate.Deps{
		Sender:   ankiconnect.NewSink(client, cfg, logger),
		Checker:  client,
		Packager: apkg.New(apkg.WithTags(cfg.Tags), apkg.WithLogger(logger)),
		Logger:   logger,
	}
	if withWriter {
		w, err := output.New(cfg.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("initializing output writer: %w", err)
		}
		deps.Writer = w
	}
	return orchestrate.New(cfg, deps), nil
}

// report prints the files an outcome wrote and turns a failure into an error.
func report(out orchestrate.Outcome) error {
	if !out.Success {
		return errors.New(out.Error)
	}
	for _, f := range out.Files {
		fmt.Fprintf(os.Stdout, "✓ Written: %s\n", f)
	}
	return nil
}

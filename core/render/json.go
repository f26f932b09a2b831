// Package render — JSON and YAML renderers.
// Both dump the bundle with per-kind counts so other tools can consume it.
package render

import (
	"encoding/json"
	"fmt"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/KNN-07/NotebookLM2Anki/core"
)

// sheet is the document written by the structured renderers.
type sheet struct {
	Title       string           `json:"title" yaml:"title"`
	ExtractedAt time.Time        `json:"extracted_at" yaml:"extracted_at"`
	Counts      counts           `json:"counts" yaml:"counts"`
	Quizzes     []core.Quiz      `json:"quizzes" yaml:"quizzes"`
	Flashcards  []core.Flashcard `json:"flashcards" yaml:"flashcards"`
}

type counts struct {
	Quizzes    int `json:"quizzes" yaml:"quizzes"`
	Flashcards int `json:"flashcards" yaml:"flashcards"`
}

func newSheet(b *core.Bundle) (sheet, error) {
	if b == nil {
		return sheet{}, fmt.Errorf("nothing to render")
	}
	return sheet{
		Title:       b.Title,
		ExtractedAt: b.ExtractedAt,
		Counts:      counts{Quizzes: len(b.Quizzes), Flashcards: len(b.Flashcards)},
		Quizzes:     b.Quizzes,
		Flashcards:  b.Flashcards,
	}, nil
}

// JSONRenderer writes the bundle as indented JSON.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render marshals the bundle and its counts.
func (r *JSONRenderer) Render(b *core.Bundle) ([]byte, error) {
	s, err := newSheet(b)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}

// YAMLRenderer writes the bundle as YAML.
type YAMLRenderer struct{}

// NewYAMLRenderer creates a YAMLRenderer.
func NewYAMLRenderer() *YAMLRenderer {
	return &YAMLRenderer{}
}

// Render marshals the bundle and its counts.
func (r *YAMLRenderer) Render(b *core.Bundle) ([]byte, error) {
	s, err := newSheet(b)
	if err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for YAML output.
func (r *YAMLRenderer) Extension() string {
	return ".yaml"
}

// ByFormat returns the renderer for a format name: markdown, pdf, json or yaml.
func ByFormat(format string) (core.Renderer, error) {
	switch format {
	case "markdown", "md":
		return NewMarkdownRenderer(), nil
	case "pdf":
		return NewPDFRenderer(), nil
	case "json":
		return NewJSONRenderer(), nil
	case "yaml", "yml":
		return NewYAMLRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown format %q: use markdown, pdf, json or yaml", format)
	}
}

// Package core defines the canonical note model and the pipeline interfaces
// shared by the extractor, the export sinks and the review-sheet renderers.
package core

import "context"

// FetchResult holds the raw HTML of a loaded page and where it came from.
type FetchResult struct {
	Source     string
	StatusCode int
	HTML       string
}

// Fetcher retrieves raw HTML from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Extractor turns a page snapshot into a Bundle. A nil Bundle with a nil
// error means the page carries no quiz or flashcard data.
type Extractor interface {
	Extract(html string) (*Bundle, error)
}

// Normalizer rewrites inline math and code delimiters into Anki markup.
type Normalizer interface {
	Normalize(text string) string
}

// Renderer converts a Bundle into a review-sheet output format.
type Renderer interface {
	Render(b *Bundle) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".pdf").
	Extension() string
}

// Package fetch loads the HTML of a saved or live NotebookLM page.
// A source is a URL (fetched over HTTP), a local file path, or "-" for stdin.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/KNN-07/NotebookLM2Anki/core"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "notebooklm2anki/1.0 (+https://github.com/KNN-07/NotebookLM2Anki)"

	// StdinSource selects standard input as the page source.
	StdinSource = "-"
)

// HTTPFetcher fetches web pages via HTTP.
type HTTPFetcher struct {
	client *resty.Client
}

// New creates an HTTPFetcher with a sensible timeout.
func New() *HTTPFetcher {
	client := resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("User-Agent", defaultUserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")
	return &HTTPFetcher{client: client}
}

// Fetch retrieves the HTML content of the given URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*core.FetchResult, error) {
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode(), rawURL)
	}

	return &core.FetchResult{
		Source:     rawURL,
		StatusCode: resp.StatusCode(),
		HTML:       string(resp.Body()),
	}, nil
}

// Loader resolves a source argument to page HTML.
type Loader struct {
	fetcher core.Fetcher
	stdin   io.Reader
}

// NewLoader creates a Loader that fetches URLs with fetcher and reads "-"
// from stdin.
func NewLoader(fetcher core.Fetcher, stdin io.Reader) *Loader {
	return &Loader{fetcher: fetcher, stdin: stdin}
}

// Load reads source. Anything with an http or https scheme is fetched;
// everything else is treated as a file path.
func (l *Loader) Load(ctx context.Context, source string) (*core.FetchResult, error) {
	switch {
	case source == "":
		return nil, fmt.Errorf("no source given")
	case source == StdinSource:
		data, err := io.ReadAll(l.stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return &core.FetchResult{Source: "stdin", HTML: string(data)}, nil
	case isWebURL(source):
		return l.fetcher.Fetch(ctx, source)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", source, err)
		}
		return &core.FetchResult{Source: source, HTML: string(data)}, nil
	}
}

func isWebURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Package normalize implements the Normalizer interface.
// It rewrites the math and code delimiters NotebookLM emits into the
// markup Anki renders: MathJax brackets and a styled <code> span.
package normalize

import "regexp"

var (
	// blockMath must run before inlineMath, otherwise "$$x$$" reads as two
	// empty inline spans.
	blockMath = regexp.MustCompile(`(?s)\$\$(.*?)\$\$`)

	// inlineMath stops at the first unescaped "$" and never crosses a line.
	inlineMath = regexp.MustCompile(`\$((?:\\\$|[^$\n])+?)\$`)

	inlineCode = regexp.MustCompile("`([^`]+)`")
)

// MathNormalizer converts $$…$$, $…$ and `…` spans to Anki markup.
type MathNormalizer struct{}

// New creates a MathNormalizer.
func New() *MathNormalizer {
	return &MathNormalizer{}
}

// Normalize rewrites text. It is pure; applying it twice gives the same result
// as applying it once.
func (n *MathNormalizer) Normalize(text string) string {
	return Normalize(text)
}

// Normalize is the package-level form of MathNormalizer.Normalize.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	s := blockMath.ReplaceAllString(text, `\[${1}\]`)
	s = inlineMath.ReplaceAllString(s, `\(${1}\)`)
	s = inlineCode.ReplaceAllString(s, `<code class="latex-snippet">${1}</code>`)
	return s
}

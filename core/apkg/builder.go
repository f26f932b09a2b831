// Package apkg builds Anki package files (.apkg): a zip holding a SQLite
// collection and an empty media map, importable through File > Import.
package apkg

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/KNN-07/NotebookLM2Anki/core"
	"github.com/KNN-07/NotebookLM2Anki/core/normalize"
	"github.com/KNN-07/NotebookLM2Anki/core/notetype"
	"github.com/KNN-07/NotebookLM2Anki/core/output"
)

const (
	collectionEntry = "collection.anki2"
	mediaEntry      = "media"
	fieldSeparator  = "\x1f"

	minDeckID = 1 << 30
	maxDeckID = 1 << 31
)

// Builder turns a bundle into .apkg bytes.
type Builder struct {
	engine     *Engine
	tags       []string
	now        func() time.Time
	deckID     func() int64
	normalizer core.Normalizer
	logger     *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithEngine replaces the process-wide engine guard.
func WithEngine(e *Engine) Option { return func(b *Builder) { b.engine = e } }

// WithTags sets the tags stored on every note.
func WithTags(tags []string) Option { return func(b *Builder) { b.tags = slices.Clone(tags) } }

// WithClock replaces time.Now for note and card timestamps.
func WithClock(now func() time.Time) Option { return func(b *Builder) { b.now = now } }

// WithDeckID replaces the random deck id source.
func WithDeckID(id func() int64) Option { return func(b *Builder) { b.deckID = id } }

// WithNormalizer replaces the math and code normalizer. nil stores text as-is.
func WithNormalizer(n core.Normalizer) Option { return func(b *Builder) { b.normalizer = n } }

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option { return func(b *Builder) { b.logger = l } }

// New creates a Builder sharing the process-wide engine.
func New(opts ...Option) *Builder {
	b := &Builder{
		engine:     defaultEngine,
		now:        time.Now,
		deckID:     randomDeckID,
		normalizer: normalize.New(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// randomDeckID picks an id in [2^30, 2^31). Collisions with existing decks
// are possible but unlikely for a single user's collection.
func randomDeckID() int64 {
	return minDeckID + rand.Int64N(maxDeckID-minDeckID)
}

// FileName derives the package file name from a deck name.
func FileName(deckName string) string {
	return output.Sanitize(deckName) + ".apkg"
}

// note is one row ready for insertion.
type note struct {
	schema notetype.Schema
	fields []string
}

// Build writes every quiz and flashcard in b into a single deck named
// deckName. Text fields go through the builder's normalizer, as they do in
// the AnkiConnect sink. Any failure aborts the build and returns no bytes.
func (bl *Builder) Build(ctx context.Context, b *core.Bundle, deckName string) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("building package: nil bundle")
	}
	if _, err := bl.engine.Ready(ctx); err != nil {
		return nil, err
	}

	quiz, flashcard := notetype.Quiz(), notetype.Flashcard()
	notes := make([]note, 0, b.Total(core.KindAll))
	for _, q := range b.Quizzes {
		notes = append(notes, note{schema: quiz, fields: notetype.QuizFields(q, bl.normalizer)})
	}
	for _, c := range b.Flashcards {
		notes = append(notes, note{schema: flashcard, fields: notetype.FlashcardFields(c, bl.normalizer)})
	}

	dir, err := os.MkdirTemp("", "notebooklm2anki-apkg-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	dbPath := filepath.Join(dir, collectionEntry)
	if err := bl.writeCollection(ctx, dbPath, deckName, notes, quiz, flashcard); err != nil {
		return nil, err
	}

	collection, err := os.ReadFile(dbPath)
	if err != nil {
		return nil, fmt.Errorf("reading collection: %w", err)
	}
	pkg, err := zipPackage(collection)
	if err != nil {
		return nil, err
	}
	bl.logger.Debug("package built", "deck", deckName, "notes", len(notes), "bytes", len(pkg))
	return pkg, nil
}

func (bl *Builder) writeCollection(ctx context.Context, path, deckName string, notes []note, schemas ...notetype.Schema) (err error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return fmt.Errorf("open collection: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close collection: %w", cerr)
		}
	}()

	if _, err := db.ExecContext(ctx, collectionDDL); err != nil {
		return fmt.Errorf("create collection schema: %w", err)
	}

	now := bl.now()
	deckID := bl.deckID()
	col, err := buildColJSON(deckID, deckName, now.Unix(), schemas...)
	if err != nil {
		return fmt.Errorf("encode collection config: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin collection tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, insertCol,
		now.Unix(), now.UnixMilli(), now.UnixMilli(), schemaVersion,
		col.Conf, col.Models, col.Decks, col.DConf,
	); err != nil {
		return fmt.Errorf("insert col: %w", err)
	}

	tags := formatTags(bl.tags)
	baseID := now.UnixMilli()
	for i, n := range notes {
		id := baseID + int64(i)
		sortField, csum := sortFieldAndChecksum(n.fields[0])
		if _, err = tx.ExecContext(ctx, insertNote,
			id, uuid.NewString(), n.schema.ID, now.Unix(), tags,
			strings.Join(n.fields, fieldSeparator), sortField, csum,
		); err != nil {
			return fmt.Errorf("insert note %d: %w", i, err)
		}
		if _, err = tx.ExecContext(ctx, insertCard,
			id, id, deckID, now.Unix(), i+1,
		); err != nil {
			return fmt.Errorf("insert card %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit collection: %w", err)
	}
	return nil
}

// formatTags renders tags the way Anki stores them: space separated with a
// leading and trailing space.
func formatTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " " + strings.Join(tags, " ") + " "
}

// sortFieldAndChecksum strips HTML from the first field and returns it with
// Anki's duplicate-check checksum (first 8 hex digits of its SHA-1).
func sortFieldAndChecksum(first string) (string, int64) {
	text := first
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(first)); err == nil {
		text = doc.Text()
	}
	sum := sha1.Sum([]byte(text))
	csum, _ := strconv.ParseInt(hex.EncodeToString(sum[:])[:8], 16, 64)
	return text, csum
}

func zipPackage(collection []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range []struct {
		name string
		data []byte
	}{
		{collectionEntry, collection},
		{mediaEntry, []byte("{}")},
	} {
		w, err := zw.Create(entry.name)
		if err != nil {
			return nil, fmt.Errorf("adding %s to package: %w", entry.name, err)
		}
		if _, err := w.Write(entry.data); err != nil {
			return nil, fmt.Errorf("writing %s to package: %w", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finishing package: %w", err)
	}
	return buf.Bytes(), nil
}

package orchestrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KNN-07/NotebookLM2Anki/core"
	"github.com/KNN-07/NotebookLM2Anki/core/ankiconnect"
	"github.com/KNN-07/NotebookLM2Anki/core/config"
	"github.com/KNN-07/NotebookLM2Anki/core/render"
)

type sendCall struct {
	deck string
	kind core.Kind
}

type fakeSender struct {
	calls   []sendCall
	results map[core.Kind]ankiconnect.Result
	errs    map[core.Kind]error
}

func (f *fakeSender) Send(_ context.Context, b *core.Bundle, deck string, kind core.Kind) (ankiconnect.Result, error) {
	f.calls = append(f.calls, sendCall{deck, kind})
	if err := f.errs[kind]; err != nil {
		return f.results[kind], err
	}
	if b.Total(kind) == 0 {
		return ankiconnect.Result{}, fmt.Errorf("no %s to send", kind)
	}
	return f.results[kind], nil
}

type fakeChecker struct {
	version int
	err     error
}

func (f fakeChecker) Version(context.Context) (int, error) { return f.version, f.err }

type fakePackager struct {
	deck string
	err  error
}

func (f *fakePackager) Build(_ context.Context, _ *core.Bundle, deck string) ([]byte, error) {
	f.deck = deck
	if f.err != nil {
		return nil, f.err
	}
	return []byte("PK"), nil
}

type memWriter struct {
	files map[string][]byte
	err   error
}

func (w *memWriter) Write(name string, data []byte) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	if w.files == nil {
		w.files = map[string][]byte{}
	}
	w.files[name] = data
	return filepath.Join("/out", name), nil
}

func bundle() *core.Bundle {
	return &core.Bundle{
		Title: "Cell Biology",
		Quizzes: []core.Quiz{
			{Question: "q1", Options: []core.Option{{Text: "a", IsCorrect: true}}},
			{Question: "q2", Options: []core.Option{{Text: "b"}}},
		},
		Flashcards: []core.Flashcard{{Front: "f", Back: "b"}},
	}
}

func TestResolveDeckName(t *testing.T) {
	b := &core.Bundle{Title: "From Page"}
	assert.Equal(t, "Override", ResolveDeckName("  Override ", b, "Fallback"))
	assert.Equal(t, "From Page", ResolveDeckName("  ", b, "Fallback"))
	assert.Equal(t, "Fallback", ResolveDeckName("", &core.Bundle{}, "Fallback"))
	assert.Equal(t, "Fallback", ResolveDeckName("", nil, "Fallback"))
}

func TestSend_AllSumsInOrder(t *testing.T) {
	sender := &fakeSender{results: map[core.Kind]ankiconnect.Result{
		core.KindQuizzes:    {Count: 1, Total: 2},
		core.KindFlashcards: {Count: 1, Total: 1},
	}}
	o := New(config.Defaults(), Deps{Sender: sender})

	out := o.Send(context.Background(), bundle(), "", core.KindAll)
	require.True(t, out.Success, out.Error)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, []sendCall{
		{"Cell Biology", core.KindQuizzes},
		{"Cell Biology", core.KindFlashcards},
	}, sender.calls)
	assert.Equal(t, Detail{Count: 1, Total: 2}, out.Details[core.KindQuizzes])
}

func TestSend_AllSkipsEmptyKinds(t *testing.T) {
	sender := &fakeSender{results: map[core.Kind]ankiconnect.Result{core.KindFlashcards: {Count: 1, Total: 1}}}
	o := New(config.Defaults(), Deps{Sender: sender})

	b := bundle()
	b.Quizzes = nil
	out := o.Send(context.Background(), b, "Mine", core.KindAll)
	require.True(t, out.Success)
	assert.Equal(t, []sendCall{{"Mine", core.KindFlashcards}}, sender.calls)
}

func TestSend_QuizzesWhenNone(t *testing.T) {
	o := New(config.Defaults(), Deps{Sender: &fakeSender{}})
	b := bundle()
	b.Quizzes = nil

	out := o.Send(context.Background(), b, "", core.KindQuizzes)
	assert.False(t, out.Success)
	assert.Equal(t, "no quizzes to send", out.Error)
}

func TestSend_UnreachableMessage(t *testing.T) {
	sender := &fakeSender{errs: map[core.Kind]error{
		core.KindQuizzes: fmt.Errorf("creating deck: %w (createDeck: dial tcp: refused)", ankiconnect.ErrUnreachable),
	}}
	o := New(config.Defaults(), Deps{Sender: sender})

	out := o.Send(context.Background(), bundle(), "", core.KindAll)
	assert.False(t, out.Success)
	assert.Equal(t, "Connection failed: is Anki open?", out.Error)
	assert.Len(t, sender.calls, 1, "flashcards are not attempted after a failure")
}

func TestSend_NoneAddedMessage(t *testing.T) {
	sender := &fakeSender{
		results: map[core.Kind]ankiconnect.Result{core.KindQuizzes: {Count: 0, Total: 2}},
		errs: map[core.Kind]error{
			core.KindQuizzes: fmt.Errorf("%w. Check if 'NotebookLM Quiz' note type exists", ankiconnect.ErrNoneAdded),
		},
	}
	out := New(config.Defaults(), Deps{Sender: sender}).Send(context.Background(), bundle(), "", core.KindQuizzes)
	assert.False(t, out.Success)
	assert.Equal(t, 2, out.Total)
	assert.Contains(t, out.Error, "NotebookLM Quiz")
}

func TestSend_AllContinuesAfterRejectedBatch(t *testing.T) {
	sender := &fakeSender{
		results: map[core.Kind]ankiconnect.Result{
			core.KindQuizzes:    {Count: 0, Total: 2},
			core.KindFlashcards: {Count: 1, Total: 1},
		},
		errs: map[core.Kind]error{
			core.KindQuizzes: fmt.Errorf("%w. Check if 'NotebookLM Quiz' note type exists", ankiconnect.ErrNoneAdded),
		},
	}
	out := New(config.Defaults(), Deps{Sender: sender}).Send(context.Background(), bundle(), "", core.KindAll)

	require.True(t, out.Success, out.Error)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, 3, out.Total)
	assert.Empty(t, out.Error)
	assert.Len(t, sender.calls, 2)
	assert.Equal(t, Detail{Count: 0, Total: 2}, out.Details[core.KindQuizzes])
	assert.Equal(t, Detail{Count: 1, Total: 1}, out.Details[core.KindFlashcards])
}

func TestSend_AllFailsWhenEveryBatchRejected(t *testing.T) {
	sender := &fakeSender{
		results: map[core.Kind]ankiconnect.Result{
			core.KindQuizzes:    {Count: 0, Total: 2},
			core.KindFlashcards: {Count: 0, Total: 1},
		},
		errs: map[core.Kind]error{
			core.KindQuizzes:    fmt.Errorf("%w. Check if 'NotebookLM Quiz' note type exists", ankiconnect.ErrNoneAdded),
			core.KindFlashcards: fmt.Errorf("%w. Check if 'NotebookLM Flashcard' note type exists", ankiconnect.ErrNoneAdded),
		},
	}
	out := New(config.Defaults(), Deps{Sender: sender}).Send(context.Background(), bundle(), "", core.KindAll)

	assert.False(t, out.Success)
	assert.Equal(t, 0, out.Count)
	assert.Equal(t, 3, out.Total)
	assert.Contains(t, out.Error, "NotebookLM Quiz")
	assert.Contains(t, out.Error, "NotebookLM Flashcard")
	assert.Len(t, sender.calls, 2)
}

// dedupAnki answers like an AnkiConnect whose collection already holds every
// quiz: quiz notes come back as duplicates, flashcards are added.
func dedupAnki(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu      sync.Mutex
		actions []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if !assert.NoError(t, err) {
			return
		}
		var req struct {
			Action string `json:"action"`
			Params struct {
				Notes []struct {
					ModelName string `json:"modelName"`
				} `json:"notes"`
			} `json:"params"`
		}
		if !assert.NoError(t, json.Unmarshal(body, &req)) {
			return
		}
		mu.Lock()
		actions = append(actions, req.Action)
		mu.Unlock()

		reply := `{"result": null, "error": "unsupported action"}`
		switch req.Action {
		case "createDeck":
			reply = `{"result": 1, "error": null}`
		case "modelNames":
			reply = `{"result": ["NotebookLM Quiz", "NotebookLM Flashcard"], "error": null}`
		case "addNotes":
			reply = `{"result": [7], "error": null}`
			if len(req.Params.Notes) > 0 && req.Params.Notes[0].ModelName == "NotebookLM Quiz" {
				reply = `{"result": [null, null], "error": null}`
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), actions...)
	}
}

func TestSend_AllReExportWithAnkiSink(t *testing.T) {
	srv, actions := dedupAnki(t)
	cfg := config.Defaults()
	cfg.Anki.URL = srv.URL
	sink := ankiconnect.NewSink(ankiconnect.NewClient(cfg.Anki, nil), cfg, nil)

	out := New(cfg, Deps{Sender: sink}).Send(context.Background(), bundle(), "", core.KindAll)

	require.True(t, out.Success, out.Error)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, []string{
		"createDeck", "modelNames", "addNotes",
		"createDeck", "modelNames", "addNotes",
	}, actions())
}

func TestSend_EmptyBundle(t *testing.T) {
	o := New(config.Defaults(), Deps{Sender: &fakeSender{}})
	assert.False(t, o.Send(context.Background(), nil, "", core.KindAll).Success)
	assert.False(t, o.Send(context.Background(), &core.Bundle{}, "", core.KindAll).Success)
}

func TestCheck(t *testing.T) {
	ok := New(config.Defaults(), Deps{Checker: fakeChecker{version: 6}}).Check(context.Background())
	assert.True(t, ok.Success)
	assert.Equal(t, 6, ok.Version)

	down := New(config.Defaults(), Deps{Checker: fakeChecker{err: fmt.Errorf("%w: refused", ankiconnect.ErrUnreachable)}}).
		Check(context.Background())
	assert.False(t, down.Success)
	assert.Equal(t, ankiconnect.ErrUnreachable.Error(), down.Error)
}

func TestPackage(t *testing.T) {
	pkg := &fakePackager{}
	w := &memWriter{}
	o := New(config.Defaults(), Deps{Packager: pkg, Writer: w})

	out := o.Package(context.Background(), bundle(), "")
	require.True(t, out.Success, out.Error)
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, "Cell Biology", pkg.deck)
	assert.Equal(t, []string{"/out/Cell_Biology.apkg"}, out.Files)
	assert.Equal(t, []byte("PK"), w.files["Cell_Biology.apkg"])
}

func TestPackage_BuildFailure(t *testing.T) {
	w := &memWriter{}
	o := New(config.Defaults(), Deps{Packager: &fakePackager{err: errors.New("disk full")}, Writer: w})

	out := o.Package(context.Background(), bundle(), "")
	assert.False(t, out.Success)
	assert.Equal(t, "disk full", out.Error)
	assert.Empty(t, w.files, "no partial file is written")
}

func TestCSV_Modes(t *testing.T) {
	tests := []struct {
		mode  CSVMode
		files []string
		count int
	}{
		{CSVAll, []string{"Cell_Biology-quizzes.csv", "Cell_Biology-flashcards.csv"}, 3},
		{CSVNoHeader, []string{"Cell_Biology-quizzes.csv", "Cell_Biology-flashcards.csv"}, 3},
		{CSVQuizzes, []string{"Cell_Biology-quizzes.csv"}, 2},
		{CSVFlashcards, []string{"Cell_Biology-flashcards.csv"}, 1},
		{CSVQuizAsFlashcard, []string{"Cell_Biology-quiz-flashcards.csv"}, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			w := &memWriter{}
			out := New(config.Defaults(), Deps{Writer: w}).CSV(bundle(), "", tt.mode)
			require.True(t, out.Success, out.Error)
			assert.Equal(t, tt.count, out.Count)
			for _, name := range tt.files {
				assert.Contains(t, w.files, name)
			}
			assert.Len(t, w.files, len(tt.files))
		})
	}
}

func TestCSV_NoHeaderOmitsHeaderRow(t *testing.T) {
	w := &memWriter{}
	out := New(config.Defaults(), Deps{Writer: w}).CSV(bundle(), "", CSVNoHeader)
	require.True(t, out.Success)
	assert.Equal(t, "\"f\",\"b\"\n", string(w.files["Cell_Biology-flashcards.csv"]))
}

func TestCSV_NothingToWrite(t *testing.T) {
	b := bundle()
	b.Flashcards = nil
	out := New(config.Defaults(), Deps{Writer: &memWriter{}}).CSV(b, "", CSVFlashcards)
	assert.False(t, out.Success)
	assert.NotEmpty(t, out.Error)
}

func TestParseCSVMode(t *testing.T) {
	m, err := ParseCSVMode("")
	require.NoError(t, err)
	assert.Equal(t, CSVAll, m)

	m, err = ParseCSVMode("quiz-as-flashcard")
	require.NoError(t, err)
	assert.Equal(t, CSVQuizAsFlashcard, m)

	_, err = ParseCSVMode("tsv")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	w := &memWriter{}
	out := New(config.Defaults(), Deps{Writer: w}).Render(bundle(), "Study Notes", render.NewMarkdownRenderer())
	require.True(t, out.Success, out.Error)
	assert.Equal(t, []string{"/out/Study_Notes.md"}, out.Files)
	assert.Contains(t, string(w.files["Study_Notes.md"]), "# Cell Biology")
}

func TestWriterFailure(t *testing.T) {
	w := &memWriter{err: errors.New("read-only file system")}
	out := New(config.Defaults(), Deps{Writer: w}).CSV(bundle(), "", CSVAll)
	assert.False(t, out.Success)
	assert.Equal(t, "read-only file system", out.Error)
}

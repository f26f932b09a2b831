package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notebooklm2anki.yaml")
	content := `anki:
  url: http://localhost:9999
  timeout: 5s
deck:
  parent: Study
  split_by_kind: true
extract:
  correct_answers: strict
tags: [a, b]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999", cfg.Anki.URL)
	assert.Equal(t, 5*time.Second, cfg.Anki.Timeout)
	assert.Equal(t, 6, cfg.Anki.Version, "unset field keeps default")
	assert.Equal(t, "Study", cfg.Deck.Parent)
	assert.True(t, cfg.Deck.SplitByKind)
	assert.Equal(t, "NotebookLM Export", cfg.Deck.FallbackName)
	assert.Equal(t, CorrectStrict, cfg.Extract.CorrectAnswers)
	assert.Equal(t, []string{"a", "b"}, cfg.Tags)
}

func TestLoad_RejectsUnknownMode(t *testing.T) {
	v := viper.New()
	v.Set("extract.correct_answers", "lenient")
	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lenient")
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	cfg.Anki.URL = ""
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Anki.Timeout = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestBindEnv(t *testing.T) {
	t.Setenv("NOTEBOOKLM2ANKI_ANKI_URL", "http://10.0.0.2:8765")
	t.Setenv("NOTEBOOKLM2ANKI_DECK_SPLIT_BY_KIND", "true")
	t.Setenv("NOTEBOOKLM2ANKI_ANKI_TIMEOUT", "45s")

	v := viper.New()
	require.NoError(t, BindEnv(v))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.2:8765", cfg.Anki.URL)
	assert.True(t, cfg.Deck.SplitByKind)
	assert.Equal(t, 45*time.Second, cfg.Anki.Timeout)
	assert.Equal(t, "NotebookLM", cfg.Deck.Parent)
}

func TestLoad_ExplicitZeroValuesKept(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notebooklm2anki.yaml")
	content := `anki:
  timeout: 0s
deck:
  parent: ""
tags: []
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), cfg.Anki.Timeout)
	assert.Equal(t, "", cfg.Deck.Parent)
	assert.Empty(t, cfg.Tags)
	assert.Equal(t, "http://127.0.0.1:8765", cfg.Anki.URL, "unset keys still get defaults")
	assert.Equal(t, "NotebookLM Export", cfg.Deck.FallbackName)
}

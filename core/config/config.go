// Package config holds the immutable settings handed to every pipeline stage.
// Values come from viper (file, environment, flags) with zero fields filled
// from Defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/spf13/viper"
)

// CorrectAnswerMode controls how the extractor treats quizzes whose number
// of correct options is not exactly one.
type CorrectAnswerMode string

const (
	// CorrectPermissive keeps the data as is; consumers use the first correct option.
	CorrectPermissive CorrectAnswerMode = "permissive"
	// CorrectWarn keeps the data and logs each offending quiz.
	CorrectWarn CorrectAnswerMode = "warn"
	// CorrectStrict rejects the extraction.
	CorrectStrict CorrectAnswerMode = "strict"
)

// AnkiConfig describes the AnkiConnect endpoint.
type AnkiConfig struct {
	// URL is the single POST endpoint (default http://127.0.0.1:8765).
	URL string `mapstructure:"url" yaml:"url"`

	// Version is the AnkiConnect protocol version sent with every request.
	Version int `mapstructure:"version" yaml:"version"`

	// Timeout bounds a whole export action against the endpoint. Zero
	// disables it.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DeckConfig controls deck naming.
type DeckConfig struct {
	// Parent is the top-level deck every notebook is filed under. Empty
	// files notebooks at the top level.
	Parent string `mapstructure:"parent" yaml:"parent"`

	// SplitByKind adds a ::Quizzes or ::Flashcards level below the notebook deck.
	SplitByKind bool `mapstructure:"split_by_kind" yaml:"split_by_kind"`

	// FallbackName is used when neither a flag nor the page supplies a title.
	FallbackName string `mapstructure:"fallback_name" yaml:"fallback_name"`
}

// ExtractConfig controls page extraction.
type ExtractConfig struct {
	CorrectAnswers CorrectAnswerMode `mapstructure:"correct_answers" yaml:"correct_answers"`
}

// Config groups all settings for one run.
type Config struct {
	Anki      AnkiConfig    `mapstructure:"anki" yaml:"anki"`
	Deck      DeckConfig    `mapstructure:"deck" yaml:"deck"`
	Extract   ExtractConfig `mapstructure:"extract" yaml:"extract"`
	Tags      []string      `mapstructure:"tags" yaml:"tags"`
	OutputDir string        `mapstructure:"output_dir" yaml:"output_dir"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Config {
	return Config{
		Anki: AnkiConfig{
			URL:     "http://127.0.0.1:8765",
			Version: 6,
			Timeout: 30 * time.Second,
		},
		Deck: DeckConfig{
			Parent:       "NotebookLM",
			FallbackName: "NotebookLM Export",
		},
		Extract: ExtractConfig{
			CorrectAnswers: CorrectPermissive,
		},
		Tags: []string{"notebooklm_export"},
	}
}

// EnvPrefix prefixes every environment override, e.g. NOTEBOOKLM2ANKI_ANKI_URL.
const EnvPrefix = "NOTEBOOKLM2ANKI"

// keys lists every setting so environment variables can reach nested keys.
var keys = []string{
	"anki.url", "anki.version", "anki.timeout",
	"deck.parent", "deck.split_by_kind", "deck.fallback_name",
	"extract.correct_answers",
	"tags", "output_dir",
}

// BindEnv maps NOTEBOOKLM2ANKI_<SECTION>_<KEY> variables onto v.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return fmt.Errorf("binding %s: %w", k, err)
		}
	}
	return nil
}

// Load unmarshals v into a Config and fills unset fields from Defaults.
// mergo treats zero values as unset, so keys where an explicit zero means
// something (no timeout, no parent deck, no tags) are restored afterwards
// when v has them set.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	explicit := cfg
	if err := mergo.Merge(&cfg, Defaults()); err != nil {
		return Config{}, fmt.Errorf("applying config defaults: %w", err)
	}
	if v.IsSet("anki.timeout") {
		cfg.Anki.Timeout = explicit.Anki.Timeout
	}
	if v.IsSet("deck.parent") {
		cfg.Deck.Parent = explicit.Deck.Parent
	}
	if v.IsSet("tags") {
		cfg.Tags = explicit.Tags
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no stage can work with.
func (c Config) Validate() error {
	switch c.Extract.CorrectAnswers {
	case CorrectPermissive, CorrectWarn, CorrectStrict:
	default:
		return fmt.Errorf("extract.correct_answers: unknown mode %q (use permissive, warn or strict)", c.Extract.CorrectAnswers)
	}
	if c.Anki.URL == "" {
		return fmt.Errorf("anki.url must not be empty")
	}
	if c.Anki.Timeout < 0 {
		return fmt.Errorf("anki.timeout must not be negative")
	}
	return nil
}

// Package cmd implements the CLI commands for notebooklm2anki using Cobra.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/KNN-07/NotebookLM2Anki/core/config"
)

// Global flag variables.
var (
	flagConfig  string
	flagVerbose bool
	flagDeck    string
)

// cfg is loaded once before any command runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "notebooklm2anki",
	Short: "notebooklm2anki — turn NotebookLM quizzes and flashcards into Anki notes",
	Long: `notebooklm2anki reads a saved (or live) NotebookLM page, extracts its quizzes
and flashcards, and exports them to Anki.

Usage:
  notebooklm2anki check
  notebooklm2anki inspect <source>
  notebooklm2anki send <source> [--kind all|quizzes|flashcards]
  notebooklm2anki package <source>
  notebooklm2anki csv <source> [--mode all|quizzes|flashcards|no-header|quiz-as-flashcard]
  notebooklm2anki render <source> --format markdown|pdf|json|yaml

A source is an http(s) URL, a path to a saved .html file, or "-" for stdin.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./notebooklm2anki.yaml or ~/.config/notebooklm2anki/notebooklm2anki.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagDeck, "deck", "", "Deck name (default: the notebook title)")

	rootCmd.PersistentFlags().String("anki-url", "", "AnkiConnect endpoint")
	rootCmd.PersistentFlags().String("correct-answers", "", "Quizzes without exactly one correct option: permissive, warn or strict")
	rootCmd.PersistentFlags().String("output-dir", "", "Output directory (default: current directory)")
	_ = viper.BindPFlag("anki.url", rootCmd.PersistentFlags().Lookup("anki-url"))
	_ = viper.BindPFlag("extract.correct_answers", rootCmd.PersistentFlags().Lookup("correct-answers"))
	_ = viper.BindPFlag("output_dir", rootCmd.PersistentFlags().Lookup("output-dir"))
}

// setup installs the logger and loads configuration.
func setup(cmd *cobra.Command, args []string) error {
	initLogging(flagVerbose)

	if flagConfig != "" {
		viper.SetConfigFile(flagConfig)
	} else {
		viper.SetConfigName("notebooklm2anki")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "notebooklm2anki"))
		}
	}
	if err := config.BindEnv(viper.GetViper()); err != nil {
		return err
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if flagConfig != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	} else {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
	}

	loaded, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

// Execute runs the root command.
// Ctrl-C cancels in-flight requests.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗", err)
		os.Exit(1)
	}
}

// Package cmd implements the taskvault CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/taskvault/internal/activity"
	"github.com/twiced-technology-gmbh/taskvault/internal/cache"
	"github.com/twiced-technology-gmbh/taskvault/internal/clierr"
	"github.com/twiced-technology-gmbh/taskvault/internal/config"
	"github.com/twiced-technology-gmbh/taskvault/internal/deps"
	"github.com/twiced-technology-gmbh/taskvault/internal/output"
	"github.com/twiced-technology-gmbh/taskvault/internal/task"
	"github.com/twiced-technology-gmbh/taskvault/internal/updater"
	"github.com/twiced-technology-gmbh/taskvault/internal/vault"
)

// version is set at build time via ldflags.
var version = "dev"

// undoStateFile is dot-prefixed so the document scan never picks it up.
const undoStateFile = ".taskvault-undo.json"

// Global flags.
var (
	flagJSON    bool
	flagTable   bool
	flagCompact bool
	flagDir     string
	flagNoColor bool
)

var rootCmd = &cobra.Command{
	Use:   "taskvault",
	Short: "Plain-text checklist task engine",
	Long: `taskvault manages checklist tasks embedded in plain markdown documents.
Task lines stay human-editable; taskvault parses, filters, and updates them in place.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagNoColor || termenv.EnvNoColor() || !term.IsTerminal(int(os.Stdout.Fd())) {
			output.DisableColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagTable, "table", false, "output as table")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "compact", false, "compact one-line-per-record output")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "oneline", false, "alias for --compact")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "path to vault directory")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable color output")
}

// Execute runs the root command.
func Execute() {
	_, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}

	// Handle SilentError -- exit with code, no output.
	var silent *clierr.SilentError
	if errors.As(err, &silent) {
		os.Exit(silent.Code)
	}

	// Determine if JSON mode is active.
	jsonMode := flagJSON
	if !jsonMode {
		jsonMode = os.Getenv("TASKVAULT_OUTPUT") == "json"
	}

	if jsonMode {
		var cliErr *clierr.Error
		if errors.As(err, &cliErr) {
			output.JSONError(os.Stdout, cliErr.Code, cliErr.Message, cliErr.Details)
			os.Exit(cliErr.ExitCode())
		}
		// Unknown error -- wrap as INTERNAL_ERROR.
		output.JSONError(os.Stdout, clierr.InternalError, err.Error(), nil)
		os.Exit(2) //nolint:mnd // exit code 2 for internal errors
	}

	// Non-JSON mode: print to stderr.
	fmt.Fprintln(os.Stderr, err)
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		os.Exit(cliErr.ExitCode())
	}
	os.Exit(1)
}

// resolveDir returns the absolute path to the vault directory.
func resolveDir() (string, error) {
	if flagDir != "" {
		return filepath.Abs(flagDir)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	return config.FindDir(cwd)
}

// loadConfig finds and loads the vault config.
func loadConfig() (*config.Config, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, err
	}
	return config.Load(dir)
}

// engine bundles the wired-up vault components one command invocation needs.
type engine struct {
	cfg     *config.Config
	store   *vault.FS
	parser  *task.Parser
	cache   *cache.Cache
	updater *updater.Updater
}

// newEngine loads the config and wires store, parser, cache, and updater.
func newEngine() (*engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store := vault.NewFS(cfg.Dir())
	parser := task.NewParser(cfg.CustomStages, cfg.MetadataDelimiter)
	policy := cache.NewPolicy(cfg.Extension, cfg.ExcludedFolders, cfg.ExcludedPatterns)

	return &engine{
		cfg:    cfg,
		store:  store,
		parser: parser,
		cache:  cache.New(store, parser, policy),
		updater: updater.New(store, parser, updater.Options{
			Delimiter: cfg.MetadataDelimiter,
			UndoLimit: cfg.UndoLimit,
			StatePath: filepath.Join(cfg.Dir(), undoStateFile),
		}),
	}, nil
}

// refresh loads every eligible document into the cache and surfaces
// per-document warnings on stderr.
func (e *engine) refresh() error {
	if err := e.cache.RefreshAll(); err != nil {
		return err
	}
	printWarnings(e.cache.Warnings())
	return nil
}

// findTask resolves a task by short reference ("doc:12") or full identity
// ("sub/doc.md:12") against the current cache contents.
func (e *engine) findTask(ref string) (*task.Task, error) {
	idx := deps.BuildIndex(e.cache.Tasks())
	if t, ok := idx[ref]; ok {
		return t, nil
	}
	return nil, clierr.Newf(clierr.TaskNotFound, "no task matches %q", ref).
		WithDetails(map[string]any{"reference": ref})
}

// outputFormat returns the detected output format from flags/env.
func outputFormat() output.Format {
	return output.Detect(flagJSON, flagTable, flagCompact)
}

// printWarnings writes document parse warnings to stderr.
func printWarnings(warnings []cache.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: skipping unreadable document %s: %v\n", w.Path, w.Err)
	}
}

// logActivity appends an entry to the vault activity log. Errors are silently
// discarded because logging should never fail a command.
func logActivity(e *engine, action, taskID, document, detail string) {
	activity.LogMutation(e.cfg.Dir(), action, taskID, document, detail)
}

// Package cli implements the macrostore command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/macrostore/internal/backup"
	"github.com/mesh-intelligence/macrostore/internal/paths"
	"github.com/mesh-intelligence/macrostore/internal/sqlite"
	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app holds global flag values and the loaded configuration shared by all
// subcommands of one root command.
type app struct {
	configDir string
	dataDir   string

	resolvedConfigDir string
	cfg               *viper.Viper

	newS3Sink func(ctx context.Context, bucket, region, prefix string) (backup.Sink, error)
}

// NewRootCmd creates the top-level "macrostore" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{
		newS3Sink: func(ctx context.Context, bucket, region, prefix string) (backup.Sink, error) {
			return backup.NewS3Sink(ctx, bucket, region, prefix)
		},
	})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "macrostore",
		Short: "Local data store for a personal nutrition tracker",
		Long: "macrostore keeps persons, food entries, favorites, recently used foods,\n" +
			"weight logs and cached products in a local SQLite database.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: ./.macrostore or the platform config dir)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: ./.macrostore-db)")

	root.AddCommand(
		newVersionCmd(),
		a.newInitCmd(),
		a.newSeedCmd(),
		a.newWipeCmd(),
		a.newPersonCmd(),
		a.newEntryCmd(),
		a.newFavoriteCmd(),
		a.newRecentCmd(),
		a.newWeightCmd(),
		a.newProductCmd(),
		a.newGetCmd(),
		a.newSetCmd(),
		a.newListCmd(),
		a.newDeleteCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
		a.newInsightsCmd(),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "macrostore:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// loadConfig resolves the config directory, reads config.yaml and applies
// the configured log level.
func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	dir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	v, err := readConfig(dir)
	if err != nil {
		return sysError(err)
	}
	level, err := log.ParseLevel(v.GetString(cfgKeyLogLevel))
	if err != nil {
		return fmt.Errorf("config %s: %w", cfgKeyLogLevel, err)
	}
	log.SetLevel(level)
	log.SetOutput(cmd.ErrOrStderr())

	a.resolvedConfigDir = dir
	a.cfg = v
	return nil
}

// resolveDataDir applies flag > config.yaml > env > default precedence.
func (a *app) resolveDataDir() (string, error) {
	dir, err := paths.ResolveDataDir(a.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return "", sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	return dir, nil
}

// withBackend attaches a SQLite backend for the duration of fn.
func (a *app) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b *sqlite.Backend) error) error {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return err
	}
	cfg := types.Config{
		Backend: a.cfg.GetString(cfgKeyBackend),
		DataDir: dataDir,
	}

	b := sqlite.NewBackend()
	if err := b.Attach(cfg); err != nil {
		return storeError("attach backend", err)
	}
	defer func() {
		if err := b.Detach(); err != nil {
			log.WithError(err).Warn("detach backend")
		}
	}()
	return fn(cmd.Context(), b)
}

// exitError marks an error as a system failure (exit code 2). Unmarked
// errors are usage or data errors (exit code 1).
type exitError struct {
	err error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func sysError(err error) error {
	return &exitError{err: err}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return exitSysError
	}
	return exitUserError
}

// userErrors are the store errors caused by the caller's input.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidData,
	types.ErrInvalidFilter,
	types.ErrInvalidEntry,
	types.ErrInvalidWeight,
	types.ErrInvalidImportShape,
	types.ErrTableNotFound,
	types.ErrBackendEmpty,
	types.ErrBackendUnknown,
	backup.ErrNotFound,
}

// storeError wraps err with op and classifies it for the exit code.
func storeError(op string, err error) error {
	err = fmt.Errorf("%s: %w", op, err)
	for _, u := range userErrors {
		if errors.Is(err, u) {
			return err
		}
	}
	return sysError(err)
}

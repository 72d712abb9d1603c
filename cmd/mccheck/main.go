package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jask/mccheck/internal/config"
	"github.com/jask/mccheck/internal/database"
	"github.com/jask/mccheck/internal/logger"
	"github.com/jask/mccheck/internal/secrets"
	"github.com/jask/mccheck/internal/service"
	"github.com/jask/mccheck/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	config  string
	backend string
	verbose bool
}

// newRootCmd wires the CLI. Without a subcommand it runs the TUI.
func newRootCmd() *cobra.Command {
	var f rootFlags
	root := &cobra.Command{
		Use:           "mccheck",
		Short:         "MC verification entries",
		Long:          "Enter, search, edit and delete MC verification records.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), f)
		},
	}
	root.PersistentFlags().StringVar(&f.config, "config", "", "Config file (overrides $MCCHECK_CONFIG)")
	root.PersistentFlags().StringVar(&f.backend, "backend", "", "Store backend: rest|sqlite")
	root.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(
		newListCmd(&f),
		newAddCmd(&f),
		newSeedCmd(&f),
		newResetCmd(&f),
		newConfigCmd(&f),
	)
	return root
}

// loadConfig is loadRawConfig plus the anon key saved by "config set-key".
func loadConfig(f *rootFlags) (config.Config, error) {
	cfg, err := loadRawConfig(f)
	if err != nil {
		return config.Config{}, err
	}
	cfg.Store.AnonKey = resolveAnonKey(cfg.Store)
	return cfg, nil
}

// loadRawConfig applies the persistent flags on top of file and env config.
func loadRawConfig(f *rootFlags) (config.Config, error) {
	if f.config != "" {
		if err := os.Setenv("MCCHECK_CONFIG", f.config); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if b := strings.ToLower(strings.TrimSpace(f.backend)); b != "" {
		if b != config.BackendREST && b != config.BackendSQLite {
			return config.Config{}, fmt.Errorf("--backend %q: want %s or %s", b, config.BackendREST, config.BackendSQLite)
		}
		cfg.Store.Backend = b
	}
	if f.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// resolveAnonKey prefers the configured key and falls back to the one saved
// with "mccheck config set-key".
func resolveAnonKey(s config.StoreConfig) string {
	if k := strings.TrimSpace(s.AnonKey); k != "" || strings.TrimSpace(s.URL) == "" {
		return k
	}
	if k, err := secrets.FetchAnonKey(s.URL); err == nil {
		return k
	}
	return ""
}

// runtime is the opened store plus whatever backs it.
type runtime struct {
	cfg    config.Config
	log    zerolog.Logger
	db     *sql.DB
	client store.Client
}

func openRuntime(cfg config.Config, log zerolog.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, log: log}
	if cfg.Store.Backend == config.BackendSQLite {
		db, err := database.OpenMigrated(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		rt.db = db
	}
	client, err := store.New(cfg.Store, rt.db, log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.client = client
	return rt, nil
}

func (rt *runtime) service() *service.Verifications {
	return service.NewVerifications(rt.client, rt.log)
}

func (rt *runtime) Close() {
	if rt.db != nil {
		_ = rt.db.Close()
	}
}

// cliRuntime loads config and opens the store for a one-shot command that
// logs to stderr.
func cliRuntime(f *rootFlags, stderr io.Writer) (*runtime, error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format, stderr)
	return openRuntime(cfg, log)
}

// loadOnce fetches the list and turns a load failure into an error.
func loadOnce(ctx context.Context, svc *service.Verifications) (service.Snapshot, error) {
	svc.Start(ctx)
	snap := svc.Snapshot()
	if snap.Status == service.StatusError {
		return snap, fmt.Errorf("%s", snap.Err)
	}
	return snap, nil
}

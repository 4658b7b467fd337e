package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"forum_relay/internal/config"
	"forum_relay/internal/storage/sqlstore"
)

// app holds the state shared by all commands of one invocation.
type app struct {
	configPath string
	dbPath     string
	jsonOut    bool
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
	db     *sqlx.DB
	st     *stores

	stdout io.Writer
	stderr io.Writer
}

type stores struct {
	configs      *sqlstore.ConfigStore
	sources      *sqlstore.SourceStore
	items        *sqlstore.ItemStore
	translations *sqlstore.TranslationStore
	webhooks     *sqlstore.WebhookStore
	tx           *sqlstore.TransactionManager
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		logger: setupLogger("info"),
	}
}

// setup loads configuration and the logger. A missing config file is only an
// error when --config was given explicitly.
func (a *app) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	explicit := cmd.Flags().Changed("config")

	if _, statErr := os.Stat(a.configPath); explicit || statErr == nil {
		cfg, err = config.Load(a.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else if errors.Is(statErr, fs.ErrNotExist) {
		cfg = config.Default()
	} else {
		return fmt.Errorf("load config: %w", statErr)
	}

	if a.dbPath != "" {
		if cfg.Database.Driver == sqlstore.DriverPostgres {
			cfg.Database.DSN = a.dbPath
		} else {
			cfg.Database.Path = a.dbPath
		}
	}

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	a.cfg = cfg
	a.logger = setupLogger(level)
	return nil
}

// stores opens the database on first use.
func (a *app) stores(ctx context.Context) (*stores, error) {
	if a.st != nil {
		return a.st, nil
	}

	db, err := sqlstore.Open(ctx, a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.logger.Debug("database ready", "driver", a.cfg.Database.Driver)

	a.db = db
	a.st = &stores{
		configs:      sqlstore.NewConfigStore(db),
		sources:      sqlstore.NewSourceStore(db),
		items:        sqlstore.NewItemStore(db),
		translations: sqlstore.NewTranslationStore(db),
		webhooks:     sqlstore.NewWebhookStore(db),
		tx:           sqlstore.NewTransactionManager(db),
	}
	return a.st, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", "error", err)
		}
		a.db = nil
		a.st = nil
	}
}

// success prints a confirmation line, or a JSON object with data merged in.
func (a *app) success(message string, data map[string]any) error {
	if a.jsonOut {
		out := map[string]any{"status": "success", "message": message}
		for k, v := range data {
			out[k] = v
		}
		return a.printJSON(out)
	}
	_, err := fmt.Fprintf(a.stdout, "✓ %s\n", message)
	return err
}

// info prints a detail line. It is silent in JSON mode.
func (a *app) info(format string, args ...any) {
	if a.jsonOut {
		return
	}
	fmt.Fprintf(a.stdout, "  "+format+"\n", args...)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printError(err error, code int) {
	if a.jsonOut {
		enc := json.NewEncoder(a.stderr)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{"status": "error", "message": err.Error(), "exit_code": code})
		return
	}
	fmt.Fprintf(a.stderr, "✗ Error: %s\n", err)
}

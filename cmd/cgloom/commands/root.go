// Package commands implements the cgloom subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jcalabro/cgloom/internal/config"
	"github.com/jcalabro/cgloom/internal/logging"
	"github.com/jcalabro/cgloom/registry"
	"github.com/jcalabro/cgloom/store"
)

// app carries state shared by every subcommand for one invocation.
type app struct {
	cfgPath        string
	debug          bool
	backend        string
	record         string
	maxRecordBytes string

	cfg   *config.Config
	log   *slog.Logger
	store store.Store
	reg   *registry.Registry
}

// NewRootCommand builds the cgloom command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "cgloom",
		Short: "Maintain a persisted counting bloom filter of flagged identifiers",
		Long: `cgloom keeps a set of flagged identifiers in a counting bloom filter
stored in a file or Redis record. Identifiers can be flagged, unflagged and
checked; the record holds the filter's stable binary encoding.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "config file (default is .cgloom.yaml in . or $HOME)")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging")
	flags.StringVar(&a.backend, "backend", "", "record backend: memory, file or redis (overrides config)")
	flags.StringVar(&a.record, "record", "", "record key holding the filter (overrides config)")
	flags.StringVar(&a.maxRecordBytes, "max-record-bytes", "", `record capacity, e.g. "8 KB" (overrides config)`)

	rootCmd.AddCommand(
		newInitCommand(a),
		newFlagCommand(a),
		newUnflagCommand(a),
		newCheckCommand(a),
		newStatsCommand(a),
		newExportCommand(a),
		newImportCommand(a),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	// A missing .env file is normal.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(a.cfgPath)
	if err != nil {
		return err
	}

	if a.backend != "" {
		cfg.Backend = a.backend
	}
	if a.record != "" {
		cfg.Record = a.record
	}
	if a.maxRecordBytes != "" {
		n, parseErr := humanize.ParseBytes(a.maxRecordBytes)
		if parseErr != nil {
			return fmt.Errorf("parse --max-record-bytes: %w", parseErr)
		}
		cfg.MaxRecordBytes = int(n)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if a.debug {
		level = slog.LevelDebug
	}
	a.log = logging.New(cmd.ErrOrStderr(), level, cfg.Log.NoColor)

	s, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	a.store = s

	a.reg, err = registry.New(s, registry.Options{
		Record:         cfg.Record,
		Size:           cfg.Filter.Size,
		K:              cfg.Filter.Hashes,
		MaxRecordBytes: cfg.MaxRecordBytes,
		Logger:         a.log,
	})
	if err != nil {
		return errors.Join(err, a.close())
	}

	a.log.Debug("opened record", "backend", cfg.Backend, "record", cfg.Record, "compress", cfg.Compress)
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		s   store.Store
		err error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		s = store.NewMemory()
	case config.BackendFile:
		s, err = store.NewFile(cfg.File.Dir)
	case config.BackendRedis:
		s, err = store.NewRedis(ctx, cfg.Redis)
	default:
		err = fmt.Errorf("%w: unknown backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Compress {
		s = store.NewCompressed(s)
	}
	return s, nil
}

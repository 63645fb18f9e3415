package cli

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/roach88/tiffin/internal/config"
	"github.com/roach88/tiffin/internal/logging"
	"github.com/roach88/tiffin/internal/pos"
	"github.com/roach88/tiffin/internal/store"
)

// session is everything a command needs to work on the till.
type session struct {
	cfg config.Config
	loc *time.Location
	log *logrus.Logger
	st  *store.Store
	app *pos.App
}

// loadConfig reads configuration and applies the global flag overrides.
func loadConfig(opts *RootOptions) (config.Config, *time.Location, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, CodeConfig, err)
	}
	if opts.DB != "" {
		cfg.DB = opts.DB
	}
	loc, err := cfg.Location()
	if err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, CodeConfig, err)
	}
	return cfg, loc, nil
}

// openSession loads configuration, opens the database and the till.
// Callers must Close the session.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	cfg, loc, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	log, err := logging.New(logging.Options{Level: level, Format: cfg.LogFormat, Output: cmd.ErrOrStderr()})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, CodeConfig, err)
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, CodeDatabase, err)
	}

	app, err := pos.Open(commandContext(cmd), st, pos.Options{
		TaxRate:    cfg.TaxRate,
		WalkInName: cfg.WalkInName,
		PaymentRef: cfg.PaymentImage,
		Payee:      cfg.Payee,
		Logger:     log,
	})
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, CodePersistence, err)
	}

	log.WithField("db", cfg.DB).Debug("till opened")
	return &session{cfg: cfg, loc: loc, log: log, st: st, app: app}, nil
}

// Close releases the database.
func (s *session) Close() error {
	return s.st.Close()
}

// withSession opens a session, runs fn and reports any error through the
// formatter.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, s *session, f *OutputFormatter) error) error {
	f := newFormatter(opts, cmd)
	s, err := openSession(cmd, opts)
	if err != nil {
		return f.Fail(err)
	}
	defer s.Close()

	if err := fn(commandContext(cmd), s, f); err != nil {
		return f.Fail(err)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

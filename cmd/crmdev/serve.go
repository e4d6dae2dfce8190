package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BigLep01/CRMdev/internal/config"
	"github.com/BigLep01/CRMdev/internal/logging"
	"github.com/BigLep01/CRMdev/internal/query"
	"github.com/BigLep01/CRMdev/internal/query/memory"
	"github.com/BigLep01/CRMdev/internal/query/sqlite"
	"github.com/BigLep01/CRMdev/internal/server"
)

func newServeCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address (overrides CRM_ADDR)")
	return cmd
}

// loadConfig parses the environment and applies flag overrides.
func loadConfig(f *flags) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if f.addr != "" {
		cfg.Addr = f.addr
	}
	if f.db != "" {
		cfg.DatabaseURL = f.db
	}
	if f.memory {
		cfg.Memory = true
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return cfg, cfg.Validate()
}

// openStore returns the configured collaborator and its close function.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (query.Collaborator, func() error, error) {
	if cfg.Memory {
		store := memory.New()
		if err := seed(ctx, store, log); err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	}
	store, err := sqlite.Open(ctx, cfg.DatabaseURL,
		sqlite.WithMaxRows(cfg.MaxRows),
		sqlite.WithLogger(log))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return store, store.Close, nil
}

func runServe(ctx context.Context, f *flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	key, generated, err := cfg.Key()
	if err != nil {
		return err
	}
	if generated {
		log.Warn("CRM_SECRET_KEY not set, using a random key; component URLs will not survive a restart")
	}

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("close store", zap.Error(err))
		}
	}()

	srv := server.New(store, key,
		server.WithLogger(log),
		server.WithShutdownTimeout(cfg.ShutdownTimeout))
	return srv.Run(ctx, cfg.Addr)
}

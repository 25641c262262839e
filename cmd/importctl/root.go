package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ignite/shipment-importer/internal/bootstrap"
	"github.com/ignite/shipment-importer/internal/config"
	"github.com/ignite/shipment-importer/internal/pkg/logger"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "importctl",
		Short:        "Shipment spreadsheet import tools",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config/config.yaml", "Path to the YAML config file")

	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newPreviewCmd(opts))
	cmd.AddCommand(newCommitCmd(opts))
	cmd.AddCommand(newRetryCmd(opts))
	return cmd
}

// env holds the resources a database-backed command needs.
type env struct {
	cfg  *config.Config
	db   *sql.DB
	rdb  *redis.Client
	svcs *bootstrap.Services
}

func (e *env) Close() {
	if e.rdb != nil {
		e.rdb.Close()
	}
	if e.db != nil {
		e.db.Close()
	}
	logger.Sync()
}

func (o *rootOptions) open(ctx context.Context) (*env, error) {
	cfg, err := config.LoadFromEnv(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Development); err != nil {
		return nil, err
	}
	logger.SetRedactPII(!cfg.Logging.LogPII)

	e := &env{cfg: cfg}
	if e.db, err = bootstrap.OpenDB(ctx, cfg.Database); err != nil {
		return nil, err
	}
	if e.rdb, err = bootstrap.OpenRedis(ctx, cfg.Redis); err != nil {
		logger.Warn("[importctl] redis unavailable", "error", err.Error())
	}
	if e.svcs, err = bootstrap.NewServices(cfg, e.db, e.rdb); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

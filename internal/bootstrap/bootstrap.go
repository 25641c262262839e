// Package bootstrap opens the shared resources and assembles the import
// services from configuration. Both the server and the CLI use it.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/shipment-importer/internal/config"
	"github.com/ignite/shipment-importer/internal/inference"
	"github.com/ignite/shipment-importer/internal/pkg/distlock"
	"github.com/ignite/shipment-importer/internal/pkg/httpretry"
	"github.com/ignite/shipment-importer/internal/pkg/logger"
	"github.com/ignite/shipment-importer/internal/repository/postgres"
	"github.com/ignite/shipment-importer/internal/repository/redisstore"
	"github.com/ignite/shipment-importer/internal/service/shipimport"
	"github.com/ignite/shipment-importer/internal/service/templates"
)

// OpenDB opens PostgreSQL with connect and statement timeouts appended
// to the DSN.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is required (DATABASE_URL)")
	}
	db, err := sql.Open("postgres", withTimeouts(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("[bootstrap] database connected", "host", dsnHost(cfg.URL))
	return db, nil
}

func withTimeouts(dsn string) string {
	if !strings.Contains(dsn, "://") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.Contains(dsn, "connect_timeout") {
		dsn += sep + "connect_timeout=5"
		sep = "&"
	}
	if !strings.Contains(dsn, "statement_timeout") {
		dsn += sep + "options=-c%20statement_timeout%3D15000"
	}
	return dsn
}

// dsnHost returns the host portion of a URL DSN, without credentials.
func dsnHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.IndexAny(rest, "/?"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

// OpenRedis connects to Redis. It returns nil, nil when no address is
// configured and nil plus the error when the server does not answer, so
// callers can fall back.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	var client *redis.Client
	if opts, err := redis.ParseURL(cfg.Addr); err == nil {
		client = redis.NewClient(opts)
	} else {
		client = redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewInferrer builds the location inferrer selected by cfg.Mode. It
// returns nil for "off".
func NewInferrer(cfg config.InferenceConfig) (inference.Inferrer, error) {
	switch cfg.Mode {
	case "off":
		return nil, nil
	case "keyword", "":
		return inference.NewKeyword(), nil
	case "remote":
		if cfg.URL == "" {
			return nil, fmt.Errorf("inference mode remote needs a url")
		}
		client := httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout()}, cfg.MaxRetries)
		return inference.NewRemote(client, cfg.URL), nil
	default:
		return nil, fmt.Errorf("unknown inference mode %q", cfg.Mode)
	}
}

// Services are the assembled application services.
type Services struct {
	Imports   *shipimport.Service
	Templates *templates.Service
}

// NewServices wires repositories and collaborators into the services.
// rdb may be nil: runs then live in memory and commit locks use
// PostgreSQL advisory locks.
func NewServices(cfg *config.Config, db *sql.DB, rdb *redis.Client) (*Services, error) {
	inferrer, err := NewInferrer(cfg.Inference)
	if err != nil {
		return nil, err
	}

	var runs shipimport.RunStore
	if rdb != nil {
		runs = redisstore.NewRunStore(rdb, cfg.Redis.RunTTL())
	} else {
		logger.Warn("[bootstrap] redis not configured, import runs kept in memory")
		runs = shipimport.NewMemoryRunStore(cfg.Redis.RunTTL())
	}

	imports := shipimport.NewService(shipimport.Deps{
		References: postgres.NewReferenceRepo(db),
		Creator:    postgres.NewShipmentRepo(db, cfg.Import.TrackingPrefix),
		Duplicates: postgres.NewDuplicateRepo(db, cfg.Import.DedupWindow()),
		Inferrer:   inferrer,
		Runs:       runs,
		Locker:     distlock.NewLocker(rdb, db, cfg.Import.LockTTL()),
	}, shipimport.Config{
		BatchSize:   cfg.Import.BatchSize,
		MaxRows:     cfg.Import.MaxRows,
		CallTimeout: cfg.Import.CallTimeout(),
	})

	return &Services{
		Imports:   imports,
		Templates: templates.NewService(postgres.NewTemplateRepo(db)),
	}, nil
}

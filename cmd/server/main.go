package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/shipment-importer/internal/api"
	"github.com/ignite/shipment-importer/internal/bootstrap"
	"github.com/ignite/shipment-importer/internal/config"
	"github.com/ignite/shipment-importer/internal/pkg/logger"
	"github.com/ignite/shipment-importer/internal/storage"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Development); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()
	logger.SetRedactPII(!cfg.Logging.LogPII)

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := bootstrap.OpenDB(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("[server] redis unavailable, falling back to in-memory runs and PG advisory locks", "error", err.Error())
	}
	if rdb != nil {
		defer rdb.Close()
		logger.Info("[server] redis connected", "addr", cfg.Redis.Addr)
	}

	archive, err := storage.New(ctx, cfg.Archive)
	if err != nil {
		log.Fatalf("Failed to initialize upload archive: %v", err)
	}
	if archive == nil {
		logger.Info("[server] upload archive disabled")
	}

	svcs, err := bootstrap.NewServices(cfg, db, rdb)
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}

	handlers := api.NewHandlers(svcs.Imports, svcs.Templates, archive, cfg.Server.MaxUploadBytes())
	server := api.NewServer(cfg.Server, handlers, api.NewHealthChecker(db, rdb, archive))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
		logger.Info("[server] listening", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("[server] shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("[server] shutdown error", "error", err.Error())
	}
	logger.Info("[server] stopped")
}

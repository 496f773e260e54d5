package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledgerline/internal/audit"
	"ledgerline/internal/audit/handler"
	"ledgerline/internal/audit/metrics"
	"ledgerline/internal/audit/store/postgres"
	"ledgerline/internal/audit/store/sqlite"
	"ledgerline/internal/audit/worker"
	"ledgerline/internal/platform/config"
	"ledgerline/internal/platform/database"
	"ledgerline/internal/platform/httpserver"
	"ledgerline/internal/platform/logger"
	"ledgerline/internal/token"
	httptransport "ledgerline/internal/transport/http"
	"ledgerline/pkg/secrets"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Chain semantics live in internal/audit.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store, health, cleanup, err := openStore(cfg)
	if err != nil {
		log.Error("failed to open audit store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	provider, err := secrets.NewHKDFProvider([]byte(cfg.AnchorMasterSecret))
	if err != nil {
		log.Error("invalid anchor secret", "error", err)
		os.Exit(1)
	}

	service := audit.NewService(store, audit.ContextTenantResolver{}, provider,
		audit.WithLogger(log),
		audit.WithMetrics(metrics.New()),
		audit.WithChainCacheTTL(cfg.ChainCacheTTL),
	)

	tokens := token.NewService(cfg.JWTSigningKey, "ledgerline", time.Hour)

	router := httptransport.NewRouter(httptransport.Config{
		Audit:     handler.New(service, log),
		Validator: token.NewServiceAdapter(tokens),
		Health:    health,
		Logger:    log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AnchorInterval > 0 {
		anchors, err := worker.New(service, store,
			worker.WithInterval(cfg.AnchorInterval),
			worker.WithLogger(log),
		)
		if err != nil {
			log.Error("failed to build anchor worker", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := anchors.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("anchor worker stopped", "error", err)
			}
		}()
	}

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// openStore selects the event store from configuration: PostgreSQL when a
// database URL is set, SQLite when a path is set, otherwise in-memory.
func openStore(cfg config.Server) (audit.Store, httptransport.HealthChecker, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		dbCfg := database.DefaultConfig()
		dbCfg.URL = cfg.DatabaseURL
		pool, err := database.New(dbCfg)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup := func() { _ = pool.Close() }
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := pool.Migrate(migrateCtx); err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		return postgres.New(pool.DB()), poolHealth{pool}, cleanup, nil

	case cfg.SQLitePath != "":
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup := func() { _ = store.Close() }
		return store, nil, cleanup, nil

	default:
		return audit.NewInMemoryStore(), nil, func() {}, nil
	}
}

// poolHealth adapts the database pool's context-aware health check to the
// router's probe.
type poolHealth struct {
	pool *database.Pool
}

func (h poolHealth) Healthy() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return h.pool.Healthy(ctx)
}

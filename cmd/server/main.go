package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"adviserd/internal/audit"
	auditHandler "adviserd/internal/audit/handler"
	auditMemory "adviserd/internal/audit/store/memory"
	auditPostgres "adviserd/internal/audit/store/postgres"
	"adviserd/internal/audit/worker"
	complianceHandler "adviserd/internal/compliance/handler"
	"adviserd/internal/compliance/service"
	"adviserd/internal/compliance/store"
	"adviserd/internal/platform/config"
	"adviserd/internal/platform/httpserver"
	"adviserd/internal/platform/logger"
	"adviserd/internal/platform/metrics"
	"adviserd/pkg/platform/middleware/metadata"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checkStore, auditStore, err := buildStores(ctx, cfg)
	if err != nil {
		log.Error("store setup failed", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	recorder := audit.NewRecorder(auditStore, audit.WithLogger(log))

	inbox := make(chan audit.Entry, cfg.AuditBuffer)
	accessWorker := worker.New(recorder, inbox, log)

	svc := service.New(checkStore, recorder,
		service.WithLogger(log),
		service.WithMetrics(m),
	)

	r := chi.NewRouter()
	r.Use(metadata.ClientMetadata)
	complianceHandler.New(svc, log).Register(r)
	auditHandler.New(recorder, inbox, log).Register(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, r)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return accessWorker.Run(groupCtx)
	})
	group.Go(func() error {
		log.Info("starting adviserd", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// buildStores selects durable postgres stores when a database URL is
// configured, otherwise the in-memory reference stores.
func buildStores(ctx context.Context, cfg config.Server) (store.Store, audit.Store, error) {
	if cfg.DatabaseURL == "" {
		return store.NewInMemory(), auditMemory.New(), nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, nil, err
	}

	checks := store.NewPostgres(db)
	if err := checks.EnsureSchema(ctx); err != nil {
		return nil, nil, err
	}
	entries := auditPostgres.New(db)
	if err := entries.EnsureSchema(ctx); err != nil {
		return nil, nil, err
	}
	return checks, entries, nil
}

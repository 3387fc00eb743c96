package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hoofline/showring/internal/adapters/http/api"
	"github.com/hoofline/showring/internal/adapters/repository"
	service "github.com/hoofline/showring/internal/app"
	"github.com/hoofline/showring/internal/config"
	"github.com/hoofline/showring/internal/domain/eligibility"
	"github.com/hoofline/showring/internal/domain/scoring"
	"github.com/hoofline/showring/internal/scheduler"
	"github.com/hoofline/showring/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since the logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Open the store: SQLite when a path is configured, memory otherwise.
	store, closeStore, err := openStore(ctx, cfg.SQLitePath)
	if err != nil {
		os.Stderr.WriteString("failed to open store: " + err.Error() + "\n")
		return
	}
	defer closeStore()

	// Wire the configured game tables into the show service.
	svc := newService(store, cfg, log)

	// Start the due-show scheduler and sweep once at boot so shows that
	// came due while the process was down run immediately.
	sched := scheduler.New(ctx, svc,
		scheduler.WithSpec(cfg.CronSpec),
		scheduler.WithLogger(logger.Named("scheduler")),
	)
	if err := sched.Start(); err != nil {
		os.Stderr.WriteString("failed to start scheduler: " + err.Error() + "\n")
		return
	}
	defer sched.Stop()
	sched.RunNow()

	// HTTP server: read API for results and ledgers plus the ops endpoints.
	mux := http.NewServeMux()
	api.NewServer(store).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "stopped")
}

// openStore selects the persistence backend from configuration. An empty
// path keeps the circuit in memory; state then lives only as long as the
// process.
func openStore(ctx context.Context, path string) (repository.Store, func(), error) {
	if path == "" {
		logger.Get().Warn(ctx, "no sqlite_path configured; state is in-memory only")
		return repository.NewMemStore(), func() {}, nil
	}

	db, err := repository.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, err
	}
	logger.Get().Info(ctx, "opened sqlite store", logger.String("path", path))

	closeStore := func() {
		if err := db.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close store", logger.Error(err))
		}
	}
	return db, closeStore, nil
}

// newService builds the show orchestrator from the configured game tables.
func newService(store repository.Store, cfg *config.Config, log logger.Logger) *service.Service {
	calc := scoring.New(
		scoring.WithStatWeights(cfg.StatWeights),
		scoring.WithTraitTable(cfg.TraitTable()),
		scoring.WithHealthModifiers(cfg.HealthTable()),
	)
	filter := eligibility.New(
		eligibility.WithMinRiderSkill(cfg.MinRiderSkill),
		eligibility.WithDefaultMinAge(cfg.DefaultMinAge),
		eligibility.WithDisciplineRules(cfg.EligibilityRules()),
	)

	return service.New(
		service.WithStore(store),
		service.WithCalculator(calc),
		service.WithFilter(filter),
		service.WithEntryFees(cfg.EntryFees),
		service.WithLogger(log.Named("service")),
	)
}

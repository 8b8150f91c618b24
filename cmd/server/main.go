package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/dutysummary/internal/audit"
	"github.com/JonMunkholm/dutysummary/internal/config"
	"github.com/JonMunkholm/dutysummary/internal/core"
	"github.com/JonMunkholm/dutysummary/internal/docservice"
	"github.com/JonMunkholm/dutysummary/internal/logging"
	"github.com/JonMunkholm/dutysummary/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"docservice", cfg.DocService.URL,
		"max_concurrent_round_trips", cfg.DocService.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"audit_db", cfg.Database.Enabled(),
	)
	slog.Debug("configuration", "config", cfg.String())

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	// Audit trail: PostgreSQL when configured, structured log otherwise
	var (
		recorder core.AuditRecorder = audit.NewLogRecorder(nil)
		auditLog web.AuditLog
	)
	if cfg.Database.Enabled() {
		pool, err := openPool(jobCtx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := audit.NewPostgresRecorder(pool)
		if err := pg.EnsureSchema(jobCtx); err != nil {
			slog.Error("failed to create audit schema", "error", err)
			os.Exit(1)
		}
		recorder, auditLog = pg, pg

		go audit.StartRetentionScheduler(jobCtx, pg, audit.RetentionConfig{
			RetentionDays: cfg.Audit.RetentionDays,
			BatchSize:     cfg.Audit.BatchSize,
			CheckInterval: cfg.Audit.CheckInterval,
		})
	}

	// One limiter bounds round trips across every session
	client := docservice.New(cfg.DocService.URL, cfg.DocService.Timeout)
	limiter := core.NewLimiter(cfg.DocService.MaxConcurrent, cfg.DocService.MaxWaitTime)
	uploads := core.NewUploadOrchestrator(client, limiter)
	exports := core.NewExportOrchestrator(client, limiter, cfg.Export.Filename)

	server := web.NewServer(cfg, limiter, func(id string) *core.Controller {
		return core.NewController(id, uploads, exports, recorder)
	}, auditLog)

	go server.Sessions().StartSweeper(jobCtx, cfg.Session.SweepInterval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	slog.Info("server starting", "addr", cfg.Server.Addr())
	err = serve(server, sigCh, cfg.Server.ShutdownTimeout, func(ctx context.Context) {
		// Stop background jobs
		cancelJobs()

		// Wait for in-flight round trips (with timeout)
		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for round trips to complete", "active", status.Active)
			if err := limiter.WaitForDrain(ctx); err != nil {
				slog.Warn("round trips did not complete in time", "error", err)
			} else {
				slog.Info("all round trips completed")
			}
		}
	})
	if err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// httpServer is the part of web.Server that serve drives.
type httpServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serve runs srv until a signal arrives on sigCh, then runs drain and shuts
// srv down within timeout. It returns only after Shutdown has finished.
func serve(srv httpServer, sigCh <-chan os.Signal, timeout time.Duration, drain func(ctx context.Context)) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok := <-sigCh; !ok {
			return
		}

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if drain != nil {
			drain(shutdownCtx)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := srv.Start(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

// openPool connects to the audit database and verifies the connection.
func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	// Apply pool configuration from config
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to audit database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to audit database")
	}
	return pool, nil
}

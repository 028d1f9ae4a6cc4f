package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	rshttp "github.com/rostralabs/rostra/internal/adapter/http"
	rsnats "github.com/rostralabs/rostra/internal/adapter/nats"
	rsotel "github.com/rostralabs/rostra/internal/adapter/otel"
	"github.com/rostralabs/rostra/internal/adapter/postgres"
	"github.com/rostralabs/rostra/internal/adapter/ristretto"
	"github.com/rostralabs/rostra/internal/adapter/ws"
	"github.com/rostralabs/rostra/internal/config"
	"github.com/rostralabs/rostra/internal/gateway"
	"github.com/rostralabs/rostra/internal/logger"
	"github.com/rostralabs/rostra/internal/middleware"
	"github.com/rostralabs/rostra/internal/service"
)

const sessionSweepInterval = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"gateway_addr", cfg.Gateway.Addr,
		"rest_addr", cfg.Server.Addr,
		"realtime_addr", cfg.Realtime.Addr,
		"log_level", cfg.Logging.Level,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := rsnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	sessionCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer sessionCache.Close()

	metrics, err := rsotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Services ---

	store := postgres.NewStore(pool)
	authSvc := service.NewAuthService(store, sessionCache, cfg.Auth, cfg.Cache.SessionTTL)

	registry := ws.NewRegistry()
	broadcaster := ws.NewBroadcaster(registry, cfg.Realtime.FanoutLimit, metrics)
	hub := ws.NewHub(registry, authSvc, cfg.Realtime, metrics)

	companySvc := service.NewCompanyService(store, queue, broadcaster)
	employeeSvc := service.NewEmployeeService(store, queue, broadcaster)
	calendarSvc := service.NewCalendarService(store, queue, broadcaster)

	// --- Servers ---

	restSrv := restServer(cfg, authSvc, companySvc, employeeSvc, calendarSvc)
	realtimeSrv := realtimeServer(cfg, hub)
	gw := gateway.New(cfg.Gateway, metrics)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return serveHTTP(gctx, restSrv, "rest") })
	g.Go(func() error { return serveHTTP(gctx, realtimeSrv, "realtime") })
	g.Go(func() error { return gw.Run(gctx) })
	g.Go(func() error {
		authSvc.RunSessionSweeper(gctx, sessionSweepInterval)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("shutdown: closing realtime connections")
	registry.Shutdown()
	return nil
}

// restServer builds the internal REST API server.
func restServer(cfg *config.Config, authSvc *service.AuthService,
	companySvc *service.CompanyService, employeeSvc *service.EmployeeService,
	calendarSvc *service.CalendarService,
) *http.Server {
	handlers := rshttp.NewHandlers(authSvc, companySvc, employeeSvc, calendarSvc)

	r := chi.NewRouter()
	r.Use(rshttp.CORS(cfg.Server.CORSOrigin))
	r.Use(rshttp.Logger)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(rsotel.HTTPMiddleware("rostra-rest"))
	r.Use(middleware.SessionAuth(authSvc))

	rshttp.MountRoutes(r, handlers)

	return &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// realtimeServer builds the internal WebSocket server. No read or write
// timeouts: connections are long-lived by design.
func realtimeServer(cfg *config.Config, hub *ws.Hub) *http.Server {
	r := chi.NewRouter()
	r.Use(rshttp.Logger)
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Get("/ws", hub.HandleWS)

	return &http.Server{
		Addr:              cfg.Realtime.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// serveHTTP runs srv until ctx is canceled, then shuts it down gracefully.
func serveHTTP(ctx context.Context, srv *http.Server, name string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "name", name, "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%s server: %w", name, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s shutdown: %w", name, err)
	}
	return <-errCh
}

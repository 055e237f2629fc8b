package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"product-catalog-api/internal/config"
	"product-catalog-api/internal/event"
	"product-catalog-api/internal/handler"
	"product-catalog-api/internal/middleware"
	"product-catalog-api/internal/repository"
	"product-catalog-api/internal/router"
	"product-catalog-api/internal/seed"
	"product-catalog-api/internal/service"
	"product-catalog-api/internal/storage"
	"product-catalog-api/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg          *config.Config
	server       *http.Server
	hub          *websocket.Hub
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	productsFile, err := storage.NewJSONFile(cfg.ProductsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open products file: %w", err)
	}

	if cfg.ProductsSeedURL != "" {
		seedProducts(productsFile, cfg)
	}

	products := repository.NewProductRepository(productsFile)
	if err := products.Load(); err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	auditService, err := service.NewAuditService(cfg.AuditLogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit log: %w", err)
	}

	tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.JWTAccessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	authService, err := service.NewAuthService(repository.NewUserRepository(), tokens, auditService, service.AuthOptions{
		BcryptCost:      cfg.BcryptCost,
		UniqueUsernames: cfg.UniqueUsernames,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	bus := event.NewBus()
	hub := websocket.NewHub(bus)
	productService := service.NewProductService(products, auditService, bus)

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(authService), router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		User:    handler.NewUserHandler(authService),
		Product: handler.NewProductHandler(productService),
		Audit:   handler.NewAuditHandler(auditService),
		Docs:    handler.NewDocsHandler(),
		Events:  websocket.NewUpgrader(hub, cfg.CORSOrigins),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{cfg: cfg, server: server, hub: hub}, nil
}

// seedProducts fills a missing or blank products file. A failed download is not
// fatal; the service starts with an empty catalog.
func seedProducts(file *storage.JSONFile, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.SeedTimeout)
	defer cancel()

	count, err := seed.EnsureCatalog(ctx, file, seed.NewFetcher(cfg.ProductsSeedURL, cfg.SeedTimeout))
	if err != nil {
		slog.Warn("product seed failed, starting with an empty catalog", "url", cfg.ProductsSeedURL, "error", err)
		return
	}
	if count > 0 {
		slog.Info("products seeded", "url", cfg.ProductsSeedURL, "count", count, "file", file.Path())
	}
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hubCtx, hubCancel := context.WithCancel(context.Background())
	go a.hub.Run(hubCtx)
	a.cleanupFuncs = append(a.cleanupFuncs, hubCancel)

	serveErr := make(chan error, 1)
	go func() {
		scheme := "http"
		var err error
		if a.cfg.TLSEnabled() {
			scheme = "https"
			slog.Info("server starting", "addr", a.server.Addr, "scheme", scheme)
			err = a.server.ListenAndServeTLS(a.cfg.TLSCertFile, a.cfg.TLSKeyFile)
		} else {
			slog.Info("server starting", "addr", a.server.Addr, "scheme", scheme)
			err = a.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			a.cleanup()
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.cleanup()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for _, fn := range a.cleanupFuncs {
		fn()
	}
	a.cleanupFuncs = nil
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

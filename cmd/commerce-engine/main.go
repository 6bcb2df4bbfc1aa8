package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eshop-labs/commerce-engine/internal/api/handlers"
	"github.com/eshop-labs/commerce-engine/internal/api/middleware"
	"github.com/eshop-labs/commerce-engine/internal/authz"
	"github.com/eshop-labs/commerce-engine/internal/config"
	"github.com/eshop-labs/commerce-engine/internal/health"
	"github.com/eshop-labs/commerce-engine/internal/metrics"
	"github.com/eshop-labs/commerce-engine/internal/persistence"
	repository "github.com/eshop-labs/commerce-engine/internal/repositories"
	"github.com/eshop-labs/commerce-engine/internal/session"
	"github.com/eshop-labs/commerce-engine/internal/store"
	"github.com/eshop-labs/commerce-engine/internal/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.MustLoad()

	ctx := context.Background()

	// Tracing (no-op unless an exporter endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, &cfg.Otel)
	if err != nil {
		slog.Error("Failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Database setup
	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("Error closing database connection", slog.String("error", err.Error()))
		}
	}()

	// Redis setup
	redisClient, err := persistence.NewRedisClient(&cfg.RedisConnect)
	if err != nil {
		slog.Error("Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Snapshot storage backend
	var storage persistence.Storage

	switch cfg.Storage.Backend {
	case "file":
		storage, err = persistence.NewFileStorage(cfg.Storage.FilePath)
		if err != nil {
			slog.Error("Error opening file storage", slog.String("error", err.Error()))
			os.Exit(1)
		}
	default:
		storage = persistence.NewRedisStorage(redisClient)
	}

	// Hydrate the store from the last snapshot and keep writing new ones.
	engineStore := store.NewFromState(persistence.LoadState(ctx, storage, logger))
	detach := persistence.Attach(engineStore, storage, logger)
	defer detach()

	// Session manager wiring
	deps := session.ManagerDeps{
		Provider:    session.NewHTTPProvider(&cfg.Provider),
		Staff:       repos.Staff,
		Customers:   repos.Customer,
		Storage:     storage,
		RateLimiter: repository.NewRateLimitRepo(redisClient, &cfg.RateConfig),
		Tokens:      session.NewTokenIssuer([]byte(cfg.Security.JWTKey), cfg.Security.JWTExpiryHours),
		Logger:      logger,
	}

	if cfg.DemoDirectory.Enabled {
		deps.Demo = session.NewDemoDirectory()
		slog.Warn("Demo credential directory is enabled; do not use in production")
	}

	manager := session.NewManager(deps)

	var federated *session.FederatedAuthenticator

	if cfg.OIDC.Enabled {
		federated, err = session.NewFederatedAuthenticator(ctx, &cfg.OIDC)
		if err != nil {
			slog.Error("Failed to initialize federated login", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Pick up a cached session before serving traffic.
	manager.Restore(ctx)

	if manager.IsAuthenticated() {
		if err := manager.RevalidateRestored(ctx); err != nil {
			slog.Warn("Restored session could not be revalidated",
				slog.String("error", err.Error()))
		}
	}

	// Capability table: config override or the shipped defaults.
	grants := cfg.Capabilities
	if len(grants) == 0 {
		grants = authz.DefaultGrants()
	}

	table, err := authz.NewCapabilityTable(grants)
	if err != nil {
		slog.Error("Invalid capability configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	gate := authz.NewGate(table)

	authHandler := handlers.NewAuthHandler(manager, federated)
	cartHandler := handlers.NewCartHandler(engineStore)
	wishlistHandler := handlers.NewWishlistHandler(engineStore)
	capabilityHandler := handlers.NewCapabilityHandler(table)
	authMiddleware := middleware.NewAuthMiddleware(deps.Tokens, gate)

	healthHandler, err := health.NewHealthHandler(cfg, storage)
	if err != nil {
		slog.Error("Failed to create health handler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/v1/auth/login", authHandler.Login())
	routerMux.HandleFunc("GET /api/v1/auth/federated", authHandler.FederatedStart())
	routerMux.HandleFunc("GET /api/v1/auth/federated/callback", authHandler.FederatedCallback())
	routerMux.HandleFunc("POST /api/v1/auth/logout", authMiddleware.Authenticate(authHandler.Logout()))
	routerMux.HandleFunc("GET /api/v1/auth/session", authHandler.SessionState())
	routerMux.HandleFunc("GET /api/v1/auth/profile", authMiddleware.Authenticate(authHandler.Profile()))
	routerMux.HandleFunc("PATCH /api/v1/auth/profile", authMiddleware.Authenticate(authHandler.UpdateProfile()))

	routerMux.HandleFunc("GET /api/v1/cart", cartHandler.GetCart())
	routerMux.HandleFunc("GET /api/v1/cart/summary", cartHandler.GetSummary())
	routerMux.HandleFunc("POST /api/v1/cart/items", cartHandler.AddItem())
	routerMux.HandleFunc("PUT /api/v1/cart/items", cartHandler.UpdateQuantity())
	routerMux.HandleFunc("DELETE /api/v1/cart/items/{id}", cartHandler.RemoveItem())
	routerMux.HandleFunc("DELETE /api/v1/cart", cartHandler.ClearCart())

	routerMux.HandleFunc("GET /api/v1/wishlist", wishlistHandler.GetWishlist())
	routerMux.HandleFunc("POST /api/v1/wishlist/toggle", wishlistHandler.ToggleItem())
	routerMux.HandleFunc("GET /api/v1/wishlist/items/{id}", wishlistHandler.Contains())

	routerMux.HandleFunc("GET /api/v1/admin/dashboard",
		authMiddleware.RequireCapability(authz.CapViewDashboard, handlers.NewDashboardHandler(engineStore).Overview()))
	routerMux.HandleFunc("GET /api/v1/admin/capabilities",
		authMiddleware.RequireCapability(authz.CapEditRoles, capabilityHandler.GetGrants()))
	routerMux.HandleFunc("PUT /api/v1/admin/capabilities",
		authMiddleware.RequireCapability(authz.CapEditRoles, capabilityHandler.SetRole()))

	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = authMiddleware.WithSession(handler)
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "commerce-engine")

	server := http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: handler,
	}

	slog.Info("Server is starting",
		slog.String("address", cfg.HTTPServer.Addr),
		slog.String("env", cfg.Env),
		slog.String("storage_backend", cfg.Storage.Backend))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("Failed to start server", slog.String("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("Shutdown signal received. Preparing to stop the server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown encountered an issue", slog.String("error", err.Error()))
	}

	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Error("Tracer shutdown encountered an issue", slog.String("error", err.Error()))
		}
	}

	if err := storage.Close(); err != nil {
		slog.Error("Storage close encountered an issue", slog.String("error", err.Error()))
	}
}

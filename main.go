// api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"checkoutlens/api/aggregate"
	"checkoutlens/api/catalog"
	"checkoutlens/api/dashboard"
	"checkoutlens/api/database"
	"checkoutlens/api/handlers"
	"checkoutlens/api/logger"
	"checkoutlens/api/metrics"
	"checkoutlens/api/middleware"
	"checkoutlens/api/recorder"
	"checkoutlens/api/store"
)

func main() {
	// Load .env file at the very start
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	mode := os.Getenv("GIN_MODE")
	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	zlog, err := logger.New(mode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	metrics.Init()

	ctx := context.Background()

	// --- PostgreSQL: dashboard users + tracking settings ---
	dbClient, err := database.NewPostgresDB(zlog)
	if err != nil {
		zlog.Fatal("Failed to initialize PostgreSQL database", zap.Error(err))
	}
	defer dbClient.Close()

	if err := dbClient.EnsureSchema(ctx); err != nil {
		zlog.Fatal("Failed to ensure PostgreSQL schema", zap.Error(err))
	}

	// --- Event store: ClickHouse, embedded SQLite, or in-memory ---
	eventStore, err := newEventStore(ctx, zlog)
	if err != nil {
		zlog.Fatal("Failed to initialize event store", zap.Error(err))
	}
	defer eventStore.Close()

	// --- Stores ---
	userStore := store.NewUserStore(dbClient.DB, zlog)
	settingsStore := store.NewSettingsStore(dbClient.DB, zlog)
	if err := settingsStore.EnsureDefaults(ctx); err != nil {
		zlog.Fatal("Failed to seed default settings", zap.Error(err))
	}

	// --- Core components ---
	rec := recorder.New(eventStore, settingsStore.Provider(30*time.Second), nil, zlog)
	engine := aggregate.NewEngine(eventStore, zlog)
	assembler := dashboard.NewAssembler(engine, newProductResolver(zlog), dashboard.DefaultCacheTTL, zlog)

	// --- Handlers ---
	authHandlers := handlers.NewAuthHandlers(userStore, zlog)
	trackHandlers := handlers.NewTrackHandlers(rec, zlog)
	dashboardHandlers := handlers.NewDashboardHandlers(assembler, eventStore, zlog)
	settingsHandlers := handlers.NewSettingsHandlers(settingsStore, eventStore, zlog)

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", dashboardHandlers.Health)

		// Authentication endpoints (no authentication required)
		api.POST("/signup", authHandlers.Signup)
		api.POST("/login", authHandlers.Login)
		api.POST("/logout", authHandlers.Logout)

		// Tracking endpoints: the handshake is open, ingest requires the
		// per-session token it issues.
		api.POST("/track/session", trackHandlers.StartSession)
		api.POST("/track", middleware.SessionTokenRequired(zlog), trackHandlers.Track)

		// Admin surface (requires a valid dashboard JWT)
		protected := api.Group("/")
		protected.Use(middleware.AuthRequired(zlog))
		{
			protected.GET("/stats/dashboard", dashboardHandlers.GetDashboard)
			protected.POST("/stats/refresh", dashboardHandlers.Refresh)

			protected.GET("/settings", settingsHandlers.GetSettings)
			protected.PUT("/settings", settingsHandlers.UpdateSettings)

			protected.POST("/admin/teardown", settingsHandlers.Teardown)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		zlog.Info("API server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("API server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exiting")
}

// newEventStore selects the event store backend. EVENT_STORE picks
// explicitly; otherwise ClickHouse when configured, the embedded SQLite
// store when not.
func newEventStore(ctx context.Context, zlog *zap.Logger) (store.EventStore, error) {
	backend := os.Getenv("EVENT_STORE")
	if backend == "" {
		if os.Getenv("CLICKHOUSE_HOST") != "" {
			backend = "clickhouse"
		} else {
			backend = "sqlite"
		}
	}

	switch backend {
	case "clickhouse":
		chClient, err := database.NewClickHouseDB(zlog)
		if err != nil {
			return nil, err
		}
		if err := chClient.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store.NewClickHouseEventStore(ctx, chClient, zlog)

	case "sqlite":
		sqliteClient, err := database.NewSQLiteDB(os.Getenv("SQLITE_PATH"), zlog)
		if err != nil {
			return nil, err
		}
		if err := sqliteClient.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store.NewSQLiteEventStore(sqliteClient, zlog), nil

	default:
		zlog.Warn("Unknown EVENT_STORE, using in-memory store (events do not survive restart)",
			zap.String("backend", backend))
		return store.NewMemoryEventStore(), nil
	}
}

// newProductResolver wires the commerce platform product lookup when
// configured; otherwise every removed product renders as the placeholder.
func newProductResolver(zlog *zap.Logger) catalog.Resolver {
	if baseURL := os.Getenv("PRODUCT_API_URL"); baseURL != "" {
		return catalog.NewHTTPResolver(baseURL, zlog)
	}
	return catalog.Static{}
}

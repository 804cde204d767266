package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"triadStreakAPI/cache"
	"triadStreakAPI/handlers"
	"triadStreakAPI/internal/realtime"
	"triadStreakAPI/middleware"
	"triadStreakAPI/services"
	"triadStreakAPI/utils"
)

var (
	dbPool            *pgxpool.Pool
	leaderboardCache  *cache.Cache
	hub               *realtime.Hub
	authService       *services.AuthService
	userService       *services.UserService
	catalogService    *services.CatalogService
	completionService *services.CompletionService
)

func init() {
	if err := godotenv.Load(); err != nil {
		// No .env in production; env vars come from the platform.
	}

	utils.InitLogger()

	if os.Getenv("JWT_SECRET") == "" {
		utils.Logger.Fatal("JWT_SECRET environment variable is not set")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		utils.Logger.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		utils.Logger.Fatal("failed to parse database URL", zap.Error(err))
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		utils.Logger.Fatal("failed to create connection pool", zap.Error(err))
	}

	if err := dbPool.Ping(ctx); err != nil {
		utils.Logger.Fatal("failed to ping database", zap.Error(err))
	}

	utils.Logger.Info("connected to database")

	leaderboardCache, err = cache.NewCache(utils.Logger)
	if err != nil {
		// The leaderboard works without redis, just uncached.
		utils.Logger.Warn("redis unavailable, leaderboard cache disabled", zap.Error(err))
		leaderboardCache = nil
	}

	hub = realtime.NewHub(utils.Logger)

	authService = services.NewAuthService(dbPool)
	userService = services.NewUserService(dbPool, leaderboardCache)
	catalogService = services.NewCatalogService(dbPool)
	completionService = services.NewCompletionService(dbPool, hub, leaderboardCache)

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		utils.Logger.Info("closing database connection pool")
		dbPool.Close()
		leaderboardCache.Close()
	}()

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(completionService, catalogService, userService)
	realtimeHandler := handlers.NewRealtimeHandler(hub)

	r := mux.NewRouter()

	// Websocket subscriptions live outside the rate-limited subrouter;
	// a long-lived connection is one request, not many.
	r.HandleFunc("/api/v1/ws", realtimeHandler.Subscribe)

	standardRouter := r.PathPrefix("/").Subrouter()

	go middleware.CleanupVisitors()

	standardRouter.Use(middleware.RateLimitMiddleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "triadStreak-api"}`))
	}).Methods("GET")

	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/stats", userHandler.GetStats).Methods("GET")
	protected.HandleFunc("/user/streak", userHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/leaderboard", userHandler.GetLeaderboard).Methods("GET")

	protected.HandleFunc("/tasks", taskHandler.GetTasks).Methods("GET")
	protected.HandleFunc("/tasks/today", taskHandler.GetToday).Methods("GET")
	protected.HandleFunc("/tasks/complete", taskHandler.CompleteTask).Methods("POST")
	protected.HandleFunc("/weekly-challenge", taskHandler.GetWeeklyChallenge).Methods("GET")
	protected.HandleFunc("/weekly-challenge/complete", taskHandler.CompleteWeeklyChallenge).Methods("POST")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		utils.Logger.Info("starting server", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Logger.Fatal("error starting server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	utils.Logger.Info("got signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.Logger.Error("server shutdown error", zap.Error(err))
	}

	utils.Logger.Info("server shutdown complete")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aiguy110/pig-pen-harness/internal/auth"
	"github.com/aiguy110/pig-pen-harness/internal/config"
	"github.com/aiguy110/pig-pen-harness/internal/handler"
	"github.com/aiguy110/pig-pen-harness/internal/logger"
	"github.com/aiguy110/pig-pen-harness/internal/middleware"
	"github.com/aiguy110/pig-pen-harness/internal/repository/postgres"
	redisrepo "github.com/aiguy110/pig-pen-harness/internal/repository/redis"
	"github.com/aiguy110/pig-pen-harness/internal/sandbox"
	"github.com/aiguy110/pig-pen-harness/internal/simqueue"
)

// pollInterval is how often the simulation queue checks for a completed
// tournament and spawns the next one.
const pollInterval = 250 * time.Millisecond

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("databaseURL", cfg.DatabaseURL).Msg("Config loaded")

	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()
	if err := postgres.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Database migration failed")
	}

	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	host, err := sandbox.NewHost()
	if err != nil {
		log.Fatal().Err(err).Msg("Sandbox host initialization failed")
	}

	// Repos
	botRepo := postgres.NewBotRepo(db)
	simRepo := postgres.NewSimulationRepo(db)

	// Single-worker simulation queue
	queue := simqueue.NewManager()

	// Handlers
	botHandler := handler.NewBotHandler(botRepo, host, cfg.BotsDir)
	simHandler := handler.NewSimulationHandler(simRepo, botRepo, redisClient, queue, host)

	// Router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Mutating routes go through the bearer-token gate when JWT_SECRET is set.
	gate := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.JWTSecret != "" {
		jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
		gate = func(h http.HandlerFunc) http.Handler { return auth.Middleware(jwtMgr)(h) }
	} else {
		log.Warn().Msg("JWT_SECRET not set; mutating routes are unauthenticated")
	}

	api := http.NewServeMux()
	api.Handle("POST /bots", gate(botHandler.Create))
	api.HandleFunc("GET /bots", botHandler.List)
	api.Handle("POST /simulations", gate(simHandler.Create))
	api.HandleFunc("GET /simulations/{id}", simHandler.Status)
	api.HandleFunc("GET /simulations/{id}/results", simHandler.Results)
	mux.Handle("/", api)

	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go queue.Run(ctx, pollInterval)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}

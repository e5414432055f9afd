package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/draftvision/draftvision/internal/auth"
	"github.com/draftvision/draftvision/internal/config"
	"github.com/draftvision/draftvision/internal/draftorder"
	"github.com/draftvision/draftvision/internal/drafts"
	"github.com/draftvision/draftvision/internal/gateway"
	"github.com/draftvision/draftvision/internal/players"
	"github.com/draftvision/draftvision/internal/realtime"
	"github.com/draftvision/draftvision/internal/report"
	"github.com/draftvision/draftvision/internal/usage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	log.Info().
		Str("database", cfg.Database.Database).
		Str("nats_url", cfg.NATS.URL).
		Int("port", cfg.Server.Port).
		Msg("starting draftvision server")

	// Data layer.
	playerRepo := players.NewRepository(pool)
	orderRepo := draftorder.NewRepository(pool)
	draftRepo := drafts.NewRepository(pool)
	userRepo := auth.NewRepository(pool)
	usageRepo := usage.NewRepository(pool)

	// Services.
	playerSvc := players.NewService(playerRepo)
	valueCache := report.NewValueCache(playerRepo)
	draftSvc := drafts.NewService(draftRepo, valueCache)
	authSvc := auth.NewService(userRepo, auth.NewTokenProvider(cfg.Auth.JWTSecret))

	// Realtime change feed and event stream.
	rt := realtime.NewManager(cfg.NATS.URL)
	if err := rt.Init(ctx); err != nil {
		log.Error().Err(err).Msg("realtime manager unavailable, continuing without live updates")
	} else {
		defer rt.Teardown()
		if err := rt.SubscribePlayerProfiles(playerSvc.ApplyProfileUpdate); err != nil {
			log.Error().Err(err).Msg("failed to subscribe to player profile updates")
		}
	}

	// Draft room fan-out.
	conns := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	go conns.Start(ctx)
	rooms := gateway.NewRoomManager(orderRepo, playerSvc, conns, rt)

	api := gateway.NewAPI(authSvc, playerSvc, draftSvc, usageRepo, rooms, conns, rt, valueCache)
	server := gateway.NewServer(cfg.Server.Port, api)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	cancel()

	log.Info().Msg("draftvision server shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/ratrace/go/internal/relay"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	config := relay.DefaultConfig()
	if path := os.Getenv("RELAY_CONFIG"); path != "" {
		loaded, err := relay.LoadConfig(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to load config")
		}
		config = loaded
	}
	config.Port = getEnv("RELAY_PORT", config.Port)
	config.JetStream.URL = getEnv("NATS_URL", config.JetStream.URL)
	if os.Getenv("NATS_URL") != "" {
		config.JetStream.Enabled = true
	}

	log.Info().
		Str("port", config.Port).
		Bool("jetstream", config.JetStream.Enabled).
		Msg("starting room relay")

	r := relay.New(config.Connection)
	handler := relay.NewHandler(r)
	server := relay.NewServer(config, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go r.Start(ctx)

	var consumer *relay.EventConsumer
	if config.JetStream.Enabled {
		var err error
		consumer, err = relay.NewEventConsumer(r, config.JetStream)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event consumer")
		}
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		}()
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	cancel()
	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			log.Error().Err(err).Msg("event consumer stop failed")
		}
	}

	log.Info().Msg("room relay shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/ratrace/go/clients/gameapi"
	"github.com/mcdev12/ratrace/go/internal/room"
	"github.com/mcdev12/ratrace/go/internal/room/channel"
	"github.com/mcdev12/ratrace/go/internal/room/lifecycle"
)

// Headless room client runner. Joins (or reconnects to) a room and logs
// the synchronized state as events arrive. Useful against a local relay.
func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	apiURL := getEnv("API_URL", "http://localhost:8080")
	relayURL := getEnv("RELAY_WS_URL", "ws://localhost:8081/ws/room")
	roomCode := os.Getenv("ROOM_CODE")
	playerName := getEnv("PLAYER_NAME", "guest")

	identityPath := getEnv("IDENTITY_FILE", defaultIdentityPath())

	clock := clockwork.NewRealClock()
	api := gameapi.NewClient(apiURL)
	ch := channel.New(channel.DefaultConfig(relayURL), clock)
	ids := lifecycle.NewFileIdentityStore(identityPath)

	client := room.NewClient(api, ch, ids, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Prefer resuming a stored identity; fall back to joining fresh.
	joinCtx, joinCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := client.AttemptReconnect(joinCtx); err != nil {
		if roomCode == "" {
			joinCancel()
			log.Fatal().Err(err).Msg("no stored session and no ROOM_CODE set")
		}
		log.Info().Str("room_code", roomCode).Str("player", playerName).Msg("joining room")
		if _, err := client.JoinGame(joinCtx, roomCode, playerName); err != nil {
			joinCancel()
			log.Fatal().Err(err).Msg("failed to join room")
		}
		if err := client.EnterRoom(joinCtx); err != nil {
			joinCancel()
			log.Fatal().Err(err).Msg("failed to enter room")
		}
	}
	joinCancel()

	log.Info().
		Str("state", string(client.Lifecycle().State())).
		Msg("room client running")

	// Periodically report synchronized state.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stores := client.Stores()
				log.Info().
					Int("players", stores.Roster.Len()).
					Str("session", string(stores.Session.Status())).
					Int("notifications", len(stores.Notifications.List())).
					Msg("room state")
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	cancel()
	if err := client.Close(); err != nil {
		log.Error().Err(err).Msg("client close failed")
	}

	log.Info().Msg("room client shutdown complete")
}

func defaultIdentityPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ratrace-identity.json"
	}
	return filepath.Join(home, ".ratrace", "identity.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package relay

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/ratrace/go/internal/room/events"
)

// Handler exposes the relay over HTTP: the websocket upgrade endpoint,
// an event inject endpoint for development, and health/stats.
type Handler struct {
	relay *Relay
}

// NewHandler creates an HTTP handler for the relay.
func NewHandler(relay *Relay) *Handler {
	return &Handler{relay: relay}
}

// HandleRoomConnection upgrades a request to a relay websocket connection.
// Clients join rooms with control frames after the upgrade.
func (h *Handler) HandleRoomConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.relay.Upgrade(w, r); err != nil {
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
		return
	}
}

// injectRequest is the body of the development inject endpoint.
type injectRequest struct {
	EventType events.Type     `json:"eventType"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// HandleInjectEvent accepts an event over HTTP and broadcasts it to a room.
// Lets the backend (or curl during development) push events without NATS.
func (h *Handler) HandleInjectEvent(w http.ResponseWriter, r *http.Request) {
	roomCode := r.PathValue("code")
	if roomCode == "" {
		http.Error(w, "room code is required", http.StatusBadRequest)
		return
	}

	var req injectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.EventType == "" {
		http.Error(w, "eventType is required", http.StatusBadRequest)
		return
	}

	h.relay.Emit(roomCode, req.EventType, req.Payload)

	log.Info().
		Str("room_code", roomCode).
		Str("event_type", string(req.EventType)).
		Msg("event injected")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte(`{"status":"accepted"}`))
}

// HandleStats reports connection statistics.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.relay.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to write stats response")
	}
}

// RegisterRoutes registers relay routes with an HTTP mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/room", h.HandleRoomConnection)
	mux.HandleFunc("POST /api/rooms/{code}/events", h.HandleInjectEvent)
	mux.HandleFunc("/ws/stats", h.HandleStats)
}

// NewServer builds the relay HTTP server with CORS and h2c support.
func NewServer(config Config, handler *Handler) *http.Server {
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Port),
		Handler: h2c.NewHandler(c.Handler(mux), &http2.Server{}),
	}
}

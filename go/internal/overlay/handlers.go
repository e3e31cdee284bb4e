package overlay

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/mcdev12/uwh-display/go/internal/game"
)

// Handler serves the overlay HTTP and websocket API
type Handler struct {
	connectionManager *ConnectionManager
	renderer          *ViewRenderer
	logoPath          string
	logger            zerolog.Logger
}

func NewHandler(cm *ConnectionManager, renderer *ViewRenderer, logoPath string, logger zerolog.Logger) *Handler {
	return &Handler{
		connectionManager: cm,
		renderer:          renderer,
		logoPath:          logoPath,
		logger:            logger.With().Str("component", "http").Logger(),
	}
}

// Routes builds the router, wrapped with CORS
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.HandleState)
		r.Get("/flags/{color}", h.HandleFlag)
		r.Get("/logo", h.HandleLogo)
	})
	r.Get("/ws/overlay", h.HandleOverlayConnection)
	r.Get("/ws/stats", h.HandleConnectionStats)

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		h.logger.Error().Err(err).Msg("failed to write health check response")
	}
}

// HandleState returns the view currently on screen
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	view, ok := h.renderer.Latest()
	if !ok {
		http.Error(w, "no view rendered yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, h.logger, view)
}

// HandleFlag returns the raw flag image for black or white
func (h *Handler) HandleFlag(w http.ResponseWriter, r *http.Request) {
	var color game.Color
	switch chi.URLParam(r, "color") {
	case "black":
		color = game.Black
	case "white":
		color = game.White
	default:
		http.Error(w, "color must be black or white", http.StatusBadRequest)
		return
	}

	data := h.renderer.FlagImage(color)
	if len(data) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Write(data)
}

// HandleLogo serves the configured tournament logo file
func (h *Handler) HandleLogo(w http.ResponseWriter, r *http.Request) {
	if h.logoPath == "" {
		http.NotFound(w, r)
		return
	}
	if _, err := os.Stat(h.logoPath); err != nil {
		h.logger.Warn().Err(err).Str("path", h.logoPath).Msg("failed to read tournament logo")
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, h.logoPath)
}

func (h *Handler) HandleOverlayConnection(w http.ResponseWriter, r *http.Request) {
	// the upgrader has already written an error response on failure
	if err := h.connectionManager.UpgradeConnection(w, r); err != nil {
		h.logger.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("failed to upgrade websocket connection")
	}
}

func (h *Handler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, h.connectionManager.GetConnectionStats())
}

func writeJSON(w http.ResponseWriter, logger zerolog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
	}
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/wricardo/marblerace/game/engine"
	"github.com/wricardo/marblerace/game/service"
	"github.com/wricardo/marblerace/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service   service.GameService
	hub       *websocket.Hub
	router    *mux.Router
	startedAt time.Time
	staticDir string
}

// Option customizes a Server
type Option func(*Server)

// WithStaticDir serves static files from dir instead of ./static/
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// NewServer creates a new API server
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service:   gameService,
		hub:       hub,
		router:    mux.NewRouter(),
		startedAt: time.Now(),
		staticDir: "./static/",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Rooms
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/rooms/{id}", s.handleGetRoom).Methods("GET")
	api.HandleFunc("/rooms/{id}", s.handleCloseRoom).Methods("DELETE")
	api.HandleFunc("/rooms/{id}/board", s.handleGetBoard).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	// Results
	api.HandleFunc("/results", s.handleListResults).Methods("GET")
	api.HandleFunc("/results/{id}", s.handleGetResult).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Static files
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Room Handlers

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.service.ListRooms(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := r.URL.Query()
	if status := query.Get("status"); status != "" {
		filtered := make([]*service.RoomInfo, 0, len(rooms))
		for _, room := range rooms {
			if string(room.Status) == status {
				filtered = append(filtered, room)
			}
		}
		rooms = filtered
	}

	total := len(rooms)
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(rooms) {
			rooms = rooms[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(rooms),
		"total": total,
		"rooms": rooms,
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]

	room, err := s.service.GetRoom(r.Context(), roomID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, room)
}

func (s *Server) handleCloseRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]

	if err := s.service.CloseRoom(r.Context(), roomID); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Room %s closed", roomID),
	})
}

// handleGetBoard renders a room's board as text, or as JSON rows with ?format=json
func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]

	room, err := s.service.GetRoom(r.Context(), roomID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	board := room.State.Board

	if r.URL.Query().Get("format") == "json" {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"room_id": room.ID,
			"status":  room.Status,
			"rows":    engine.RenderRows(board),
			"legend":  legend(room.Players),
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, engine.Render(board))
	for _, line := range legend(room.Players) {
		fmt.Fprintln(w, line)
	}
}

// legend describes each seat's piece mark
func legend(players []engine.Player) []string {
	lines := make([]string, 0, len(players))
	for _, p := range players {
		line := fmt.Sprintf("%c = %s (%s)", engine.ColorMark(p.Color), p.Name, strings.ToLower(string(p.Color)))
		switch {
		case p.Disconnected:
			line += " disconnected"
		case p.Rank > 0:
			line += fmt.Sprintf(" finished #%d", p.Rank)
		}
		lines = append(lines, line)
	}
	return lines
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	config, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, config)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var boardConfig engine.BoardConfig

	if err := json.NewDecoder(r.Body).Decode(&boardConfig); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if boardConfig.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	if err := s.service.SaveConfig(r.Context(), boardConfig.Name, &boardConfig); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": boardConfig.Name,
	})
}

// Result Handlers

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.service.ListResults(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(results) {
			results = results[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	resultID := mux.Vars(r)["id"]

	result, err := s.service.GetResult(r.Context(), resultID)
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, service.ErrResultsDisabled) {
			status = http.StatusServiceUnavailable
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket transport not available", http.StatusServiceUnavailable)
		return
	}
	s.hub.ServeWS(w, r)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rooms, _ := s.service.ListRooms(r.Context())
	clients := 0
	if s.hub != nil {
		clients = s.hub.Count()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"rooms":   len(rooms),
		"clients": clients,
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
	})
}

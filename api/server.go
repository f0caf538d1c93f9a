package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
	"github.com/Electry/panaxeo-coding-arena-2023/game/service"
)

type contextKey string

const tokenContextKey contextKey = "token"

// Server is the HTTP surface of the arena. All game routes are GET,
// authenticated by a bearer token or a token query parameter.
type Server struct {
	service service.GameService
	router  *mux.Router
}

// NewServer creates a new API server.
func NewServer(gameService service.GameService) *Server {
	s := &Server{
		service: gameService,
		router:  mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/fire", s.handleStatus)
	s.router.HandleFunc("/fire/{row}/{column}", s.handleFire)
	s.router.HandleFunc("/fire/{row}/{column}/avenger/{avenger}", s.handleFireAvenger)
	s.router.HandleFunc("/reset", s.handleReset)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "invalid action")
	})
	s.router.Use(s.authMiddleware)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// authMiddleware enforces the GET-only surface and token presence.
// The token comes from an Authorization bearer header or the token
// query parameter; a missing token is a 403.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusBadRequest, "only GET requests are supported")
			return
		}
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			respondError(w, http.StatusForbidden, "missing token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tokenContextKey, token)))
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.service.Status(r.Context(), tokenFrom(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFire(w http.ResponseWriter, r *http.Request) {
	x, y, ok := fireCoordinates(w, r)
	if !ok {
		return
	}
	resp, err := s.service.Fire(r.Context(), tokenFrom(r), x, y)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFireAvenger(w http.ResponseWriter, r *http.Request) {
	x, y, ok := fireCoordinates(w, r)
	if !ok {
		return
	}
	avenger, err := engine.ParseAvenger(mux.Vars(r)["avenger"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := s.service.FireAvenger(r.Context(), tokenFrom(r), x, y, avenger)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	_, wipe := r.URL.Query()["wipe"]
	if err := s.service.Reset(r.Context(), tokenFrom(r), wipe); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"reset": true})
}

// fireCoordinates parses the row/column path variables and flips them
// into engine coordinates (x = column, y = row).
func fireCoordinates(w http.ResponseWriter, r *http.Request) (x, y int, ok bool) {
	vars := mux.Vars(r)
	row, err := strconv.Atoi(vars["row"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid row")
		return 0, 0, false
	}
	column, err := strconv.Atoi(vars["column"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid column")
		return 0, 0, false
	}
	return column, row, true
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func tokenFrom(r *http.Request) string {
	token, _ := r.Context().Value(tokenContextKey).(string)
	return token
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto the wire taxonomy:
// semantic violations are 400s, everything else is a 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrOutOfBounds),
		errors.Is(err, engine.ErrAvengerUnavailable),
		errors.Is(err, engine.ErrUnknownAvenger),
		errors.Is(err, service.ErrAttemptLimit):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

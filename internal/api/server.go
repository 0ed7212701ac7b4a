package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/WishlistBot/internal/metrics"
	"github.com/Kerhoff/WishlistBot/internal/reservation"
	"github.com/Kerhoff/WishlistBot/internal/service"
)

// Server provides the HTTP administrative API.
type Server struct {
	svc          *service.Service
	reservations *reservation.Manager
	logger       *logrus.Logger
	metrics      *metrics.Metrics
	router       *mux.Router
	cors         *cors.Cors
}

// NewServer creates a Server, registers all routes, and returns it.
// allowedOrigins configures CORS; m may be nil.
func NewServer(svc *service.Service, reservations *reservation.Manager, logger *logrus.Logger, m *metrics.Metrics, allowedOrigins []string) *Server {
	s := &Server{
		svc:          svc,
		reservations: reservations,
		logger:       logger,
		metrics:      m,
		router:       mux.NewRouter(),
		cors: cors.New(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		}),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
// Requests the router rejects (404, 405) are logged and counted as well.
func (s *Server) Handler() http.Handler {
	return s.requestID(s.accessLog(s.cors.Handler(s.router)))
}

// Mount serves h for POST requests on path, sharing the access log.
func (s *Server) Mount(path string, h http.Handler) {
	s.router.Handle(path, h).Methods(http.MethodPost)
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	s.router.Use(s.captureRoute)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()

	// Users
	api.HandleFunc("/users", s.handleRegisterUser).Methods(http.MethodPost)
	api.HandleFunc("/users/by-username/{username}", s.handleGetUserByUsername).Methods(http.MethodGet)
	api.HandleFunc("/users/by-username/{username}/wishlist", s.handleGetWishlistByUsername).Methods(http.MethodGet)

	// Wishlist
	api.HandleFunc("/wishlist", s.handleListItems).Methods(http.MethodGet)
	api.HandleFunc("/wishlist", s.handleAddItem).Methods(http.MethodPost)
	api.HandleFunc("/wishlist/{id:[0-9]+}", s.handleGetItem).Methods(http.MethodGet)
	api.HandleFunc("/wishlist/{id:[0-9]+}", s.handleUpdateItem).Methods(http.MethodPut)
	api.HandleFunc("/wishlist/{id:[0-9]+}", s.handleDeleteItem).Methods(http.MethodDelete)

	// Reservations
	api.HandleFunc("/wishlist/{id:[0-9]+}/reserve", s.handleReserve).Methods(http.MethodPut)
	api.HandleFunc("/wishlist/{id:[0-9]+}/reserve", s.handleRelease).Methods(http.MethodDelete)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// pathID extracts the {id} path value and converts it to int64.
func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	if raw == "" {
		return 0, fmt.Errorf("missing id in path")
	}
	return strconv.ParseInt(raw, 10, 64)
}

// requireTelegramID reads the telegram_id query parameter.  It writes an
// error response and returns false when the parameter is absent or invalid.
func (s *Server) requireTelegramID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("telegram_id")
	if raw == "" {
		s.respondError(w, http.StatusBadRequest, "telegram_id query parameter is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "telegram_id must be an integer")
		return 0, false
	}
	return id, true
}

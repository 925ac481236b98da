package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mcoot/competition-console/internal/api/handler"
	"github.com/mcoot/competition-console/internal/api/middleware"
	sharedmw "github.com/mcoot/competition-console/internal/middleware"
	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/services/auth"
	"github.com/mcoot/competition-console/internal/services/country"
	"github.com/mcoot/competition-console/internal/services/numbers"
	"github.com/mcoot/competition-console/internal/services/registry"
	"github.com/mcoot/competition-console/internal/services/timer"
	"github.com/mcoot/competition-console/internal/sse"
	"github.com/mcoot/competition-console/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	Storage         storage.Storage
	StorageType     string
	AuthService     *auth.Service
	Registry        *registry.Service
	NumberEngine    *numbers.Engine
	TimerController *timer.Controller
	Countries       *country.Service
	HubManager      *sse.HubManager
	SSEKeepalive    time.Duration
	CORSOrigins     []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	competitorHandler := handler.NewCompetitorHandler(cfg.Registry, cfg.Countries)
	numbersHandler := handler.NewNumbersHandler(cfg.NumberEngine)
	sessionHandler := handler.NewSessionHandler(cfg.TimerController)
	countriesHandler := handler.NewCountriesHandler(cfg.Countries)
	eventsHandler := handler.NewEventsHandler(cfg.HubManager, cfg.SSEKeepalive)
	healthHandler := handler.NewHealthHandler(cfg.Storage, cfg.StorageType)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(sharedmw.RequestID)
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(sharedmw.Logging(cfg.Logger))

	// Public routes
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/health", healthHandler.Check).Methods(http.MethodGet)

	// Everything else requires an admin session
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)

	protected.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)

	protected.HandleFunc("/competitors", competitorHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/competitors", competitorHandler.Create).Methods(http.MethodPost)
	// Registered before /competitors/{id} so "events" is not taken as an id
	protected.HandleFunc("/competitors/events", eventsHandler.Stream(model.TopicCompetitors)).Methods(http.MethodGet)
	protected.HandleFunc("/competitors/{id}", competitorHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/competitors/{id}", competitorHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/competitors/{id}", competitorHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/competitors/{id}/sessions/{day}/{module}", sessionHandler.Get).Methods(http.MethodGet)

	protected.HandleFunc("/numbers", numbersHandler.Status).Methods(http.MethodGet)
	protected.HandleFunc("/numbers/assign", numbersHandler.Assign).Methods(http.MethodPost)

	protected.HandleFunc("/sessions", sessionHandler.Board).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/active", sessionHandler.Active).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/start", sessionHandler.Start).Methods(http.MethodPost)
	protected.HandleFunc("/sessions/stop", sessionHandler.Stop).Methods(http.MethodPost)
	protected.HandleFunc("/sessions/events", eventsHandler.Stream(model.TopicSessions)).Methods(http.MethodGet)

	protected.HandleFunc("/countries", countriesHandler.List).Methods(http.MethodGet)

	if len(cfg.CORSOrigins) == 0 {
		return r
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ecoforge/apiserver/config"
	"github.com/ecoforge/apiserver/internal/archive"
	"github.com/ecoforge/apiserver/internal/classifier"
	"github.com/ecoforge/apiserver/internal/db"
	"github.com/ecoforge/apiserver/internal/events"
	"github.com/ecoforge/apiserver/internal/handlers"
	"github.com/ecoforge/apiserver/internal/services"
	"github.com/ecoforge/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and its collaborators.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	bus        *events.Bus
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	jwtSecret := strings.TrimSpace(cfg.JWT.Secret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	bus, err := events.NewBusFromConfig(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	imageArchive, err := archive.NewFromConfig(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if imageArchive != nil {
		if err := imageArchive.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, err
		}
	}

	userRepo := store.NewUserRepository(dbConn)
	wasteRepo := store.NewWasteLogRepository(dbConn)
	scoreRepo := store.NewScoreRepository(dbConn)

	userService := services.NewUserService(userRepo)
	wasteService := services.NewWasteService(wasteRepo, scoreRepo, bus, logger)

	classifierClient := classifier.New(cfg.Classifier)
	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	handlers.AuthRouter(router, userService, cfg.JWT)
	handlers.ClassifyRouter(router, classifierClient, imageArchive, logger)
	router.Route("/waste", func(r chi.Router) {
		handlers.WasteRouter(r, wasteService, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		bus:        bus,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

const shutdownTimeout = 10 * time.Second

// Shutdown drains in-flight requests, then closes the bus and database.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if s.bus != nil {
		_ = s.bus.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}

package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tunelog/tunelog/internal/ratelimit"
)

// ServerConfig holds server configuration and the services handlers depend on.
type ServerConfig struct {
	Addr string

	Catalog   Catalog
	Library   LibraryService
	Enrich    EnrichService
	Insights  InsightsService
	Songs     SongStore
	Tags      TagStore
	Playlists PlaylistStore
	Limiter   *ratelimit.Limiter
}

// Server is the HTTP server for the JSON API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	limiter  *ratelimit.Limiter
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Limiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}

	handlers := NewHandlers(cfg)

	router := chi.NewRouter()

	s := &Server{
		router:   router,
		handlers: handlers,
		limiter:  cfg.Limiter,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the API.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handlers.Health)

	s.router.Route("/api", func(r chi.Router) {
		// Search routes get the tighter search budget.
		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(s.limiter, ratelimit.CategorySearch, userIdentity))

			r.Get("/search", s.handlers.Search)
			r.Get("/search/preview", s.handlers.SearchPreview)
		})

		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(s.limiter, ratelimit.CategoryAPI, userIdentity))

			r.Get("/tracks/{id}", s.handlers.Track)
			r.Get("/artists/{id}", s.handlers.Artist)
			r.Get("/albums/{id}", s.handlers.Album)
			r.Get("/albums/{id}/tracks", s.handlers.AlbumTracks)

			r.Post("/songs", s.handlers.LogSong)
			r.Get("/songs", s.handlers.ListSongs)
			r.Get("/songs/{id}", s.handlers.GetSong)
			r.Put("/songs/{id}", s.handlers.UpdateSong)
			r.Delete("/songs/{id}", s.handlers.DeleteSong)
			r.Put("/songs/{id}/rating", s.handlers.RateSong)
			r.Post("/songs/{id}/tags", s.handlers.TagSong)
			r.Delete("/songs/{id}/tags/{tag}", s.handlers.UntagSong)

			r.Get("/tags", s.handlers.TagCounts)

			r.Post("/playlists", s.handlers.CreatePlaylist)
			r.Get("/playlists", s.handlers.ListPlaylists)
			r.Get("/playlists/{id}", s.handlers.GetPlaylist)
			r.Put("/playlists/{id}", s.handlers.RenamePlaylist)
			r.Put("/playlists/{id}/songs", s.handlers.SetPlaylistSongs)
			r.Delete("/playlists/{id}", s.handlers.DeletePlaylist)

			r.Post("/enrich", s.handlers.Enrich)
			r.Get("/insights/eras", s.handlers.Eras)
		})
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting server at http://%s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		log.Println("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

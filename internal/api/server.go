package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/langbridge/chathub/internal/config"
	"github.com/langbridge/chathub/internal/database"
	"github.com/langbridge/chathub/internal/hub"
)

type App struct {
	log            *log.Logger
	db             database.ChatRepository
	hub            *hub.Hub
	srv            *http.Server
	allowedOrigins []string
}

func NewApp(mux *http.ServeMux, logger *log.Logger, h *hub.Hub, db database.ChatRepository, cfg *config.Config) *App {
	s := &App{
		log:            logger,
		db:             db,
		hub:            h,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /api/health", s.health)
	mux.HandleFunc("GET /ws/{room_id}", s.serveWs)

	handler := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	handler = handlers.CombinedLoggingHandler(logger.Writer(), handler)
	handler = s.errorHandler(handler)

	s.srv = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: handler,
	}

	return s
}

func (s *App) Start() error {
	s.log.Printf("starting server on %s\n", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *App) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

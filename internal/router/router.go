package router

import (
	"net/http"
	"time"

	"seven-oz-loyalty/internal/config"
	"seven-oz-loyalty/internal/handler"
	"seven-oz-loyalty/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	codeHandler *handler.CodeHandler,
	cardHandler *handler.CardHandler,
	cfg *config.Config,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Order matters: ids first so every later layer can log and trace them.
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Tracing(cfg.Tracing.ServiceName))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         int((5 * time.Minute).Seconds()),
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/customercode", codeHandler.Current)
		r.Post("/customercode/claim", codeHandler.Claim)
		r.Get("/stampcard/{id}", cardHandler.Get)
		r.Post("/stampcard/{id}/reset", cardHandler.Reset)
	})

	return r
}

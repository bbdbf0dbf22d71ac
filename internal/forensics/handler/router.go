package handler

import (
	"net/http"

	"github.com/docforensics/forensics-api/pkg/config"
	"github.com/docforensics/forensics-api/pkg/httputil"
	"github.com/docforensics/forensics-api/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter mounts the handler under both / and /api
func NewRouter(h *Handler, cfg *config.Config, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(corsOptions(cfg.CORS)))

	routes := func(r chi.Router) {
		r.Get("/", h.Root)
		r.Get("/health", h.Health)
		r.Post("/analyze", h.Analyze)
	}
	routes(r)
	r.Route("/api", routes)

	return r
}

// corsOptions reflects allowed origins back instead of sending "*", which
// browsers reject on credentialed requests.
func corsOptions(c config.CORSConfig) cors.Options {
	anyOrigin := c.AllowsAnyOrigin()
	allowed := make(map[string]bool, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
		allowed[o] = true
	}

	return cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return anyOrigin || allowed[origin]
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: c.AllowCredentials,
		MaxAge:           c.MaxAge,
	}
}

// Package api maps HTTP requests onto the store's query and ingest
// operations.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/sells-group/footfall/internal/config"
	"github.com/sells-group/footfall/internal/store"
)

// Handler bundles the store dependency for all route handlers. The store is
// injected, never a package-level singleton.
type Handler struct {
	store store.Store
}

// NewHandler creates a Handler over the given store.
func NewHandler(st store.Store) *Handler {
	return &Handler{store: st}
}

// NewRouter builds the API router with CORS and an ingest rate limit.
func NewRouter(st store.Store, cfg config.ServerConfig) http.Handler {
	h := NewHandler(st)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	}))

	ingestLimiter := rate.NewLimiter(rate.Limit(cfg.IngestRPS), cfg.IngestBurst)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Get("/venues", h.ListVenues)
		r.Get("/venues/summary", h.VenuesSummary)
		r.Get("/venues/export", h.ExportVenues)
		r.Get("/distinct/{field}", h.DistinctValues)
		r.Get("/pois", h.VenueNames)

		r.Get("/visits/pois", h.VisitPOIs)
		r.Get("/visits", h.ListVisits)
		r.Get("/summary", h.VisitsSummary)

		r.With(rateLimit(ingestLimiter)).Post("/ingest", h.Ingest)
	})

	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// rateLimit rejects requests beyond the configured token bucket.
func rateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				writeError(w, http.StatusTooManyRequests, "ingest rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

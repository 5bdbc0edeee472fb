package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"profiled/internal/platform/metrics"
	"profiled/internal/platform/middleware"
)

// NewRouter wires the public and authenticated endpoints. The profile routes
// sit behind the full middleware chain; health, metrics and uploaded files
// stay open.
func NewRouter(
	handler *ProfileHandler,
	verifier middleware.IdentityVerifier,
	m *metrics.Metrics,
	logger *slog.Logger,
	uploadsDir string,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.RequireAuth(verifier, logger))
		handler.Register(r)
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, "", map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

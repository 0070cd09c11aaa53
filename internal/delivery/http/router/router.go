package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/url-frontier/internal/delivery/http/handler"
	"github.com/user/url-frontier/internal/delivery/http/middleware"
	"github.com/user/url-frontier/pkg/metrics"
)

func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/api/health", h.HandleHealthCheck)

	r.Route("/frontier", func(r chi.Router) {
		r.Post("/", h.HandleAdd)
		r.Get("/", h.HandleGet)
		r.Get("/heap", h.HandleHeap)
		r.Get("/intake/{priority}", h.HandleIntake)
		r.Route("/hosts/{host}", func(r chi.Router) {
			r.Put("/delay", h.HandleSetDelay)
			r.Delete("/delay", h.HandleClearDelay)
			r.Get("/backend", h.HandleBackend)
			r.Get("/count", h.HandleCount)
		})
	})
	r.Post("/frontend-workers", h.HandleWorkers)

	r.NotFound(h.HandleNotFound)
	r.MethodNotAllowed(h.HandleNotFound)

	return r
}

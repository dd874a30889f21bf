package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rl1809/storefront/pkg/metrics"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	Metrics        *metrics.ServerMetrics
	Gatherer       prometheus.Gatherer
}

func NewRouter(h *HTTPHandler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.Metrics != nil {
		r.Use(instrument(cfg.Metrics))
	}

	r.Get("/health", h.HealthCheck)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(cfg.Gatherer))
	}

	r.Route("/checkout", func(r chi.Router) {
		r.Post("/payment-sheet", h.PaymentSheet)
		r.Post("/success", h.Success)
		r.Post("/webhook", h.Webhook)
	})

	r.Get("/shirts", h.ListShirts)
	r.Get("/shirts/filters", h.ShirtFilters)
	r.Get("/shoes", h.ListShoes)
	r.Get("/shoes/filters", h.ShoeFilters)

	return r
}

// instrument records request count and latency labelled by route pattern.
func instrument(m *metrics.ServerMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
			m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		})
	}
}

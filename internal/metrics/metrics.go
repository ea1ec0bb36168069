package metrics

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics of the evaluation loop.
type Metrics struct {
	Registry *prometheus.Registry

	EvaluationsTotal prometheus.Counter
	ErrorsTotal      *prometheus.CounterVec // labels: stage
	OrdersTotal      *prometheus.CounterVec // labels: action
	HoldsTotal       prometheus.Counter
	LastScore        prometheus.Gauge
	FactorScore      *prometheus.GaugeVec // labels: factor
	PortfolioValue   prometheus.Gauge
	EvalDuration     prometheus.Histogram
}

// NewMetrics creates the metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		EvaluationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scorer_evaluations_total",
			Help: "Total composite score evaluations",
		}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scorer_errors_total",
			Help: "Errors by loop stage",
		}, []string{"stage"}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scorer_orders_total",
			Help: "Orders placed by action",
		}, []string{"action"}),
		HoldsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scorer_holds_total",
			Help: "Evaluations that resulted in a hold",
		}),
		LastScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scorer_last_score",
			Help: "Most recent composite score",
		}),
		FactorScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scorer_factor_weighted_score",
			Help: "Most recent weighted score per factor",
		}, []string{"factor"}),
		PortfolioValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scorer_portfolio_value",
			Help: "Latest balance valued in the value currency",
		}),
		EvalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scorer_tick_duration_seconds",
			Help:    "Duration of one evaluation tick",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.Registry.MustRegister(
		m.EvaluationsTotal,
		m.ErrorsTotal,
		m.OrdersTotal,
		m.HoldsTotal,
		m.LastScore,
		m.FactorScore,
		m.PortfolioValue,
		m.EvalDuration,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] metrics server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[ERROR] metrics server: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Printf("[WARN] metrics server shutdown: %v", err)
	}
}

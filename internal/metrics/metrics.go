// Package metrics exposes Prometheus counters for the challenge engine and
// its HTTP surface.
//
// A Collector owns its registry, so tests and multiple servers in one
// process never collide on global registration. It subscribes to the
// engine's event dispatcher and counts committed events only.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/roach88/stakewake/internal/ir"
)

const namespace = "stakewake"

// Collector holds every metric.
type Collector struct {
	registry *prometheus.Registry

	created       *prometheus.CounterVec
	confirmations *prometheus.CounterVec
	settlements   *prometheus.CounterVec
	settledAmount *prometheus.CounterVec
	oracleChanges prometheus.Counter
	rejections    *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a Collector with a fresh registry. Go runtime and process
// collectors are included.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		created: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "challenges_created_total",
				Help:      "Challenges created, by mode.",
			},
			[]string{"mode"},
		),
		confirmations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "confirmations_total",
				Help:      "Accepted wake-up confirmations, by mode.",
			},
			[]string{"mode"},
		),
		settlements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settlements_total",
				Help:      "Settled challenges (personal) or participant slots (social), by outcome.",
			},
			[]string{"mode", "outcome"},
		),
		settledAmount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settled_amount_total",
				Help:      "Deposit value that left custody, by transfer kind.",
			},
			[]string{"kind"},
		),
		oracleChanges: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "oracle_changes_total",
				Help:      "Oracle rotations.",
			},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejections_total",
				Help:      "Rejected operations, by error code.",
			},
			[]string{"code"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
	}

	c.registry.MustRegister(
		c.created,
		c.confirmations,
		c.settlements,
		c.settledAmount,
		c.oracleChanges,
		c.rejections,
		c.httpRequests,
		c.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// HandleEvent counts one committed engine event.
func (c *Collector) HandleEvent(_ context.Context, e ir.Event) error {
	mode := string(e.Mode)
	switch e.Kind {
	case ir.EventChallengeCreated, ir.EventSocialChallengeCreated:
		c.created.WithLabelValues(mode).Inc()
	case ir.EventWakeUpConfirmed, ir.EventSocialWakeUpConfirmed:
		c.confirmations.WithLabelValues(mode).Inc()
	case ir.EventChallengeFinalized:
		outcome, _ := e.Data["outcome"].(string)
		c.settlements.WithLabelValues(mode, outcome).Inc()
		kind, _ := e.Data["transfer"].(string)
		c.addAmount(kind, e.Data["amount"], 1)
	case ir.EventSocialChallengeSettled:
		returned := intValue(e.Data["returned"])
		burned := intValue(e.Data["burned"])
		c.settlements.WithLabelValues(mode, string(ir.StatusCompleted)).Add(float64(returned))
		c.settlements.WithLabelValues(mode, string(ir.StatusFailed)).Add(float64(burned))
		c.addAmount(string(ir.TransferReturn), e.Data["deposit_per_participant"], returned)
		c.addAmount(string(ir.TransferBurn), e.Data["deposit_per_participant"], burned)
	case ir.EventOracleChanged:
		c.oracleChanges.Inc()
	}
	return nil
}

// ObserveRejection counts an operation rejected with code.
func (c *Collector) ObserveRejection(code string) {
	c.rejections.WithLabelValues(code).Inc()
}

// Middleware records request counts and latency. Paths are labelled by
// their mux route template so ids do not explode label cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Initialize with 200 OK in case WriteHeader isn't called explicitly
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}
		c.httpRequests.WithLabelValues(path, r.Method, strconv.Itoa(ww.statusCode)).Inc()
		c.httpDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}

func (c *Collector) addAmount(kind string, raw any, n int64) {
	s, ok := raw.(string)
	if !ok || kind == "" || n <= 0 {
		return
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return
	}
	c.settledAmount.WithLabelValues(kind).Add(d.Mul(decimal.NewFromInt(n)).InexactFloat64())
}

func intValue(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case ir.DayIndex:
		return int64(n)
	default:
		return 0
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

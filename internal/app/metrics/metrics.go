package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opencover/claims_layer/internal/app/events"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "claims_layer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claims_layer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "claims_layer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	claimsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "claims_layer",
			Subsystem: "pool",
			Name:      "claims_submitted_total",
			Help:      "Total number of claims submitted.",
		},
	)

	votesCast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claims_layer",
			Subsystem: "pool",
			Name:      "votes_cast_total",
			Help:      "Total number of votes cast.",
		},
		[]string{"approve"},
	)

	claimsExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claims_layer",
			Subsystem: "pool",
			Name:      "claims_executed_total",
			Help:      "Total number of claims executed, by outcome.",
		},
		[]string{"status"},
	)

	claimsChallenged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "claims_layer",
			Subsystem: "pool",
			Name:      "claims_challenged_total",
			Help:      "Total number of claim challenges.",
		},
	)

	stakeMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claims_layer",
			Subsystem: "pool",
			Name:      "stake_movements_total",
			Help:      "Total number of stake deposits and withdrawals.",
		},
		[]string{"direction"},
	)

	premiumRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "claims_layer",
			Subsystem: "pool",
			Name:      "premium_rate_percent",
			Help:      "Current premium rate percentage.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		claimsSubmitted,
		votesCast,
		claimsExecuted,
		claimsChallenged,
		stakeMovements,
		premiumRate,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// SetPremiumRate records the current premium rate.
func SetPremiumRate(rate int) {
	premiumRate.Set(float64(rate))
}

// Observer is an event sink that folds pool transitions into the collectors.
type Observer struct{}

var _ events.Sink = Observer{}

// Emit implements events.Sink.
func (Observer) Emit(ev events.Event) {
	switch ev.Type {
	case events.TypeClaimSubmitted:
		claimsSubmitted.Inc()
	case events.TypeVoteCast:
		votesCast.WithLabelValues(strconv.FormatBool(ev.Approve)).Inc()
	case events.TypeClaimExecuted:
		claimsExecuted.WithLabelValues(string(ev.Status)).Inc()
		premiumRate.Set(float64(ev.PremiumRate))
	case events.TypeClaimChallenged:
		claimsChallenged.Inc()
		premiumRate.Set(float64(ev.PremiumRate))
	case events.TypeStakeDeposited:
		stakeMovements.WithLabelValues("deposit").Inc()
	case events.TypeStakeWithdrawn:
		stakeMovements.WithLabelValues("withdraw").Inc()
	}
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "claims":
		if len(parts) == 1 {
			return "/claims"
		}
		if len(parts) == 2 {
			return "/claims/:id"
		}
		return "/claims/:id/" + parts[2]
	case "members":
		if len(parts) > 1 {
			return "/members/:address"
		}
		return "/members"
	case "stake":
		if len(parts) > 1 {
			return "/stake/" + parts[1]
		}
		return "/stake"
	default:
		return "/" + parts[0]
	}
}

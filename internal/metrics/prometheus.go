package metrics

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// telemetryStates are the connection states exported by the state gauge.
var telemetryStates = []string{"disabled", "disconnected", "connecting", "ready"}

// PrometheusRecorder implements Recorder using the Prometheus client library.
// Registration errors are logged but never propagated.
type PrometheusRecorder struct {
	pageViewsTotal   prometheus.Counter
	entityViewsTotal prometheus.Counter
	telemetryErrors  *prometheus.CounterVec
	telemetryState   *prometheus.GaugeVec

	probeRunsTotal *prometheus.CounterVec
	probeDuration  *prometheus.HistogramVec
	probeMbps      *prometheus.GaugeVec

	reviewsTotal *prometheus.CounterVec
	imagesTotal  *prometheus.CounterVec
}

// NewPrometheus creates a Recorder registered against reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	p := &PrometheusRecorder{}
	p.initTelemetryMetrics(reg)
	p.initProbeMetrics(reg)
	p.initContentMetrics(reg)
	return p
}

func (p *PrometheusRecorder) initTelemetryMetrics(reg prometheus.Registerer) {
	p.pageViewsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostelreview_telemetry_page_views_total",
		Help: "Page views recorded in the telemetry store.",
	})
	p.entityViewsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostelreview_telemetry_hostel_views_total",
		Help: "Hostel detail views recorded in the telemetry store.",
	})
	p.telemetryErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostelreview_telemetry_errors_total",
		Help: "Telemetry store errors swallowed, by operation.",
	}, []string{"op"})
	p.telemetryState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hostelreview_telemetry_state",
		Help: "Telemetry store connection state (1 for the current state).",
	}, []string{"state"})

	p.register(reg, p.pageViewsTotal, "hostelreview_telemetry_page_views_total")
	p.register(reg, p.entityViewsTotal, "hostelreview_telemetry_hostel_views_total")
	p.register(reg, p.telemetryErrors, "hostelreview_telemetry_errors_total")
	p.register(reg, p.telemetryState, "hostelreview_telemetry_state")
}

func (p *PrometheusRecorder) initProbeMetrics(reg prometheus.Registerer) {
	p.probeRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostelreview_probe_runs_total",
		Help: "Throughput probe measurements, by direction and outcome.",
	}, []string{"direction", "outcome"})
	p.probeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hostelreview_probe_duration_seconds",
		Help:    "Wall-clock duration of throughput probe transfers.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"direction"})
	p.probeMbps = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hostelreview_probe_last_mbps",
		Help: "Most recent throughput probe result in megabits per second.",
	}, []string{"direction"})

	p.register(reg, p.probeRunsTotal, "hostelreview_probe_runs_total")
	p.register(reg, p.probeDuration, "hostelreview_probe_duration_seconds")
	p.register(reg, p.probeMbps, "hostelreview_probe_last_mbps")
}

func (p *PrometheusRecorder) initContentMetrics(reg prometheus.Registerer) {
	p.reviewsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostelreview_reviews_submitted_total",
		Help: "Review submissions, by outcome.",
	}, []string{"outcome"})
	p.imagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostelreview_images_uploaded_total",
		Help: "Hostel image uploads, by outcome.",
	}, []string{"outcome"})

	p.register(reg, p.reviewsTotal, "hostelreview_reviews_submitted_total")
	p.register(reg, p.imagesTotal, "hostelreview_images_uploaded_total")
}

func (p *PrometheusRecorder) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		slog.Warn("metrics: failed to register collector", "name", name, "error", err)
	}
}

func (p *PrometheusRecorder) IncPageViewRecorded() {
	p.pageViewsTotal.Inc()
}

func (p *PrometheusRecorder) IncEntityViewRecorded() {
	p.entityViewsTotal.Inc()
}

func (p *PrometheusRecorder) IncTelemetryError(op string) {
	p.telemetryErrors.WithLabelValues(op).Inc()
}

func (p *PrometheusRecorder) SetTelemetryState(state string) {
	for _, s := range telemetryStates {
		v := 0.0
		if s == state {
			v = 1
		}
		p.telemetryState.WithLabelValues(s).Set(v)
	}
}

func (p *PrometheusRecorder) ObserveProbe(direction, outcome string, mbps float64, duration time.Duration) {
	p.probeRunsTotal.WithLabelValues(direction, outcome).Inc()
	if outcome == OutcomeSuccess {
		p.probeDuration.WithLabelValues(direction).Observe(duration.Seconds())
	}
	p.probeMbps.WithLabelValues(direction).Set(mbps)
}

func (p *PrometheusRecorder) IncReviewSubmitted(outcome string) {
	p.reviewsTotal.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncImageUploaded(outcome string) {
	p.imagesTotal.WithLabelValues(outcome).Inc()
}

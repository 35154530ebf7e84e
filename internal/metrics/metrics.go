package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var documentsIngested = promauto.NewCounter(prometheus.CounterOpts{
	Name: "documents_ingested_total",
	Help: "Documents that completed ingestion",
})

var chunksIndexed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "chunks_indexed_total",
	Help: "Chunks embedded and stored in the vector index",
})

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_chat_sessions",
	Help: "Chat sessions currently bound to an agent",
})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls and pipeline stages.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
}, []string{"service"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CountIngestedDocument(chunks int) {
	documentsIngested.Inc()
	chunksIndexed.Add(float64(chunks))
}

func IncrementActiveSessions() {
	activeSessions.Inc()
}

func DecrementActiveSessions() {
	activeSessions.Dec()
}

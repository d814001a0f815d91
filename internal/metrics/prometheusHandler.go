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
	Help: "Number of documents successfully ingested",
})

var activeStreamCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_stream_count",
	Help: "Number of token streams currently being relayed",
})

var answerCacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "answer_cache_hits_total",
	Help: "Number of chat turns answered from the cache",
})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so the stream handler can still flush
// frame by frame through the recorder.
func (r *HttpStatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func IncrementDocumentsIngested() {
	documentsIngested.Inc()
}

func IncrementActiveStreamCount() {
	activeStreamCount.Inc()
}

func DecrementActiveStreamCount() {
	activeStreamCount.Dec()
}

func IncrementAnswerCacheHits() {
	answerCacheHits.Inc()
}

var turnDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "chat_turn_duration_seconds",
	Help:    "Total time spent answering one chat turn.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30},
}, []string{"mode"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureTurnMetrics(mode string, timeElapsed time.Duration) {
	turnDuration.WithLabelValues(mode).Observe(timeElapsed.Seconds())
}

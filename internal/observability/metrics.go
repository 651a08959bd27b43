package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce              sync.Once
	httpRequestsTotal         *prometheus.CounterVec
	httpLatencySeconds        *prometheus.HistogramVec
	httpErrorsTotal           *prometheus.CounterVec
	submissionsStartedTotal   prometheus.Counter
	submissionsFinalizedTotal *prometheus.CounterVec
	answersGradedTotal        *prometheus.CounterVec
	topicMarkRecalcTotal      prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assessment_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assessment_submissions_started_total",
			Help: "Number of submission attempts started.",
		})

		submissionsFinalizedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_submissions_finalized_total",
			Help: "Number of submissions finalized, partitioned by pass outcome.",
		}, []string{"passed"})

		answersGradedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_answers_graded_total",
			Help: "Number of answers graded, partitioned by grading result.",
		}, []string{"result"})

		topicMarkRecalcTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assessment_topic_mark_recalculations_total",
			Help: "Number of topic mark recalculations.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsStartedTotal,
			submissionsFinalizedTotal,
			answersGradedTotal,
			topicMarkRecalcTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// SubmissionsStarted exposes the counter for started attempts.
func SubmissionsStarted() prometheus.Counter {
	RegisterMetrics()
	return submissionsStartedTotal
}

// SubmissionsFinalized exposes the counter for finalized attempts.
func SubmissionsFinalized() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsFinalizedTotal
}

// AnswersGraded exposes the counter for graded answers.
func AnswersGraded() *prometheus.CounterVec {
	RegisterMetrics()
	return answersGradedTotal
}

// TopicMarkRecalculations exposes the counter for gradebook recalculations.
func TopicMarkRecalculations() prometheus.Counter {
	RegisterMetrics()
	return topicMarkRecalcTotal
}

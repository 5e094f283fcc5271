package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	records       *prometheus.CounterVec
	chunks        *prometheus.CounterVec
	jobs          *prometheus.CounterVec
	chunkDuration prometheus.Histogram
	jobDuration   prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		records: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wages",
			Subsystem: "ingest",
			Name:      "records_total",
			Help:      "Records written by outcome.",
		}, []string{"outcome"}),
		chunks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wages",
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Chunk upserts by outcome.",
		}, []string{"outcome"}),
		jobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wages",
			Subsystem: "ingest",
			Name:      "jobs_total",
			Help:      "Ingestion jobs by terminal status.",
		}, []string{"status"}),
		chunkDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wages",
			Subsystem: "ingest",
			Name:      "chunk_duration_seconds",
			Help:      "Time spent upserting one chunk.",
			Buckets:   prometheus.DefBuckets,
		}),
		jobDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wages",
			Subsystem: "ingest",
			Name:      "job_duration_seconds",
			Help:      "Wall time of ingestion jobs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func (m *Metrics) observeChunk(ok bool, size int, d time.Duration) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues(outcome(ok)).Inc()
	m.records.WithLabelValues(outcome(ok)).Add(float64(size))
	m.chunkDuration.Observe(d.Seconds())
}

func (m *Metrics) observeJob(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(status).Inc()
	m.jobDuration.Observe(d.Seconds())
}

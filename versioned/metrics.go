package versioned

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "egonet_mutations_total",
		Help: "Total number of applied mutations per operation",
	}, []string{"operation"})

	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "egonet_rejections_total",
		Help: "Total number of rejected operations per kind",
	}, []string{"kind"})

	rowsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "egonet_rows_written_total",
		Help: "Total number of history rows inserted",
	})

	transactionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "egonet_operation_duration_seconds",
		Help:    "Duration of store transactions per operation",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	}, []string{"operation"})
)

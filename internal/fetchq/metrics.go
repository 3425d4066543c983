package fetchq

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamesync",
			Subsystem: "fetchq",
			Name:      "submissions_total",
			Help:      "Jobs accepted into the fetch pool.",
		},
		[]string{"shard"},
	)

	queueFullTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamesync",
			Subsystem: "fetchq",
			Name:      "queue_full_total",
			Help:      "Submissions rejected because a shard stayed full past the enqueue timeout.",
		},
		[]string{"shard"},
	)

	failuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gamesync",
			Subsystem: "fetchq",
			Name:      "job_failures_total",
			Help:      "Jobs whose final attempt returned an error.",
		},
	)

	queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gamesync",
			Subsystem: "fetchq",
			Name:      "queue_depth",
			Help:      "Buffered jobs per shard.",
		},
		[]string{"shard"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gamesync",
			Subsystem: "fetchq",
			Name:      "run_duration_seconds",
			Help:      "Per-attempt job execution time.",
		},
		[]string{"shard"},
	)
)

func shardLabel(idx int) string { return strconv.Itoa(idx) }

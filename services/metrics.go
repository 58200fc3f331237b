package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reasoning_runs_finished_total",
		Help: "Finished reasoning runs by status and whether the transcript cache answered",
	}, []string{"status", "cached"})

	searchAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reasoning_search_attempts",
		Help:    "Search attempts used per executed run",
		Buckets: []float64{1, 2, 3, 4, 5, 6},
	})

	searchNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reasoning_search_nodes",
		Help:    "Tree size of the last attempt per executed run",
		Buckets: prometheus.ExponentialBuckets(2, 2, 10),
	})
)

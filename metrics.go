package gamesync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesLoadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gamesync",
			Name:      "search_pages_loaded_total",
			Help:      "Search pages appended to a session.",
		},
	)

	stalePagesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gamesync",
			Name:      "search_stale_pages_dropped_total",
			Help:      "Page fetches discarded because the session was superseded.",
		},
	)

	enrichFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gamesync",
			Name:      "enrich_item_failures_total",
			Help:      "Detail fetches that failed after retries; the rest of the page is unaffected.",
		},
	)

	favoriteTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamesync",
			Name:      "favorite_toggles_total",
			Help:      "Favorite toggles by outcome.",
		},
		[]string{"outcome"},
	)

	reviewConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gamesync",
			Name:      "review_write_conflicts_total",
			Help:      "Revision-check failures on review read-modify-writes (pre-retry).",
		},
	)
)

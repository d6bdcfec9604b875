// Package metrics defines and registers all custom Prometheus metrics for
// the marketplace API. It is the single source of truth for metric names,
// labels, and help strings. Metrics register themselves with the default
// registry via promauto at package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ProductsCreatedTotal counts successfully published listings.
var ProductsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "products_created_total",
		Help:      "Total number of listings successfully created.",
	},
)

// ImagesStoredTotal counts image blobs written to the asset store.
var ImagesStoredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "images_stored_total",
		Help:      "Total number of image blobs written to the asset store.",
	},
)

// ImageDeleteFailuresTotal counts best-effort blob deletions that failed.
// These leave stale blobs behind, which is tolerated; the counter exists so
// growth can be watched and cleaned up out of band.
var ImageDeleteFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_delete_failures_total",
		Help:      "Total number of failed best-effort image blob deletions.",
	},
)

// OrphanCleanupsTotal counts compensating blob deletions triggered by a row
// write failing after its image was already stored.
var OrphanCleanupsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orphan_cleanups_total",
		Help:      "Total number of compensating deletions of just-stored image blobs.",
	},
)

// CacheRequestsTotal counts product cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var CacheRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Total number of product cache lookups, labelled by result.",
	},
	[]string{"result"},
)

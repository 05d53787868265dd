package tenant

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var slugCacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "darasa_tenant_slug_cache_lookups_total",
		Help: "Tenant slug cache lookups by result.",
	},
	[]string{"result"},
)

// a failed cache read counts as a miss: the repo gets hit either way
func observeSlugCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	slugCacheLookups.WithLabelValues(result).Inc()
}

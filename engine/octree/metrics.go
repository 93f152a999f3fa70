package octree

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	sourceLabel = "source"
	resultLabel = "result"

	sourceFresh    = "fresh"
	sourceRecycled = "recycled"

	resultHit  = "hit"
	resultMiss = "miss"
)

var (
	nodesAllocated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxeloctree_nodes_allocated_total",
		Help: "Octree nodes taken from the arena, by whether the slot was new or recycled.",
	}, []string{
		sourceLabel,
	})

	nodesRecycled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxeloctree_nodes_recycled_total",
		Help: "Empty octree nodes returned to the idle list.",
	})

	rootExtensions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxeloctree_root_extensions_total",
		Help: "Times the octree root was re-rooted to cover an insertion outside its bound.",
	})

	raycasts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxeloctree_raycasts_total",
		Help: "Octree raycasts, by whether an entity was hit.",
	}, []string{
		resultLabel,
	})
)

func instrumentNodeAllocation(source string) {
	nodesAllocated.With(prometheus.Labels{
		sourceLabel: source,
	}).Inc()
}

func instrumentNodeRecycled() {
	nodesRecycled.Inc()
}

func instrumentRootExtension() {
	rootExtensions.Inc()
}

func instrumentRaycast(hit bool) {
	result := resultMiss
	if hit {
		result = resultHit
	}
	raycasts.With(prometheus.Labels{
		resultLabel: result,
	}).Inc()
}

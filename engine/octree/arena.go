package octree

import (
	"github.com/memmaker/voxeloctree/engine/geom"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// nodeIndex addresses a node in the arena. nullIndex marks a missing link.
type nodeIndex int32

const nullIndex nodeIndex = -1

var noChildren = [geom.OctantCount]nodeIndex{
	nullIndex, nullIndex, nullIndex, nullIndex,
	nullIndex, nullIndex, nullIndex, nullIndex,
}

// Entity is a handle stored in the tree together with the box it was
// inserted with.
type Entity[H constraints.Ordered] struct {
	Handle H
	Box    geom.Box
}

type node[H constraints.Ordered] struct {
	bound geom.Box
	// entities that straddle the center of bound or are too small for a child,
	// sorted by handle
	entities   []Entity[H]
	parent     nodeIndex
	children   [geom.OctantCount]nodeIndex
	childCount uint8
	// next slot of the idle list, only meaningful while the node is idle
	nextIdle nodeIndex
	live     bool
}

func compareHandle[H constraints.Ordered](e Entity[H], handle H) int {
	switch {
	case e.Handle < handle:
		return -1
	case e.Handle > handle:
		return 1
	}
	return 0
}

func (n *node[H]) find(handle H) (int, bool) {
	return slices.BinarySearchFunc(n.entities, handle, compareHandle[H])
}

func (n *node[H]) insertEntity(e Entity[H]) bool {
	i, found := n.find(e.Handle)
	if found {
		return false
	}
	n.entities = slices.Insert(n.entities, i, e)
	return true
}

func (n *node[H]) removeEntity(handle H) bool {
	i, found := n.find(handle)
	if !found {
		return false
	}
	n.entities = slices.Delete(n.entities, i, i+1)
	return true
}

func (n *node[H]) isEmpty() bool {
	return len(n.entities) == 0 && n.childCount == 0
}

func (n *node[H]) appendIntersecting(dst []Entity[H], query geom.Box) []Entity[H] {
	for _, e := range n.entities {
		if e.Box.Intersects(query) {
			dst = append(dst, e)
		}
	}
	return dst
}

// arena is a growable pool of nodes. Released nodes are chained into an
// idle list through nextIdle and handed out again before the pool grows.
type arena[H constraints.Ordered] struct {
	nodes     []node[H]
	idle      nodeIndex
	idleCount int
}

func newArena[H constraints.Ordered](capacity int) arena[H] {
	if capacity < 0 {
		capacity = 0
	}
	return arena[H]{
		nodes: make([]node[H], 0, capacity),
		idle:  nullIndex,
	}
}

// get returns the node at index. The pointer is only valid until the next
// acquire, which may move the backing array.
func (a *arena[H]) get(index nodeIndex) *node[H] {
	return &a.nodes[index]
}

func (a *arena[H]) acquire(bound geom.Box, parent nodeIndex) nodeIndex {
	if a.idle == nullIndex {
		a.nodes = append(a.nodes, node[H]{
			bound:    bound,
			parent:   parent,
			children: noChildren,
			nextIdle: nullIndex,
			live:     true,
		})
		instrumentNodeAllocation(sourceFresh)
		return nodeIndex(len(a.nodes) - 1)
	}
	index := a.idle
	n := &a.nodes[index]
	a.idle = n.nextIdle
	a.idleCount--
	n.bound = bound
	n.parent = parent
	n.nextIdle = nullIndex
	n.live = true
	instrumentNodeAllocation(sourceRecycled)
	return index
}

func (a *arena[H]) release(index nodeIndex) {
	n := &a.nodes[index]
	clear(n.entities)
	n.entities = n.entities[:0]
	n.parent = nullIndex
	n.children = noChildren
	n.childCount = 0
	n.live = false
	n.nextIdle = a.idle
	a.idle = index
	a.idleCount++
}

func (a *arena[H]) liveCount() int {
	return len(a.nodes) - a.idleCount
}

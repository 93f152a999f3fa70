// Package octree is a growable octree over axis aligned boxes tagged with
// an ordered entity handle.
//
// Entities live in exactly one node: the deepest node whose octant still
// contains their box whole, bounded by a minimum leaf extent. Nodes can
// hold entities and children at the same time, and a node may have fewer
// than eight children. Nodes are kept in an arena and recycled when they
// become empty. The tree is not safe for concurrent use.
package octree

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/memmaker/voxeloctree/engine/geom"
	"github.com/memmaker/voxeloctree/engine/util"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

type Octree[H constraints.Ordered] struct {
	root nodeIndex
	// bound of the root node, or of the root to be created while the tree is empty
	baseBound     geom.Box
	arena         arena[H]
	minLeafExtent mgl32.Vec3
	count         int
}

// New creates an empty tree. capacity is a hint for the number of nodes,
// minLeafExtent stops subdivision once an octant would be smaller on any
// axis, and bound is the initial root bound. New panics if bound is flat on
// any axis, as it could never grow.
func New[H constraints.Ordered](capacity int, minLeafExtent mgl32.Vec3, bound geom.Box) *Octree[H] {
	if bound.XLength() <= 0 || bound.YLength() <= 0 || bound.ZLength() <= 0 {
		panic(errors.Errorf("octree bound %v must have a positive extent on every axis", bound))
	}
	return &Octree[H]{
		root:          nullIndex,
		baseBound:     bound,
		arena:         newArena[H](capacity),
		minLeafExtent: minLeafExtent,
	}
}

// FromSizeOffset creates an empty tree whose bound is a cube of edge size
// centered on offset.
func FromSizeOffset[H constraints.Ordered](capacity int, minLeafExtent mgl32.Vec3, size float32, offset mgl32.Vec3) *Octree[H] {
	return New[H](capacity, minLeafExtent, geom.BoxFromSizeOffset(size, offset))
}

// Len returns the number of stored entities.
func (t *Octree[H]) Len() int {
	return t.count
}

func (t *Octree[H]) IsEmpty() bool {
	return t.count == 0
}

// BaseBound returns the bound of the root node. It only ever grows.
func (t *Octree[H]) BaseBound() geom.Box {
	return t.baseBound
}

func (t *Octree[H]) MinLeafExtent() mgl32.Vec3 {
	return t.minLeafExtent
}

// NodeCount returns the number of nodes currently linked into the tree.
func (t *Octree[H]) NodeCount() int {
	return t.arena.liveCount()
}

// IdleCount returns the number of recycled nodes waiting for reuse.
func (t *Octree[H]) IdleCount() int {
	return t.arena.idleCount
}

// Insert stores handle with box. The root grows first if box reaches
// outside it. Insert returns false and changes nothing if the node box
// belongs to already holds handle.
func (t *Octree[H]) Insert(handle H, box geom.Box) bool {
	t.tryExtend(box)
	index := t.locate(box)
	if !t.arena.get(index).insertEntity(Entity[H]{Handle: handle, Box: box}) {
		return false
	}
	t.count++
	if util.IsLogging(util.LogOctree, util.LogLevelDebug) {
		util.LogOctreeDebug(fmt.Sprintf("[Octree] insert %v, counts %d", handle, t.count))
	}
	return true
}

// Remove deletes handle from the node holding it with box. box must be the
// one handle was inserted with. A node left without entities and children
// is unlinked and recycled; its parent is not revisited even if that
// leaves the parent empty too.
func (t *Octree[H]) Remove(handle H, box geom.Box) bool {
	index, octant := t.find(handle, box)
	if index == nullIndex {
		return false
	}
	n := t.arena.get(index)
	if !n.removeEntity(handle) {
		return false
	}
	t.count--
	if n.isEmpty() {
		t.idleNode(index, octant)
	}
	if util.IsLogging(util.LogOctree, util.LogLevelDebug) {
		util.LogOctreeDebug(fmt.Sprintf("[Octree] remove %v, counts %d", handle, t.count))
	}
	return true
}

// Contains reports whether handle is stored with box.
func (t *Octree[H]) Contains(handle H, box geom.Box) bool {
	index, _ := t.find(handle, box)
	return index != nullIndex
}

// childOctant decides whether box descends from a node with the given
// bound into one of its octants.
func (t *Octree[H]) childOctant(bound, box geom.Box) (geom.Octant, geom.Box, bool) {
	octant, ok := box.Sub(bound.Center()).Octant()
	if !ok {
		return 0, geom.Box{}, false
	}
	sub := bound.GetOctant(octant)
	if geom.AnyLess(sub.Length(), t.minLeafExtent) {
		return 0, geom.Box{}, false
	}
	return octant, sub, true
}

// coveringChild returns the first existing child of n whose bound covers
// box. A former root hangs below the grown root with its own bound, which
// can be smaller than the minimum leaf extent or off the split by rounding.
func (t *Octree[H]) coveringChild(n *node[H], box geom.Box) (nodeIndex, bool) {
	for _, child := range n.children {
		if child != nullIndex && t.arena.get(child).bound.Covers(box) {
			return child, true
		}
	}
	return nullIndex, false
}

// locate returns the node box belongs to, creating the root and any
// missing nodes on the way. Every node on the path covers box.
func (t *Octree[H]) locate(box geom.Box) nodeIndex {
	if t.root == nullIndex {
		t.root = t.arena.acquire(t.baseBound, nullIndex)
	}
	index := t.root
	for {
		n := t.arena.get(index)
		if child, ok := t.coveringChild(n, box); ok {
			index = child
			continue
		}
		octant, sub, ok := t.childOctant(n.bound, box)
		if !ok || n.children[octant] != nullIndex {
			return index
		}
		child := t.arena.acquire(sub, index)
		n = t.arena.get(index)
		n.children[octant] = child
		n.childCount++
		if util.IsLogging(util.LogOctree, util.LogLevelDebug) {
			util.LogOctreeDebug(fmt.Sprintf("[Octree] split %v at octant %v", n.bound, octant))
		}
		index = child
	}
}

// find searches the nodes covering box for the one storing handle with
// box. It returns nullIndex if there is none, along with the octant the
// returned node occupies in its parent.
func (t *Octree[H]) find(handle H, box geom.Box) (nodeIndex, geom.Octant) {
	if t.root == nullIndex || !t.baseBound.Covers(box) {
		return nullIndex, 0
	}
	return t.findBelow(t.root, 0, handle, box)
}

func (t *Octree[H]) findBelow(index nodeIndex, octant geom.Octant, handle H, box geom.Box) (nodeIndex, geom.Octant) {
	n := t.arena.get(index)
	if i, found := n.find(handle); found && n.entities[i].Box == box {
		return index, octant
	}
	for o, child := range n.children {
		if child == nullIndex || !t.arena.get(child).bound.Covers(box) {
			continue
		}
		if found, foundOctant := t.findBelow(child, geom.Octant(o), handle, box); found != nullIndex {
			return found, foundOctant
		}
	}
	return nullIndex, 0
}

func (t *Octree[H]) idleNode(index nodeIndex, octant geom.Octant) {
	n := t.arena.get(index)
	if n.parent == nullIndex {
		t.root = nullIndex
	} else {
		parent := t.arena.get(n.parent)
		parent.children[octant] = nullIndex
		parent.childCount--
	}
	bound := n.bound
	t.arena.release(index)
	instrumentNodeRecycled()
	if util.IsLogging(util.LogOctree, util.LogLevelDebug) {
		util.LogOctreeDebug(fmt.Sprintf("[Octree] unsplit %v", bound))
	}
}

// tryExtend grows the root until it covers box. Every doubling step puts a
// new node above the current root.
func (t *Octree[H]) tryExtend(box geom.Box) {
	if t.baseBound.Covers(box) {
		return
	}
	if t.root == nullIndex {
		t.baseBound = t.baseBound.Union(box)
		return
	}
	for _, bound := range t.baseBound.ExtendFor(box) {
		index := t.arena.acquire(bound, nullIndex)
		oldRoot := t.arena.get(t.root)
		octant := octantWithin(oldRoot.bound, bound)
		oldRoot.parent = index
		n := t.arena.get(index)
		n.children[octant] = t.root
		n.childCount++
		t.root = index
		t.baseBound = bound
		instrumentRootExtension()
		util.LogOctreeInfo(fmt.Sprintf("[Octree] extend root to %v", bound))
	}
}

// octantWithin returns the octant of parent that child occupies, judged by
// their centers so rounding in a doubled bound cannot make it straddle.
func octantWithin(child, parent geom.Box) geom.Octant {
	c, p := child.Center(), parent.Center()
	return geom.NewOctant(c[0] > p[0], c[1] > p[1], c[2] > p[2])
}

// NodeInfo describes one live node for inspection.
type NodeInfo struct {
	Bound    geom.Box
	Depth    int
	Entities int
	Children int
}

// Nodes lists the live nodes depth first, starting at the root.
func (t *Octree[H]) Nodes() []NodeInfo {
	var infos []NodeInfo
	var visit func(index nodeIndex, depth int)
	visit = func(index nodeIndex, depth int) {
		n := t.arena.get(index)
		infos = append(infos, NodeInfo{
			Bound:    n.bound,
			Depth:    depth,
			Entities: len(n.entities),
			Children: int(n.childCount),
		})
		for _, child := range n.children {
			if child != nullIndex {
				visit(child, depth+1)
			}
		}
	}
	if t.root != nullIndex {
		visit(t.root, 0)
	}
	return infos
}

// Entities returns every stored entity in no particular order.
func (t *Octree[H]) Entities() []Entity[H] {
	entities := make([]Entity[H], 0, t.count)
	for i := range t.arena.nodes {
		if t.arena.nodes[i].live {
			entities = append(entities, t.arena.nodes[i].entities...)
		}
	}
	return entities
}

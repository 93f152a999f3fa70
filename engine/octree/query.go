package octree

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/memmaker/voxeloctree/engine/geom"
)

// Intersect returns the entities whose boxes overlap query, in no
// particular order.
func (t *Octree[H]) Intersect(query geom.Box) []Entity[H] {
	return t.AppendIntersect(nil, query)
}

// AppendIntersect appends the entities overlapping query to dst.
// Subtrees are pruned by their own bound, not by the parent's split.
func (t *Octree[H]) AppendIntersect(dst []Entity[H], query geom.Box) []Entity[H] {
	if t.root == nullIndex {
		return dst
	}
	dst = t.arena.get(t.root).appendIntersecting(dst, query)
	return t.appendChildren(dst, t.root, query)
}

func (t *Octree[H]) appendChildren(dst []Entity[H], index nodeIndex, query geom.Box) []Entity[H] {
	for _, childIndex := range t.arena.get(index).children {
		if childIndex == nullIndex {
			continue
		}
		child := t.arena.get(childIndex)
		if !child.bound.Intersects(query) {
			continue
		}
		dst = child.appendIntersecting(dst, query)
		dst = t.appendChildren(dst, childIndex, query)
	}
	return dst
}

// RayHit is the result of a raycast.
type RayHit[H any] struct {
	Handle H
	Box    geom.Box
	// Distance is the ray parameter of the hit, in units of the ray direction.
	Distance float32
}

// Raycast returns the entity with the nearest positive hit along r.
//
// Children are visited octant by octant in the order the ray passes
// through them and the first child subtree that reports a hit ends the
// walk at that node. This is exact for most rays but only approximate for
// rays running nearly parallel to a splitting plane.
func (t *Octree[H]) Raycast(r geom.Ray) (RayHit[H], bool) {
	best := float32(math.Inf(1))
	var pivot float32
	e, ok := t.raycastNode(t.root, r, &best, &pivot)
	instrumentRaycast(ok)
	if !ok {
		return RayHit[H]{}, false
	}
	return RayHit[H]{Handle: e.Handle, Box: e.Box, Distance: best}, true
}

// RaycastHit is Raycast that also returns the world position of the hit,
// pulled back towards the ray origin by correction so it does not sit
// exactly on the face that was hit.
func (t *Octree[H]) RaycastHit(r geom.Ray, correction float32) (RayHit[H], mgl32.Vec3, bool) {
	hit, ok := t.Raycast(r)
	if !ok {
		return hit, mgl32.Vec3{}, false
	}
	return hit, r.Point(hit.Distance - correction), true
}

// raycastNode tests the entities of the node at index and then walks its
// children. best is the nearest hit distance found anywhere so far and
// pivot the ray parameter where octant stepping resumes. On return pivot
// is the parameter at which the ray leaves this node.
func (t *Octree[H]) raycastNode(index nodeIndex, r geom.Ray, best, pivot *float32) (Entity[H], bool) {
	var found Entity[H]
	if index == nullIndex {
		return found, false
	}
	n := t.arena.get(index)
	_, exit, ok := n.bound.IntersectsRayRaw(r)
	if !ok {
		return found, false
	}

	hit := false
	for _, e := range n.entities {
		if d, ok := e.Box.IntersectsRay(r); ok && d < *best {
			found, hit = e, true
			*best = d
		}
	}

	if n.childCount != 0 {
		if octant, ok := r.OctantAt(*pivot, n.bound); ok {
			// a straight ray passes through each octant at most once
			var visited uint8
			for visited&(1<<octant) == 0 {
				visited |= 1 << octant
				child := n.children[octant]
				if child == nullIndex {
					if _, subExit, ok := n.bound.GetOctant(octant).IntersectsRayRaw(r); ok {
						*pivot = subExit
					} else {
						*pivot = exit
					}
				} else if e, ok := t.raycastNode(child, r, best, pivot); ok {
					found, hit = e, true
					break
				}
				previous := octant
				octant = r.NextOctant(octant, *pivot, n.bound)
				if octant == previous {
					// dead end, the ray leaves this node
					break
				}
			}
		}
	}

	*pivot = exit
	return found, hit
}

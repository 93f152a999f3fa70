package collider

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/memmaker/voxeloctree/engine/geom"
	"github.com/memmaker/voxeloctree/engine/octree"
	"github.com/memmaker/voxeloctree/engine/util"
	"golang.org/x/exp/constraints"
)

// Body is a shape placed in the world.
type Body struct {
	Shape     Shape
	Transform Transform
	// Box is the bounding box the body is indexed under.
	Box geom.Box
}

// Registry keeps shapes indexed in an octree by their bounding boxes and
// remembers the box each one was stored under, so callers only deal with
// handles and transforms.
type Registry[H constraints.Ordered] struct {
	tree   *octree.Octree[H]
	bodies map[H]*Body
}

func NewRegistry[H constraints.Ordered](tree *octree.Octree[H]) *Registry[H] {
	return &Registry[H]{
		tree:   tree,
		bodies: make(map[H]*Body),
	}
}

func (r *Registry[H]) Tree() *octree.Octree[H] {
	return r.tree
}

func (r *Registry[H]) Len() int {
	return len(r.bodies)
}

func (r *Registry[H]) Get(handle H) (Body, bool) {
	body, ok := r.bodies[handle]
	if !ok {
		return Body{}, false
	}
	return *body, true
}

// Spawn adds a new body. It returns false if handle is already in use.
func (r *Registry[H]) Spawn(handle H, shape Shape, transform Transform) bool {
	if _, exists := r.bodies[handle]; exists {
		util.LogColliderError(fmt.Sprintf("spawn: handle %v already in use", handle))
		return false
	}
	box := shape.Bounds(transform)
	if !r.tree.Insert(handle, box) {
		util.LogColliderError(fmt.Sprintf("spawn: octree rejected %v at %v", handle, box))
		return false
	}
	r.bodies[handle] = &Body{Shape: shape, Transform: transform, Box: box}
	util.LogColliderDebug(fmt.Sprintf("spawned %s as %v at %v, %v", shape.GetName(), handle, transform, box))
	return true
}

// Move re-indexes a body under its new transform.
func (r *Registry[H]) Move(handle H, transform Transform) bool {
	body, ok := r.bodies[handle]
	if !ok {
		return false
	}
	box := body.Shape.Bounds(transform)
	if box == body.Box {
		body.Transform = transform
		return true
	}
	if !r.tree.Remove(handle, body.Box) {
		util.LogColliderError(fmt.Sprintf("move: %v was not indexed under %v", handle, body.Box))
		return false
	}
	if !r.tree.Insert(handle, box) {
		// the handle was just removed, so this only fails if another entry
		// with the same handle landed in the target node
		util.LogColliderError(fmt.Sprintf("move: octree rejected %v at %v", handle, box))
		r.tree.Insert(handle, body.Box)
		return false
	}
	body.Transform = transform
	body.Box = box
	return true
}

// Despawn removes a body. It returns false for unknown handles.
func (r *Registry[H]) Despawn(handle H) bool {
	body, ok := r.bodies[handle]
	if !ok {
		return false
	}
	if !r.tree.Remove(handle, body.Box) {
		util.LogColliderError(fmt.Sprintf("despawn: %v was not indexed under %v", handle, body.Box))
		return false
	}
	delete(r.bodies, handle)
	return true
}

// Pick returns the body whose box the ray hits first and the hit point,
// pulled back by correction.
func (r *Registry[H]) Pick(ray geom.Ray, correction float32) (H, mgl32.Vec3, bool) {
	hit, point, ok := r.tree.RaycastHit(ray, correction)
	if !ok {
		var zero H
		return zero, mgl32.Vec3{}, false
	}
	return hit.Handle, point, true
}

// Query returns the handles of all bodies whose boxes overlap area.
func (r *Registry[H]) Query(area geom.Box) []H {
	found := r.tree.Intersect(area)
	handles := make([]H, len(found))
	for i, e := range found {
		handles[i] = e.Handle
	}
	return handles
}

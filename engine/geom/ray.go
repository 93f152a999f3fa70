package geom

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray caches the reciprocal of its direction for slab tests. A zero
// direction component yields an infinite reciprocal, which the slab test
// handles so that axis never constrains the hit interval.
type Ray struct {
	origin       mgl32.Vec3
	direction    mgl32.Vec3
	invDirection mgl32.Vec3
}

func NewRay(origin, direction mgl32.Vec3) Ray {
	return Ray{
		origin:    origin,
		direction: direction,
		invDirection: mgl32.Vec3{
			1 / direction[0],
			1 / direction[1],
			1 / direction[2],
		},
	}
}

// NewRayBetween returns a ray starting at from and pointing at to.
// Distances along it are measured in units of the from-to segment.
func NewRayBetween(from, to mgl32.Vec3) Ray {
	return NewRay(from, to.Sub(from))
}

func (r Ray) Origin() mgl32.Vec3           { return r.origin }
func (r Ray) Direction() mgl32.Vec3        { return r.direction }
func (r Ray) InverseDirection() mgl32.Vec3 { return r.invDirection }

// Point returns origin + direction * t.
func (r Ray) Point(t float32) mgl32.Vec3 {
	return r.origin.Add(r.direction.Mul(t))
}

// T returns, per axis, the ray parameter at which the ray crosses the
// plane through v perpendicular to that axis.
func (r Ray) T(v mgl32.Vec3) mgl32.Vec3 {
	return mulComponents(v.Sub(r.origin), r.invDirection)
}

// OctantAt returns the octant of b the ray is in at parameter pivot.
// Axes on the splitting plane are resolved by the direction of travel.
// It fails if the ray runs inside a splitting plane, where no octant
// can be chosen.
func (r Ray) OctantAt(pivot float32, b Box) (Octant, bool) {
	sides := b.IsOnOctant(r.Point(pivot))
	var o Octant
	for axis := 0; axis < 3; axis++ {
		side := sides[axis]
		if side == SideOn {
			switch {
			case r.direction[axis] > 0:
				side = SideGreater
			case r.direction[axis] < 0:
				side = SideLess
			default:
				return 0, false
			}
		}
		o = o.WithAxis(axis, side == SideGreater)
	}
	return o, true
}

// NextOctant returns the octant of b the ray enters after leaving current
// at parameter pivot. The pivot is expected on the face of current's
// sub-box; the axes furthest from the sub-box center are flipped towards
// the ray position. A result equal to current means the ray leaves b.
func (r Ray) NextOctant(current Octant, pivot float32, b Box) Octant {
	check := r.Point(pivot).Sub(b.GetOctant(current).Center())
	ax, ay, az := abs(check[0]), abs(check[1]), abs(check[2])

	var dx, dy, dz bool
	switch {
	case ax > ay:
		switch {
		case ax > az:
			dx = true
		case az > ax:
			dz = true
		default:
			dx, dz = true, true
		}
	case ay > ax:
		switch {
		case ay > az:
			dy = true
		case az > ay:
			dz = true
		default:
			dy, dz = true, true
		}
	default:
		switch {
		case ax > az:
			dx, dy = true, true
		case az > ax:
			dz = true
		default:
			dx, dy, dz = true, true, true
		}
	}

	next := current
	if dx {
		next = next.WithAxis(0, check[0] > 0)
	}
	if dy {
		next = next.WithAxis(1, check[1] > 0)
	}
	if dz {
		next = next.WithAxis(2, check[2] > 0)
	}
	return next
}

func (r Ray) String() string {
	return fmt.Sprintf("ray(%v -> %v)", r.origin, r.direction)
}

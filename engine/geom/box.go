package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Box is an axis aligned bounding box. min is never greater than max on
// any axis and neither contains NaN.
type Box struct {
	min mgl32.Vec3
	max mgl32.Vec3
}

// NewBox panics if min is greater than max on any axis or if either
// vector contains NaN. A malformed box is a caller bug.
func NewBox(min, max mgl32.Vec3) Box {
	if hasNaN(min) || hasNaN(max) {
		panic(errors.Errorf("box bounds contain NaN: min %v max %v", min, max))
	}
	if min[0] > max[0] || min[1] > max[1] || min[2] > max[2] {
		panic(errors.Errorf("box min %v is greater than max %v", min, max))
	}
	return Box{min: min, max: max}
}

// BoxFromSize returns a cube of the given edge length centered on the origin.
func BoxFromSize(size float32) Box {
	half := abs(size) * 0.5
	return NewBox(splat(-half), splat(half))
}

// BoxFromSizeOffset returns a cube of the given edge length centered on offset.
func BoxFromSizeOffset(size float32, offset mgl32.Vec3) Box {
	half := splat(abs(size) * 0.5)
	return NewBox(offset.Sub(half), offset.Add(half))
}

// BoxFromPoints returns the tightest box around points after rotating them
// by rot and moving them by pos. It panics if there are fewer than 3 points.
func BoxFromPoints(points []mgl32.Vec3, pos mgl32.Vec3, rot mgl32.Quat) Box {
	if len(points) < 3 {
		panic(errors.Errorf("need at least 3 points to bound a shape, got %d", len(points)))
	}
	inf := float32(math.Inf(1))
	min := splat(inf)
	max := splat(-inf)
	for _, p := range points {
		p = rot.Rotate(p).Add(pos)
		min = minVec(min, p)
		max = maxVec(max, p)
	}
	return NewBox(min, max)
}

func (b Box) Min() mgl32.Vec3 { return b.min }
func (b Box) Max() mgl32.Vec3 { return b.max }

func (b Box) Length() mgl32.Vec3 {
	return b.max.Sub(b.min)
}

func (b Box) XLength() float32 { return b.max[0] - b.min[0] }
func (b Box) YLength() float32 { return b.max[1] - b.min[1] }
func (b Box) ZLength() float32 { return b.max[2] - b.min[2] }

func (b Box) Center() mgl32.Vec3 {
	return b.min.Add(b.max).Mul(0.5)
}

func (b Box) CenterX() float32 { return (b.min[0] + b.max[0]) * 0.5 }
func (b Box) CenterY() float32 { return (b.min[1] + b.max[1]) * 0.5 }
func (b Box) CenterZ() float32 { return (b.min[2] + b.max[2]) * 0.5 }

const maxSplitNudges = 16

// Octant classifies the box against the origin. It returns false when the
// box straddles zero on any axis and so fits no single octant.
func (b Box) Octant() (Octant, bool) {
	var o Octant
	for axis := 0; axis < 3; axis++ {
		positive := b.min[axis] >= 0 && b.max[axis] > 0
		negative := b.min[axis] < 0 && b.max[axis] <= 0
		if positive == negative {
			return 0, false
		}
		o = o.WithAxis(axis, positive)
	}
	return o, true
}

// GetOctant returns the sub-box of b in octant o, split at b's center.
func (b Box) GetOctant(o Octant) Box {
	center := b.Center()
	min, max := b.min, b.max
	for axis := 0; axis < 3; axis++ {
		if o.Positive(axis) {
			min[axis] = center[axis]
		} else {
			max[axis] = center[axis]
		}
	}
	return NewBox(min, max)
}

// IsOnOctant compares point against the center of b on every axis.
// Coordinates within Epsilon of the center are SideOn.
func (b Box) IsOnOctant(point mgl32.Vec3) [3]Side {
	center := b.Center()
	return [3]Side{
		sideOf(point[0], center[0]),
		sideOf(point[1], center[1]),
		sideOf(point[2], center[2]),
	}
}

// Intersects reports whether the interiors of b and other overlap. Boxes
// that only share a face do not intersect.
func (b Box) Intersects(other Box) bool {
	for axis := 0; axis < 3; axis++ {
		if !(b.min[axis] < other.max[axis] && b.max[axis] > other.min[axis]) {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether point lies strictly inside b.
func (b Box) ContainsPoint(point mgl32.Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		if !(b.min[axis] < point[axis] && point[axis] < b.max[axis]) {
			return false
		}
	}
	return true
}

// Covers reports whether other lies inside b, faces included.
func (b Box) Covers(other Box) bool {
	for axis := 0; axis < 3; axis++ {
		if other.min[axis] < b.min[axis] || other.max[axis] > b.max[axis] {
			return false
		}
	}
	return true
}

// Union returns the smallest box containing both b and other.
func (b Box) Union(other Box) Box {
	return Box{min: minVec(b.min, other.min), max: maxVec(b.max, other.max)}
}

// IntersectsRayRaw runs the slab test and returns the ray parameters where
// the ray enters and leaves b. It fails if b lies behind the ray or the ray
// misses it.
func (b Box) IntersectsRayRaw(r Ray) (tMin, tMax float32, ok bool) {
	tMin = float32(math.Inf(-1))
	tMax = float32(math.Inf(1))
	dMin := r.T(b.min)
	dMax := r.T(b.max)
	for axis := 0; axis < 3; axis++ {
		tMin = maxf(tMin, minf(minf(dMin[axis], dMax[axis]), tMax))
		tMax = minf(tMax, maxf(maxf(dMin[axis], dMax[axis]), tMin))
	}
	if tMax <= 0 || tMin >= tMax {
		return 0, 0, false
	}
	return tMin, tMax, true
}

// IntersectsRay returns the distance to the point where r enters b, or
// where it leaves b if the origin is already inside.
func (b Box) IntersectsRay(r Ray) (float32, bool) {
	tMin, tMax, ok := b.IntersectsRayRaw(r)
	if !ok {
		return 0, false
	}
	if tMin <= 0 {
		return tMax, true
	}
	return tMin, true
}

// ExtendFor grows b until it covers other. Every step doubles the extent
// towards other, first on the min side and then on the max side, and each
// intermediate box is returned in order. The moved face is nudged where
// rounding allows so that the center of each step lies on the face it
// moved away from. The result is empty if b already covers other. b must
// have a positive extent on every axis.
func (b Box) ExtendFor(other Box) []Box {
	var steps []Box
	for b.min[0] > other.min[0] || b.min[1] > other.min[1] || b.min[2] > other.min[2] {
		grown := b.min.Sub(b.Length())
		for axis := 0; axis < 3; axis++ {
			grown[axis] = splitOn(grown[axis], b.max[axis], b.min[axis])
		}
		b.min = grown
		steps = append(steps, b)
	}
	for b.max[0] < other.max[0] || b.max[1] < other.max[1] || b.max[2] < other.max[2] {
		grown := b.max.Add(b.Length())
		for axis := 0; axis < 3; axis++ {
			grown[axis] = splitOn(grown[axis], b.min[axis], b.max[axis])
		}
		b.max = grown
		steps = append(steps, b)
	}
	return steps
}

// splitOn moves far by a few ulps, never across face, until the midpoint
// of far and near is exactly face. far is returned unchanged when no
// nearby value works.
func splitOn(far, near, face float32) float32 {
	if (far+near)*0.5 == face {
		return far
	}
	down, up := far, far
	for i := 0; i < maxSplitNudges; i++ {
		down = math.Nextafter32(down, float32(math.Inf(-1)))
		up = math.Nextafter32(up, float32(math.Inf(1)))
		if (down+near)*0.5 == face && (down-face)*(far-face) > 0 {
			return down
		}
		if (up+near)*0.5 == face && (up-face)*(far-face) > 0 {
			return up
		}
	}
	return far
}

// Translate moves b by d on every axis.
func (b Box) Translate(d float32) Box {
	return b.TranslateVec(splat(d))
}

func (b Box) TranslateVec(d mgl32.Vec3) Box {
	return Box{min: b.min.Add(d), max: b.max.Add(d)}
}

// Scale multiplies both corners by s. A negative factor mirrors the box
// and the corners are reordered to keep min below max.
func (b Box) Scale(s float32) Box {
	p, q := b.min.Mul(s), b.max.Mul(s)
	return NewBox(minVec(p, q), maxVec(p, q))
}

// Sub returns b expressed relative to origin.
func (b Box) Sub(origin mgl32.Vec3) Box {
	return Box{min: b.min.Sub(origin), max: b.max.Sub(origin)}
}

// ApproxEqual compares the corners componentwise with the absolute
// tolerance eps.
func (b Box) ApproxEqual(other Box, eps float32) bool {
	for axis := 0; axis < 3; axis++ {
		if abs(b.min[axis]-other.min[axis]) > eps || abs(b.max[axis]-other.max[axis]) > eps {
			return false
		}
	}
	return true
}

func (b Box) String() string {
	return fmt.Sprintf("[(%g, %g, %g), (%g, %g, %g)]", b.min[0], b.min[1], b.min[2], b.max[0], b.max[1], b.max[2])
}

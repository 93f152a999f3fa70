package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the float32 machine epsilon. Points closer than this to a
// splitting plane are treated as lying on it.
const Epsilon = float32(1.1920929e-07)

func isNaN(x float32) bool {
	return x != x
}

func hasNaN(v mgl32.Vec3) bool {
	return isNaN(v[0]) || isNaN(v[1]) || isNaN(v[2])
}

func abs(x float32) float32 {
	return float32(math.Abs(float64(x)))
}

// minf ignores a NaN operand, so 0*Inf from an axis-parallel ray does not
// poison a slab interval.
func minf(a, b float32) float32 {
	if isNaN(a) {
		return b
	}
	if isNaN(b) || a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if isNaN(a) {
		return b
	}
	if isNaN(b) || a > b {
		return a
	}
	return b
}

func minVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{minf(a[0], b[0]), minf(a[1], b[1]), minf(a[2], b[2])}
}

func maxVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{maxf(a[0], b[0]), maxf(a[1], b[1]), maxf(a[2], b[2])}
}

func mulComponents(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func splat(x float32) mgl32.Vec3 {
	return mgl32.Vec3{x, x, x}
}

// AnyLess reports whether a is smaller than b on at least one axis.
func AnyLess(a, b mgl32.Vec3) bool {
	return a[0] < b[0] || a[1] < b[1] || a[2] < b[2]
}

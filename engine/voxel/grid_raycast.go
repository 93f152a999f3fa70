package voxel

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type CubeSide int

const (
	Front CubeSide = iota
	Back
	Left
	Right
	Top
	Bottom
)

type GridHit struct {
	Hit bool
	// Distance is measured in world units from the ray start.
	Distance               float64
	Side                   CubeSide
	CollisionWorldPosition mgl32.Vec3
	PreviousGridPosition   Int3
	CollisionGridPosition  Int3
}

// GridRaycast walks the unit grid cells along the segment from rayStart to
// rayEnd and stops at the first cell for which stopRay returns true.
func GridRaycast(rayStart, rayEnd mgl32.Vec3, stopRay func(x, y, z int32) bool) GridHit {
	// adapted from: https://github.com/fenomas/fast-voxel-raycast/blob/master/index.js
	t := 0.0
	ix := int32(math.Floor(float64(rayStart.X())))
	iy := int32(math.Floor(float64(rayStart.Y())))
	iz := int32(math.Floor(float64(rayStart.Z())))

	ray := rayEnd.Sub(rayStart)
	maxRayLength := ray.Len()
	if maxRayLength == 0 {
		return GridHit{}
	}
	rayDir := ray.Normalize()

	stepx := int32(-1)
	if rayDir.X() > 0 {
		stepx = 1
	}
	stepy := int32(-1)
	if rayDir.Y() > 0 {
		stepy = 1
	}
	stepz := int32(-1)
	if rayDir.Z() > 0 {
		stepz = 1
	}

	txDelta := math.Abs(1.0 / float64(rayDir.X()))
	tyDelta := math.Abs(1.0 / float64(rayDir.Y()))
	tzDelta := math.Abs(1.0 / float64(rayDir.Z()))

	xdist := float64(rayStart.X()) - float64(ix)
	if stepx > 0 {
		xdist = float64(ix+1) - float64(rayStart.X())
	}
	ydist := float64(rayStart.Y()) - float64(iy)
	if stepy > 0 {
		ydist = float64(iy+1) - float64(rayStart.Y())
	}
	zdist := float64(rayStart.Z()) - float64(iz)
	if stepz > 0 {
		zdist = float64(iz+1) - float64(rayStart.Z())
	}

	txMax := math.Inf(1)
	if txDelta < math.Inf(1) {
		txMax = txDelta * xdist
	}
	tyMax := math.Inf(1)
	if tyDelta < math.Inf(1) {
		tyMax = tyDelta * ydist
	}
	tzMax := math.Inf(1)
	if tzDelta < math.Inf(1) {
		tzMax = tzDelta * zdist
	}

	steppedIndex := -1

	for t <= float64(maxRayLength) {
		if stopRay(ix, iy, iz) {
			hit := GridHit{
				Hit:                    true,
				Distance:               t,
				CollisionWorldPosition: rayStart.Add(rayDir.Mul(float32(t))),
				CollisionGridPosition:  Int3{X: ix, Y: iy, Z: iz},
				PreviousGridPosition:   Int3{X: ix, Y: iy, Z: iz},
			}
			switch steppedIndex {
			case 0:
				if stepx > 0 {
					hit.Side = Left
					hit.PreviousGridPosition.X--
				} else {
					hit.Side = Right
					hit.PreviousGridPosition.X++
				}
			case 1:
				if stepy > 0 {
					hit.Side = Bottom
					hit.PreviousGridPosition.Y--
				} else {
					hit.Side = Top
					hit.PreviousGridPosition.Y++
				}
			case 2:
				if stepz > 0 {
					hit.Side = Back
					hit.PreviousGridPosition.Z--
				} else {
					hit.Side = Front
					hit.PreviousGridPosition.Z++
				}
			}
			return hit
		}

		if txMax < tyMax {
			if txMax < tzMax {
				ix += stepx
				t = txMax
				txMax += txDelta
				steppedIndex = 0
			} else {
				iz += stepz
				t = tzMax
				tzMax += tzDelta
				steppedIndex = 2
			}
		} else {
			if tyMax < tzMax {
				iy += stepy
				t = tyMax
				tyMax += tyDelta
				steppedIndex = 1
			} else {
				iz += stepz
				t = tzMax
				tzMax += tzDelta
				steppedIndex = 2
			}
		}
	}

	return GridHit{Hit: false}
}

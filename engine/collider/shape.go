package collider

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/memmaker/voxeloctree/engine/geom"
	"github.com/pkg/errors"
)

// Shape is anything that can report its world-space bounding box.
type Shape interface {
	Bounds(t Transform) geom.Box
	GetName() string
}

// Sphere is centred on the transform position. Rotation does not matter,
// the largest scale factor widens the radius.
type Sphere struct {
	Radius float32
}

func (s Sphere) Bounds(t Transform) geom.Box {
	return geom.BoxFromSizeOffset(s.Radius*2*t.MaxScale(), t.GetPosition())
}

func (s Sphere) GetName() string {
	return fmt.Sprintf("sphere(r=%.2f)", s.Radius)
}

// CutSphere is a sphere with the part below y = -Cut removed, like a dome
// resting on the ground.
type CutSphere struct {
	Radius float32
	Cut    float32
}

func (s CutSphere) Bounds(t Transform) geom.Box {
	r := s.Radius
	points := []mgl32.Vec3{
		{r, 0, 0},
		{-r, 0, 0},
		{0, r, 0},
		{0, -s.Cut, 0},
		{0, 0, r},
		{0, 0, -r},
	}
	for i, p := range points {
		points[i] = t.TransformPoint(p)
	}
	return geom.BoxFromPoints(points, mgl32.Vec3{}, mgl32.QuatIdent())
}

func (s CutSphere) GetName() string {
	return fmt.Sprintf("cut sphere(r=%.2f, cut=%.2f)", s.Radius, s.Cut)
}

// Mesh is a point cloud in local space, usually the vertices of a model.
type Mesh struct {
	name   string
	points []mgl32.Vec3
}

// NewMesh panics when fewer than three points are given.
func NewMesh(name string, points []mgl32.Vec3) Mesh {
	if len(points) < 3 {
		panic(errors.Errorf("mesh %s needs at least 3 points, got %d", name, len(points)))
	}
	return Mesh{name: name, points: points}
}

func (m Mesh) Points() []mgl32.Vec3 {
	return m.points
}

func (m Mesh) Bounds(t Transform) geom.Box {
	transformed := make([]mgl32.Vec3, len(m.points))
	for i, p := range m.points {
		transformed[i] = t.TransformPoint(p)
	}
	return geom.BoxFromPoints(transformed, mgl32.Vec3{}, mgl32.QuatIdent())
}

func (m Mesh) GetName() string {
	return m.name
}

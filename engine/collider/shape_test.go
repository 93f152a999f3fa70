package collider

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/memmaker/voxeloctree/engine/geom"
	"github.com/stretchr/testify/require"
)

func requireBoxNear(t *testing.T, want, got geom.Box) {
	t.Helper()
	require.True(t, want.ApproxEqual(got, 1e-5), "want %v, got %v", want, got)
}

func TestTransformPoint(t *testing.T) {
	tr := NewTransform(
		mgl32.Vec3{1, 2, 3},
		mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}),
		mgl32.Vec3{2, 2, 2},
	)
	got := tr.TransformPoint(mgl32.Vec3{1, 0, 0})
	require.True(t, got.ApproxEqualThreshold(mgl32.Vec3{1, 2, 1}, 1e-5), "%v", got)

	viaMatrix := tr.GetTransformMatrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	require.True(t, got.ApproxEqualThreshold(viaMatrix, 1e-5), "%v vs %v", got, viaMatrix)
	require.Equal(t, float32(2), tr.MaxScale())
}

func TestSphereBounds(t *testing.T) {
	s := Sphere{Radius: 0.5}
	requireBoxNear(t, geom.NewBox(mgl32.Vec3{0.5, 1.5, 2.5}, mgl32.Vec3{1.5, 2.5, 3.5}), s.Bounds(NewTranslation(mgl32.Vec3{1, 2, 3})))

	scaled := NewDefaultTransform()
	scaled.SetScale(mgl32.Vec3{1, -3, 1})
	requireBoxNear(t, geom.BoxFromSize(3), s.Bounds(scaled))
}

func TestCutSphereBounds(t *testing.T) {
	s := CutSphere{Radius: 1, Cut: 0.25}
	requireBoxNear(t,
		geom.NewBox(mgl32.Vec3{4, -0.25, -1}, mgl32.Vec3{6, 1, 1}),
		s.Bounds(NewTranslation(mgl32.Vec3{5, 0, 0})))

	// upside down the cut faces up
	flipped := NewDefaultTransform()
	flipped.SetRotation(mgl32.QuatRotate(mgl32.DegToRad(180), mgl32.Vec3{1, 0, 0}))
	requireBoxNear(t, geom.NewBox(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 0.25, 1}), s.Bounds(flipped))
}

func TestMeshBounds(t *testing.T) {
	m := NewMesh("wedge", []mgl32.Vec3{{0, 0, 0}, {2, 0, 0}, {0, 1, 0}, {0, 0, 3}})
	requireBoxNear(t, geom.NewBox(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 1, 3}), m.Bounds(NewDefaultTransform()))

	turned := NewTranslation(mgl32.Vec3{10, 0, 0})
	turned.SetRotation(mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}))
	// x goes to -z, z goes to x
	requireBoxNear(t, geom.NewBox(mgl32.Vec3{10, 0, -2}, mgl32.Vec3{13, 1, 0}), m.Bounds(turned))

	require.PanicsWithError(t, "mesh line needs at least 3 points, got 2", func() {
		NewMesh("line", []mgl32.Vec3{{0, 0, 0}, {1, 1, 1}})
	})
}

package collider

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/memmaker/voxeloctree/engine/geom"
	"github.com/memmaker/voxeloctree/engine/octree"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry[string] {
	return NewRegistry(octree.New[string](32, mgl32.Vec3{0.5, 0.5, 0.5}, geom.BoxFromSize(16)))
}

func TestRegistrySpawnAndPick(t *testing.T) {
	reg := newTestRegistry()
	require.True(t, reg.Spawn("near", Sphere{Radius: 0.5}, NewTranslation(mgl32.Vec3{2, 0, 0})))
	require.True(t, reg.Spawn("far", Sphere{Radius: 0.5}, NewTranslation(mgl32.Vec3{5, 0, 0})))
	require.False(t, reg.Spawn("near", Sphere{Radius: 1}, NewDefaultTransform()))
	require.Equal(t, 2, reg.Len())
	require.Equal(t, 2, reg.Tree().Len())

	handle, point, ok := reg.Pick(geom.NewRay(mgl32.Vec3{-5, 0, 0}, mgl32.Vec3{1, 0, 0}), 0.1)
	require.True(t, ok)
	require.Equal(t, "near", handle)
	require.True(t, point.ApproxEqualThreshold(mgl32.Vec3{1.4, 0, 0}, 1e-5), "%v", point)

	_, _, ok = reg.Pick(geom.NewRay(mgl32.Vec3{-5, 3, 0}, mgl32.Vec3{1, 0, 0}), 0)
	require.False(t, ok)
}

func TestRegistryMove(t *testing.T) {
	reg := newTestRegistry()
	require.True(t, reg.Spawn("a", Sphere{Radius: 0.5}, NewTranslation(mgl32.Vec3{2, 2, 2})))
	require.Equal(t, []string{"a"}, reg.Query(geom.BoxFromSizeOffset(2, mgl32.Vec3{2, 2, 2})))

	require.True(t, reg.Move("a", NewTranslation(mgl32.Vec3{-3, -3, -3})))
	require.Empty(t, reg.Query(geom.BoxFromSizeOffset(2, mgl32.Vec3{2, 2, 2})))
	require.Equal(t, []string{"a"}, reg.Query(geom.BoxFromSizeOffset(2, mgl32.Vec3{-3, -3, -3})))

	body, ok := reg.Get("a")
	require.True(t, ok)
	require.Equal(t, mgl32.Vec3{-3, -3, -3}, body.Transform.GetPosition())
	require.True(t, reg.Tree().Contains("a", body.Box))

	// outside the initial bound the tree grows
	require.True(t, reg.Move("a", NewTranslation(mgl32.Vec3{20, 0, 0})))
	require.Equal(t, []string{"a"}, reg.Query(geom.BoxFromSizeOffset(2, mgl32.Vec3{20, 0, 0})))

	require.False(t, reg.Move("missing", NewDefaultTransform()))
}

func TestRegistryDespawn(t *testing.T) {
	reg := newTestRegistry()
	require.True(t, reg.Spawn("dome", CutSphere{Radius: 1, Cut: 0}, NewTranslation(mgl32.Vec3{0, 0, 3})))
	require.True(t, reg.Despawn("dome"))
	require.False(t, reg.Despawn("dome"))
	require.Equal(t, 0, reg.Len())
	require.True(t, reg.Tree().IsEmpty())
	_, ok := reg.Get("dome")
	require.False(t, ok)
}

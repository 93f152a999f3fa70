package collider

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/memmaker/voxeloctree/engine/geom"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/require"
)

func writeTriangleModel(t *testing.T, translation [3]float32) string {
	t.Helper()
	doc := gltf.NewDocument()
	positions := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 2, 0}, {0, 0, 1}})
	doc.Meshes = []*gltf.Mesh{{
		Name: "tetra",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{gltf.POSITION: positions},
		}},
	}}
	// the mesh hangs off a translated child node
	doc.Nodes = []*gltf.Node{
		{Name: "root", Translation: translation, Children: []uint32{1}},
		{Name: "body", Mesh: gltf.Index(0), Scale: [3]float32{2, 1, 1}},
	}
	doc.Scenes[0].Nodes = []uint32{0}

	filename := filepath.Join(t.TempDir(), "tetra.glb")
	require.NoError(t, gltf.SaveBinary(doc, filename))
	return filename
}

func TestLoadMeshShape(t *testing.T) {
	filename := writeTriangleModel(t, [3]float32{0, 5, 0})
	mesh, err := LoadMeshShape(filename)
	require.NoError(t, err)
	require.Equal(t, "tetra.glb", mesh.GetName())
	require.Len(t, mesh.Points(), 4)

	requireBoxNear(t, geom.NewBox(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{2, 7, 1}), mesh.Bounds(NewDefaultTransform()))
}

func TestLoadMeshShapeMissingFile(t *testing.T) {
	_, err := LoadMeshShape(filepath.Join(t.TempDir(), "nothing.glb"))
	require.Error(t, err)
}

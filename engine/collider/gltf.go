package collider

import (
	"fmt"
	"path"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/memmaker/voxeloctree/engine/util"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// LoadMeshShape collects every vertex position of the default scene of a
// glTF file, with the node transforms applied.
func LoadMeshShape(filename string) (Mesh, error) {
	doc, err := gltf.Open(filename)
	if err != nil {
		return Mesh{}, errors.Wrapf(err, "opening %s", filename)
	}
	if len(doc.Scenes) == 0 {
		return Mesh{}, errors.Errorf("%s contains no scene", filename)
	}
	scene := doc.Scenes[0]
	if doc.Scene != nil {
		scene = doc.Scenes[*doc.Scene]
	}

	var points []mgl32.Vec3
	for _, rootIndex := range scene.Nodes {
		points, err = collectNodePoints(doc, rootIndex, mgl32.Ident4(), points)
		if err != nil {
			return Mesh{}, errors.Wrapf(err, "reading %s", filename)
		}
	}
	if len(points) < 3 {
		return Mesh{}, errors.Errorf("%s has %d vertices, need at least 3", filename, len(points))
	}
	util.LogColliderDebug(fmt.Sprintf("loaded %d vertices from %s", len(points), filename))
	return NewMesh(path.Base(filename), points), nil
}

func collectNodePoints(doc *gltf.Document, nodeIndex uint32, parent mgl32.Mat4, points []mgl32.Vec3) ([]mgl32.Vec3, error) {
	docNode := doc.Nodes[nodeIndex]
	translation := docNode.TranslationOrDefault()
	rotation := docNode.RotationOrDefault()
	scale := docNode.ScaleOrDefault()
	local := NewTransform(
		mgl32.Vec3(translation),
		mgl32.Quat{W: rotation[3], V: mgl32.Vec3{rotation[0], rotation[1], rotation[2]}},
		mgl32.Vec3(scale),
	)
	world := parent.Mul4(local.GetTransformMatrix())

	var err error
	if docNode.Mesh != nil {
		mesh := doc.Meshes[*docNode.Mesh]
		for _, primitive := range mesh.Primitives {
			positionIndex, ok := primitive.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			var vertBuffer [][3]float32
			vertBuffer, err = modeler.ReadPosition(doc, doc.Accessors[positionIndex], vertBuffer)
			if err != nil {
				return points, errors.Wrapf(err, "mesh %s", mesh.Name)
			}
			for _, v := range vertBuffer {
				points = append(points, world.Mul4x1(mgl32.Vec4{v[0], v[1], v[2], 1}).Vec3())
			}
		}
	}
	for _, childIndex := range docNode.Children {
		points, err = collectNodePoints(doc, childIndex, world, points)
		if err != nil {
			return points, err
		}
	}
	return points, nil
}

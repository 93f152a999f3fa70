package voxel

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/memmaker/voxeloctree/engine/geom"
)

// BlockBox is the unit box of a solid block in world block coordinates.
type BlockBox struct {
	Int3
	Block *BlockDefinition
}

func (b BlockBox) Box() geom.Box {
	corner := mgl32.Vec3{float32(b.X), float32(b.Y), float32(b.Z)}
	return geom.NewBox(corner, corner.Add(mgl32.Vec3{1, 1, 1}))
}

// SolidBlocks lists every non-air block and every block entity of c.
func SolidBlocks(c *Construction) []BlockBox {
	var result []BlockBox
	for _, section := range c.Sections {
		if len(section.Blocks) == 0 {
			continue
		}
		for x := 0; x < int(section.ShapeX); x++ {
			for y := 0; y < int(section.ShapeY); y++ {
				for z := 0; z < int(section.ShapeZ); z++ {
					block := section.BlockAt(x, y, z)
					if block.IsAir() {
						continue
					}
					result = append(result, BlockBox{
						Int3: Int3{
							X: section.MinBlockX + int32(x),
							Y: section.MinBlockY + int32(y),
							Z: section.MinBlockZ + int32(z),
						},
						Block: block,
					})
				}
			}
		}
		for _, entity := range section.BlockEntities {
			result = append(result, BlockBox{
				Int3:  Int3{X: entity.X, Y: entity.Y, Z: entity.Z},
				Block: &BlockDefinition{Name: entity.Name, NameSpace: entity.Namespace},
			})
		}
	}
	return result
}

// SolidBlockBoxes returns the unit boxes of SolidBlocks.
func SolidBlockBoxes(c *Construction) []geom.Box {
	blocks := SolidBlocks(c)
	boxes := make([]geom.Box, len(blocks))
	for i, b := range blocks {
		boxes[i] = b.Box()
	}
	return boxes
}

// Bounds returns the box spanned by all sections. ok is false for a
// construction without sections.
func Bounds(c *Construction) (geom.Box, bool) {
	if len(c.Sections) == 0 {
		return geom.Box{}, false
	}
	minX, minY, minZ := int32(math.MaxInt32), int32(math.MaxInt32), int32(math.MaxInt32)
	maxX, maxY, maxZ := int32(math.MinInt32), int32(math.MinInt32), int32(math.MinInt32)
	for _, section := range c.Sections {
		if section.MinBlockX < minX {
			minX = section.MinBlockX
		}
		if section.MinBlockY < minY {
			minY = section.MinBlockY
		}
		if section.MinBlockZ < minZ {
			minZ = section.MinBlockZ
		}
		if section.MinBlockX+int32(section.ShapeX) > maxX {
			maxX = section.MinBlockX + int32(section.ShapeX)
		}
		if section.MinBlockY+int32(section.ShapeY) > maxY {
			maxY = section.MinBlockY + int32(section.ShapeY)
		}
		if section.MinBlockZ+int32(section.ShapeZ) > maxZ {
			maxZ = section.MinBlockZ + int32(section.ShapeZ)
		}
	}
	return geom.NewBox(
		mgl32.Vec3{float32(minX), float32(minY), float32(minZ)},
		mgl32.Vec3{float32(maxX), float32(maxY), float32(maxZ)},
	), true
}

// BlockNames returns the sorted names of all non-air blocks used by c.
func BlockNames(c *Construction) []string {
	seen := make(map[string]bool)
	for _, b := range SolidBlocks(c) {
		seen[b.Block.Name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

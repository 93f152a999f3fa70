package voxel

import "fmt"

type Int3 struct {
	X, Y, Z int32
}

func (i Int3) Add(other Int3) Int3 {
	return Int3{i.X + other.X, i.Y + other.Y, i.Z + other.Z}
}

func (i Int3) Sub(other Int3) Int3 {
	return Int3{i.X - other.X, i.Y - other.Y, i.Z - other.Z}
}

func (i Int3) String() string {
	return fmt.Sprintf("%d/%d/%d", i.X, i.Y, i.Z)
}

// BlockGrid is a sparse lookup of the solid blocks of a construction.
type BlockGrid struct {
	blocks map[Int3]*BlockDefinition
}

func NewBlockGrid(c *Construction) *BlockGrid {
	solid := SolidBlocks(c)
	g := &BlockGrid{blocks: make(map[Int3]*BlockDefinition, len(solid))}
	for _, b := range solid {
		g.blocks[b.Int3] = b.Block
	}
	return g
}

func (g *BlockGrid) Len() int {
	return len(g.blocks)
}

func (g *BlockGrid) IsSolid(x, y, z int32) bool {
	_, ok := g.blocks[Int3{x, y, z}]
	return ok
}

func (g *BlockGrid) BlockAt(pos Int3) *BlockDefinition {
	return g.blocks[pos]
}

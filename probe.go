package main

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/memmaker/voxeloctree/engine/collider"
	"github.com/memmaker/voxeloctree/engine/geom"
	"github.com/memmaker/voxeloctree/engine/octree"
	"github.com/memmaker/voxeloctree/engine/util"
	"github.com/memmaker/voxeloctree/engine/voxel"
	"github.com/pkg/errors"
)

// Probe fills a collider registry with level geometry and random bodies
// and measures how the octree answers ray queries.
type Probe struct {
	registry *collider.Registry[string]
	rng      *rand.Rand
	// area is where random bodies and ray targets are placed.
	area geom.Box
	grid *voxel.BlockGrid
	// bodies are the handles of the scattered spheres.
	bodies []string
}

func NewProbe(cfg octree.Config, seed int64) (*Probe, error) {
	tree, err := octree.NewFromConfig[string](cfg)
	if err != nil {
		return nil, err
	}
	util.LogSystemInfo(fmt.Sprintf("octree bound %v, min leaf %v, seed %d", tree.BaseBound(), tree.MinLeafExtent(), seed))
	return &Probe{
		registry: collider.NewRegistry(tree),
		rng:      rand.New(rand.NewSource(seed)),
		area:     tree.BaseBound(),
	}, nil
}

func (p *Probe) Registry() *collider.Registry[string] {
	return p.registry
}

// LoadConstruction adds one unit box collider per solid block.
func (p *Probe) LoadConstruction(filename string) error {
	construction, err := voxel.LoadConstruction(filename)
	if err != nil {
		return err
	}
	bounds, ok := voxel.Bounds(construction)
	if !ok {
		return errors.Errorf("%s has no sections", filename)
	}
	unitCube := collider.NewMesh("block", []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1}})
	added := 0
	for _, block := range voxel.SolidBlocks(construction) {
		handle := blockHandle(block.Int3)
		transform := collider.NewTranslation(mgl32.Vec3{float32(block.X), float32(block.Y), float32(block.Z)})
		if p.registry.Spawn(handle, unitCube, transform) {
			added++
		}
	}
	p.area = p.area.Union(bounds)
	p.grid = voxel.NewBlockGrid(construction)
	util.LogVoxelInfo(fmt.Sprintf("indexed %d solid blocks (%v) inside %v", added, voxel.BlockNames(construction), bounds))
	return nil
}

// LoadMesh adds the model as a single collider at the origin.
func (p *Probe) LoadMesh(filename string) error {
	mesh, err := collider.LoadMeshShape(filename)
	if err != nil {
		return err
	}
	handle := uuid.NewString()
	if !p.registry.Spawn(handle, mesh, collider.NewDefaultTransform()) {
		return errors.Errorf("could not add mesh %s", filename)
	}
	body, _ := p.registry.Get(handle)
	p.area = p.area.Union(body.Box)
	return nil
}

func (p *Probe) randomPoint(area geom.Box) mgl32.Vec3 {
	var point mgl32.Vec3
	for axis := 0; axis < 3; axis++ {
		point[axis] = area.Min()[axis] + p.rng.Float32()*area.Length()[axis]
	}
	return point
}

// ScatterSpheres adds count spheres and domes at random positions in the
// probe area.
func (p *Probe) ScatterSpheres(count int) {
	maxRadius := p.area.Length().Len() / 100
	for i := 0; i < count; i++ {
		radius := maxRadius * (0.1 + 0.9*p.rng.Float32())
		var shape collider.Shape = collider.Sphere{Radius: radius}
		if p.rng.Intn(4) == 0 {
			shape = collider.CutSphere{Radius: radius, Cut: radius * p.rng.Float32()}
		}
		handle := uuid.NewString()
		if p.registry.Spawn(handle, shape, collider.NewTranslation(p.randomPoint(p.area))) {
			p.bodies = append(p.bodies, handle)
		}
	}
	util.LogSystemInfo(fmt.Sprintf("scattered %d bodies, registry holds %d", count, p.registry.Len()))
}

// Churn nudges count random bodies by up to step on every axis and
// respawns every tenth of them elsewhere.
func (p *Probe) Churn(count int, step float32) {
	if len(p.bodies) == 0 {
		return
	}
	moved, respawned := 0, 0
	for i := 0; i < count; i++ {
		slot := p.rng.Intn(len(p.bodies))
		handle := p.bodies[slot]
		body, ok := p.registry.Get(handle)
		if !ok {
			continue
		}
		if i%10 == 9 {
			if !p.registry.Despawn(handle) {
				continue
			}
			replacement := uuid.NewString()
			if p.registry.Spawn(replacement, body.Shape, collider.NewTranslation(p.randomPoint(p.area))) {
				p.bodies[slot] = replacement
				respawned++
			} else {
				p.bodies = append(p.bodies[:slot], p.bodies[slot+1:]...)
			}
			continue
		}
		transform := body.Transform
		transform.Translate(mgl32.Vec3{
			(p.rng.Float32()*2 - 1) * step,
			(p.rng.Float32()*2 - 1) * step,
			(p.rng.Float32()*2 - 1) * step,
		})
		if p.registry.Move(handle, transform) {
			moved++
		}
	}
	util.LogSystemInfo(fmt.Sprintf("churn: moved %d bodies, respawned %d", moved, respawned))
}

type RayStats struct {
	Rays      int
	Hits      int
	Distances float64
	Nearest   float32
	Farthest  float32
}

func (s RayStats) String() string {
	if s.Hits == 0 {
		return fmt.Sprintf("%d rays, no hits", s.Rays)
	}
	return fmt.Sprintf("%d rays, %d hits (%.1f%%), distance min %.2f mean %.2f max %.2f",
		s.Rays, s.Hits, 100*float64(s.Hits)/float64(s.Rays), s.Nearest, s.Distances/float64(s.Hits), s.Farthest)
}

// FireRays casts count rays from random points on a sphere around the
// probe area through random points inside it.
func (p *Probe) FireRays(count int) RayStats {
	stats := RayStats{Rays: count, Nearest: float32(math.Inf(1))}
	center := p.area.Center()
	radius := p.area.Length().Len()
	tree := p.registry.Tree()
	for i := 0; i < count; i++ {
		dir := mgl32.Vec3{float32(p.rng.NormFloat64()), float32(p.rng.NormFloat64()), float32(p.rng.NormFloat64())}
		if dir.Len() == 0 {
			dir = mgl32.Vec3{1, 0, 0}
		}
		origin := center.Add(dir.Normalize().Mul(radius))
		target := p.randomPoint(p.area)
		hit, ok := tree.Raycast(geom.NewRay(origin, target.Sub(origin).Normalize()))
		if !ok {
			continue
		}
		stats.Hits++
		stats.Distances += float64(hit.Distance)
		if hit.Distance < stats.Nearest {
			stats.Nearest = hit.Distance
		}
		if hit.Distance > stats.Farthest {
			stats.Farthest = hit.Distance
		}
	}
	return stats
}

type TreeShape struct {
	Entities int
	Nodes    int
	Idle     int
	MaxDepth int
	// PerDepth counts the entities stored at each depth.
	PerDepth []int
	Bound    geom.Box
}

func (s TreeShape) String() string {
	return fmt.Sprintf("%d entities in %d nodes (%d idle), depth %d, per depth %v, bound %v",
		s.Entities, s.Nodes, s.Idle, s.MaxDepth, s.PerDepth, s.Bound)
}

func (p *Probe) Shape() TreeShape {
	tree := p.registry.Tree()
	shape := TreeShape{
		Entities: tree.Len(),
		Nodes:    tree.NodeCount(),
		Idle:     tree.IdleCount(),
		Bound:    tree.BaseBound(),
	}
	for _, n := range tree.Nodes() {
		for len(shape.PerDepth) <= n.Depth {
			shape.PerDepth = append(shape.PerDepth, 0)
		}
		shape.PerDepth[n.Depth] += n.Entities
		if n.Depth > shape.MaxDepth {
			shape.MaxDepth = n.Depth
		}
	}
	return shape
}

func blockHandle(pos voxel.Int3) string {
	return "block/" + pos.String()
}

type BlockCheck struct {
	Rays int
	// Agree counts rays where grid walk and octree hit a block at the same
	// distance, or neither hits a block.
	Agree int
	// Occluded counts rays where the octree found a body in front of the
	// block the grid walk hit.
	Occluded int
	Disagree int
}

func (c BlockCheck) String() string {
	return fmt.Sprintf("%d block rays: %d agree, %d occluded by bodies, %d disagree", c.Rays, c.Agree, c.Occluded, c.Disagree)
}

// VerifyBlocks fires count rays at the loaded construction and compares
// the octree answer with a walk over the block grid.
func (p *Probe) VerifyBlocks(count int) (BlockCheck, error) {
	check := BlockCheck{Rays: count}
	if p.grid == nil {
		return check, errors.New("no construction loaded")
	}
	tree := p.registry.Tree()
	center := p.area.Center()
	radius := p.area.Length().Len()
	for i := 0; i < count; i++ {
		dir := mgl32.Vec3{float32(p.rng.NormFloat64()), float32(p.rng.NormFloat64()), float32(p.rng.NormFloat64())}
		if dir.Len() == 0 {
			dir = mgl32.Vec3{0, -1, 0}
		}
		origin := center.Add(dir.Normalize().Mul(radius))
		target := p.randomPoint(p.area)
		direction := target.Sub(origin).Normalize()
		end := origin.Add(direction.Mul(2 * radius))

		gridHit := voxel.GridRaycast(origin, end, p.grid.IsSolid)
		treeHit, treeOK := tree.Raycast(geom.NewRay(origin, direction))
		isBlock := treeOK && strings.HasPrefix(treeHit.Handle, "block/")
		switch {
		case !gridHit.Hit && !isBlock:
			check.Agree++
		case gridHit.Hit && treeOK && math.Abs(float64(treeHit.Distance)-gridHit.Distance) < 1e-3 && isBlock:
			// blocks sharing the entry point are equally good answers
			check.Agree++
		case gridHit.Hit && treeOK && !isBlock && float64(treeHit.Distance) < gridHit.Distance:
			check.Occluded++
		default:
			check.Disagree++
			util.LogSystemWarning(fmt.Sprintf("ray %v: grid %v %v at %.3f, octree %v %v at %.3f",
				geom.NewRay(origin, direction), gridHit.Hit, gridHit.CollisionGridPosition, gridHit.Distance,
				treeOK, treeHit.Handle, treeHit.Distance))
		}
	}
	return check, nil
}

package octree

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/memmaker/voxeloctree/engine/geom"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/constraints"
)

var (
	boxA = geom.NewBox(mgl32.Vec3{0.2, 0.2, 0.2}, mgl32.Vec3{0.3, 0.3, 0.3})
	boxB = geom.NewBox(mgl32.Vec3{-0.3, -0.3, -0.3}, mgl32.Vec3{-0.2, -0.2, -0.2})
)

func newTestTree() *Octree[int] {
	return New[int](16, mgl32.Vec3{0.1, 0.1, 0.1}, geom.NewBox(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}))
}

// nodeHolding returns the bound of the node storing handle.
func nodeHolding[H constraints.Ordered](t *Octree[H], handle H) (geom.Box, bool) {
	for i := range t.arena.nodes {
		n := &t.arena.nodes[i]
		if !n.live {
			continue
		}
		if _, found := n.find(handle); found {
			return n.bound, true
		}
	}
	return geom.Box{}, false
}

func TestNewRejectsFlatBound(t *testing.T) {
	require.Panics(t, func() {
		New[int](0, mgl32.Vec3{1, 1, 1}, geom.NewBox(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 1}))
	})
}

func TestInsertRemoveRestoresCount(t *testing.T) {
	tree := newTestTree()
	require.True(t, tree.IsEmpty())

	require.True(t, tree.Insert(1, boxA))
	require.Equal(t, 1, tree.Len())
	require.True(t, tree.Contains(1, boxA))

	require.True(t, tree.Remove(1, boxA))
	require.Equal(t, 0, tree.Len())
	require.False(t, tree.Contains(1, boxA))
}

func TestInsertDuplicateHandle(t *testing.T) {
	tree := newTestTree()
	require.True(t, tree.Insert(1, boxA))
	nodes := tree.NodeCount()
	require.False(t, tree.Insert(1, boxA))
	require.Equal(t, 1, tree.Len())
	require.Equal(t, nodes, tree.NodeCount())

	// duplicates are only detected in the node the box leads to
	require.True(t, tree.Insert(1, boxB))
	require.Equal(t, 2, tree.Len())
}

func TestRemoveAbsentHandle(t *testing.T) {
	tree := newTestTree()
	require.False(t, tree.Remove(1, boxA))

	require.True(t, tree.Insert(1, boxA))
	nodes := tree.NodeCount()
	require.False(t, tree.Remove(2, boxA))
	require.False(t, tree.Remove(1, boxB))
	require.Equal(t, 1, tree.Len())
	require.Equal(t, nodes, tree.NodeCount())
}

func TestEntitiesSettleInSeparateChildren(t *testing.T) {
	tree := newTestTree()
	require.True(t, tree.Insert(1, boxA))
	require.Equal(t, 1, tree.Len())
	require.True(t, tree.Insert(2, boxB))
	require.Equal(t, 2, tree.Len())

	boundA, ok := nodeHolding(tree, 1)
	require.True(t, ok)
	boundB, ok := nodeHolding(tree, 2)
	require.True(t, ok)
	require.NotEqual(t, boundA, boundB)
	require.Equal(t, geom.NewBox(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0.5, 0.5, 0.5}), boundA)
	require.Equal(t, geom.NewBox(mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0, 0, 0}), boundB)
	// root, two children and two grandchildren
	require.Equal(t, 5, tree.NodeCount())
}

func TestStraddlingEntityStaysAtRoot(t *testing.T) {
	tree := newTestTree()
	straddling := geom.NewBox(mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5})
	require.True(t, tree.Insert(1, boxA))
	require.True(t, tree.Insert(2, straddling))

	bound, ok := nodeHolding(tree, 2)
	require.True(t, ok)
	require.Equal(t, tree.BaseBound(), bound)

	require.True(t, tree.Remove(2, straddling))
	// the root still has children and is kept
	require.Equal(t, 3, tree.NodeCount())
	require.True(t, tree.Contains(1, boxA))
}

func TestMinLeafExtentLimitsDepth(t *testing.T) {
	tree := New[int](0, mgl32.Vec3{1, 1, 1}, geom.NewBox(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}))
	small := geom.NewBox(mgl32.Vec3{0.1, 0.1, 0.1}, mgl32.Vec3{0.2, 0.2, 0.2})
	require.True(t, tree.Insert(1, small))

	bound, ok := nodeHolding(tree, 1)
	require.True(t, ok)
	require.Equal(t, geom.NewBox(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}), bound)
	require.Equal(t, 2, tree.NodeCount())
	require.True(t, tree.Remove(1, small))
}

func TestRemoveRecyclesOnlyTheEmptiedNode(t *testing.T) {
	tree := newTestTree()
	require.True(t, tree.Insert(1, boxA))
	require.Equal(t, 3, tree.NodeCount())

	recycledBefore := testutil.ToFloat64(nodesRecycled)
	require.True(t, tree.Remove(1, boxA))
	require.Equal(t, recycledBefore+1, testutil.ToFloat64(nodesRecycled))

	// the emptied child of the root is not recycled with its leaf
	require.Equal(t, 2, tree.NodeCount())
	require.Equal(t, 1, tree.IdleCount())
	nodes := tree.Nodes()
	require.Len(t, nodes, 2)
	require.Equal(t, 1, nodes[0].Children)
	require.Equal(t, 0, nodes[1].Children)
	require.Equal(t, 0, nodes[1].Entities)

	reusedBefore := testutil.ToFloat64(nodesAllocated.WithLabelValues(sourceRecycled))
	require.True(t, tree.Insert(1, boxA))
	require.Equal(t, reusedBefore+1, testutil.ToFloat64(nodesAllocated.WithLabelValues(sourceRecycled)))
	require.Equal(t, 3, tree.NodeCount())
	require.Equal(t, 0, tree.IdleCount())
	require.Len(t, tree.arena.nodes, 3)
}

func TestRemovingLastRootEntityEmptiesTree(t *testing.T) {
	tree := newTestTree()
	straddling := geom.NewBox(mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5})
	require.True(t, tree.Insert(1, straddling))
	require.Equal(t, 1, tree.NodeCount())

	require.True(t, tree.Remove(1, straddling))
	require.Equal(t, 0, tree.NodeCount())
	require.Empty(t, tree.Nodes())
	require.Equal(t, nullIndex, tree.root)

	require.True(t, tree.Insert(2, boxB))
	require.True(t, tree.Contains(2, boxB))
}

func TestInsertOutsideGrowsRoot(t *testing.T) {
	tree := newTestTree()
	require.True(t, tree.Insert(1, boxA))
	require.True(t, tree.Insert(2, boxB))

	extensionsBefore := testutil.ToFloat64(rootExtensions)
	far := geom.NewBox(mgl32.Vec3{3, 3, 3}, mgl32.Vec3{4, 4, 4})
	require.True(t, tree.Insert(3, far))
	require.Equal(t, extensionsBefore+2, testutil.ToFloat64(rootExtensions))

	require.True(t, tree.BaseBound().Covers(far))
	require.Equal(t, geom.NewBox(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{7, 7, 7}), tree.BaseBound())
	require.Equal(t, tree.BaseBound(), tree.Nodes()[0].Bound)
	require.Equal(t, 3, tree.Len())

	require.True(t, tree.Contains(1, boxA))
	require.True(t, tree.Contains(2, boxB))
	require.True(t, tree.Contains(3, far))

	hit, ok := tree.Raycast(geom.NewRay(mgl32.Vec3{-5, 0.25, 0.25}, mgl32.Vec3{1, 0, 0}))
	require.True(t, ok)
	require.Equal(t, 1, hit.Handle)

	found := tree.Intersect(geom.NewBox(mgl32.Vec3{-2, -2, -2}, mgl32.Vec3{5, 5, 5}))
	require.ElementsMatch(t, []Entity[int]{{1, boxA}, {2, boxB}, {3, far}}, found)

	require.True(t, tree.Remove(1, boxA))
	require.True(t, tree.Remove(2, boxB))
	require.True(t, tree.Remove(3, far))
	require.True(t, tree.IsEmpty())
}

func TestInsertOutsideGrowsTowardsMin(t *testing.T) {
	tree := newTestTree()
	require.True(t, tree.Insert(1, boxA))
	far := geom.NewBox(mgl32.Vec3{-6, -0.5, -0.5}, mgl32.Vec3{-5, 0.5, 0.5})
	require.True(t, tree.Insert(2, far))
	require.True(t, tree.BaseBound().Covers(far))
	require.True(t, tree.Contains(1, boxA))
	require.True(t, tree.Contains(2, far))
}

func TestInsertOutsideEmptyTreeOnlyMovesBound(t *testing.T) {
	tree := newTestTree()
	far := geom.NewBox(mgl32.Vec3{3, 3, 3}, mgl32.Vec3{4, 4, 4})
	extensionsBefore := testutil.ToFloat64(rootExtensions)
	require.True(t, tree.Insert(1, far))
	require.Equal(t, extensionsBefore, testutil.ToFloat64(rootExtensions))
	require.Equal(t, geom.NewBox(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{4, 4, 4}), tree.BaseBound())
	require.True(t, tree.Contains(1, far))
}

func TestRemoveAfterGrowthPastMinLeaf(t *testing.T) {
	// the initial root is already smaller than a leaf may be
	tree := New[int](0, mgl32.Vec3{2, 2, 2}, geom.NewBox(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}))
	small := geom.NewBox(mgl32.Vec3{0.2, 0.2, 0.2}, mgl32.Vec3{0.4, 0.4, 0.4})
	far := geom.NewBox(mgl32.Vec3{3, 3, 3}, mgl32.Vec3{3.5, 3.5, 3.5})
	require.True(t, tree.Insert(1, small))
	require.True(t, tree.Insert(2, far))
	require.Equal(t, geom.NewBox(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{4, 4, 4}), tree.BaseBound())

	require.True(t, tree.Contains(1, small))
	require.True(t, tree.Contains(2, far))
	require.False(t, tree.Insert(1, small))

	require.True(t, tree.Remove(1, small))
	require.False(t, tree.Contains(1, small))
	require.True(t, tree.Remove(2, far))
	require.True(t, tree.IsEmpty())
	require.Empty(t, tree.Entities())
}

func TestRemoveEverythingAfterGrowthFromUnevenBound(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tree := New[int](0, mgl32.Vec3{0.05, 0.05, 0.05}, geom.NewBox(mgl32.Vec3{0.1, -0.3, 0.7}, mgl32.Vec3{0.35, 0.2, 1.3}))
	randomBox := func(center mgl32.Vec3, spread, maxSize float32) geom.Box {
		min := center.Add(mgl32.Vec3{
			(rng.Float32()*2 - 1) * spread,
			(rng.Float32()*2 - 1) * spread,
			(rng.Float32()*2 - 1) * spread,
		})
		return geom.NewBox(min, min.Add(mgl32.Vec3{rng.Float32() * maxSize, rng.Float32() * maxSize, rng.Float32() * maxSize}))
	}

	var entities []Entity[int]
	insert := func(box geom.Box) {
		handle := len(entities)
		require.True(t, tree.Insert(handle, box))
		entities = append(entities, Entity[int]{Handle: handle, Box: box})
	}
	// the first box only widens the empty bound, then the bound is filled
	insert(randomBox(mgl32.Vec3{0.2, 0, 1}, 0.4, 0.3))
	for i := 0; i < 200; i++ {
		insert(randomBox(mgl32.Vec3{0.2, 0, 1}, 0.4, 0.1))
	}
	// growth in both directions moves the filled root down the tree
	insert(randomBox(mgl32.Vec3{-7, -7, -7}, 0.5, 0.5))
	insert(randomBox(mgl32.Vec3{9, 9, 9}, 0.5, 0.5))
	for i := 0; i < 100; i++ {
		insert(randomBox(mgl32.Vec3{0, 0, 0}, 8, 1))
	}
	require.Equal(t, len(entities), tree.Len())
	require.ElementsMatch(t, entities, tree.Entities())

	for _, e := range entities {
		require.True(t, tree.Contains(e.Handle, e.Box), "%d at %v", e.Handle, e.Box)
	}
	for _, e := range entities {
		require.True(t, tree.Remove(e.Handle, e.Box), "%d at %v", e.Handle, e.Box)
	}
	require.True(t, tree.IsEmpty())
	require.Empty(t, tree.Entities())
}

func TestEntitiesListsEverything(t *testing.T) {
	tree := newTestTree()
	require.True(t, tree.Insert(7, boxA))
	require.True(t, tree.Insert(3, boxB))
	require.ElementsMatch(t, []Entity[int]{{7, boxA}, {3, boxB}}, tree.Entities())
}

func TestStringHandles(t *testing.T) {
	tree := New[string](0, mgl32.Vec3{0.1, 0.1, 0.1}, geom.BoxFromSize(2))
	require.True(t, tree.Insert("b", boxA))
	require.True(t, tree.Insert("a", boxA))
	require.True(t, tree.Insert("c", boxA))
	require.False(t, tree.Insert("a", boxA))

	index, _ := tree.find("a", boxA)
	n := tree.arena.get(index)
	require.Equal(t, []string{"a", "b", "c"}, []string{n.entities[0].Handle, n.entities[1].Handle, n.entities[2].Handle})

	require.True(t, tree.Remove("b", boxA))
	require.Equal(t, 2, tree.Len())
	require.False(t, tree.Contains("b", boxA))
}

package octree

import (
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/memmaker/voxeloctree/engine/geom"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Config describes how to build an Octree. Either both Bound.Min and
// Bound.Max are given, or the bound is a cube of Bound.Size around
// Bound.Offset.
//
//	capacity = 1024
//	min_leaf_extent = [0.5, 0.5, 0.5]
//
//	[bound]
//	size = 64.0
//	offset = [0.0, 16.0, 0.0]
type Config struct {
	Capacity      int         `toml:"capacity"`
	MinLeafExtent [3]float32  `toml:"min_leaf_extent"`
	Bound         BoundConfig `toml:"bound"`
}

type BoundConfig struct {
	Min    *[3]float32 `toml:"min,omitempty"`
	Max    *[3]float32 `toml:"max,omitempty"`
	Size   float32     `toml:"size"`
	Offset [3]float32  `toml:"offset"`
}

func DefaultConfig() Config {
	return Config{
		Capacity:      256,
		MinLeafExtent: [3]float32{1, 1, 1},
		Bound: BoundConfig{
			Size: 64,
		},
	}
}

// ParseConfig decodes TOML on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding octree config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading octree config %s", filename)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "loading octree config %s", filename)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Capacity < 0 {
		return errors.Errorf("capacity must not be negative, got %d", c.Capacity)
	}
	for axis, v := range c.MinLeafExtent {
		if v != v || v < 0 {
			return errors.Errorf("min_leaf_extent[%d] must be a non-negative number, got %v", axis, v)
		}
	}
	b := c.Bound
	if (b.Min == nil) != (b.Max == nil) {
		return errors.New("bound needs both min and max, or neither")
	}
	if b.Min != nil {
		for axis := 0; axis < 3; axis++ {
			lo, hi := b.Min[axis], b.Max[axis]
			if lo != lo || hi != hi {
				return errors.Errorf("bound axis %d contains NaN", axis)
			}
			if lo >= hi {
				return errors.Errorf("bound min %v must be below max %v on every axis", *b.Min, *b.Max)
			}
		}
		return nil
	}
	if b.Size != b.Size || b.Size == 0 {
		return errors.Errorf("bound size must be a non-zero number, got %v", b.Size)
	}
	for axis, v := range b.Offset {
		if v != v {
			return errors.Errorf("bound offset[%d] is NaN", axis)
		}
	}
	return nil
}

// BoundBox returns the configured root bound. The config must be valid.
func (c Config) BoundBox() geom.Box {
	if c.Bound.Min != nil {
		return geom.NewBox(mgl32.Vec3(*c.Bound.Min), mgl32.Vec3(*c.Bound.Max))
	}
	return geom.BoxFromSizeOffset(c.Bound.Size, mgl32.Vec3(c.Bound.Offset))
}

// NewFromConfig validates cfg and creates an empty tree from it.
func NewFromConfig[H constraints.Ordered](cfg Config) (*Octree[H], error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid octree config")
	}
	return New[H](cfg.Capacity, mgl32.Vec3(cfg.MinLeafExtent), cfg.BoundBox()), nil
}

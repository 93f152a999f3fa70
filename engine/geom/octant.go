package geom

import "fmt"

// Octant is one of the eight sub-boxes of a box split at its center.
// Bit 2 is the x sign, bit 1 the y sign and bit 0 the z sign, a set bit
// meaning the positive side. The value is also the index into a node's
// children array.
type Octant uint8

const (
	octantX Octant = 4
	octantY Octant = 2
	octantZ Octant = 1

	// OctantCount is the number of octants of a box.
	OctantCount = 8
)

func NewOctant(x, y, z bool) Octant {
	var o Octant
	if x {
		o |= octantX
	}
	if y {
		o |= octantY
	}
	if z {
		o |= octantZ
	}
	return o
}

func (o Octant) X() bool { return o&octantX != 0 }
func (o Octant) Y() bool { return o&octantY != 0 }
func (o Octant) Z() bool { return o&octantZ != 0 }

// Positive reports the sign of the given axis (0, 1 or 2).
func (o Octant) Positive(axis int) bool {
	return o&axisBit(axis) != 0
}

// WithAxis returns o with the sign of axis set to positive.
func (o Octant) WithAxis(axis int, positive bool) Octant {
	if positive {
		return o | axisBit(axis)
	}
	return o &^ axisBit(axis)
}

// Index returns the children array index of this octant.
func (o Octant) Index() int {
	return int(o)
}

func (o Octant) String() string {
	sign := func(b bool) byte {
		if b {
			return '+'
		}
		return '-'
	}
	return fmt.Sprintf("%c%c%c", sign(o.X()), sign(o.Y()), sign(o.Z()))
}

func axisBit(axis int) Octant {
	return octantX >> uint(axis)
}

// Side is the position of a coordinate relative to a splitting plane.
type Side int8

const (
	SideLess    Side = -1
	SideOn      Side = 0
	SideGreater Side = 1
)

func sideOf(value, plane float32) Side {
	if abs(value-plane) <= Epsilon {
		return SideOn
	}
	if value < plane {
		return SideLess
	}
	return SideGreater
}

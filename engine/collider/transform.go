package collider

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform places a collider shape in the world.
type Transform struct {
	translation mgl32.Vec3
	rotation    mgl32.Quat
	scale       mgl32.Vec3
}

func NewDefaultTransform() Transform {
	return Transform{
		translation: mgl32.Vec3{0, 0, 0},
		rotation:    mgl32.QuatIdent(),
		scale:       mgl32.Vec3{1, 1, 1},
	}
}

func NewTransform(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) Transform {
	return Transform{
		translation: position,
		rotation:    rotation,
		scale:       scale,
	}
}

// NewTranslation returns an unrotated, unscaled transform at position.
func NewTranslation(position mgl32.Vec3) Transform {
	t := NewDefaultTransform()
	t.translation = position
	return t
}

func (t Transform) GetPosition() mgl32.Vec3 { return t.translation }
func (t Transform) GetRotation() mgl32.Quat { return t.rotation }
func (t Transform) GetScale() mgl32.Vec3    { return t.scale }

func (t *Transform) SetRotation(rotation mgl32.Quat) {
	t.rotation = rotation
}

func (t *Transform) SetScale(scale mgl32.Vec3) {
	t.scale = scale
}

func (t *Transform) Translate(delta mgl32.Vec3) {
	t.translation = t.translation.Add(delta)
}

// GetTransformMatrix returns T * R * S.
func (t Transform) GetTransformMatrix() mgl32.Mat4 {
	translation := mgl32.Translate3D(t.translation.X(), t.translation.Y(), t.translation.Z())
	rotation := t.rotation.Mat4()
	scale := mgl32.Scale3D(t.scale.X(), t.scale.Y(), t.scale.Z())
	return translation.Mul4(rotation).Mul4(scale)
}

// TransformPoint maps a point from local into world space.
func (t Transform) TransformPoint(p mgl32.Vec3) mgl32.Vec3 {
	scaled := mgl32.Vec3{p.X() * t.scale.X(), p.Y() * t.scale.Y(), p.Z() * t.scale.Z()}
	return t.rotation.Rotate(scaled).Add(t.translation)
}

// MaxScale returns the largest absolute scale factor.
func (t Transform) MaxScale() float32 {
	m := float32(0)
	for _, s := range t.scale {
		if s < 0 {
			s = -s
		}
		if s > m {
			m = s
		}
	}
	return m
}

func (t Transform) String() string {
	return fmt.Sprintf("pos %v rot %v scale %v", t.translation, t.rotation, t.scale)
}

package gpu

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"polybatch/math"
)

// ShiftScaleMethod selects how vertex coordinates are recentred before
// upload to keep float32 precision for data far from the origin.
type ShiftScaleMethod int

const (
	ShiftScaleDisabled ShiftScaleMethod = iota
	// ShiftScaleAuto recentres on the data bounds when they are far from
	// the origin relative to their size.
	ShiftScaleAuto
	ShiftScaleAlwaysAuto
	// ShiftScaleFocalPoint and ShiftScaleNearPlane follow the camera and
	// are refreshed every frame.
	ShiftScaleFocalPoint
	ShiftScaleNearPlane
)

// CameraDriven reports whether the method depends on the camera.
func (m ShiftScaleMethod) CameraDriven() bool {
	return m == ShiftScaleFocalPoint || m == ShiftScaleNearPlane
}

// ShiftScale maps model coordinates v to (v - Shift) * Scale.
type ShiftScale struct {
	Shift mgl32.Vec3
	Scale mgl32.Vec3
}

func IdentityShiftScale() ShiftScale {
	return ShiftScale{Scale: mgl32.Vec3{1, 1, 1}}
}

// AutoShiftScale centres on bounds and scales each axis to unit extent.
// Unless always is set, the identity is returned when the data is already
// well conditioned.
func AutoShiftScale(bounds math.AABB, always bool) ShiftScale {
	if !bounds.IsValid() {
		return IdentityShiftScale()
	}
	c := bounds.Center()
	size := bounds.Size()
	ss := ShiftScale{Shift: mgl32.Vec3{c.X, c.Y, c.Z}}
	needed := always
	for i := 0; i < 3; i++ {
		extent := size.Component(i)
		ss.Scale[i] = 1
		if extent > 0 {
			ss.Scale[i] = 1 / extent
		}
		if math32.Abs(ss.Shift[i])*ss.Scale[i] > 1e3 || math32.Abs(math32.Log10(ss.Scale[i])) > 3 {
			needed = true
		}
	}
	if !needed {
		return IdentityShiftScale()
	}
	return ss
}

// CameraShiftScale shifts to the focal point or to the centre of the near
// plane.
func CameraShiftScale(method ShiftScaleMethod, position, focal mgl32.Vec3, near float32) ShiftScale {
	ss := IdentityShiftScale()
	switch method {
	case ShiftScaleFocalPoint:
		ss.Shift = focal
	case ShiftScaleNearPlane:
		dir := focal.Sub(position)
		if dir.Len() > 0 {
			dir = dir.Normalize()
		}
		ss.Shift = position.Add(dir.Mul(near))
	}
	return ss
}

func (s ShiftScale) IsIdentity() bool {
	return s.Shift == (mgl32.Vec3{}) && s.Scale == (mgl32.Vec3{1, 1, 1})
}

// Apply transforms xyz triples from src, appending to dst.
func (s ShiftScale) Apply(dst, src []float32) []float32 {
	if dst == nil {
		dst = make([]float32, 0, len(src))
	}
	for i := 0; i+2 < len(src); i += 3 {
		dst = append(dst,
			(src[i]-s.Shift[0])*s.Scale[0],
			(src[i+1]-s.Shift[1])*s.Scale[1],
			(src[i+2]-s.Shift[2])*s.Scale[2])
	}
	return dst
}

// InverseTransform maps shifted coordinates back to model coordinates.
func (s ShiftScale) InverseTransform() mgl32.Mat4 {
	return mgl32.Translate3D(s.Shift[0], s.Shift[1], s.Shift[2]).
		Mul4(mgl32.Scale3D(1/s.Scale[0], 1/s.Scale[1], 1/s.Scale[2]))
}

// Near reports whether other is within tolerance of s, in which case the
// uploaded coordinates are still good enough and need no rebuild.
func (s ShiftScale) Near(other ShiftScale, tolerance float32) bool {
	return s.Shift.Sub(other.Shift).Len() <= tolerance && s.Scale.ApproxEqual(other.Scale)
}

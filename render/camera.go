package render

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"polybatch/math"
)

// Camera is a perspective camera looking at a focal point.
type Camera struct {
	Position   mgl32.Vec3
	FocalPoint mgl32.Vec3
	ViewUp     mgl32.Vec3
	// FOV is the vertical field of view in degrees.
	FOV         float32
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32

	// Cached matrices
	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4
	viewProjMatrix   mgl32.Mat4
	dirty            bool
}

func NewCamera(fov, aspectRatio, nearPlane, farPlane float32) *Camera {
	return &Camera{
		Position:    mgl32.Vec3{0, 0, 1},
		ViewUp:      mgl32.Vec3{0, 1, 0},
		FOV:         fov,
		AspectRatio: aspectRatio,
		NearPlane:   nearPlane,
		FarPlane:    farPlane,
		dirty:       true,
	}
}

func (c *Camera) UpdateAspectRatio(width, height float32) {
	if height > 0 {
		c.AspectRatio = width / height
		c.dirty = true
	}
}

func (c *Camera) SetPosition(pos mgl32.Vec3) {
	c.Position = pos
	c.dirty = true
}

func (c *Camera) SetFocalPoint(fp mgl32.Vec3) {
	c.FocalPoint = fp
	c.dirty = true
}

func (c *Camera) SetClippingRange(near, far float32) {
	c.NearPlane, c.FarPlane = near, far
	c.dirty = true
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.viewMatrix
}

func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.projectionMatrix
}

func (c *Camera) GetViewProjectionMatrix() mgl32.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.viewProjMatrix
}

func (c *Camera) GetForward() mgl32.Vec3 {
	d := c.FocalPoint.Sub(c.Position)
	if d.Len() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

func (c *Camera) Distance() float32 {
	return c.FocalPoint.Sub(c.Position).Len()
}

func (c *Camera) updateMatrices() {
	c.viewMatrix = mgl32.LookAtV(c.Position, c.FocalPoint, c.ViewUp)
	c.projectionMatrix = mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
	c.viewProjMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
	c.dirty = false
}

// ResetCamera moves the camera back along its view direction until the
// sphere around bounds fills the view, and fits the clipping range to it.
func (c *Camera) ResetCamera(bounds math.AABB) {
	if !bounds.IsValid() {
		return
	}
	center := bounds.Center()
	radius := bounds.Diagonal() / 2
	if radius == 0 {
		radius = 0.5
	}
	distance := radius / math32.Sin(mgl32.DegToRad(c.FOV)/2)

	forward := c.GetForward()
	c.FocalPoint = mgl32.Vec3{center.X, center.Y, center.Z}
	c.Position = c.FocalPoint.Sub(forward.Mul(distance))
	c.NearPlane = max(distance-radius, 0.001*distance)
	c.FarPlane = distance + radius
	c.dirty = true
}

// Orbit rotates the camera around the focal point. Yaw turns about the
// world up axis; pitch is clamped short of the poles.
func (c *Camera) Orbit(deltaYaw, deltaPitch float32) {
	offset := c.Position.Sub(c.FocalPoint)
	distance := offset.Len()
	if distance == 0 {
		return
	}
	yaw := math32.Atan2(offset.X(), offset.Z()) + deltaYaw
	pitch := math32.Asin(offset.Y()/distance) + deltaPitch
	pitch = min(max(pitch, -1.5), 1.5)

	cosPitch := math32.Cos(pitch)
	c.Position = c.FocalPoint.Add(mgl32.Vec3{
		distance * cosPitch * math32.Sin(yaw),
		distance * math32.Sin(pitch),
		distance * cosPitch * math32.Cos(yaw),
	})
	c.dirty = true
}

// Zoom moves the camera toward the focal point by factor; factors above 1
// move closer.
func (c *Camera) Zoom(factor float32) {
	if factor <= 0 {
		return
	}
	offset := c.Position.Sub(c.FocalPoint).Mul(1 / factor)
	if offset.Len() < 1e-4 {
		return
	}
	c.Position = c.FocalPoint.Add(offset)
	c.dirty = true
}

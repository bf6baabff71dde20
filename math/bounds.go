package math

import "github.com/chewxy/math32"

// AABB is an axis-aligned bounding box. The zero value is not a valid box;
// use EmptyAABB and Extend, or NewAABB.
type AABB struct {
	Min, Max Vec3
}

// EmptyAABB returns an inverted box that any Extend call will initialise.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// NewAABB returns the tight box around pts. An empty slice yields EmptyAABB.
func NewAABB(pts []Vec3) AABB {
	box := EmptyAABB()
	for _, p := range pts {
		box = box.Extend(p)
	}
	return box
}

// IsValid reports whether the box contains at least one point.
func (box AABB) IsValid() bool {
	return box.Min.X <= box.Max.X && box.Min.Y <= box.Max.Y && box.Min.Z <= box.Max.Z
}

// Extend returns the box grown to include p.
func (box AABB) Extend(p Vec3) AABB {
	box.Min.X = math32.Min(box.Min.X, p.X)
	box.Min.Y = math32.Min(box.Min.Y, p.Y)
	box.Min.Z = math32.Min(box.Min.Z, p.Z)
	box.Max.X = math32.Max(box.Max.X, p.X)
	box.Max.Y = math32.Max(box.Max.Y, p.Y)
	box.Max.Z = math32.Max(box.Max.Z, p.Z)
	return box
}

// Union returns the smallest box containing both boxes. Invalid boxes are ignored.
func (box AABB) Union(other AABB) AABB {
	if !other.IsValid() {
		return box
	}
	if !box.IsValid() {
		return other
	}
	return box.Extend(other.Min).Extend(other.Max)
}

// Center returns the midpoint of the box.
func (box AABB) Center() Vec3 {
	return box.Min.Add(box.Max).Mul(0.5)
}

// Size returns the per-axis extent of the box.
func (box AABB) Size() Vec3 {
	return box.Max.Sub(box.Min)
}

// Diagonal returns the length of the box diagonal, 0 for an invalid box.
func (box AABB) Diagonal() float32 {
	if !box.IsValid() {
		return 0
	}
	return box.Size().Length()
}

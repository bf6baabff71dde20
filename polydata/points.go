package polydata

import (
	"polybatch/base"
	"polybatch/math"
)

// Points is the coordinate array of a mesh.
type Points struct {
	coords []math.Vec3
	mtime  base.TimeStamp
}

func NewPoints(coords ...math.Vec3) *Points {
	p := &Points{coords: coords}
	p.mtime.Modified()
	return p
}

// InsertNextPoint appends p and returns its id.
func (p *Points) InsertNextPoint(v math.Vec3) int {
	p.coords = append(p.coords, v)
	p.mtime.Modified()
	return len(p.coords) - 1
}

func (p *Points) SetPoint(i int, v math.Vec3) {
	p.coords[i] = v
	p.mtime.Modified()
}

func (p *Points) Len() int {
	if p == nil {
		return 0
	}
	return len(p.coords)
}

func (p *Points) Point(i int) math.Vec3 {
	return p.coords[i]
}

// Coords returns the backing slice; callers must not modify it.
func (p *Points) Coords() []math.Vec3 {
	return p.coords
}

// Data flattens the coordinates to xyz triples.
func (p *Points) Data() []float32 {
	out := make([]float32, 0, 3*len(p.coords))
	for _, c := range p.coords {
		out = append(out, c.X, c.Y, c.Z)
	}
	return out
}

func (p *Points) Bounds() math.AABB {
	if p == nil {
		return math.EmptyAABB()
	}
	return math.NewAABB(p.coords)
}

func (p *Points) MTime() base.TimeStamp {
	if p == nil {
		return base.TimeStamp{}
	}
	return p.mtime
}

func (p *Points) Modified() {
	p.mtime.Modified()
}

// DegenerateTriangle reports whether any two corners of (a, b, c) share
// the same coordinates. Fan triangulation drops such triangles.
func (p *Points) DegenerateTriangle(a, b, c int) bool {
	pa, pb, pc := p.coords[a], p.coords[b], p.coords[c]
	return pa == pb || pa == pc || pb == pc
}

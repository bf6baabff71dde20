package polydata

import (
	"errors"
	"sync/atomic"

	"polybatch/base"
)

// ErrNoGeometry is returned by readers that found no usable cells.
var ErrNoGeometry = errors.New("polydata: no geometry")

// Handle identifies a mesh for its whole lifetime. Handles are never reused,
// so a destroyed mesh cannot alias a newer one.
type Handle uint64

var nextHandle atomic.Uint64

// Cell collection indices, in the order cell ids are numbered.
const (
	VertsCells = iota
	LinesCells
	PolysCells
	StripsCells
)

// Mesh is a polygonal dataset: points plus four cell collections. Cell ids
// run over verts, then lines, then polys, then strips.
type Mesh struct {
	Name string

	Points *Points
	Verts  *CellArray
	Lines  *CellArray
	Polys  *CellArray
	Strips *CellArray

	PointData *Attributes
	CellData  *Attributes
	FieldData *Attributes

	handle Handle
	mtime  base.TimeStamp
}

func NewMesh(name string) *Mesh {
	m := &Mesh{
		Name:      name,
		Points:    NewPoints(),
		Verts:     NewCellArray(),
		Lines:     NewCellArray(),
		Polys:     NewCellArray(),
		Strips:    NewCellArray(),
		PointData: NewAttributes(),
		CellData:  NewAttributes(),
		FieldData: NewAttributes(),
		handle:    Handle(nextHandle.Add(1)),
	}
	m.mtime.Modified()
	return m
}

func (m *Mesh) Handle() Handle {
	return m.handle
}

// Cells returns verts, lines, polys and strips in cell-id order.
func (m *Mesh) Cells() [4]*CellArray {
	return [4]*CellArray{m.Verts, m.Lines, m.Polys, m.Strips}
}

func (m *Mesh) NumberOfPoints() int {
	return m.Points.Len()
}

func (m *Mesh) NumberOfCells() int {
	n := 0
	for _, ca := range m.Cells() {
		n += ca.NumberOfCells()
	}
	return n
}

func (m *Mesh) Modified() {
	m.mtime.Modified()
}

// MTime is the latest modification of the mesh or anything it holds.
func (m *Mesh) MTime() base.TimeStamp {
	latest := m.mtime
	stamps := []base.TimeStamp{
		m.Points.MTime(),
		m.PointData.MTime(), m.CellData.MTime(), m.FieldData.MTime(),
	}
	for _, ca := range m.Cells() {
		stamps = append(stamps, ca.MTime())
	}
	for _, ts := range stamps {
		if latest.Before(ts) {
			latest = ts
		}
	}
	return latest
}

// Package cellmap tracks how mesh cells expand into GPU primitives and
// inverts primitive ids back to cell ids.
//
// A mesh has four cell collections: verts, lines, polys and strips. Drawing
// them produces four blocks of GPU primitives laid out one after another in a
// single id space that starts at a settable offset. Map records the size and
// start of each block and, after a full build, the originating cell of every
// primitive.
package cellmap

import (
	"polybatch/polydata"
)

// Representation controls what a cell is drawn as.
type Representation int

const (
	Points Representation = iota
	Wireframe
	Surface
)

func (r Representation) String() string {
	switch r {
	case Points:
		return "points"
	case Wireframe:
		return "wireframe"
	default:
		return "surface"
	}
}

// fingerprint captures every input a build depends on.
type fingerprint struct {
	verts, lines, polys, strips uint64
	rep                         Representation
	points                      uint64
}

func fingerprintOf(cells [4]*polydata.CellArray, rep Representation, points *polydata.Points) fingerprint {
	return fingerprint{
		verts:  cells[0].MTime().Time(),
		lines:  cells[1].MTime().Time(),
		polys:  cells[2].MTime().Time(),
		strips: cells[3].MTime().Time(),
		rep:    rep,
		points: points.MTime().Time(),
	}
}

// Map is the cell to primitive correspondence of one mesh.
type Map struct {
	cellCellMap      []int
	cellMapSizes     [4]int
	primitiveOffsets [4]int
	startOffset      int
	buildRep         Representation

	// full is set once cellCellMap holds a complete build for fp.
	full  bool
	built bool
	fp    fingerprint

	builds int
}

func New() *Map {
	return &Map{buildRep: Surface}
}

// BuildPrimitiveOffsetsIfNeeded computes block sizes and offsets from cell
// and connectivity counts only. Nothing is recomputed while the inputs are
// unchanged; a full map built from the same inputs is kept.
func (m *Map) BuildPrimitiveOffsetsIfNeeded(cells [4]*polydata.CellArray, rep Representation, points *polydata.Points) {
	fp := fingerprintOf(cells, rep, points)
	if m.built && fp == m.fp {
		return
	}
	m.cellCellMap = m.cellCellMap[:0]
	m.full = false
	m.buildRep = rep
	m.builds++

	m.cellMapSizes[0] = cells[0].NumberOfConnectivityIDs()
	if rep == Points {
		for j := 1; j < 4; j++ {
			m.cellMapSizes[j] = cells[j].NumberOfConnectivityIDs()
		}
	} else {
		m.cellMapSizes[1] = cells[1].NumberOfConnectivityIDs() - cells[1].NumberOfCells()
		if rep == Wireframe {
			m.cellMapSizes[2] = cells[2].NumberOfConnectivityIDs()
			// strips shorter than two points contribute nothing
			m.cellMapSizes[3] = max(2*cells[3].NumberOfConnectivityIDs()-3*cells[3].NumberOfCells(), 0)
		} else {
			m.cellMapSizes[2] = cells[2].NumberOfConnectivityIDs() - 2*cells[2].NumberOfCells()
			m.cellMapSizes[3] = cells[3].NumberOfConnectivityIDs() - 2*cells[3].NumberOfCells()
		}
	}
	m.computeOffsets()
	m.fp = fp
	m.built = true
}

// Update builds the full primitive to cell map unless one already exists
// for the same inputs. Surface polygons are fan triangulated and
// triangles with coincident corners are left out.
func (m *Map) Update(cells [4]*polydata.CellArray, rep Representation, points *polydata.Points) {
	fp := fingerprintOf(cells, rep, points)
	if m.full && fp == m.fp {
		return
	}
	m.cellCellMap = m.cellCellMap[:0]
	m.buildRep = rep
	m.builds++

	cellID := 0
	mark := 0
	// each cell of block pushes its id once per primitive
	expand := func(block int, ca *polydata.CellArray, perCell func(pts []int) int) {
		ca.Each(func(_ int, pts []int) {
			for n := perCell(pts); n > 0; n-- {
				m.cellCellMap = append(m.cellCellMap, cellID)
			}
			cellID++
		})
		m.cellMapSizes[block] = len(m.cellCellMap) - mark
		mark = len(m.cellCellMap)
	}
	perPoint := func(pts []int) int { return len(pts) }

	expand(0, cells[0], perPoint)
	if rep == Points {
		for j := 1; j < 4; j++ {
			expand(j, cells[j], perPoint)
		}
	} else {
		expand(1, cells[1], func(pts []int) int { return max(len(pts)-1, 0) })
		if rep == Wireframe {
			expand(2, cells[2], perPoint)
			expand(3, cells[3], func(pts []int) int {
				if len(pts) < 2 {
					return 0
				}
				return 2*len(pts) - 3
			})
		} else {
			expand(2, cells[2], func(pts []int) int {
				n := 0
				for i := 2; i < len(pts); i++ {
					if !points.DegenerateTriangle(pts[0], pts[i-1], pts[i]) {
						n++
					}
				}
				return n
			})
			expand(3, cells[3], func(pts []int) int { return max(len(pts)-2, 0) })
		}
	}
	m.computeOffsets()
	m.fp = fp
	m.full = true
	m.built = true
}

func (m *Map) computeOffsets() {
	m.primitiveOffsets[0] = m.startOffset
	for i := 1; i < 4; i++ {
		m.primitiveOffsets[i] = m.primitiveOffsets[i-1] + m.cellMapSizes[i-1]
	}
}

// SetStartOffset moves the whole id range so that it begins at start.
func (m *Map) SetStartOffset(start int) {
	if start == m.startOffset {
		return
	}
	delta := start - m.startOffset
	for i := range m.primitiveOffsets {
		m.primitiveOffsets[i] += delta
	}
	m.startOffset = start
}

func (m *Map) StartOffset() int {
	return m.startOffset
}

// FinalOffset returns one past the last primitive id of this mesh.
func (m *Map) FinalOffset() int {
	return m.primitiveOffsets[3] + m.cellMapSizes[3]
}

func (m *Map) PrimitiveOffsets() [4]int {
	return m.primitiveOffsets
}

func (m *Map) CellMapSizes() [4]int {
	return m.cellMapSizes
}

// Size is the number of entries in the full map, 0 before Update.
func (m *Map) Size() int {
	return len(m.cellCellMap)
}

// Value returns the cell id of the i-th primitive, counted from the start
// of the verts block.
func (m *Map) Value(i int) int {
	return m.cellCellMap[i]
}

func (m *Map) BuildRepresentation() Representation {
	return m.buildRep
}

// ConvertPrimitiveIDToCellID returns the cell that produced primitive id.
// With pointPicking the id counts rendered vertices, so it is first divided
// by the number of vertices per primitive. An id outside the map yields 0.
func (m *Map) ConvertPrimitiveIDToCellID(pointPicking bool, id int) int {
	local := id - m.primitiveOffsets[0]
	if local < 0 {
		return 0
	}
	base := 0
	for block := 0; block < 4; block++ {
		local = id - m.primitiveOffsets[block]
		if pointPicking && block > 0 && m.buildRep != Points {
			local /= m.verticesPerPrimitive(block)
		}
		if local < m.cellMapSizes[block] {
			if base+local >= len(m.cellCellMap) {
				return 0
			}
			return m.cellCellMap[base+local]
		}
		base += m.cellMapSizes[block]
	}
	return 0
}

func (m *Map) verticesPerPrimitive(block int) int {
	if block == 1 || m.buildRep == Wireframe {
		return 2
	}
	return 3
}

package cellmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polybatch/math"
	"polybatch/polydata"
)

// mixedMesh has two vertex cells, a polyline, a quad, a triangle and a strip.
func mixedMesh() *polydata.Mesh {
	m := polydata.NewMesh("mixed")
	for i := 0; i < 8; i++ {
		m.Points.InsertNextPoint(math.NewVec3(float32(i), float32(i*i), 0))
	}
	m.Verts.InsertNextCell(0)
	m.Verts.InsertNextCell(1, 2)
	m.Lines.InsertNextCell(0, 1, 2, 3)
	m.Polys.InsertNextCell(0, 1, 2, 3)
	m.Polys.InsertNextCell(4, 5, 6)
	m.Strips.InsertNextCell(2, 3, 4, 5, 6)
	return m
}

func assertOffsetChain(t *testing.T, cm *Map) {
	t.Helper()
	off := cm.PrimitiveOffsets()
	sizes := cm.CellMapSizes()
	assert.Equal(t, cm.StartOffset(), off[0])
	for i := 0; i < 3; i++ {
		assert.Equal(t, off[i]+sizes[i], off[i+1], "block %d", i)
	}
	assert.Equal(t, off[3]+sizes[3], cm.FinalOffset())
}

func TestOffsetsOnlySizes(t *testing.T) {
	m := mixedMesh()
	tests := []struct {
		rep   Representation
		sizes [4]int
	}{
		{Points, [4]int{3, 4, 7, 5}},
		{Wireframe, [4]int{3, 3, 7, 7}},
		{Surface, [4]int{3, 3, 3, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.rep.String(), func(t *testing.T) {
			cm := New()
			cm.BuildPrimitiveOffsetsIfNeeded(m.Cells(), tt.rep, m.Points)
			assert.Equal(t, tt.sizes, cm.CellMapSizes())
			assert.Zero(t, cm.Size(), "offsets-only build has no per-primitive map")
			assertOffsetChain(t, cm)
		})
	}
}

func TestFullBuildMatchesOffsetsOnly(t *testing.T) {
	m := mixedMesh()
	for _, rep := range []Representation{Points, Wireframe, Surface} {
		t.Run(rep.String(), func(t *testing.T) {
			cheap := New()
			cheap.BuildPrimitiveOffsetsIfNeeded(m.Cells(), rep, m.Points)

			full := New()
			full.Update(m.Cells(), rep, m.Points)
			assert.Equal(t, cheap.CellMapSizes(), full.CellMapSizes())
			assert.Equal(t, cheap.PrimitiveOffsets(), full.PrimitiveOffsets())

			sizes := full.CellMapSizes()
			assert.Equal(t, sizes[0]+sizes[1]+sizes[2]+sizes[3], full.Size())
			assert.Equal(t, rep, full.BuildRepresentation())
		})
	}
}

func TestFullBuildCellIDs(t *testing.T) {
	m := mixedMesh()
	cm := New()
	cm.Update(m.Cells(), Surface, m.Points)

	// verts: 0 | 1 1, line: 2 2 2, polys: 3 3 | 4, strip: 5 5 5
	want := []int{0, 1, 1, 2, 2, 2, 3, 3, 4, 5, 5, 5}
	got := make([]int, cm.Size())
	for i := range got {
		got[i] = cm.Value(i)
	}
	assert.Equal(t, want, got)

	cm.Update(m.Cells(), Wireframe, m.Points)
	// polys: 3 3 3 3 | 4 4 4, strip: 1 + 2*3 entries
	assert.Equal(t, [4]int{3, 3, 7, 7}, cm.CellMapSizes())
	assert.Equal(t, 5, cm.Value(cm.Size()-1))
}

func TestDegenerateTrianglesDropped(t *testing.T) {
	m := polydata.NewMesh("degenerate")
	m.Points.InsertNextPoint(math.NewVec3(0, 0, 0))
	m.Points.InsertNextPoint(math.NewVec3(1, 0, 0))
	m.Points.InsertNextPoint(math.NewVec3(1, 0, 0)) // same coordinates as point 1
	m.Points.InsertNextPoint(math.NewVec3(0, 1, 0))
	m.Polys.InsertNextCell(0, 1, 2, 3)

	cheap := New()
	cheap.BuildPrimitiveOffsetsIfNeeded(m.Cells(), Surface, m.Points)
	assert.Equal(t, 2, cheap.CellMapSizes()[2])

	full := New()
	full.Update(m.Cells(), Surface, m.Points)
	assert.Equal(t, 1, full.CellMapSizes()[2], "(0,1,2) is dropped")
	assert.Equal(t, 1, full.Size())

	// wireframe does not triangulate, nothing is dropped
	full.Update(m.Cells(), Wireframe, m.Points)
	assert.Equal(t, 4, full.CellMapSizes()[2])
}

func TestConvertRoundTrip(t *testing.T) {
	m := polydata.CreateSphere(1, 8, 6)
	numCells := m.NumberOfCells()

	cm := New()
	cm.SetStartOffset(100)
	cm.Update(m.Cells(), Wireframe, m.Points)
	assertOffsetChain(t, cm)

	for p := cm.PrimitiveOffsets()[0]; p < cm.FinalOffset(); p++ {
		cell := cm.ConvertPrimitiveIDToCellID(false, p)
		assert.GreaterOrEqual(t, cell, 0)
		assert.Less(t, cell, numCells)
	}
	// every quad has four edges, in cell order
	assert.Equal(t, 0, cm.ConvertPrimitiveIDToCellID(false, 103))
	assert.Equal(t, 1, cm.ConvertPrimitiveIDToCellID(false, 104))
}

func TestConvertMissReturnsZero(t *testing.T) {
	m := mixedMesh()
	cm := New()
	cm.SetStartOffset(10)
	cm.Update(m.Cells(), Surface, m.Points)

	assert.Equal(t, 0, cm.ConvertPrimitiveIDToCellID(false, 3))
	assert.Equal(t, 0, cm.ConvertPrimitiveIDToCellID(false, cm.FinalOffset()))
	assert.Equal(t, 5, cm.ConvertPrimitiveIDToCellID(false, cm.FinalOffset()-1))
}

func TestPointPickingDivision(t *testing.T) {
	m := polydata.NewMesh("tris")
	for i := 0; i < 5; i++ {
		m.Points.InsertNextPoint(math.NewVec3(float32(i), float32(i%2), 0))
	}
	m.Polys.InsertNextCell(0, 1, 2)
	m.Polys.InsertNextCell(1, 2, 3)
	m.Polys.InsertNextCell(2, 3, 4)

	cm := New()
	cm.Update(m.Cells(), Surface, m.Points)
	for tri := 0; tri < 3; tri++ {
		for corner := 0; corner < 3; corner++ {
			assert.Equal(t, tri, cm.ConvertPrimitiveIDToCellID(true, 3*tri+corner))
		}
	}

	line := polydata.CreatePolyline(math.Vec3Zero, math.Vec3One, math.Vec3Up)
	lm := New()
	lm.Update(line.Cells(), Surface, line.Points)
	assert.Equal(t, [4]int{0, 2, 0, 0}, lm.CellMapSizes())
	assert.Equal(t, 0, lm.ConvertPrimitiveIDToCellID(true, 3))

	// built with points there is no division
	pm := New()
	pm.Update(m.Cells(), Points, m.Points)
	assert.Equal(t, 1, pm.ConvertPrimitiveIDToCellID(true, 3))
	assert.Equal(t, 2, pm.ConvertPrimitiveIDToCellID(true, 8))
}

func TestShortWireframeStrip(t *testing.T) {
	m := polydata.NewMesh("short")
	m.Points.InsertNextPoint(math.NewVec3(0, 0, 0))
	m.Strips.InsertNextCell(0)

	cheap, full := New(), New()
	cheap.SetStartOffset(10)
	cheap.BuildPrimitiveOffsetsIfNeeded(m.Cells(), Wireframe, m.Points)
	full.SetStartOffset(10)
	full.Update(m.Cells(), Wireframe, m.Points)

	assert.Equal(t, [4]int{}, cheap.CellMapSizes())
	assert.Equal(t, full.CellMapSizes(), cheap.CellMapSizes())
	assert.Equal(t, 10, cheap.FinalOffset(), "next mesh starts where this one did")
	assertOffsetChain(t, cheap)
}

func TestChaining(t *testing.T) {
	a := polydata.CreatePlane(1, 1, 2)
	b := mixedMesh()

	ma, mb := New(), New()
	ma.Update(a.Cells(), Surface, a.Points)
	mb.Update(b.Cells(), Surface, b.Points)
	before := mb.Value(mb.Size() - 1)

	mb.SetStartOffset(ma.FinalOffset())
	assert.Equal(t, ma.FinalOffset(), mb.PrimitiveOffsets()[0])
	assert.Greater(t, mb.FinalOffset(), mb.PrimitiveOffsets()[0])
	assertOffsetChain(t, mb)
	assert.Equal(t, before, mb.Value(mb.Size()-1), "shifting keeps the map")

	mb.SetStartOffset(0)
	assert.Equal(t, 0, mb.PrimitiveOffsets()[0])
	assertOffsetChain(t, mb)
}

func TestCacheStability(t *testing.T) {
	m := mixedMesh()
	cm := New()

	cm.BuildPrimitiveOffsetsIfNeeded(m.Cells(), Surface, m.Points)
	offsets := cm.PrimitiveOffsets()
	cm.BuildPrimitiveOffsetsIfNeeded(m.Cells(), Surface, m.Points)
	assert.Equal(t, 1, cm.builds)
	assert.Equal(t, offsets, cm.PrimitiveOffsets())

	// full build over the same inputs is reused by the cheap path
	cm.Update(m.Cells(), Surface, m.Points)
	require.Equal(t, 2, cm.builds)
	cm.Update(m.Cells(), Surface, m.Points)
	cm.BuildPrimitiveOffsetsIfNeeded(m.Cells(), Surface, m.Points)
	assert.Equal(t, 2, cm.builds)
	assert.NotZero(t, cm.Size())

	// a representation change discards the full map
	cm.BuildPrimitiveOffsetsIfNeeded(m.Cells(), Wireframe, m.Points)
	assert.Equal(t, 3, cm.builds)
	assert.Zero(t, cm.Size())

	// so does touching the points
	m.Points.Modified()
	cm.BuildPrimitiveOffsetsIfNeeded(m.Cells(), Wireframe, m.Points)
	assert.Equal(t, 4, cm.builds)
}

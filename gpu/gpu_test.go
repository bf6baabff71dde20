package gpu

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polybatch/cellmap"
	"polybatch/math"
	"polybatch/polydata"
)

func TestMode(t *testing.T) {
	assert.Equal(t, TopologyPoints, Mode(cellmap.Points, PrimitiveTris))
	assert.Equal(t, TopologyPoints, Mode(cellmap.Surface, PrimitiveVertices))
	assert.Equal(t, TopologyLines, Mode(cellmap.Wireframe, PrimitiveTriStrips))
	assert.Equal(t, TopologyLines, Mode(cellmap.Surface, PrimitiveLines))
	assert.Equal(t, TopologyTriangles, Mode(cellmap.Surface, PrimitiveTriStrips))

	assert.Equal(t, 2, PointPickingPrimitiveSize(PrimitivePoints))
	assert.Equal(t, 4, PointPickingPrimitiveSize(PrimitiveLines))
	assert.Equal(t, 6, PointPickingPrimitiveSize(PrimitiveTris))
}

func TestIndexAppenders(t *testing.T) {
	ca := polydata.NewCellArray()
	ca.InsertNextCell(0, 1, 2, 3)

	assert.Equal(t, []uint32{10, 11, 12, 13}, AppendPointIndices(nil, ca, 10))
	assert.Equal(t, []uint32{0, 1, 1, 2, 2, 3}, AppendLineIndices(nil, ca, 0))
	assert.Equal(t, []uint32{0, 1, 1, 2, 2, 3, 3, 0}, AppendTriangleLineIndices(nil, ca, 0))
	assert.Equal(t, []uint32{0, 1, 0, 2, 1, 2, 1, 3, 2, 3}, AppendStripIndices(nil, ca, 0, true))
	assert.Equal(t, []uint32{0, 1, 2, 2, 1, 3}, AppendStripIndices(nil, ca, 0, false))

	flags := polydata.NewByteArray("flags", 1, []uint8{1, 0, 1, 1})
	assert.Equal(t, []uint32{0, 1, 1, 1, 2, 3, 3, 0}, AppendEdgeFlagIndices(nil, ca, flags, 0))
}

func TestTriangleIndicesSkipDegenerate(t *testing.T) {
	pts := polydata.NewPoints(
		math.NewVec3(0, 0, 0),
		math.NewVec3(1, 0, 0),
		math.NewVec3(1, 0, 0),
		math.NewVec3(0, 1, 0),
	)
	ca := polydata.NewCellArray()
	ca.InsertNextCell(0, 1, 2, 3)

	assert.Equal(t, []uint32{5, 7, 8}, AppendTriangleIndices(nil, ca, pts, 5))
	// the kept triangle is the last of the fan, so it owns edges (1,2) and (2,0)
	assert.Equal(t, []float32{6}, AppendTriangleEdgeValues(nil, ca, pts, nil))
}

func TestTriangleEdgeValues(t *testing.T) {
	pts := polydata.NewPoints(
		math.NewVec3(0, 0, 0),
		math.NewVec3(1, 0, 0),
		math.NewVec3(1, 1, 0),
		math.NewVec3(0, 1, 0),
	)
	ca := polydata.NewCellArray()
	ca.InsertNextCell(0, 1, 2, 3)
	assert.Equal(t, []float32{3, 6}, AppendTriangleEdgeValues(nil, ca, pts, nil))

	flags := polydata.NewByteArray("flags", 1, []uint8{1, 0, 1, 1})
	assert.Equal(t, []float32{1, 6}, AppendTriangleEdgeValues(nil, ca, pts, flags))
}

func TestAppendVertexIndices(t *testing.T) {
	m := polydata.CreateCube(1)
	m.Lines.InsertNextCell(0, 7)
	got := AppendVertexIndices(nil, m.Cells(), m.NumberOfPoints(), 100)
	assert.Len(t, got, 8)
	assert.Equal(t, uint32(100), got[0])
}

// Index counts agree with the cell map for every representation.
func TestAppendCellIndicesMatchesCellMap(t *testing.T) {
	m := polydata.CreateSphere(1, 6, 4)
	m.Strips.InsertNextCell(0, 8, 9, 15, 16)
	m.Lines.InsertNextCell(1, 2, 3)

	perPrim := map[cellmap.Representation][4]int{
		cellmap.Points:    {1, 1, 1, 1},
		cellmap.Wireframe: {1, 2, 2, 2},
		cellmap.Surface:   {1, 2, 3, 3},
	}
	for rep, verts := range perPrim {
		t.Run(rep.String(), func(t *testing.T) {
			cm := cellmap.New()
			cm.Update(m.Cells(), rep, m.Points)
			sizes := cm.CellMapSizes()
			for p := PrimitivePoints; p <= PrimitiveTriStrips; p++ {
				got := AppendCellIndices(nil, p, rep, m, 0, nil)
				assert.Equal(t, sizes[p]*verts[p], len(got), "%v", p)
			}
		})
	}
}

func TestVertexBufferGroup(t *testing.T) {
	g := NewVertexBufferGroup()
	pts := polydata.NewPoints(math.Vec3Zero, math.Vec3One)

	_, ok := g.ArrayExists(AttrVertex, pts)
	assert.False(t, ok)
	g.AppendFloats(AttrVertex, pts, pts.Data(), 3, 0)
	off, ok := g.ArrayExists(AttrVertex, pts)
	require.True(t, ok)
	assert.Equal(t, 0, off)

	other := polydata.NewPoints(math.Vec3Up)
	g.AppendFloats(AttrVertex, other, other.Data(), 3, 2)
	g.AppendFloats(AttrNormal, nil, []float32{0, 0, 1}, 3, 2)
	g.AppendBytes(AttrColor, nil, []uint8{1, 2, 3, 4}, 4, 0)
	assert.Equal(t, 3, g.NumberOfTuples(AttrVertex))
	assert.Equal(t, 3, g.NumberOfTuples(AttrNormal), "normals start at vertex 2")

	dev := &recorder{}
	g.Build(dev, SharedGroup, IdentityShiftScale())
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 0, 0, 0, 1}, dev.floats[AttrNormal], "missing normals are zero padded")
	assert.Len(t, dev.bytes[AttrColor], 12)
	assert.Equal(t, []string{AttrVertex, AttrNormal, AttrColor}, g.Names())

	g.Clear()
	assert.Zero(t, g.NumberOfTuples(AttrVertex))
}

func TestShiftScale(t *testing.T) {
	far := math.NewAABB([]math.Vec3{{X: 1e6, Y: 1e6, Z: 1e6}, {X: 1e6 + 2, Y: 1e6 + 4, Z: 1e6 + 8}})
	ss := AutoShiftScale(far, false)
	require.False(t, ss.IsIdentity())
	assert.Equal(t, mgl32.Vec3{1e6 + 1, 1e6 + 2, 1e6 + 4}, ss.Shift)
	assert.Equal(t, mgl32.Vec3{0.5, 0.25, 0.125}, ss.Scale)

	got := ss.Apply(nil, []float32{1e6 + 2, 1e6 + 4, 1e6 + 8})
	assert.InDeltaSlice(t, []float32{0.5, 0.5, 0.5}, got, 1e-6)

	back := ss.InverseTransform().Mul4x1(mgl32.Vec4{0.5, 0.5, 0.5, 1})
	assert.InDelta(t, 1e6+2, back[0], 1)

	near := math.NewAABB([]math.Vec3{{X: -1, Y: -1, Z: -1}, {X: 1, Y: 1, Z: 1}})
	assert.True(t, AutoShiftScale(near, false).IsIdentity())
	assert.False(t, AutoShiftScale(near, true).IsIdentity())
	assert.True(t, AutoShiftScale(math.EmptyAABB(), true).IsIdentity())

	cam := CameraShiftScale(ShiftScaleNearPlane, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, 1)
	assert.Equal(t, mgl32.Vec3{0, 0, 9}, cam.Shift)
	assert.True(t, cam.Near(CameraShiftScale(ShiftScaleNearPlane, mgl32.Vec3{0, 0, 10.05}, mgl32.Vec3{}, 1), 0.1))
	assert.True(t, ShiftScaleFocalPoint.CameraDriven())
	assert.False(t, ShiftScaleAuto.CameraDriven())
}

// recorder captures vertex uploads.
type recorder struct {
	Device
	floats map[string][]float32
	bytes  map[string][]uint8
}

func (r *recorder) UploadVertexAttribute(_ BufferGroup, name string, data []float32, _ int) {
	if r.floats == nil {
		r.floats = make(map[string][]float32)
	}
	r.floats[name] = data
}

func (r *recorder) UploadVertexBytes(_ BufferGroup, name string, data []uint8, _ int) {
	if r.bytes == nil {
		r.bytes = make(map[string][]uint8)
	}
	r.bytes[name] = data
}

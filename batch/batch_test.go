package batch

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polybatch/base"
	"polybatch/cellmap"
	"polybatch/gpu"
	"polybatch/gpu/gputest"
	"polybatch/math"
	"polybatch/polydata"
	"polybatch/selection"
)

type testActor struct {
	app              Appearance
	mtime            base.TimeStamp
	forceOpaque      bool
	forceTranslucent bool
	translucentPass  bool
}

func newTestActor() *testActor {
	a := &testActor{app: Appearance{
		Representation: cellmap.Surface,
		Interpolation:  InterpolationGouraud,
		PointSize:      1,
		LineWidth:      1,
	}}
	a.mtime.Modified()
	return a
}

func (a *testActor) Appearance() Appearance { return a.app }
func (a *testActor) PropertyMTime() base.TimeStamp { return a.mtime }
func (a *testActor) TextureMTime() base.TimeStamp { return base.TimeStamp{} }
func (a *testActor) Matrix() mgl32.Mat4 { return mgl32.Ident4() }
func (a *testActor) ForceOpaque() bool { return a.forceOpaque }
func (a *testActor) ForceTranslucent() bool { return a.forceTranslucent }
func (a *testActor) IsRenderingTranslucentPolygonalGeometry() bool { return a.translucentPass }

type testRenderer struct {
	dev   *gputest.Device
	sel   selection.Selector
	abort bool
}

func (r *testRenderer) Device() gpu.Device { return r.dev }
func (r *testRenderer) Selector() selection.Selector {
	return r.sel
}
func (r *testRenderer) CheckAbort() bool { return r.abort }
func (r *testRenderer) View() View {
	return View{ViewProjection: mgl32.Ident4(), FocalPoint: mgl32.Vec3{0, 0, 0}, Position: mgl32.Vec3{0, 0, 5}, Near: 0.1}
}

func newBatch(t *testing.T, meshes ...*polydata.Mesh) *Mapper {
	t.Helper()
	m := NewMapper()
	for i, mesh := range meshes {
		m.AddOrUpdate(uint32(i+1), NewBatchElement(mesh))
	}
	require.Equal(t, len(meshes), m.Len())
	return m
}

func TestAddOrUpdateRefreshesFlatIndexOnly(t *testing.T) {
	mesh := polydata.CreatePlane(1, 1, 1)
	m := NewMapper()

	el := NewBatchElement(mesh)
	el.Opacity = 0.5
	m.AddOrUpdate(3, el)

	el.Opacity = 1
	el.Visibility = false
	m.UnmarkAll()
	m.AddOrUpdate(7, el)

	stored := m.Element(mesh)
	require.NotNil(t, stored)
	assert.Equal(t, uint32(7), stored.FlatIndex)
	assert.True(t, stored.Marked)
	assert.Equal(t, float32(0.5), stored.Opacity)
	assert.True(t, stored.Visibility)

	// attribute changes go through the stored element
	stored.Visibility = false
	assert.False(t, m.Element(mesh).Visibility)
	assert.Nil(t, m.Element(polydata.CreateCube(1)))
}

func TestPruneUnmarked(t *testing.T) {
	x := polydata.CreatePlane(1, 1, 1)
	y := polydata.CreateCube(1)
	m := newBatch(t, x, y)

	m.UnmarkAll()
	m.AddOrUpdate(1, NewBatchElement(x))
	before := m.MTime()
	m.PruneUnmarked()

	assert.Equal(t, []*polydata.Mesh{x}, m.RenderedMeshes())
	assert.True(t, before.Before(m.MTime()))

	// nothing to prune leaves the stamp alone
	stamp := m.MTime()
	m.PruneUnmarked()
	assert.Equal(t, stamp, m.MTime())

	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestBuildWindowsAreContiguous(t *testing.T) {
	plane := polydata.CreatePlane(1, 1, 1)
	cube := polydata.CreateCube(1)
	m := newBatch(t, plane, cube)
	dev := gputest.Full()
	r := &testRenderer{dev: dev}
	a := newTestActor()

	m.RenderPiece(r, a)

	els := m.Elements()
	require.Len(t, els, 2)
	assert.Equal(t, "indexed", m.Strategy().Name())

	assert.Equal(t, 0, els[0].StartIndex[gpu.PrimitiveTris])
	assert.Equal(t, 6, els[0].NextIndex[gpu.PrimitiveTris])
	assert.Equal(t, 6, els[1].StartIndex[gpu.PrimitiveTris])
	assert.Equal(t, 42, els[1].NextIndex[gpu.PrimitiveTris])
	assert.Len(t, dev.Indices[gpu.PrimitiveTris], 42)

	assert.Equal(t, 0, els[0].StartVertex)
	assert.Equal(t, 4, els[0].NextVertex)
	assert.Equal(t, 4, els[1].StartVertex)
	assert.Equal(t, 12, els[1].NextVertex)

	assert.Equal(t, els[0].CellMap.FinalOffset(), els[1].CellMap.StartOffset())
	assert.Equal(t, 2, els[1].CellMap.PrimitiveOffsets()[gpu.PrimitiveTris])

	draws := dev.DrawsFor(gpu.PrimitiveTris)
	require.Len(t, draws, 2)
	assert.True(t, draws[1].Indexed)
	assert.Equal(t, gpu.TopologyTriangles, draws[1].Mode)
	assert.Equal(t, 4, draws[1].Start)
	assert.Equal(t, 11, draws[1].End)
	assert.Equal(t, 6, draws[1].First)
	assert.Equal(t, 36, draws[1].Count)
	assert.Equal(t, int32(0), draws[0].Uniforms["PrimitiveIDOffset"])
	assert.Equal(t, int32(2), draws[1].Uniforms["PrimitiveIDOffset"])

	// every index of the second window points into its vertex range
	for _, idx := range dev.Indices[gpu.PrimitiveTris][6:] {
		assert.GreaterOrEqual(t, int(idx), 4)
		assert.Less(t, int(idx), 12)
	}
}

func TestCellNormalsTextureFollowsPrimitiveIDs(t *testing.T) {
	plane := polydata.CreatePlane(1, 1, 1)
	cube := polydata.CreateCube(1)
	m := newBatch(t, plane, cube)
	dev := gputest.Full()
	m.RenderPiece(&testRenderer{dev: dev}, newTestActor())

	els := m.Elements()
	tex, ok := dev.TextureBuffers[TextureCellNormals]
	require.True(t, ok)
	assert.Len(t, tex.Floats, 4*els[1].CellMap.FinalOffset())
	// the plane has point normals, its primitives are zero padded
	assert.Equal(t, make([]float32, 8), tex.Floats[:8])

	normals := cube.CellData.Normals()
	for i := 0; i < els[1].CellMap.Size(); i++ {
		want := normals.Tuple(els[1].CellMap.Value(i))
		at := 4 * (els[1].CellMap.StartOffset() + i)
		assert.Equal(t, want, tex.Floats[at:at+3])
	}
	assert.True(t, dev.DrawsFor(gpu.PrimitiveTris)[0].Program.Key.CellNormals)
}

func TestCellScalarsTexture(t *testing.T) {
	cube := polydata.CreateCube(1)
	colors := make([]uint8, 0, 24)
	for i := 0; i < 6; i++ {
		colors = append(colors, uint8(10*i), 0, 0, 255)
	}
	cube.CellData.SetScalars(polydata.NewByteArray("Colors", 4, colors))

	m := newBatch(t, cube)
	dev := gputest.Full()
	m.RenderPiece(&testRenderer{dev: dev}, newTestActor())

	el := m.Elements()[0]
	tex := dev.TextureBuffers[TextureCellColors]
	require.Len(t, tex.Bytes, 4*el.CellMap.FinalOffset())
	for i := 0; i < el.CellMap.Size(); i++ {
		assert.Equal(t, uint8(10*el.CellMap.Value(i)), tex.Bytes[4*i])
	}
	assert.Equal(t, int32(1), dev.Draws[0].Uniforms["cellScalarsUsed"])
}

func TestDrawPredicate(t *testing.T) {
	a := polydata.CreatePlane(1, 1, 1)
	b := polydata.CreatePlane(1, 1, 2)
	m := newBatch(t, a, b)
	m.Element(b).Visibility = false
	dev := gputest.Full()
	actor := newTestActor()
	m.RenderPiece(&testRenderer{dev: dev}, actor)

	ea := m.Element(a)
	draws := dev.DrawsFor(gpu.PrimitiveTris)
	require.Len(t, draws, 1)
	assert.Equal(t, ea.StartIndex[gpu.PrimitiveTris], draws[0].First)
	assert.Equal(t, ea.IndexCount(gpu.PrimitiveTris), draws[0].Count)
	assert.Len(t, dev.Draws, 1)

	t.Run("translucent pass", func(t *testing.T) {
		m.Element(b).Visibility = true
		m.Element(b).IsOpaque = false
		dev.Reset()
		actor.translucentPass = true
		m.Draw(&testRenderer{dev: dev}, actor)
		draws := dev.DrawsFor(gpu.PrimitiveTris)
		require.Len(t, draws, 1)
		assert.Equal(t, m.Element(b).StartIndex[gpu.PrimitiveTris], draws[0].First)

		// forcing translucency draws everything in the translucent pass
		dev.Reset()
		actor.forceTranslucent = true
		m.Draw(&testRenderer{dev: dev}, actor)
		assert.Len(t, dev.DrawsFor(gpu.PrimitiveTris), 2)
		actor.forceTranslucent = false
		actor.translucentPass = false

		// and nothing translucent in the opaque pass
		dev.Reset()
		m.Draw(&testRenderer{dev: dev}, actor)
		assert.Len(t, dev.DrawsFor(gpu.PrimitiveTris), 1)
		actor.forceOpaque = true
		dev.Reset()
		m.Draw(&testRenderer{dev: dev}, actor)
		assert.Len(t, dev.DrawsFor(gpu.PrimitiveTris), 2)
	})
}

func TestPickingDrawsPickableCellPrimitivesOnly(t *testing.T) {
	a := polydata.CreatePlane(1, 1, 1)
	b := polydata.CreatePlane(1, 1, 1)
	m := newBatch(t, a, b)
	m.Element(b).Pickability = false
	m.Element(a).IsOpaque = false
	dev := gputest.Full()
	actor := newTestActor()
	actor.app.VertexVisibility = true

	m.RenderPiece(&testRenderer{dev: dev}, actor)
	assert.NotEmpty(t, dev.DrawsFor(gpu.PrimitiveVertices))

	dev.Reset()
	sel := newFakeSelector(selection.CompositeIndexPass)
	m.RenderPiece(&testRenderer{dev: dev, sel: sel}, actor)
	assert.Empty(t, dev.DrawsFor(gpu.PrimitiveVertices))
	draws := dev.DrawsFor(gpu.PrimitiveTris)
	require.Len(t, draws, 1)
	assert.Equal(t, m.Element(a).StartIndex[gpu.PrimitiveTris], draws[0].First)
	assert.Equal(t, selection.EncodeID24(1), draws[0].Uniforms["mapperIndex"])
	assert.True(t, draws[0].Program.Key.Picking)
	assert.True(t, sel.maxCell > 0)
}

func TestPointPickingRendersPoints(t *testing.T) {
	plane := polydata.CreatePlane(1, 1, 1)
	m := newBatch(t, plane)
	dev := gputest.Full()
	sel := newFakeSelector(selection.PointIDLow24)
	sel.assoc = selection.AssociationPoints
	m.RenderPiece(&testRenderer{dev: dev, sel: sel}, newTestActor())

	el := m.Elements()[0]
	assert.Equal(t, cellmap.Points, el.CellMap.BuildRepresentation())
	draws := dev.DrawsFor(gpu.PrimitiveTris)
	require.Len(t, draws, 1)
	assert.Equal(t, gpu.TopologyPoints, draws[0].Mode)
	assert.Equal(t, 4, draws[0].Count)
	assert.Equal(t, float32(gpu.PointPickingPrimitiveSize(gpu.PrimitiveTris)), dev.PointSize)
	assert.Equal(t, 3, sel.maxPoint)
}

func TestEmptyMeshIsSkipped(t *testing.T) {
	empty := polydata.NewMesh("empty")
	plane := polydata.CreatePlane(1, 1, 1)
	m := newBatch(t, empty, plane)
	dev := gputest.Full()
	m.RenderPiece(&testRenderer{dev: dev}, newTestActor())

	e := m.Element(empty)
	for p := range e.StartIndex {
		assert.Equal(t, 0, e.IndexCount(gpu.PrimitiveType(p)))
	}
	assert.Equal(t, 0, e.NextVertex)
	assert.Equal(t, 0, m.Element(plane).StartVertex)
	assert.Len(t, dev.DrawsFor(gpu.PrimitiveTris), 1)
}

func TestEmptyBatchClearsBuffers(t *testing.T) {
	m := NewMapper()
	dev := gputest.Full()
	r := &testRenderer{dev: dev}
	a := newTestActor()
	m.RenderPiece(r, a)
	assert.Equal(t, 1, dev.Clears)
	assert.Empty(t, dev.Draws)
	assert.False(t, m.NeedToRebuildBuffers(r, a))
}

func TestNeedToRebuildBuffers(t *testing.T) {
	plane := polydata.CreatePlane(1, 1, 1)
	m := newBatch(t, plane)
	dev := gputest.Full()
	r := &testRenderer{dev: dev}
	a := newTestActor()

	m.RenderPiece(r, a)
	assert.False(t, m.NeedToRebuildBuffers(r, a))

	plane.Points.SetPoint(0, math.NewVec3(0, 1, 0))
	assert.True(t, m.NeedToRebuildBuffers(r, a))
	assert.False(t, m.NeedToRebuildBuffers(r, a))

	a.mtime.Modified()
	assert.True(t, m.NeedToRebuildBuffers(r, a))

	m.BuildBuffers(r, a)
	m.Modified()
	assert.True(t, m.NeedToRebuildBuffers(r, a))

	// an aborted render leaves everything untouched
	dev.Reset()
	r.abort = true
	m.RenderPiece(r, a)
	assert.Empty(t, dev.Draws)
}

func TestExpandedStrategy(t *testing.T) {
	a := polydata.CreatePlane(1, 1, 1)
	b := polydata.CreatePlane(1, 1, 1)
	m := newBatch(t, a, b)
	dev := gputest.ES()
	m.RenderPiece(&testRenderer{dev: dev}, newTestActor())
	assert.Equal(t, "expanded", m.Strategy().Name())

	els := m.Elements()
	for _, el := range els {
		assert.Equal(t, 0, el.StartVertex)
	}
	assert.Equal(t, 6, els[1].StartIndex[gpu.PrimitiveTris])

	group := dev.Attributes[gpu.GroupFor(gpu.PrimitiveTris)]
	assert.Len(t, group[gpu.AttrVertex].Floats, 3*12)
	ids := group[gpu.AttrVertexID].Floats
	require.Len(t, ids, 12)
	assert.Equal(t, []float32{0, 2, 3, 0, 3, 1}, ids[:6])

	draws := dev.DrawsFor(gpu.PrimitiveTris)
	require.Len(t, draws, 2)
	assert.False(t, draws[1].Indexed)
	assert.Equal(t, 6, draws[1].Start)
	assert.Equal(t, 6, draws[1].Count)
	// vertex id 6 starts triangle 2, the first of the second block
	assert.Equal(t, int32(0), draws[1].Uniforms["PrimitiveIDOffset"])
	assert.True(t, draws[1].Program.Key.Expanded)
}

func TestExpandedCellColors(t *testing.T) {
	plane := polydata.CreatePlane(1, 1, 2)
	colors := []uint8{
		255, 0, 0, 255,
		0, 255, 0, 255,
		0, 0, 255, 255,
		9, 9, 9, 255,
	}
	plane.CellData.SetScalars(polydata.NewByteArray("Colors", 4, colors))
	m := newBatch(t, plane)
	dev := gputest.ES()
	m.RenderPiece(&testRenderer{dev: dev}, newTestActor())

	got := dev.Attributes[gpu.GroupFor(gpu.PrimitiveTris)][gpu.AttrCellColor].Bytes
	require.Len(t, got, 4*3*8)
	// two triangles per quad, three vertices each
	for v := 0; v < 24; v++ {
		cell := v / 6
		assert.Equal(t, colors[4*cell:4*cell+4], got[4*v:4*v+4], "vertex %d", v)
	}
}

func TestIndexedLineWidthClamped(t *testing.T) {
	line := polydata.CreatePolyline(math.NewVec3(0, 0, 0), math.NewVec3(1, 0, 0), math.NewVec3(1, 1, 0))
	dev := gputest.NewDevice(gpu.Capabilities{TextureBuffers: true, MaxLineWidth: 4, Version: "4.1 fake"})
	a := newTestActor()

	a.app.LineWidth = 3
	m := newBatch(t, line)
	m.RenderPiece(&testRenderer{dev: dev}, a)
	assert.Equal(t, "indexed", m.Strategy().Name())
	assert.Equal(t, float32(3), dev.LineWidth)

	a.app.LineWidth = 12
	m = newBatch(t, line)
	m.RenderPiece(&testRenderer{dev: dev}, a)
	require.Len(t, dev.DrawsFor(gpu.PrimitiveLines), 2)
	assert.Equal(t, float32(4), dev.LineWidth)
}

func TestExpandedWideLines(t *testing.T) {
	line := polydata.CreatePolyline(math.NewVec3(0, 0, 0), math.NewVec3(1, 0, 0), math.NewVec3(1, 1, 0))
	m := newBatch(t, line)
	dev := gputest.ES()
	a := newTestActor()
	a.app.LineWidth = 2.5
	m.RenderPiece(&testRenderer{dev: dev}, a)

	draws := dev.DrawsFor(gpu.PrimitiveLines)
	require.Len(t, draws, 1)
	assert.Equal(t, 6, draws[0].Instances)
	assert.Equal(t, 4, draws[0].Count)
}

func TestNaNColorForMissingArrays(t *testing.T) {
	plane := polydata.CreatePlane(1, 1, 1)
	m := newBatch(t, plane)
	m.ColorMissingArraysWithNaNColor = true
	dev := gputest.Full()
	m.RenderPiece(&testRenderer{dev: dev}, newTestActor())

	nan := m.LookupTable.NaNColor
	want := [3]float32{float32(nan[0]) / 255, float32(nan[1]) / 255, float32(nan[2]) / 255}
	assert.Equal(t, want, dev.Draws[0].Uniforms["diffuseColorUniform"])
	assert.Equal(t, float32(1), dev.Draws[0].Uniforms["opacityUniform"])
}

func TestSurfaceWithEdgesUploadsEdgeValues(t *testing.T) {
	line := polydata.CreatePolyline(math.NewVec3(0, 0, 0), math.NewVec3(1, 0, 0))
	plane := polydata.CreatePlane(1, 1, 1)
	m := newBatch(t, line, plane)
	a := newTestActor()
	a.app.EdgeVisibility = true
	dev := gputest.Full()
	m.RenderPiece(&testRenderer{dev: dev}, a)

	edges := dev.TextureBuffers[TextureEdgeValues].Floats
	off := m.Element(plane).CellMap.PrimitiveOffsets()[gpu.PrimitiveTris]
	require.Len(t, edges, off+2)
	// fan of one quad: first triangle owns edges 0-1 and 1-2, the last 1-2 and 2-0
	assert.Equal(t, []float32{3, 6}, edges[off:])
}

func TestHighlights(t *testing.T) {
	plane := polydata.CreatePlane(1, 1, 2)
	cube := polydata.CreateCube(1)
	m := newBatch(t, plane, cube)
	m.SetHighlights([]Highlight{{FlatIndex: 2, IDs: []int{1, 99}}, {FlatIndex: 1, Points: true, IDs: []int{0, 4}}})
	dev := gputest.Full()
	m.RenderPiece(&testRenderer{dev: dev}, newTestActor())

	cubeEl := m.Element(cube)
	outline := dev.Indices[gpu.SelectionPrimitive(gpu.PrimitiveTris)]
	assert.Len(t, outline, 8)
	for _, idx := range outline {
		assert.GreaterOrEqual(t, int(idx), cubeEl.StartVertex)
	}
	assert.Equal(t, []uint32{0, 4}, dev.Indices[gpu.SelectionPrimitive(gpu.PrimitivePoints)])

	sel := dev.DrawsFor(gpu.SelectionPrimitive(gpu.PrimitiveTris))
	require.Len(t, sel, 1)
	assert.Equal(t, gpu.TopologyLines, sel[0].Mode)
	assert.Equal(t, base.ColorRed.Array(), sel[0].Uniforms["diffuseColorUniform"])
	assert.Len(t, dev.DrawsFor(gpu.SelectionPrimitive(gpu.PrimitivePoints)), 1)
	assert.Equal(t, float32(selectionPointSize), dev.PointSize)
}

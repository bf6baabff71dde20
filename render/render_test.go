package render

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

func newScene(t *testing.T, meshes ...*polydata.Mesh) (*Renderer, *Actor, *gputest.Device) {
	t.Helper()
	dev := gputest.Full()
	r := NewRenderer(dev, 64, 48)
	m := NewCompositeMapper()
	blocks := make([]Block, len(meshes))
	for i, mesh := range meshes {
		blocks[i] = Block{Mesh: mesh}
	}
	m.SetBlocks(blocks)
	a := NewActor("test", m)
	r.AddActor(a)
	r.ResetCamera()
	return r, a, dev
}

func TestSetBlocksTwoPhaseRefresh(t *testing.T) {
	a := polydata.CreatePlane(1, 1, 1)
	b := polydata.CreateCube(1)
	c := polydata.CreatePlane(2, 2, 2)
	m := NewCompositeMapper()

	m.SetBlocks([]Block{{Mesh: a}, {Mesh: b}, {Mesh: c}})
	require.Equal(t, 3, m.Batch.Len())
	assert.Equal(t, uint32(2), m.Batch.Element(b).FlatIndex)

	m.SetBlocks([]Block{{Mesh: c}, {Name: "empty"}, {Mesh: a}})
	assert.Equal(t, 2, m.Batch.Len())
	assert.Nil(t, m.Batch.Element(b))
	assert.Equal(t, uint32(1), m.Batch.Element(c).FlatIndex)
	assert.Equal(t, uint32(3), m.Batch.Element(a).FlatIndex)
	// batch order stays the insertion order
	assert.Equal(t, []*polydata.Mesh{a, c}, m.Batch.RenderedMeshes())

	blk, ok := m.Block(2)
	require.True(t, ok)
	assert.Equal(t, "empty", blk.Name)
	_, ok = m.Block(0)
	assert.False(t, ok)
}

func TestRenderOpaqueThenTranslucent(t *testing.T) {
	a := polydata.CreatePlane(1, 1, 1)
	b := polydata.CreatePlane(1, 1, 1)
	r, actor, dev := newScene(t, a, b)
	actor.Mapper.SetBlockOpacity(1, 0.5)
	actor.Mapper.SetBlockColor(2, base.ColorRed)

	require.NoError(t, r.Render())
	draws := dev.DrawsFor(gpu.PrimitiveTris)
	require.Len(t, draws, 2)

	// b is opaque and drawn first
	assert.Equal(t, float32(1), draws[0].Uniforms["opacityUniform"])
	assert.Equal(t, [3]float32{1, 0, 0}, draws[0].Uniforms["diffuseColorUniform"])
	assert.Equal(t, int32(1), draws[0].Uniforms["OverridesColor"])
	assert.Equal(t, 4, draws[0].Start)

	assert.Equal(t, float32(0.5), draws[1].Uniforms["opacityUniform"])
	assert.Equal(t, [3]float32{1, 1, 1}, draws[1].Uniforms["diffuseColorUniform"])
	assert.Equal(t, 0, draws[1].Start)

	assert.True(t, actor.HasOpaqueGeometry())
	assert.True(t, actor.HasTranslucentPolygonalGeometry())
}

func TestBlockVisibility(t *testing.T) {
	r, actor, dev := newScene(t, polydata.CreatePlane(1, 1, 1), polydata.CreatePlane(1, 1, 1))
	actor.Mapper.SetBlockVisibility(1, false)
	require.NoError(t, r.Render())
	require.Len(t, dev.DrawsFor(gpu.PrimitiveTris), 1)

	dev.Reset()
	actor.Mapper.RemoveBlockAttributes(1)
	require.NoError(t, r.Render())
	assert.Len(t, dev.DrawsFor(gpu.PrimitiveTris), 2)

	dev.Reset()
	actor.Visibility = false
	require.NoError(t, r.Render())
	assert.Empty(t, dev.Draws)
}

func TestForceTranslucent(t *testing.T) {
	r, actor, dev := newScene(t, polydata.CreatePlane(1, 1, 1))
	actor.SetForceTranslucent(true)
	assert.False(t, actor.HasOpaqueGeometry())
	require.NoError(t, r.Render())
	assert.Len(t, dev.DrawsFor(gpu.PrimitiveTris), 1)
}

func TestPropertyChangeRebuilds(t *testing.T) {
	r, actor, dev := newScene(t, polydata.CreatePlane(1, 1, 1))
	require.NoError(t, r.Render())
	assert.NotEmpty(t, dev.Indices[gpu.PrimitiveTris])

	actor.Property.SetRepresentation(cellmap.Wireframe)
	require.NoError(t, r.Render())
	// a wireframe quad is drawn as its four edges
	assert.Len(t, dev.Indices[gpu.PrimitiveTris], 8)
	assert.Equal(t, gpu.TopologyLines, dev.Draws[len(dev.Draws)-1].Mode)
}

// fakeRasterizer answers ReadPixels with what the last draw of the pass
// would have written at the picked pixel.
func fakeRasterizer(dev *gputest.Device, r *Renderer, prim int32) func(x, y, w, h int) []uint8 {
	return func(x, y, w, h int) []uint8 {
		out := make([]uint8, 4*w*h)
		if len(dev.Draws) == 0 {
			return out
		}
		sel := r.hardwareSelector()
		last := dev.Draws[len(dev.Draws)-1]
		var v uint32
		switch sel.CurrentPass() {
		case selection.ActorPass, selection.CompositeIndexPass:
			c := last.Uniforms["mapperIndex"].([3]float32)
			v = uint32(c[0]*255+0.5) | uint32(c[1]*255+0.5)<<8 | uint32(c[2]*255+0.5)<<16
		case selection.CellIDLow24, selection.PointIDLow24:
			v = uint32(last.Uniforms["PrimitiveIDOffset"].(int32) + prim)
		}
		for i := 0; i < w*h; i++ {
			selection.PutID24(out, 4*i, v)
		}
		return out
	}
}

func TestPickCell(t *testing.T) {
	a := polydata.CreatePlane(1, 1, 1)
	b := polydata.CreatePlane(1, 1, 2)
	r, actor, dev := newScene(t, a, b)
	require.NoError(t, r.Render())
	// triangle 5 of b is the second half of its third quad
	dev.PixelsFn = fakeRasterizer(dev, r, 5)

	res, err := r.Pick(10, 10)
	require.NoError(t, err)
	it, ok := res.Closest()
	require.True(t, ok)
	assert.Same(t, actor, it.Prop)
	assert.Equal(t, uint32(2), it.FlatIndex)
	assert.Equal(t, int64(2), it.ID)
	assert.Nil(t, r.Selector())

	// unpickable actors are skipped
	actor.Pickable = false
	dev.Reset()
	res, err = r.Pick(10, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestCameraResetFramesBounds(t *testing.T) {
	c := NewCamera(30, 1, 0.1, 100)
	c.ResetCamera(math.NewAABB([]math.Vec3{{X: -1, Y: -1, Z: -1}, {X: 1, Y: 1, Z: 1}}))
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, c.FocalPoint)
	assert.Greater(t, c.Position.Z(), float32(1))
	assert.InDelta(t, 0, c.Position.X(), 1e-5)
	assert.Less(t, c.NearPlane, c.Distance())
	assert.Greater(t, c.FarPlane, c.Distance())

	d := c.Distance()
	c.Orbit(0.5, 0.2)
	assert.InDelta(t, d, c.Distance(), 1e-4)
	c.Zoom(2)
	assert.InDelta(t, d/2, c.Distance(), 1e-4)

	vp := c.GetViewProjectionMatrix()
	assert.Equal(t, c.GetProjectionMatrix().Mul4(c.GetViewMatrix()), vp)
}

func TestPropertyOpacityClamps(t *testing.T) {
	p := NewProperty()
	before := p.MTime()
	p.SetOpacity(2)
	assert.Equal(t, float32(1), p.Opacity())
	assert.True(t, before.Before(p.MTime()))
	p.SetOpacity(-1)
	assert.Equal(t, float32(0), p.Opacity())
}

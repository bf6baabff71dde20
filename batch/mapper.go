// Package batch draws many meshes with one set of vertex and index buffers.
//
// Every mesh of a batch owns a GLBatchElement recording which slice of the
// shared buffers it occupies and a cell map relating its GPU primitives back
// to its cells. Blocks are drawn with one windowed draw call per primitive
// type, and picking decodes the id buffers back to cells and points through
// the same windows.
package batch

import (
	"log/slog"
	"slices"

	"cogentcore.org/core/ordmap"
	"github.com/go-gl/mathgl/mgl32"

	"polybatch/base"
	"polybatch/cellmap"
	"polybatch/gpu"
	"polybatch/math"
	"polybatch/polydata"
	"polybatch/selection"
)

// Interpolation is the shading model of a surface.
type Interpolation int

const (
	InterpolationFlat Interpolation = iota
	InterpolationGouraud
)

// Appearance is the part of an actor's property the mapper draws with.
type Appearance struct {
	Representation   cellmap.Representation
	Interpolation    Interpolation
	PointSize        float32
	LineWidth        float32
	EdgeVisibility   bool
	VertexVisibility bool
	EdgeColor        base.Color
	VertexColor      base.Color
}

// Actor is the prop a mapper renders for.
type Actor interface {
	Appearance() Appearance
	PropertyMTime() base.TimeStamp
	// TextureMTime is zero when the actor has no texture.
	TextureMTime() base.TimeStamp
	Matrix() mgl32.Mat4
	ForceOpaque() bool
	ForceTranslucent() bool
	IsRenderingTranslucentPolygonalGeometry() bool
}

// View is the camera state of the frame being drawn.
type View struct {
	ViewProjection mgl32.Mat4
	Position       mgl32.Vec3
	FocalPoint     mgl32.Vec3
	Near           float32
}

// Renderer is what a mapper needs from the renderer driving it.
type Renderer interface {
	Device() gpu.Device
	// Selector is nil unless a hardware selection is rendering.
	Selector() selection.Selector
	CheckAbort() bool
	View() View
}

// Mapper renders a batch of meshes with shared buffers.
type Mapper struct {
	ScalarVisibility bool
	ScalarRange      [2]float64
	// LookupTable maps scalars to colors; a default table over ScalarRange
	// is built when nil.
	LookupTable                    *polydata.LookupTable
	ColorMissingArraysWithNaNColor bool
	ShiftScaleMethod               gpu.ShiftScaleMethod

	// Optional data arrays the picking decoder remaps ids through.
	PointIDArrayName     string
	CellIDArrayName      string
	ProcessIDArrayName   string
	CompositeIDArrayName string
	// PopulateSelectionSettings enables the picking decoder.
	PopulateSelectionSettings bool

	elements   *ordmap.Map[polydata.Handle, *GLBatchElement]
	highlights []Highlight

	strategy AttributeStrategy
	device   gpu.Device

	mtime      base.TimeStamp
	buildTime  base.TimeStamp
	buildState []uint64

	shiftScale gpu.ShiftScale
	inverse    mgl32.Mat4

	haveCellScalars bool
	haveCellNormals bool

	pickPixels map[uint32][]int
}

func NewMapper() *Mapper {
	m := &Mapper{
		ScalarVisibility:          true,
		ScalarRange:               [2]float64{0, 1},
		ShiftScaleMethod:          gpu.ShiftScaleAuto,
		PopulateSelectionSettings: true,
		elements:                  ordmap.New[polydata.Handle, *GLBatchElement](),
		shiftScale:                gpu.IdentityShiftScale(),
		inverse:                   mgl32.Ident4(),
	}
	m.mtime.Modified()
	return m
}

// Modified marks the mapper changed so the next render rebuilds buffers.
func (m *Mapper) Modified() {
	m.mtime.Modified()
}

func (m *Mapper) MTime() base.TimeStamp {
	return m.mtime
}

// AddOrUpdate registers el under its mesh. A new element is stored with
// all its attributes; for a mesh already in the batch only the flat index
// is refreshed. Either way the element ends up marked.
func (m *Mapper) AddOrUpdate(flatIndex uint32, el BatchElement) {
	if el.Mesh == nil {
		return
	}
	key := el.Mesh.Handle()
	if existing, ok := m.elements.ValueByKeyTry(key); ok {
		existing.FlatIndex = flatIndex
		existing.Marked = true
		return
	}
	el.FlatIndex = flatIndex
	el.Marked = true
	m.elements.Add(key, &GLBatchElement{BatchElement: el, CellMap: cellmap.New()})
	m.mtime.Modified()
}

// Element returns the stored element of mesh for attribute changes, or nil.
func (m *Mapper) Element(mesh *polydata.Mesh) *GLBatchElement {
	if mesh == nil {
		return nil
	}
	el, _ := m.elements.ValueByKeyTry(mesh.Handle())
	return el
}

func (m *Mapper) UnmarkAll() {
	for _, kv := range m.elements.Order {
		kv.Value.Marked = false
	}
}

// PruneUnmarked drops every element not marked since the last UnmarkAll.
func (m *Mapper) PruneUnmarked() {
	removed := 0
	for i := m.elements.Len() - 1; i >= 0; i-- {
		if !m.elements.ValueByIndex(i).Marked {
			m.elements.DeleteIndex(i, i+1)
			removed++
		}
	}
	if removed > 0 {
		m.mtime.Modified()
		slog.Debug("batch: pruned elements", "removed", removed, "remaining", m.elements.Len())
	}
}

// Clear removes every element.
func (m *Mapper) Clear() {
	if m.elements.Len() == 0 {
		return
	}
	m.elements.Reset()
	m.mtime.Modified()
}

func (m *Mapper) Len() int {
	return m.elements.Len()
}

// RenderedMeshes returns the meshes of the batch in batch order.
func (m *Mapper) RenderedMeshes() []*polydata.Mesh {
	meshes := make([]*polydata.Mesh, 0, m.elements.Len())
	for _, kv := range m.elements.Order {
		meshes = append(meshes, kv.Value.Mesh)
	}
	return meshes
}

// Elements returns the elements in batch order.
func (m *Mapper) Elements() []*GLBatchElement {
	return m.elements.Values()
}

// Strategy returns the attribute strategy of the last build, or nil.
func (m *Mapper) Strategy() AttributeStrategy {
	return m.strategy
}

// ShiftScale returns the coordinate shift and scale of the last build.
func (m *Mapper) ShiftScale() gpu.ShiftScale {
	return m.shiftScale
}

func (m *Mapper) lookupTable() *polydata.LookupTable {
	if m.LookupTable == nil {
		m.LookupTable = polydata.NewLookupTable(256, m.ScalarRange[0], m.ScalarRange[1])
	}
	return m.LookupTable
}

func isPointPicking(sel selection.Selector) bool {
	return sel != nil && sel.FieldAssociation() == selection.AssociationPoints
}

func (m *Mapper) state(a Actor, pointPicking bool) []uint64 {
	st := make([]uint64, 0, 3+2*m.elements.Len())
	st = append(st, a.PropertyMTime().Time(), a.TextureMTime().Time())
	if pointPicking {
		st = append(st, 1)
	} else {
		st = append(st, 0)
	}
	for _, kv := range m.elements.Order {
		st = append(st, uint64(kv.Key), kv.Value.Mesh.MTime().Time())
	}
	return st
}

// NeedToRebuildBuffers reports whether the actor property, a mesh or the
// texture changed since the last build, or the mapper was modified after it.
func (m *Mapper) NeedToRebuildBuffers(r Renderer, a Actor) bool {
	st := m.state(a, isPointPicking(r.Selector()))
	if !slices.Equal(st, m.buildState) {
		m.buildState = st
		return true
	}
	return m.buildTime.Before(m.mtime)
}

func (m *Mapper) ensureStrategy(dev gpu.Device) {
	if m.strategy != nil && m.device == dev {
		return
	}
	m.device = dev
	m.strategy = NewStrategy(dev.Capabilities())
	m.buildState = nil
	slog.Debug("batch: attribute strategy selected", "strategy", m.strategy.Name(), "version", dev.Capabilities().Version)
}

// BuildBuffers rebuilds every vertex, index and cell attribute buffer of
// the batch and records each element's windows.
func (m *Mapper) BuildBuffers(r Renderer, a Actor) {
	dev := r.Device()
	m.ensureStrategy(dev)
	dev.ClearBuffers()
	m.strategy.Reset()
	m.pickPixels = nil
	m.haveCellScalars, m.haveCellNormals = false, false

	if m.elements.Len() == 0 {
		m.shiftScale = gpu.IdentityShiftScale()
		m.inverse = mgl32.Ident4()
		m.buildTime.Modified()
		return
	}

	app := a.Appearance()
	rep := app.Representation
	if isPointPicking(r.Selector()) {
		rep = cellmap.Points
	}

	bounds := math.EmptyAABB()
	var prev *GLBatchElement
	for _, kv := range m.elements.Order {
		el := kv.Value
		bounds = bounds.Union(el.Mesh.Points.Bounds())
		el.StartIndex = m.strategy.IndexCounts()
		start := 0
		if prev != nil {
			start = prev.CellMap.FinalOffset()
		}
		el.CellMap.SetStartOffset(start)
		d := m.elementData(el, rep, app)
		m.strategy.Append(el, d)
		el.NextIndex = m.strategy.IndexCounts()
		m.haveCellScalars = m.haveCellScalars || d.cellColors != nil
		m.haveCellNormals = m.haveCellNormals || d.cellNormals != nil
		prev = el
	}

	m.shiftScale = m.computeShiftScale(bounds, r.View())
	m.inverse = m.shiftScale.InverseTransform()
	m.strategy.Upload(dev, m.shiftScale)
	if !m.strategy.Expanded() {
		m.buildHighlights(dev)
	}
	m.buildTime.Modified()

	counts := m.strategy.IndexCounts()
	slog.Debug("batch: buffers built",
		"elements", m.elements.Len(),
		"representation", rep.String(),
		"strategy", m.strategy.Name(),
		"points", counts[gpu.PrimitivePoints],
		"lines", counts[gpu.PrimitiveLines],
		"tris", counts[gpu.PrimitiveTris],
		"strips", counts[gpu.PrimitiveTriStrips])
}

func (m *Mapper) computeShiftScale(bounds math.AABB, v View) gpu.ShiftScale {
	switch {
	case m.ShiftScaleMethod == gpu.ShiftScaleAuto:
		return gpu.AutoShiftScale(bounds, false)
	case m.ShiftScaleMethod == gpu.ShiftScaleAlwaysAuto:
		return gpu.AutoShiftScale(bounds, true)
	case m.ShiftScaleMethod.CameraDriven():
		return gpu.CameraShiftScale(m.ShiftScaleMethod, v.Position, v.FocalPoint, v.Near)
	}
	return gpu.IdentityShiftScale()
}

// updateMaximumIDs tells the selector the largest point and primitive ids
// the batch can render, so it knows whether high 24 bit passes are needed.
func (m *Mapper) updateMaximumIDs(sel selection.Selector) {
	points, prims := 0, 0
	for _, kv := range m.elements.Order {
		mesh := kv.Value.Mesh
		points += mesh.NumberOfPoints()
		for _, ca := range mesh.Cells() {
			prims += 2 * ca.NumberOfConnectivityIDs()
		}
		if ids := idArray(mesh.PointData, m.PointIDArrayName); ids != nil {
			for _, v := range ids.Values {
				sel.UpdateMaximumPointID(int(v))
			}
		}
		if ids := idArray(mesh.CellData, m.CellIDArrayName); ids != nil {
			for _, v := range ids.Values {
				sel.UpdateMaximumCellID(int(v))
			}
		}
	}
	sel.UpdateMaximumPointID(points - 1)
	sel.UpdateMaximumCellID(prims - 1)
}

// RenderPiece draws the batch for one render pass, rebuilding buffers first
// when anything they depend on changed.
func (m *Mapper) RenderPiece(r Renderer, a Actor) {
	if r.CheckAbort() {
		return
	}
	dev := r.Device()
	m.ensureStrategy(dev)

	if sel := r.Selector(); sel != nil && m.PopulateSelectionSettings {
		m.updateMaximumIDs(sel)
	}
	if m.ShiftScaleMethod.CameraDriven() {
		v := r.View()
		ss := gpu.CameraShiftScale(m.ShiftScaleMethod, v.Position, v.FocalPoint, v.Near)
		if !ss.Near(m.shiftScale, 1e-6) {
			m.mtime.Modified()
		}
	}
	if m.NeedToRebuildBuffers(r, a) {
		m.BuildBuffers(r, a)
	}
	m.Draw(r, a)
}

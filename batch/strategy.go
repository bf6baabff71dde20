package batch

import (
	"polybatch/cellmap"
	"polybatch/gpu"
	"polybatch/polydata"
)

// Texture buffer names the shaders look per-primitive attributes up in.
const (
	TextureEdgeValues  = "edgeTexture"
	TextureCellColors  = "textureC"
	TextureCellNormals = "textureN"
)

// AttributeEdgeValue carries the edge bits of each triangle vertex in the
// expanded layout.
const AttributeEdgeValue = "edgeValue"

// AttributeStrategy lays out vertex attributes for a device. Both
// implementations share the cell maps and index windows of the mapper and
// differ in how per vertex and per cell data reach the shaders.
type AttributeStrategy interface {
	Name() string
	// Expanded reports whether attributes are expanded per index instead
	// of shared through index buffers.
	Expanded() bool
	Reset()
	// IndexCounts returns how many indices each primitive type holds so far.
	IndexCounts() [gpu.NumPrimitiveTypes]int
	// Append stages one element and sets its vertex window.
	Append(el *GLBatchElement, d *elementData)
	Upload(dev gpu.Device, ss gpu.ShiftScale)
	// PrimitiveIDOffset is the value that turns the primitive id a draw of
	// el's window sees into an id of the batch wide cell map space.
	PrimitiveIDOffset(el *GLBatchElement, p gpu.PrimitiveType, mode gpu.Topology) int
	Draw(dev gpu.Device, el *GLBatchElement, p gpu.PrimitiveType, mode gpu.Topology, lineWidth float32)
}

// NewStrategy picks the layout the device can draw: texture buffer lookups
// by primitive id where available, expanded attributes otherwise.
func NewStrategy(caps gpu.Capabilities) AttributeStrategy {
	if caps.GLES || !caps.TextureBuffers {
		return newExpandedStrategy(caps)
	}
	return newIndexedStrategy(caps)
}

func verticesPerPrimitive(mode gpu.Topology) int {
	switch mode {
	case gpu.TopologyPoints:
		return 1
	case gpu.TopologyLines:
		return 2
	}
	return 3
}

// appendElementIndices appends the indices of every primitive type of one
// mesh, each relative to vertexOffset.
func appendElementIndices(dst *[gpu.NumPrimitiveTypes][]uint32, d *elementData, vertexOffset int) {
	cells := d.mesh.Cells()
	for p := gpu.PrimitivePoints; p <= gpu.PrimitiveTriStrips; p++ {
		var ef *polydata.ByteArray
		if p == gpu.PrimitiveTris && d.rep == cellmap.Wireframe {
			ef = d.edgeFlags
		}
		dst[p] = gpu.AppendCellIndices(dst[p], p, d.rep, d.mesh, vertexOffset, ef)
	}
	if d.vertices {
		dst[gpu.PrimitiveVertices] = gpu.AppendVertexIndices(dst[gpu.PrimitiveVertices], cells, d.mesh.NumberOfPoints(), vertexOffset)
	}
}

// updateCellMap brings el's cell map up to date, fully when per cell
// attributes have to be resolved through it.
func updateCellMap(el *GLBatchElement, d *elementData) {
	cells := d.mesh.Cells()
	if d.hasCellAttributes() {
		el.CellMap.Update(cells, d.rep, d.mesh.Points)
	}
	el.CellMap.BuildPrimitiveOffsetsIfNeeded(cells, d.rep, d.mesh.Points)
}

func padBytes(b []uint8, n int) []uint8 {
	if len(b) < n {
		b = append(b, make([]uint8, n-len(b))...)
	}
	return b
}

func padFloats(f []float32, n int) []float32 {
	if len(f) < n {
		f = append(f, make([]float32, n-len(f))...)
	}
	return f
}

// indexedStrategy shares one vertex buffer between all primitive types and
// resolves per cell attributes in the fragment shader from texture buffers
// indexed by primitive id.
type indexedStrategy struct {
	vbo          *gpu.VertexBufferGroup
	indices      [gpu.NumPrimitiveTypes][]uint32
	maxLineWidth float32

	edgeValues  []float32
	cellColors  []uint8
	cellNormals []float32
	anyColors   bool
	anyNormals  bool
	finalOffset int
}

func newIndexedStrategy(caps gpu.Capabilities) *indexedStrategy {
	return &indexedStrategy{vbo: gpu.NewVertexBufferGroup(), maxLineWidth: max(caps.MaxLineWidth, 1)}
}

func (s *indexedStrategy) Name() string { return "indexed" }
func (s *indexedStrategy) Expanded() bool { return false }

func (s *indexedStrategy) Reset() {
	s.vbo.Clear()
	for p := range s.indices {
		s.indices[p] = s.indices[p][:0]
	}
	s.edgeValues = s.edgeValues[:0]
	s.cellColors = s.cellColors[:0]
	s.cellNormals = s.cellNormals[:0]
	s.anyColors, s.anyNormals = false, false
	s.finalOffset = 0
}

func (s *indexedStrategy) IndexCounts() [gpu.NumPrimitiveTypes]int {
	var n [gpu.NumPrimitiveTypes]int
	for p := range s.indices {
		n[p] = len(s.indices[p])
	}
	return n
}

// reuse returns the vertex offset of earlier appended data when every
// array d draws with was appended together before.
func (s *indexedStrategy) reuse(d *elementData) (int, bool) {
	off, ok := s.vbo.ArrayExists(gpu.AttrVertex, d.mesh.Points)
	if !ok {
		return 0, false
	}
	same := func(name string, source any) bool {
		if source == nil {
			return true
		}
		o, ok := s.vbo.ArrayExists(name, source)
		return ok && o == off
	}
	if d.pointNormals != nil && !same(gpu.AttrNormal, d.pointNormals) {
		return 0, false
	}
	if d.pointColors != nil && !same(gpu.AttrColor, d.colorSource) {
		return 0, false
	}
	if d.tcoords != nil && !same(gpu.AttrTCoord, d.tcoords) {
		return 0, false
	}
	if d.tangents != nil && !same(gpu.AttrTangent, d.tangents) {
		return 0, false
	}
	return off, true
}

func (s *indexedStrategy) Append(el *GLBatchElement, d *elementData) {
	n := d.mesh.NumberOfPoints()
	if n == 0 {
		el.StartVertex, el.NextVertex = 0, 0
		return
	}
	updateCellMap(el, d)
	s.appendCellTextures(el, d)

	offset, ok := s.reuse(d)
	if !ok {
		offset = s.vbo.NumberOfTuples(gpu.AttrVertex)
		s.vbo.AppendFloats(gpu.AttrVertex, d.mesh.Points, d.mesh.Points.Data(), 3, offset)
		if d.pointNormals != nil {
			s.vbo.AppendFloats(gpu.AttrNormal, d.pointNormals, d.pointNormals.Values[:3*n], 3, offset)
		}
		if d.pointColors != nil {
			s.vbo.AppendBytes(gpu.AttrColor, d.colorSource, d.pointColors[:4*n], 4, offset)
		}
		if tc := d.tcoords; tc != nil && tc.NumberOfTuples() >= n {
			c := tc.NumberOfComponents()
			s.vbo.AppendFloats(gpu.AttrTCoord, tc, tc.Values[:c*n], c, offset)
		}
		if tg := d.tangents; tg != nil && tg.NumberOfTuples() >= n {
			s.vbo.AppendFloats(gpu.AttrTangent, tg, tg.Values[:3*n], 3, offset)
		}
	}
	el.StartVertex = offset
	el.NextVertex = offset + n

	appendElementIndices(&s.indices, d, offset)

	if d.surfaceEdges {
		off := el.CellMap.PrimitiveOffsets()
		s.edgeValues = padFloats(s.edgeValues, off[gpu.PrimitiveTris])
		s.edgeValues = gpu.AppendTriangleEdgeValues(s.edgeValues, d.mesh.Polys, d.mesh.Points, d.edgeFlags)
	}
}

// appendCellTextures appends one color and one normal per primitive of el,
// keeping the texture index equal to the batch wide primitive id.
func (s *indexedStrategy) appendCellTextures(el *GLBatchElement, d *elementData) {
	start := el.CellMap.StartOffset()
	s.finalOffset = el.CellMap.FinalOffset()
	if d.cellColors != nil {
		s.anyColors = true
		s.cellColors = padBytes(s.cellColors, 4*start)
		for i := 0; i < el.CellMap.Size(); i++ {
			c := el.CellMap.Value(i)
			s.cellColors = append(s.cellColors, d.cellColors[4*c:4*c+4]...)
		}
	}
	if d.cellNormals != nil {
		s.anyNormals = true
		s.cellNormals = padFloats(s.cellNormals, 4*start)
		for i := 0; i < el.CellMap.Size(); i++ {
			t := d.cellNormals.Tuple(el.CellMap.Value(i))
			s.cellNormals = append(s.cellNormals, t[0], t[1], t[2], 0)
		}
	}
}

func (s *indexedStrategy) Upload(dev gpu.Device, ss gpu.ShiftScale) {
	s.vbo.Build(dev, gpu.SharedGroup, ss)
	for p := range s.indices {
		dev.UploadIndices(gpu.PrimitiveType(p), s.indices[p])
	}
	if len(s.edgeValues) > 0 {
		dev.UploadTextureBuffer(TextureEdgeValues, s.edgeValues, 1)
	}
	if s.anyColors {
		s.cellColors = padBytes(s.cellColors, 4*s.finalOffset)
		dev.UploadTextureBufferBytes(TextureCellColors, s.cellColors, 4)
	}
	if s.anyNormals {
		s.cellNormals = padFloats(s.cellNormals, 4*s.finalOffset)
		dev.UploadTextureBuffer(TextureCellNormals, s.cellNormals, 4)
	}
}

func (s *indexedStrategy) PrimitiveIDOffset(el *GLBatchElement, p gpu.PrimitiveType, _ gpu.Topology) int {
	if p > gpu.PrimitiveTriStrips {
		return 0
	}
	return el.CellMap.PrimitiveOffsets()[p]
}

func (s *indexedStrategy) Draw(dev gpu.Device, el *GLBatchElement, p gpu.PrimitiveType, mode gpu.Topology, lineWidth float32) {
	if mode == gpu.TopologyLines {
		dev.SetLineWidth(min(lineWidth, s.maxLineWidth))
	}
	dev.DrawRangeElements(mode, p, el.StartVertex, max(el.NextVertex-1, 0), el.IndexCount(p), el.StartIndex[p])
}

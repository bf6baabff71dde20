package batch

import (
	"github.com/chewxy/math32"

	"polybatch/gpu"
)

// expandedStrategy keeps one vertex buffer group per primitive type and
// writes every attribute once per index, so devices without primitive id
// lookups still get per cell colors and normals. Windows then address the
// expanded arrays directly and StartVertex is always zero.
type expandedStrategy struct {
	groups       [gpu.NumPrimitiveTypes]*gpu.VertexBufferGroup
	counts       [gpu.NumPrimitiveTypes]int
	maxLineWidth float32
}

func newExpandedStrategy(caps gpu.Capabilities) *expandedStrategy {
	s := &expandedStrategy{maxLineWidth: caps.MaxLineWidth}
	for p := range s.groups {
		s.groups[p] = gpu.NewVertexBufferGroup()
	}
	return s
}

func (s *expandedStrategy) Name() string { return "expanded" }
func (s *expandedStrategy) Expanded() bool { return true }

func (s *expandedStrategy) Reset() {
	for p := range s.groups {
		s.groups[p].Clear()
		s.counts[p] = 0
	}
}

func (s *expandedStrategy) IndexCounts() [gpu.NumPrimitiveTypes]int {
	return s.counts
}

func (s *expandedStrategy) Append(el *GLBatchElement, d *elementData) {
	el.StartVertex = 0
	n := d.mesh.NumberOfPoints()
	if n == 0 {
		el.NextVertex = 0
		return
	}
	el.NextVertex = n
	updateCellMap(el, d)

	var indices [gpu.NumPrimitiveTypes][]uint32
	appendElementIndices(&indices, d, 0)

	offsets := el.CellMap.PrimitiveOffsets()
	start := el.CellMap.StartOffset()
	pts := d.mesh.Points
	var edges []float32
	if d.surfaceEdges {
		edges = gpu.AppendTriangleEdgeValues(nil, d.mesh.Polys, pts, d.edgeFlags)
	}

	for p, idx := range indices {
		if len(idx) == 0 {
			continue
		}
		prim := gpu.PrimitiveType(p)
		vpp := verticesPerPrimitive(gpu.Mode(d.rep, prim))
		// cellOf returns the cell drawn by the j-th expanded vertex, or -1
		cellOf := func(j int) int {
			if prim > gpu.PrimitiveTriStrips {
				return -1
			}
			i := offsets[p] - start + j/vpp
			if i >= el.CellMap.Size() {
				return -1
			}
			return el.CellMap.Value(i)
		}

		verts := make([]float32, 0, 3*len(idx))
		ids := make([]float32, 0, len(idx))
		var normals, tcoords, tangents, edgeValues []float32
		var colors []uint8
		tcComps := 2
		if d.tcoords != nil {
			tcComps = d.tcoords.NumberOfComponents()
		}
		for j, v := range idx {
			pt := pts.Point(int(v))
			verts = append(verts, pt.X, pt.Y, pt.Z)
			ids = append(ids, float32(v))
			switch {
			case d.pointNormals != nil:
				normals = append(normals, d.pointNormals.Tuple(int(v))...)
			case d.cellNormals != nil:
				if c := cellOf(j); c >= 0 {
					normals = append(normals, d.cellNormals.Tuple(c)...)
				} else {
					normals = append(normals, 0, 0, 1)
				}
			}
			switch {
			case d.pointColors != nil:
				colors = append(colors, d.pointColors[4*v:4*v+4]...)
			case d.cellColors != nil:
				if c := cellOf(j); c >= 0 {
					colors = append(colors, d.cellColors[4*c:4*c+4]...)
				} else {
					colors = append(colors, 0, 0, 0, 255)
				}
			}
			if d.tcoords != nil && int(v) < d.tcoords.NumberOfTuples() {
				tcoords = append(tcoords, d.tcoords.Tuple(int(v))...)
			}
			if d.tangents != nil && int(v) < d.tangents.NumberOfTuples() {
				tangents = append(tangents, d.tangents.Tuple(int(v))...)
			}
			if prim == gpu.PrimitiveTris && edges != nil && j/3 < len(edges) {
				edgeValues = append(edgeValues, edges[j/3])
			}
		}

		g := s.groups[p]
		base := s.counts[p]
		g.AppendFloats(gpu.AttrVertex, nil, verts, 3, base)
		g.AppendFloats(gpu.AttrVertexID, nil, ids, 1, base)
		if normals != nil {
			g.AppendFloats(gpu.AttrNormal, nil, normals, 3, base)
		}
		if colors != nil {
			name := gpu.AttrColor
			if d.cellColors != nil {
				name = gpu.AttrCellColor
			}
			g.AppendBytes(name, nil, colors, 4, base)
		}
		if len(tcoords) == tcComps*len(idx) {
			g.AppendFloats(gpu.AttrTCoord, nil, tcoords, tcComps, base)
		}
		if len(tangents) == 3*len(idx) {
			g.AppendFloats(gpu.AttrTangent, nil, tangents, 3, base)
		}
		if len(edgeValues) == len(idx) {
			g.AppendFloats(AttributeEdgeValue, nil, edgeValues, 1, base)
		}
		s.counts[p] += len(idx)
	}
}

func (s *expandedStrategy) Upload(dev gpu.Device, ss gpu.ShiftScale) {
	for p, g := range s.groups {
		if s.counts[p] > 0 {
			g.Build(dev, gpu.GroupFor(gpu.PrimitiveType(p)), ss)
		}
	}
}

// PrimitiveIDOffset compensates for the window start: the shader derives
// the primitive id from the expanded vertex id, which counts from the
// start of the group rather than from the window.
func (s *expandedStrategy) PrimitiveIDOffset(el *GLBatchElement, p gpu.PrimitiveType, mode gpu.Topology) int {
	if p > gpu.PrimitiveTriStrips {
		return 0
	}
	return el.CellMap.PrimitiveOffsets()[p] - el.StartIndex[p]/verticesPerPrimitive(mode)
}

func (s *expandedStrategy) Draw(dev gpu.Device, el *GLBatchElement, p gpu.PrimitiveType, mode gpu.Topology, lineWidth float32) {
	group := gpu.GroupFor(p)
	if mode == gpu.TopologyLines && lineWidth > 1 && lineWidth > s.maxLineWidth {
		dev.DrawArraysInstanced(mode, group, el.StartIndex[p], el.IndexCount(p), 2*int(math32.Ceil(lineWidth)))
		return
	}
	if mode == gpu.TopologyLines {
		dev.SetLineWidth(lineWidth)
	}
	dev.DrawArrays(mode, group, el.StartIndex[p], el.IndexCount(p))
}

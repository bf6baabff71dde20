package gpu

import "log/slog"

// Vertex attribute names shared by the mapper and the shaders.
const (
	AttrVertex     = "vertexMC"
	AttrNormal     = "normalMC"
	AttrTCoord     = "tcoord"
	AttrTangent    = "tangentMC"
	AttrColor      = "scalarColor"
	AttrVertexID   = "vtkVertexID"
	AttrCellColor  = "cellColor"
	AttrCellNormal = "cellNormal"
)

type vertexArray struct {
	comps   int
	floats  []float32
	bytes   []uint8
	isBytes bool
	// sources maps an appended source to the vertex it starts at
	sources map[any]int
}

func (a *vertexArray) tuples() int {
	if a.isBytes {
		return len(a.bytes) / a.comps
	}
	return len(a.floats) / a.comps
}

func (a *vertexArray) padTo(n int) {
	for a.tuples() < n {
		if a.isBytes {
			a.bytes = append(a.bytes, make([]uint8, a.comps)...)
		} else {
			a.floats = append(a.floats, make([]float32, a.comps)...)
		}
	}
}

// VertexBufferGroup stages named vertex arrays on the CPU for one buffer
// group. Arrays missing for some meshes are zero padded so that every
// array has one tuple per vertex.
type VertexBufferGroup struct {
	arrays map[string]*vertexArray
	order  []string
}

func NewVertexBufferGroup() *VertexBufferGroup {
	return &VertexBufferGroup{arrays: make(map[string]*vertexArray)}
}

func (g *VertexBufferGroup) array(name string, comps int, isBytes bool) *vertexArray {
	a, ok := g.arrays[name]
	if !ok {
		a = &vertexArray{comps: max(comps, 1), isBytes: isBytes, sources: make(map[any]int)}
		g.arrays[name] = a
		g.order = append(g.order, name)
	}
	return a
}

// ArrayExists reports whether source was already appended to the named
// array and, if so, the vertex it starts at. Meshes sharing one points
// object share its vertices this way.
func (g *VertexBufferGroup) ArrayExists(name string, source any) (int, bool) {
	a, ok := g.arrays[name]
	if !ok || source == nil {
		return 0, false
	}
	off, ok := a.sources[source]
	return off, ok
}

// AppendFloats appends data for vertices starting at vertexOffset. A nil
// source is never reused.
func (g *VertexBufferGroup) AppendFloats(name string, source any, data []float32, comps, vertexOffset int) {
	a := g.array(name, comps, false)
	a.padTo(vertexOffset)
	if source != nil {
		a.sources[source] = vertexOffset
	}
	a.floats = append(a.floats, data...)
}

// AppendBytes is AppendFloats for normalized byte arrays such as colors.
func (g *VertexBufferGroup) AppendBytes(name string, source any, data []uint8, comps, vertexOffset int) {
	a := g.array(name, comps, true)
	a.padTo(vertexOffset)
	if source != nil {
		a.sources[source] = vertexOffset
	}
	a.bytes = append(a.bytes, data...)
}

func (g *VertexBufferGroup) NumberOfTuples(name string) int {
	a, ok := g.arrays[name]
	if !ok {
		return 0
	}
	return a.tuples()
}

func (g *VertexBufferGroup) Floats(name string) []float32 {
	if a, ok := g.arrays[name]; ok {
		return a.floats
	}
	return nil
}

func (g *VertexBufferGroup) Bytes(name string) []uint8 {
	if a, ok := g.arrays[name]; ok {
		return a.bytes
	}
	return nil
}

// Names lists the arrays in first append order.
func (g *VertexBufferGroup) Names() []string {
	return g.order
}

func (g *VertexBufferGroup) Clear() {
	clear(g.arrays)
	g.order = g.order[:0]
}

// Build pads every array to the vertex count, applies ss to the positions
// and uploads everything to dev as group.
func (g *VertexBufferGroup) Build(dev Device, group BufferGroup, ss ShiftScale) {
	total := g.NumberOfTuples(AttrVertex)
	for _, name := range g.order {
		total = max(total, g.arrays[name].tuples())
	}
	for _, name := range g.order {
		a := g.arrays[name]
		a.padTo(total)
		switch {
		case a.isBytes:
			dev.UploadVertexBytes(group, name, a.bytes, a.comps)
		case name == AttrVertex && !ss.IsIdentity():
			dev.UploadVertexAttribute(group, name, ss.Apply(nil, a.floats), a.comps)
		default:
			dev.UploadVertexAttribute(group, name, a.floats, a.comps)
		}
	}
	slog.Debug("gpu: vertex buffers built", "group", int(group), "vertices", total, "arrays", len(g.order))
}

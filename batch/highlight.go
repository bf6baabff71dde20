package batch

import (
	"polybatch/cellmap"
	"polybatch/gpu"
	"polybatch/polydata"
)

// Highlight marks cells or points of one block to be drawn in the block's
// selection color on top of the regular geometry.
type Highlight struct {
	FlatIndex uint32
	Points    bool
	IDs       []int
}

// SetHighlights replaces the highlighted ids. Highlights are drawn only by
// the indexed layout.
func (m *Mapper) SetHighlights(h []Highlight) {
	m.highlights = h
	m.mtime.Modified()
}

func (m *Mapper) Highlights() []Highlight {
	return m.highlights
}

// locateCell maps a cell id to its collection and index within it.
func locateCell(cells [4]*polydata.CellArray, id int) (int, int) {
	for block, ca := range cells {
		n := ca.NumberOfCells()
		if id < n {
			return block, id
		}
		id -= n
	}
	return -1, 0
}

func (m *Mapper) buildHighlights(dev gpu.Device) {
	var ibo [gpu.NumCellPrimitives][]uint32
	for _, kv := range m.elements.Order {
		el := kv.Value
		for p := range ibo {
			el.selectionStart[p] = len(ibo[p])
		}
		for _, h := range m.highlights {
			if h.FlatIndex != el.FlatIndex || el.Mesh.NumberOfPoints() == 0 {
				continue
			}
			appendHighlightIndices(&ibo, el, h)
		}
		for p := range ibo {
			el.selectionNext[p] = len(ibo[p])
		}
	}
	for p := range ibo {
		dev.UploadIndices(gpu.SelectionPrimitive(gpu.PrimitiveType(p)), ibo[p])
	}
}

func appendHighlightIndices(ibo *[gpu.NumCellPrimitives][]uint32, el *GLBatchElement, h Highlight) {
	mesh := el.Mesh
	if h.Points {
		for _, id := range h.IDs {
			if id >= 0 && id < mesh.NumberOfPoints() {
				ibo[gpu.PrimitivePoints] = append(ibo[gpu.PrimitivePoints], uint32(el.StartVertex+id))
			}
		}
		return
	}
	cells := mesh.Cells()
	picked := &polydata.Mesh{
		Points: mesh.Points,
		Verts:  polydata.NewCellArray(),
		Lines:  polydata.NewCellArray(),
		Polys:  polydata.NewCellArray(),
		Strips: polydata.NewCellArray(),
	}
	sub := picked.Cells()
	for _, id := range h.IDs {
		if id < 0 {
			continue
		}
		block, local := locateCell(cells, id)
		if block < 0 {
			continue
		}
		sub[block].InsertNextCell(cells[block].Cell(local)...)
	}
	for p := range ibo {
		ibo[p] = gpu.AppendCellIndices(ibo[p], gpu.PrimitiveType(p), cellmap.Wireframe, picked, el.StartVertex, nil)
	}
}

// drawHighlights draws the highlight windows of every drawable element:
// cells as outlines, points as enlarged points.
func (m *Mapper) drawHighlights(r Renderer, a Actor) {
	dev := r.Device()
	app := a.Appearance()
	for p := gpu.PrimitivePoints; p <= gpu.PrimitiveTriStrips; p++ {
		prog, err := dev.Program(m.programKey(p, nil))
		if err != nil {
			continue
		}
		m.setMapperUniforms(prog, r, a, nil)
		mode := gpu.Mode(cellmap.Wireframe, p)
		for _, kv := range m.elements.Order {
			el := kv.Value
			count := el.selectionNext[p] - el.selectionStart[p]
			if count == 0 || !shouldDraw(el, false, a) {
				continue
			}
			m.setShaderValues(prog, nil, el, m.strategy.PrimitiveIDOffset(el, p, mode), true)
			if mode == gpu.TopologyPoints {
				dev.SetPointSize(selectionPointSize)
			} else {
				dev.SetLineWidth(min(max(app.LineWidth, 1), max(dev.Capabilities().MaxLineWidth, 1)))
			}
			dev.DrawRangeElements(mode, gpu.SelectionPrimitive(p), el.StartVertex, max(el.NextVertex-1, 0), count, el.selectionStart[p])
		}
	}
}

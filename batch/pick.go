package batch

import (
	"polybatch/selection"
)

// ProcessSelectionPixelBuffers rewrites the id buffers of the current pass
// for the pixels of this batch, turning buffer local vertex and primitive
// ids into point and cell ids of the meshes. pixelOffsets are byte offsets
// of 3 byte pixels the actor covered.
func (m *Mapper) ProcessSelectionPixelBuffers(sel selection.Selector, pixelOffsets []int, a Actor) {
	if !m.PopulateSelectionSettings {
		return
	}
	if sel.CurrentPass() == selection.ActorPass {
		m.pickPixels = nil
		return
	}
	if m.pickPixels == nil && len(pixelOffsets) > 0 {
		composite := sel.RawPixelBuffer(selection.CompositeIndexPass)
		if composite == nil {
			return
		}
		var maxFlat uint32
		for _, kv := range m.elements.Order {
			maxFlat = max(maxFlat, kv.Value.FlatIndex)
		}
		m.pickPixels = make(map[uint32][]int)
		for _, pos := range pixelOffsets {
			v := selection.DecodeID24(composite, pos)
			if v <= maxFlat {
				m.pickPixels[v] = append(m.pickPixels[v], pos)
			}
		}
	}
	for _, kv := range m.elements.Order {
		el := kv.Value
		if pixels := m.pickPixels[el.FlatIndex]; len(pixels) > 0 {
			m.processElementPixels(sel, a, el, pixels)
		}
	}
}

// rawID joins the low 24 bits of low with bits 24 to 31 taken from the
// first byte of high, when the high buffer exists.
func rawID(low, high []uint8, pos int) int64 {
	v := int64(selection.DecodeID24(low, pos))
	if high != nil {
		v |= int64(high[pos]) << 24
	}
	return v
}

func (m *Mapper) processElementPixels(sel selection.Selector, a Actor, el *GLBatchElement, pixels []int) {
	mesh := el.Mesh
	if mesh == nil {
		return
	}
	pass := sel.CurrentPass()
	pointPicking := sel.FieldAssociation() == selection.AssociationPoints
	rawPLow := sel.RawPixelBuffer(selection.PointIDLow24)
	rawPHigh := sel.RawPixelBuffer(selection.PointIDHigh24)

	switch pass {
	case selection.ProcessPass:
		out := sel.PixelBuffer(selection.ProcessPass)
		processes := uintArray(mesh.PointData, m.ProcessIDArrayName)
		if !sel.UseProcessIDFromData() || processes == nil || out == nil || rawPLow == nil {
			return
		}
		for _, pos := range pixels {
			// the point passes were rendered, so the id is past StartVertex
			id := rawID(rawPLow, rawPHigh, pos) - int64(el.StartVertex)
			if id < 0 || id >= int64(processes.NumberOfTuples()) {
				continue
			}
			selection.PutID24(out, pos, processes.Value(int(id))+1)
		}

	case selection.PointIDLow24:
		out := sel.PixelBuffer(selection.PointIDLow24)
		if rawPLow == nil || out == nil {
			return
		}
		// without the high buffer a high id is not complete yet
		if rawPHigh == nil && sel.HasHighPointIDs() {
			return
		}
		ids := idArray(mesh.PointData, m.PointIDArrayName)
		for _, pos := range pixels {
			id := rawID(rawPLow, rawPHigh, pos) - int64(el.StartVertex)
			if ids != nil && id >= 0 && id <= int64(ids.MaxID()) {
				id = ids.Value(int(id))
			}
			selection.PutID24(out, pos, uint32(id))
		}

	case selection.PointIDHigh24:
		out := sel.PixelBuffer(selection.PointIDHigh24)
		if rawPHigh == nil || rawPLow == nil || out == nil {
			return
		}
		ids := idArray(mesh.PointData, m.PointIDArrayName)
		for _, pos := range pixels {
			id := rawID(rawPLow, rawPHigh, pos) - int64(el.StartVertex)
			if ids != nil && id >= 0 && id <= int64(ids.MaxID()) {
				id = ids.Value(int(id))
			}
			selection.PutIDHigh24(out, pos, uint64(id))
		}
	}

	rep := a.Appearance().Representation
	cells := mesh.Cells()
	rawCLow := sel.RawPixelBuffer(selection.CellIDLow24)
	rawCHigh := sel.RawPixelBuffer(selection.CellIDHigh24)

	switch pass {
	case selection.CompositeIndexPass:
		out := sel.PixelBuffer(selection.CompositeIndexPass)
		composite := uintArray(mesh.CellData, m.CompositeIDArrayName)
		if out == nil || composite == nil || rawCLow == nil {
			return
		}
		el.CellMap.Update(cells, rep, mesh.Points)
		for _, pos := range pixels {
			cell := el.CellMap.ConvertPrimitiveIDToCellID(pointPicking, int(rawID(rawCLow, rawCHigh, pos)))
			if cell < composite.NumberOfTuples() {
				selection.PutID24(out, pos, composite.Value(cell))
			}
		}

	case selection.CellIDLow24:
		out := sel.PixelBuffer(selection.CellIDLow24)
		if rawCLow == nil || out == nil {
			return
		}
		el.CellMap.Update(cells, rep, mesh.Points)
		if rawCHigh == nil && sel.HasHighCellIDs() {
			return
		}
		ids := idArray(mesh.CellData, m.CellIDArrayName)
		for _, pos := range pixels {
			cell := int64(el.CellMap.ConvertPrimitiveIDToCellID(pointPicking, int(rawID(rawCLow, rawCHigh, pos))))
			if ids != nil && cell <= int64(ids.MaxID()) {
				cell = ids.Value(int(cell))
			}
			selection.PutID24(out, pos, uint32(cell))
		}

	case selection.CellIDHigh24:
		out := sel.PixelBuffer(selection.CellIDHigh24)
		if rawCHigh == nil || rawCLow == nil || out == nil {
			return
		}
		el.CellMap.Update(cells, rep, mesh.Points)
		ids := idArray(mesh.CellData, m.CellIDArrayName)
		for _, pos := range pixels {
			cell := int64(el.CellMap.ConvertPrimitiveIDToCellID(pointPicking, int(rawID(rawCLow, rawCHigh, pos))))
			if ids != nil && cell <= int64(ids.MaxID()) {
				cell = ids.Value(int(cell))
			}
			selection.PutIDHigh24(out, pos, uint64(cell))
		}
	}
}

package batch

import (
	"log/slog"

	"polybatch/cellmap"
	"polybatch/gpu"
	"polybatch/selection"
)

// selectionPointSize is the point size highlighted points are drawn with.
const selectionPointSize = 5

// shouldDraw is the one filter deciding whether el contributes to the
// current pass. Picking renders every visible pickable element in the
// opaque pass and nothing in the translucent one.
func shouldDraw(el *GLBatchElement, selecting bool, a Actor) bool {
	tpass := a.IsRenderingTranslucentPolygonalGeometry()
	return el.Visibility &&
		(!selecting || el.Pickability) &&
		(((selecting || el.IsOpaque || a.ForceOpaque()) && !tpass) ||
			((!el.IsOpaque || a.ForceTranslucent()) && tpass && !selecting))
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// setMapperUniforms sets the uniforms shared by every element drawn with prog.
func (m *Mapper) setMapperUniforms(prog gpu.Program, r Renderer, a Actor, sel selection.Selector) {
	v := r.View()
	model := a.Matrix()
	prog.SetUniformMatrix4("MCDCMatrix", v.ViewProjection.Mul4(model).Mul4(m.inverse))
	prog.SetUniformMatrix4("MCWCNormalMatrix", model.Inv().Transpose())
	if sel == nil {
		return
	}
	pass := sel.CurrentPass()
	prog.SetUniformi("selectionPass", int32(pass))
	if pass == selection.ActorPass || pass == selection.ProcessPass {
		prog.SetUniform3f("mapperIndex", sel.PropColorValue())
	}
}

// setShaderValues sets the per element uniforms before a windowed draw.
func (m *Mapper) setShaderValues(prog gpu.Program, sel selection.Selector, el *GLBatchElement, primOffset int, drawingSelection bool) {
	if prog.IsUniformUsed("PrimitiveIDOffset") {
		prog.SetUniformi("PrimitiveIDOffset", int32(primOffset))
	}
	if sel != nil {
		if sel.CurrentPass() == selection.CompositeIndexPass && prog.IsUniformUsed("mapperIndex") {
			sel.RenderCompositeIndex(el.FlatIndex)
			prog.SetUniform3f("mapperIndex", sel.PropColorValue())
		}
		return
	}

	opacity := el.Opacity
	if drawingSelection {
		opacity = el.SelectionOpacity
	}
	prog.SetUniformf("opacityUniform", opacity)

	ambient, diffuse := el.AmbientColor.Array(), el.DiffuseColor.Array()
	switch {
	case m.ColorMissingArraysWithNaNColor && !el.hasScalars:
		nan := m.lookupTable().NaNColor
		c := [3]float32{float32(nan[0]) / 255, float32(nan[1]) / 255, float32(nan[2]) / 255}
		ambient, diffuse = c, c
	case drawingSelection:
		ambient, diffuse = el.SelectionColor.Array(), el.SelectionColor.Array()
	}
	prog.SetUniform3f("ambientColorUniform", ambient)
	prog.SetUniform3f("diffuseColorUniform", diffuse)
	if prog.IsUniformUsed("OverridesColor") {
		prog.SetUniformi("OverridesColor", boolToInt(el.OverridesColor))
	}
	if prog.IsUniformUsed("pointScalarsUsed") {
		prog.SetUniformi("pointScalarsUsed", boolToInt(el.havePointScalars))
	}
	if prog.IsUniformUsed("cellScalarsUsed") {
		prog.SetUniformi("cellScalarsUsed", boolToInt(el.haveCellScalars))
	}
	if prog.IsUniformUsed("cellNormalsUsed") {
		prog.SetUniformi("cellNormalsUsed", boolToInt(el.haveCellNormals))
	}
}

func (m *Mapper) programKey(p gpu.PrimitiveType, sel selection.Selector) gpu.ProgramKey {
	return gpu.ProgramKey{
		Prim:         p,
		Picking:      sel != nil,
		PointPicking: isPointPicking(sel),
		CellScalars:  m.haveCellScalars,
		CellNormals:  m.haveCellNormals,
		Expanded:     m.strategy.Expanded(),
	}
}

// Draw issues one windowed draw per primitive type and element that passes
// shouldDraw. A selection pass draws the four cell primitive types only.
func (m *Mapper) Draw(r Renderer, a Actor) {
	if m.strategy == nil {
		return
	}
	dev := r.Device()
	sel := r.Selector()
	app := a.Appearance()
	rep := app.Representation
	pointPicking := isPointPicking(sel)
	if pointPicking {
		rep = cellmap.Points
	}
	last := gpu.NumPrimitiveTypes
	if sel != nil {
		last = gpu.PrimitiveType(gpu.NumCellPrimitives)
	}
	totals := m.strategy.IndexCounts()

	for p := gpu.PrimitivePoints; p < last; p++ {
		if totals[p] == 0 {
			continue
		}
		prog, err := dev.Program(m.programKey(p, sel))
		if err != nil {
			slog.Error("batch: no program, skipping primitive type", "prim", p.String(), "err", err)
			continue
		}
		m.setMapperUniforms(prog, r, a, sel)

		mode := gpu.Mode(rep, p)
		pointSize := app.PointSize
		if pointPicking {
			pointSize = float32(gpu.PointPickingPrimitiveSize(p))
		}
		for _, kv := range m.elements.Order {
			el := kv.Value
			if !shouldDraw(el, sel != nil, a) || el.IndexCount(p) == 0 {
				continue
			}
			m.setShaderValues(prog, sel, el, m.strategy.PrimitiveIDOffset(el, p, mode), false)
			if mode == gpu.TopologyPoints && pointSize > 0 {
				dev.SetPointSize(pointSize)
			}
			m.strategy.Draw(dev, el, p, mode, app.LineWidth)
		}
	}

	if sel == nil && len(m.highlights) > 0 && !m.strategy.Expanded() {
		m.drawHighlights(r, a)
	}
}

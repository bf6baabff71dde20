package batch

import (
	"polybatch/cellmap"
	"polybatch/polydata"
)

// elementData is what one element contributes to a build once its colors,
// normals and representation are resolved.
type elementData struct {
	mesh *polydata.Mesh
	rep  cellmap.Representation

	// pointColors holds RGBA per point, cellColors RGBA per cell; at most
	// one is set.
	pointColors []uint8
	colorSource any
	cellColors  []uint8

	pointNormals *polydata.FloatArray
	cellNormals  *polydata.FloatArray
	tcoords      *polydata.FloatArray
	tangents     *polydata.FloatArray
	edgeFlags    *polydata.ByteArray

	// surfaceEdges draws polygon edges over a surface.
	surfaceEdges bool
	vertices     bool
}

func (d *elementData) hasCellAttributes() bool {
	return d.cellColors != nil || d.cellNormals != nil
}

// colorKey identifies mapped colors so meshes sharing points and scalars
// share vertex data.
type colorKey struct {
	arr  polydata.Array
	comp int
}

func idArray(a *polydata.Attributes, name string) *polydata.IDArray {
	if name == "" {
		return nil
	}
	return a.IDArray(name)
}

func uintArray(a *polydata.Attributes, name string) *polydata.UintArray {
	if name == "" {
		return nil
	}
	return a.UintArray(name)
}

// mapScalars maps the coloring array of el to RGBA bytes. It returns nil
// when scalar coloring is off or the array is missing.
func (m *Mapper) mapScalars(el *GLBatchElement) ([]uint8, polydata.Array, polydata.Association) {
	if !m.ScalarVisibility {
		return nil, nil, polydata.AssociationPoints
	}
	arr, assoc := polydata.GetScalars(el.Mesh, el.Color)
	if arr == nil {
		return nil, nil, assoc
	}
	lut := m.lookupTable()
	if assoc == polydata.AssociationField && el.Color.FieldDataTupleID >= 0 {
		if el.Color.FieldDataTupleID >= arr.NumberOfTuples() {
			return nil, nil, assoc
		}
		c := lut.MapValue(polydata.TupleValue(arr, el.Color.FieldDataTupleID, el.Color.ArrayComponent))
		n := el.Mesh.NumberOfCells()
		colors := make([]uint8, 0, 4*n)
		for i := 0; i < n; i++ {
			colors = append(colors, c[:]...)
		}
		return colors, arr, assoc
	}
	return lut.MapScalars(arr, el.Color.ArrayComponent), arr, assoc
}

// useCellScalars decides whether mapped colors are per cell.
func (m *Mapper) useCellScalars(el *GLBatchElement, colors []uint8) bool {
	mode := el.Color.ScalarMode
	cellMode := mode == polydata.ScalarModeUseCellData ||
		mode == polydata.ScalarModeUseCellFieldData ||
		mode == polydata.ScalarModeUseFieldData
	return m.ScalarVisibility &&
		(cellMode || el.Mesh.PointData.Scalars() == nil) &&
		mode != polydata.ScalarModeUsePointFieldData &&
		colors != nil
}

func (m *Mapper) elementData(el *GLBatchElement, rep cellmap.Representation, app Appearance) *elementData {
	mesh := el.Mesh
	d := &elementData{
		mesh:      mesh,
		rep:       rep,
		tcoords:   mesh.PointData.TCoords(),
		tangents:  mesh.PointData.Tangents(),
		edgeFlags: mesh.PointData.EdgeFlags(),
		// edges are drawn over surfaces only; wireframe already shows them
		surfaceEdges: app.EdgeVisibility && rep == cellmap.Surface,
		vertices:     app.VertexVisibility,
	}

	colors, arr, _ := m.mapScalars(el)
	el.hasScalars = arr != nil
	if m.useCellScalars(el, colors) {
		if len(colors) >= 4*mesh.NumberOfCells() {
			d.cellColors = colors
		}
	} else if colors != nil && len(colors) >= 4*mesh.NumberOfPoints() {
		d.pointColors = colors
		d.colorSource = colorKey{arr: arr, comp: el.Color.ArrayComponent}
	}

	n := mesh.PointData.Normals()
	if app.Interpolation == InterpolationFlat {
		n = nil
	}
	if n != nil && n.NumberOfTuples() >= mesh.NumberOfPoints() {
		d.pointNormals = n
	} else if cn := mesh.CellData.Normals(); cn != nil && cn.NumberOfTuples() >= mesh.NumberOfCells() {
		d.cellNormals = cn
	}
	el.havePointScalars = d.pointColors != nil
	el.haveCellScalars = d.cellColors != nil
	el.haveCellNormals = d.cellNormals != nil
	return d
}

package batch

import (
	"polybatch/base"
	"polybatch/cellmap"
	"polybatch/gpu"
	"polybatch/polydata"
)

// BatchElement holds the per block attributes of one mesh in a batch.
type BatchElement struct {
	Mesh      *polydata.Mesh
	FlatIndex uint32

	Opacity     float32
	Visibility  bool
	Pickability bool
	IsOpaque    bool

	AmbientColor     base.Color
	DiffuseColor     base.Color
	SelectionColor   base.Color
	SelectionOpacity float32
	OverridesColor   bool

	Color polydata.ColorConfig

	// Marked is set by AddOrUpdate and cleared by UnmarkAll.
	Marked bool
}

// NewBatchElement returns an element for mesh with the attributes of an
// unstyled block.
func NewBatchElement(mesh *polydata.Mesh) BatchElement {
	return BatchElement{
		Mesh:             mesh,
		Opacity:          1,
		Visibility:       true,
		Pickability:      true,
		IsOpaque:         true,
		AmbientColor:     base.ColorWhite,
		DiffuseColor:     base.ColorWhite,
		SelectionColor:   base.ColorRed,
		SelectionOpacity: 1,
		Color:            polydata.DefaultColorConfig(),
	}
}

// GLBatchElement is a BatchElement plus where its data landed in the last
// build. Index windows are [StartIndex[p], NextIndex[p]) per primitive type
// and the element's vertices are [StartVertex, NextVertex).
type GLBatchElement struct {
	BatchElement

	StartIndex  [gpu.NumPrimitiveTypes]int
	NextIndex   [gpu.NumPrimitiveTypes]int
	StartVertex int
	NextVertex  int

	CellMap *cellmap.Map

	// highlight windows into the selection index buffers
	selectionStart [gpu.NumCellPrimitives]int
	selectionNext  [gpu.NumCellPrimitives]int
	// hasScalars records whether the coloring array was found
	hasScalars       bool
	havePointScalars bool
	haveCellScalars  bool
	haveCellNormals  bool
}

// IndexCount returns the size of the element's window for p.
func (el *GLBatchElement) IndexCount(p gpu.PrimitiveType) int {
	return el.NextIndex[p] - el.StartIndex[p]
}

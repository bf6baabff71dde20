package polydata

import "polybatch/base"

// CellArray stores variable-length cells as an offsets table plus a flat
// connectivity list. Cell i spans connectivity[offsets[i]:offsets[i+1]].
type CellArray struct {
	offsets      []int
	connectivity []int
	mtime        base.TimeStamp
}

func NewCellArray() *CellArray {
	ca := &CellArray{offsets: []int{0}}
	ca.mtime.Modified()
	return ca
}

// InsertNextCell appends a cell and returns its index within this array.
func (ca *CellArray) InsertNextCell(ids ...int) int {
	ca.connectivity = append(ca.connectivity, ids...)
	ca.offsets = append(ca.offsets, len(ca.connectivity))
	ca.mtime.Modified()
	return len(ca.offsets) - 2
}

// Reset removes every cell.
func (ca *CellArray) Reset() {
	ca.offsets = ca.offsets[:1]
	ca.connectivity = ca.connectivity[:0]
	ca.mtime.Modified()
}

func (ca *CellArray) NumberOfCells() int {
	if ca == nil || len(ca.offsets) == 0 {
		return 0
	}
	return len(ca.offsets) - 1
}

// NumberOfConnectivityIDs returns the total number of point ids over all cells.
func (ca *CellArray) NumberOfConnectivityIDs() int {
	if ca == nil {
		return 0
	}
	return len(ca.connectivity)
}

// Cell returns the point ids of cell i. The slice aliases internal storage.
func (ca *CellArray) Cell(i int) []int {
	return ca.connectivity[ca.offsets[i]:ca.offsets[i+1]]
}

// Each calls fn for every cell in order.
func (ca *CellArray) Each(fn func(cellID int, pts []int)) {
	if ca == nil {
		return
	}
	for i := 0; i+1 < len(ca.offsets); i++ {
		fn(i, ca.connectivity[ca.offsets[i]:ca.offsets[i+1]])
	}
}

func (ca *CellArray) MTime() base.TimeStamp {
	if ca == nil {
		return base.TimeStamp{}
	}
	return ca.mtime
}

func (ca *CellArray) Modified() {
	ca.mtime.Modified()
}

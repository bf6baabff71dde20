package polydata

import "polybatch/base"

// Attributes is an ordered set of named arrays attached to points, cells
// or the whole mesh, with optional active scalars, normals, texture
// coordinates, tangents and edge flags.
type Attributes struct {
	arrays    []Array
	scalars   string
	normals   string
	tcoords   string
	tangents  string
	edgeFlags string
	mtime     base.TimeStamp
}

func NewAttributes() *Attributes {
	return &Attributes{}
}

// AddArray inserts arr, replacing an existing array with the same name.
func (a *Attributes) AddArray(arr Array) {
	defer a.mtime.Modified()
	for i, existing := range a.arrays {
		if existing.Name() == arr.Name() {
			a.arrays[i] = arr
			return
		}
	}
	a.arrays = append(a.arrays, arr)
}

// RemoveArray drops the named array; it reports whether it was present.
func (a *Attributes) RemoveArray(name string) bool {
	for i, existing := range a.arrays {
		if existing.Name() == name {
			a.arrays = append(a.arrays[:i], a.arrays[i+1:]...)
			a.mtime.Modified()
			return true
		}
	}
	return false
}

func (a *Attributes) NumberOfArrays() int {
	if a == nil {
		return 0
	}
	return len(a.arrays)
}

// Array returns the named array or nil.
func (a *Attributes) Array(name string) Array {
	if a == nil || name == "" {
		return nil
	}
	for _, arr := range a.arrays {
		if arr.Name() == name {
			return arr
		}
	}
	return nil
}

// ArrayAt returns the i-th array or nil when out of range.
func (a *Attributes) ArrayAt(i int) Array {
	if a == nil || i < 0 || i >= len(a.arrays) {
		return nil
	}
	return a.arrays[i]
}

func (a *Attributes) SetScalars(arr Array) {
	a.AddArray(arr)
	a.scalars = arr.Name()
}

func (a *Attributes) SetNormals(arr *FloatArray) {
	a.AddArray(arr)
	a.normals = arr.Name()
}

func (a *Attributes) SetTCoords(arr *FloatArray) {
	a.AddArray(arr)
	a.tcoords = arr.Name()
}

func (a *Attributes) SetTangents(arr *FloatArray) {
	a.AddArray(arr)
	a.tangents = arr.Name()
}

func (a *Attributes) SetEdgeFlags(arr *ByteArray) {
	a.AddArray(arr)
	a.edgeFlags = arr.Name()
}

func (a *Attributes) Scalars() Array {
	if a == nil {
		return nil
	}
	return a.Array(a.scalars)
}

func (a *Attributes) Normals() *FloatArray {
	if a == nil {
		return nil
	}
	n, _ := a.Array(a.normals).(*FloatArray)
	return n
}

func (a *Attributes) TCoords() *FloatArray {
	if a == nil {
		return nil
	}
	tc, _ := a.Array(a.tcoords).(*FloatArray)
	return tc
}

func (a *Attributes) Tangents() *FloatArray {
	if a == nil {
		return nil
	}
	t, _ := a.Array(a.tangents).(*FloatArray)
	return t
}

// EdgeFlags returns the active edge flag array when it is a single
// component byte array, the only layout the index builder understands.
func (a *Attributes) EdgeFlags() *ByteArray {
	if a == nil {
		return nil
	}
	ef, _ := a.Array(a.edgeFlags).(*ByteArray)
	if ef == nil || ef.NumberOfComponents() != 1 {
		return nil
	}
	return ef
}

// IDArray returns the named array when it is an *IDArray.
func (a *Attributes) IDArray(name string) *IDArray {
	ids, _ := a.Array(name).(*IDArray)
	return ids
}

// UintArray returns the named array when it is a *UintArray.
func (a *Attributes) UintArray(name string) *UintArray {
	ids, _ := a.Array(name).(*UintArray)
	return ids
}

// MTime is the latest modification of the set or any of its arrays.
func (a *Attributes) MTime() base.TimeStamp {
	if a == nil {
		return base.TimeStamp{}
	}
	latest := a.mtime
	for _, arr := range a.arrays {
		if latest.Before(arr.MTime()) {
			latest = arr.MTime()
		}
	}
	return latest
}

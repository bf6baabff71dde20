package polydata

import (
	gomath "math"

	"polybatch/base"
)

// Array is the read interface shared by every attribute array.
type Array interface {
	Name() string
	NumberOfTuples() int
	NumberOfComponents() int
	// Component returns one value converted to float64.
	Component(tuple, comp int) float64
	MTime() base.TimeStamp
}

type arrayBase struct {
	name  string
	comps int
	mtime base.TimeStamp
}

func (a *arrayBase) Name() string { return a.name }
func (a *arrayBase) NumberOfComponents() int { return a.comps }
func (a *arrayBase) MTime() base.TimeStamp { return a.mtime }
func (a *arrayBase) Modified() { a.mtime.Modified() }

func newBase(name string, comps int) arrayBase {
	b := arrayBase{name: name, comps: max(comps, 1)}
	b.mtime.Modified()
	return b
}

// FloatArray holds float32 tuples: normals, texture coordinates, tangents
// and generic scalars.
type FloatArray struct {
	arrayBase
	Values []float32
}

func NewFloatArray(name string, comps int, values []float32) *FloatArray {
	return &FloatArray{arrayBase: newBase(name, comps), Values: values}
}

func (a *FloatArray) NumberOfTuples() int { return len(a.Values) / a.comps }

func (a *FloatArray) Component(tuple, comp int) float64 {
	return float64(a.Values[tuple*a.comps+comp])
}

func (a *FloatArray) Tuple(i int) []float32 {
	return a.Values[i*a.comps : (i+1)*a.comps]
}

// IDArray maps local ids to global ids, used to remap picked point and cell ids.
type IDArray struct {
	arrayBase
	Values []int64
}

func NewIDArray(name string, values []int64) *IDArray {
	return &IDArray{arrayBase: newBase(name, 1), Values: values}
}

func (a *IDArray) NumberOfTuples() int { return len(a.Values) }
func (a *IDArray) Component(tuple, comp int) float64 { return float64(a.Values[tuple]) }
func (a *IDArray) Value(i int) int64 { return a.Values[i] }

// MaxID returns the last valid index, -1 when empty.
func (a *IDArray) MaxID() int { return len(a.Values) - 1 }

// UintArray holds unsigned ids such as process ids and composite ids.
type UintArray struct {
	arrayBase
	Values []uint32
}

func NewUintArray(name string, values []uint32) *UintArray {
	return &UintArray{arrayBase: newBase(name, 1), Values: values}
}

func (a *UintArray) NumberOfTuples() int { return len(a.Values) }
func (a *UintArray) Component(tuple, comp int) float64 { return float64(a.Values[tuple]) }
func (a *UintArray) Value(i int) uint32 { return a.Values[i] }

// ByteArray holds uint8 tuples: direct RGB(A) colors and edge flags.
type ByteArray struct {
	arrayBase
	Values []uint8
}

func NewByteArray(name string, comps int, values []uint8) *ByteArray {
	return &ByteArray{arrayBase: newBase(name, comps), Values: values}
}

func (a *ByteArray) NumberOfTuples() int { return len(a.Values) / a.comps }

func (a *ByteArray) Component(tuple, comp int) float64 {
	return float64(a.Values[tuple*a.comps+comp])
}

// TupleValue returns the scalar used for color mapping: the requested
// component, or the magnitude when comp < 0 and the array has several components.
func TupleValue(a Array, tuple, comp int) float64 {
	n := a.NumberOfComponents()
	if comp >= 0 && comp < n {
		return a.Component(tuple, comp)
	}
	if n == 1 {
		return a.Component(tuple, 0)
	}
	var sum float64
	for c := 0; c < n; c++ {
		v := a.Component(tuple, c)
		sum += v * v
	}
	return gomath.Sqrt(sum)
}

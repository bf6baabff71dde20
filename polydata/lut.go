package polydata

import gomath "math"

// LookupTable maps scalar values to RGBA bytes through a linear hue ramp.
type LookupTable struct {
	Range    [2]float64
	HueRange [2]float64
	NaNColor [4]uint8
	// Indexed treats values as category indices into the table.
	Indexed bool

	table [][4]uint8
}

// NewLookupTable builds a red-to-blue table of n colors over [lo, hi].
func NewLookupTable(n int, lo, hi float64) *LookupTable {
	lut := &LookupTable{
		Range:    [2]float64{lo, hi},
		HueRange: [2]float64{0, 0.6667},
		NaNColor: [4]uint8{128, 0, 0, 255},
	}
	lut.Build(max(n, 2))
	return lut
}

// Build regenerates the color table with n entries.
func (lut *LookupTable) Build(n int) {
	lut.table = make([][4]uint8, n)
	for i := range lut.table {
		t := float64(i) / float64(n-1)
		h := lut.HueRange[0] + t*(lut.HueRange[1]-lut.HueRange[0])
		r, g, b := hsvToRGB(h, 1, 1)
		lut.table[i] = [4]uint8{toByte(r), toByte(g), toByte(b), 255}
	}
}

func (lut *LookupTable) NumberOfColors() int {
	return len(lut.table)
}

// MapValue returns the color for v.
func (lut *LookupTable) MapValue(v float64) [4]uint8 {
	if gomath.IsNaN(v) {
		return lut.NaNColor
	}
	n := len(lut.table)
	if lut.Indexed {
		idx := int(gomath.Floor(v))
		if idx < 0 {
			return lut.NaNColor
		}
		return lut.table[idx%n]
	}
	lo, hi := lut.Range[0], lut.Range[1]
	var t float64
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}
	idx := int(t * float64(n))
	idx = min(max(idx, 0), n-1)
	return lut.table[idx]
}

// MapScalars converts every tuple of arr to RGBA bytes. Unsigned byte
// arrays with three or four components are taken as colors directly.
func (lut *LookupTable) MapScalars(arr Array, comp int) []uint8 {
	n := arr.NumberOfTuples()
	out := make([]uint8, 0, 4*n)
	if direct, ok := arr.(*ByteArray); ok && direct.NumberOfComponents() >= 3 {
		c := direct.NumberOfComponents()
		for i := 0; i < n; i++ {
			t := direct.Values[i*c : (i+1)*c]
			alpha := uint8(255)
			if c > 3 {
				alpha = t[3]
			}
			out = append(out, t[0], t[1], t[2], alpha)
		}
		return out
	}
	for i := 0; i < n; i++ {
		rgba := lut.MapValue(TupleValue(arr, i, comp))
		out = append(out, rgba[:]...)
	}
	return out
}

func toByte(f float64) uint8 {
	return uint8(gomath.Round(255 * min(max(f, 0), 1)))
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = gomath.Mod(h, 1) * 6
	i := gomath.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

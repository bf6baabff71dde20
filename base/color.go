package base

// Color is an RGB triple in [0, 1]; alpha is carried separately as opacity.
type Color struct {
	R, G, B float32
}

var (
	ColorWhite = Color{1, 1, 1}
	ColorBlack = Color{0, 0, 0}
	ColorRed   = Color{1, 0, 0}
	ColorGreen = Color{0, 1, 0}
	ColorBlue  = Color{0, 0, 1}
)

// Array returns the color as a [3]float32 for uniform uploads.
func (c Color) Array() [3]float32 {
	return [3]float32{c.R, c.G, c.B}
}

// Scale multiplies every channel by f.
func (c Color) Scale(f float32) Color {
	return Color{c.R * f, c.G * f, c.B * f}
}

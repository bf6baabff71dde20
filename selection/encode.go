package selection

// Ids are written to the color buffer 24 bits at a time, least significant
// byte in red. Buffers handed to decoders hold 3 bytes per pixel.

const maxID24 = 1<<24 - 1

// EncodeID24 returns the normalized color that encodes the low 24 bits of id.
func EncodeID24(id uint32) [3]float32 {
	return [3]float32{
		float32(id&0xff) / 255,
		float32(id>>8&0xff) / 255,
		float32(id>>16&0xff) / 255,
	}
}

// DecodeID24 reads the 24 bit value stored at byte offset pos.
func DecodeID24(buf []uint8, pos int) uint32 {
	return uint32(buf[pos]) | uint32(buf[pos+1])<<8 | uint32(buf[pos+2])<<16
}

// PutID24 writes the low 24 bits of v at byte offset pos.
func PutID24(buf []uint8, pos int, v uint32) {
	buf[pos] = uint8(v)
	buf[pos+1] = uint8(v >> 8)
	buf[pos+2] = uint8(v >> 16)
}

// PutIDHigh24 writes bits 24 to 47 of v at byte offset pos.
func PutIDHigh24(buf []uint8, pos int, v uint64) {
	buf[pos] = uint8(v >> 24)
	buf[pos+1] = uint8(v >> 32)
	buf[pos+2] = uint8(v >> 40)
}

// Combine48 joins a low and a high 24 bit pass value.
func Combine48(low, high uint32) uint64 {
	return uint64(low&maxID24) | uint64(high&maxID24)<<24
}

// rgbaToRGB drops the alpha channel of a read back buffer.
func rgbaToRGB(rgba []uint8) []uint8 {
	n := len(rgba) / 4
	out := make([]uint8, 3*n)
	for i := 0; i < n; i++ {
		copy(out[3*i:3*i+3], rgba[4*i:4*i+3])
	}
	return out
}

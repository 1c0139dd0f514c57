package interchange

// ARGB packs a color the way mesh colors store it.
func ARGB(a, r, g, b uint8) int32 {
	return int32(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// UnpackARGB ...
func UnpackARGB(c int32) (a, r, g, b uint8) {
	u := uint32(c)
	return uint8(u >> 24), uint8(u >> 16), uint8(u >> 8), uint8(u)
}

// Alpha returns the alpha channel of a packed color.
func Alpha(c int32) uint8 {
	return uint8(uint32(c) >> 24)
}

// Transparent is the fully transparent color of gap cells.
const Transparent int32 = 0

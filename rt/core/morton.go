package core

// Morton encoding interleaves the bits of three coordinates so that one
// integer addresses a cell of an octree/ring in locality-preserving order.
// Coordinates up to 10 bits per axis fit the 32-bit code versions used here.

func splitBy2(x uint32) uint32 {
	x &= 0x3ff
	x = (x | (x << 16)) & 0x030000ff
	x = (x | (x << 8)) & 0x0300f00f
	x = (x | (x << 4)) & 0x030c30c3
	x = (x | (x << 2)) & 0x09249249
	return x
}

func compactBy2(x uint32) uint32 {
	x &= 0x09249249
	x = (x | (x >> 2)) & 0x030c30c3
	x = (x | (x >> 4)) & 0x0300f00f
	x = (x | (x >> 8)) & 0x030000ff
	x = (x | (x >> 16)) & 0x3ff
	return x
}

// MortonEncode3 packs (x, y, z) with x at bit 0, y at bit 1, z at bit 2.
func MortonEncode3(x, y, z uint32) uint32 {
	return splitBy2(x) | (splitBy2(y) << 1) | (splitBy2(z) << 2)
}

func MortonDecode3(m uint32) (x, y, z uint32) {
	return compactBy2(m), compactBy2(m >> 1), compactBy2(m >> 2)
}

// OctantOf packs three single-bit axis selectors into a 3-bit octant code.
func OctantOf(x, y, z uint32) uint32 {
	return (x & 1) | ((y & 1) << 1) | ((z & 1) << 2)
}

// OctantAxis extracts the selector for axis (0=x, 1=y, 2=z) from an octant.
func OctantAxis(octant uint32, axis int) uint32 {
	return (octant >> uint(axis)) & 1
}

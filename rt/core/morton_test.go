package core

import "testing"

func TestMortonRoundTrip(t *testing.T) {
	// Exhaustive over a coarse lattice plus the axis extremes.
	for x := uint32(0); x < 1024; x += 31 {
		for y := uint32(0); y < 1024; y += 37 {
			for z := uint32(0); z < 1024; z += 41 {
				m := MortonEncode3(x, y, z)
				dx, dy, dz := MortonDecode3(m)
				if dx != x || dy != y || dz != z {
					t.Fatalf("Round trip failed for (%d,%d,%d): got (%d,%d,%d)", x, y, z, dx, dy, dz)
				}
			}
		}
	}

	m := MortonEncode3(1023, 1023, 1023)
	dx, dy, dz := MortonDecode3(m)
	if dx != 1023 || dy != 1023 || dz != 1023 {
		t.Fatalf("Round trip failed at max coordinate, got (%d,%d,%d)", dx, dy, dz)
	}
}

func TestMortonAxisBits(t *testing.T) {
	if MortonEncode3(1, 0, 0) != 1 {
		t.Error("x should map to bit 0")
	}
	if MortonEncode3(0, 1, 0) != 2 {
		t.Error("y should map to bit 1")
	}
	if MortonEncode3(0, 0, 1) != 4 {
		t.Error("z should map to bit 2")
	}
}

func TestOctantHelpers(t *testing.T) {
	for oct := uint32(0); oct < 8; oct++ {
		x, y, z := OctantAxis(oct, 0), OctantAxis(oct, 1), OctantAxis(oct, 2)
		if OctantOf(x, y, z) != oct {
			t.Errorf("Octant %d did not survive axis split", oct)
		}
	}
}

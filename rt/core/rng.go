package core

import "math"

// Rng is a per-invocation xorshift generator. Each pixel/voxel query seeds
// its own value so nothing is shared across invocations.
type Rng struct {
	state uint32
}

// hashHugoElias mixes an integer into an avalanche-quality 32-bit hash.
func hashHugoElias(x uint32) uint32 {
	x += x << 10
	x ^= x >> 6
	x += x << 3
	x ^= x >> 11
	x += x << 15
	return x
}

// SeedRng derives a deterministic per-pixel, per-frame state. Same inputs
// always yield the same sequence.
func SeedRng(pixelX, pixelY, frame uint32) Rng {
	seed := hashHugoElias(pixelX + hashHugoElias(pixelY+hashHugoElias(frame)))
	if seed == 0 {
		seed = 1
	}
	return Rng{state: seed}
}

func (r *Rng) Next() uint32 {
	x := r.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.state = x
	return x
}

// Float32 maps the top 23 bits of the next output into the mantissa of a
// float in [1,2) and shifts it down to [0,1).
func (r *Rng) Float32() float32 {
	bits := (r.Next() >> 9) | 0x3f800000
	return math.Float32frombits(bits) - 1.0
}

// TriangleDither returns triangular-distribution noise in (-1, 1), used to
// decorrelate quantization error when writing out 8-bit channels.
func (r *Rng) TriangleDither() float32 {
	return r.Float32() - r.Float32()
}

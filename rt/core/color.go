package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SrgbToLinear converts one sRGB channel in [0,1] to linear light.
func SrgbToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(math.Pow(float64(c+0.055)/1.055, 2.4))
}

// LinearToSrgb converts one linear channel in [0,1] to sRGB.
func LinearToSrgb(c float32) float32 {
	if c <= 0.0031308 {
		return c * 12.92
	}
	return float32(1.055*math.Pow(float64(c), 1.0/2.4)) - 0.055
}

func SrgbToLinearVec(c mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{SrgbToLinear(c[0]), SrgbToLinear(c[1]), SrgbToLinear(c[2])}
}

func LinearToSrgbVec(c mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{LinearToSrgb(c[0]), LinearToSrgb(c[1]), LinearToSrgb(c[2])}
}

// Material words pack a 2-bit type tag and three sRGB byte channels:
// bits[31:30] type (0 = diffuse), [23:16] R, [15:8] G, [7:0] B.
const (
	MaterialTypeDiffuse = 0
	MaterialTypeUnknown = 0xFF
)

type Material struct {
	Type uint32
	// Albedo in linear space, ready for shading math.
	Albedo mgl32.Vec3
}

func EncodeMaterial(mat Material) uint32 {
	srgb := LinearToSrgbVec(mat.Albedo)
	qr := uint32(srgb[0] * 255.0)
	qg := uint32(srgb[1] * 255.0)
	qb := uint32(srgb[2] * 255.0)
	return (mat.Type << 30) | (qr << 16) | (qg << 8) | qb
}

// DecodeMaterial returns ok=false for an unrecognized material type; the
// caller substitutes a placeholder color so authoring bugs stay visible
// without crashing the query.
func DecodeMaterial(word uint32) (Material, bool) {
	matType := word >> 30
	if matType != MaterialTypeDiffuse {
		return Material{Type: MaterialTypeUnknown}, false
	}
	srgb := mgl32.Vec3{
		float32((word>>16)&0xFF) / 255.0,
		float32((word>>8)&0xFF) / 255.0,
		float32(word&0xFF) / 255.0,
	}
	return Material{Type: matType, Albedo: SrgbToLinearVec(srgb)}, true
}

// Normal words store each component remapped from [-1,1] into a byte:
// [23:16] x, [15:8] y, [7:0] z.

func EncodeNormal(n mgl32.Vec3) uint32 {
	enc := func(c float32) uint32 {
		v := int32((c*0.5 + 0.5) * 255.0)
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		return uint32(v)
	}
	return (enc(n[0]) << 16) | (enc(n[1]) << 8) | enc(n[2])
}

func DecodeNormal(word uint32) mgl32.Vec3 {
	dec := func(b uint32) float32 {
		return (float32(b)/255.0)*2.0 - 1.0
	}
	return mgl32.Vec3{
		dec((word >> 16) & 0xFF),
		dec((word >> 8) & 0xFF),
		dec(word & 0xFF),
	}
}

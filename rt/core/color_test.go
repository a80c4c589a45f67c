package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSrgbRoundTrip(t *testing.T) {
	for c := float32(0); c <= 1.0; c += 0.01 {
		back := LinearToSrgb(SrgbToLinear(c))
		if math.Abs(float64(back-c)) > 1e-4 {
			t.Fatalf("sRGB round trip drifted at %f: %f", c, back)
		}
	}
}

func TestMaterialEncodeDecode(t *testing.T) {
	mat := Material{Type: MaterialTypeDiffuse, Albedo: SrgbToLinearVec(mgl32.Vec3{1, 0, 0})}
	word := EncodeMaterial(mat)

	if (word>>16)&0xFF != 255 || (word>>8)&0xFF != 0 || word&0xFF != 0 {
		t.Fatalf("Red material encoded wrong: %08x", word)
	}

	dec, ok := DecodeMaterial(word)
	if !ok {
		t.Fatal("Diffuse material should decode")
	}
	if math.Abs(float64(dec.Albedo[0]-1.0)) > 0.01 || dec.Albedo[1] != 0 || dec.Albedo[2] != 0 {
		t.Errorf("Decoded albedo drifted: %v", dec.Albedo)
	}
}

func TestMaterialUnknownType(t *testing.T) {
	word := uint32(2)<<30 | 0x00FF00FF
	if _, ok := DecodeMaterial(word); ok {
		t.Error("Unknown material type must not decode as valid")
	}
}

func TestNormalEncodeDecode(t *testing.T) {
	cases := []mgl32.Vec3{
		{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, 0, -1},
		mgl32.Vec3{1, 1, 1}.Normalize(),
		mgl32.Vec3{-2, 3, 0.5}.Normalize(),
	}
	for _, n := range cases {
		dec := DecodeNormal(EncodeNormal(n))
		for i := 0; i < 3; i++ {
			if math.Abs(float64(dec[i]-n[i])) > 2.0/255.0+1e-4 {
				t.Errorf("Normal %v decoded to %v, axis %d off by more than one quantum", n, dec, i)
			}
		}
	}
}

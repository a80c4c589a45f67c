package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Camera struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32
	FovDeg   float32
}

func NewCamera() *Camera {
	return &Camera{
		Position: mgl32.Vec3{0, 2, 20},
		FovDeg:   60,
	}
}

func (c *Camera) Forward() mgl32.Vec3 {
	// Z-up: forward in the XY plane, Z for pitch
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Pitch)) * math.Sin(float64(c.Yaw))),
		float32(-math.Cos(float64(c.Pitch)) * math.Cos(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
	}
}

func (c *Camera) Right() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Yaw))),
		float32(math.Sin(float64(c.Yaw))),
		0,
	}
}

func (c *Camera) Up() mgl32.Vec3 {
	return c.Right().Cross(c.Forward()).Mul(-1)
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	eye := c.Position
	target := eye.Add(c.Forward())
	return mgl32.LookAtV(eye, target, mgl32.Vec3{0, 0, 1})
}

// PrimaryRay builds the ray through pixel (px, py) of a width x height
// image. jitterX/jitterY in [0,1) subsample the pixel footprint for
// temporal accumulation.
func (c *Camera) PrimaryRay(px, py, width, height int, jitterX, jitterY float32) Ray {
	aspect := float32(width) / float32(height)
	halfTan := float32(math.Tan(float64(mgl32.DegToRad(c.FovDeg)) * 0.5))

	u := ((float32(px)+jitterX)/float32(width))*2 - 1
	v := 1 - ((float32(py)+jitterY)/float32(height))*2

	forward := c.Forward()
	right := c.Right().Mul(u * halfTan * aspect)
	up := c.Up().Mul(v * halfTan)

	dir := forward.Add(right).Add(up).Normalize()
	return NewRay(c.Position, dir)
}

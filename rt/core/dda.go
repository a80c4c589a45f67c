package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// GridDDA steps a ray through an integer grid overlaid on an AABB. Axes
// whose accumulated t are tied at the minimum all advance in the same step,
// so diagonal cell corners are never skipped.
type GridDDA struct {
	CurrGrid [3]int
	unitGrid [3]int
	currT    mgl32.Vec3
	unitT    mgl32.Vec3
	bounds   [3]int

	// Distance already travelled to the cell the cursor sits in, in ray
	// parameter units, measured from the ray origin used at construction.
	EnterT float32
	// Axes stepped by the most recent Step call, as a sign vector. Zero
	// before the first step.
	StepAxes [3]int
}

// BeginDDA assumes the ray origin has been advanced onto (or into) the AABB.
// bounds gives the grid resolution per axis inside the box.
func BeginDDA(ray Ray, aabb AABB, bounds [3]int) GridDDA {
	side := aabb.SideLength()
	local := ray.Origin.Sub(aabb.Min())

	var d GridDDA
	d.bounds = bounds
	for i := 0; i < 3; i++ {
		norm := local[i] / side[i]
		if norm < 0 {
			norm = 0
		} else if norm > 0.9999 {
			norm = 0.9999
		}
		pos := norm * float32(bounds[i])
		d.CurrGrid[i] = int(math.Floor(float64(pos)))

		cellScale := side[i] / float32(bounds[i])

		// Zero direction axes never trigger a step: unit step +1 with an
		// effectively infinite step time.
		if ray.Dir[i] > 0 {
			d.unitGrid[i] = 1
		} else if ray.Dir[i] < 0 {
			d.unitGrid[i] = -1
		} else {
			d.unitGrid[i] = 1
			d.currT[i] = math.MaxFloat32
			d.unitT[i] = 0
			continue
		}

		next := float32(d.CurrGrid[i]) + float32(d.unitGrid[i])*0.5 + 0.5
		d.currT[i] = (next - pos) * cellScale * ray.InvDir[i]
		d.unitT[i] = cellScale * abs32(ray.InvDir[i])
	}
	return d
}

func (d *GridDDA) InBounds() bool {
	for i := 0; i < 3; i++ {
		if d.CurrGrid[i] < 0 || d.CurrGrid[i] >= d.bounds[i] {
			return false
		}
	}
	return true
}

func (d *GridDDA) Step() {
	minT := min32(d.currT[0], min32(d.currT[1], d.currT[2]))
	d.EnterT = minT
	for i := 0; i < 3; i++ {
		if d.currT[i] == minT {
			d.StepAxes[i] = d.unitGrid[i]
			d.CurrGrid[i] += d.unitGrid[i]
			d.currT[i] += d.unitT[i]
		} else {
			d.StepAxes[i] = 0
		}
	}
}

// StepNormal is the face normal of the boundary crossed by the last Step,
// pointing back toward the ray.
func (d *GridDDA) StepNormal() mgl32.Vec3 {
	return mgl32.Vec3{
		-float32(d.StepAxes[0]),
		-float32(d.StepAxes[1]),
		-float32(d.StepAxes[2]),
	}
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

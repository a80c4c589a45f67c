package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// InvDirMax caps reciprocal direction components so that a zero direction
// axis behaves as "never crosses a plane on this axis" instead of producing
// NaNs inside the slab min/max reduction.
const InvDirMax = float32(1e30)

type Ray struct {
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
	InvDir mgl32.Vec3
}

func NewRay(origin, dir mgl32.Vec3) Ray {
	var inv mgl32.Vec3
	for i := 0; i < 3; i++ {
		d := dir[i]
		if d == 0 {
			inv[i] = InvDirMax
		} else {
			r := 1.0 / d
			if r > InvDirMax {
				r = InvDirMax
			} else if r < -InvDirMax {
				r = -InvDirMax
			}
			inv[i] = r
		}
	}
	return Ray{Origin: origin, Dir: dir, InvDir: inv}
}

func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// IntersectPoint returns the per-axis t values at which the ray reaches the
// axis planes through point.
func (r Ray) IntersectPoint(point mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		(point[0] - r.Origin[0]) * r.InvDir[0],
		(point[1] - r.Origin[1]) * r.InvDir[1],
		(point[2] - r.Origin[2]) * r.InvDir[2],
	}
}

// AABB is stored as center + half extent. Octant subdivision always bisects
// around the center, so the symmetric form keeps that math additive.
type AABB struct {
	Center     mgl32.Vec3
	HalfExtent mgl32.Vec3
}

func NewAABB(center, halfExtent mgl32.Vec3) AABB {
	return AABB{Center: center, HalfExtent: halfExtent}
}

func AABBFromMinMax(min, max mgl32.Vec3) AABB {
	return AABB{
		Center:     min.Add(max).Mul(0.5),
		HalfExtent: max.Sub(min).Mul(0.5),
	}
}

func (a AABB) Min() mgl32.Vec3 {
	return a.Center.Sub(a.HalfExtent)
}

func (a AABB) Max() mgl32.Vec3 {
	return a.Center.Add(a.HalfExtent)
}

func (a AABB) SideLength() mgl32.Vec3 {
	return a.HalfExtent.Mul(2)
}

func (a AABB) ContainsPoint(p mgl32.Vec3) bool {
	min, max := a.Min(), a.Max()
	return p[0] >= min[0] && p[1] >= min[1] && p[2] >= min[2] &&
		p[0] < max[0] && p[1] < max[1] && p[2] < max[2]
}

// RayAABBInfo carries everything a traversal needs from a slab test: the
// clamped and unclamped entry distances, the exit distance, the per-axis
// minima/maxima (used to recover the entry/exit face) and the hit flag.
type RayAABBInfo struct {
	TEnter        float32
	TEnterUnbound float32
	TExit         float32
	TMinAxes      mgl32.Vec3
	TMaxAxes      mgl32.Vec3
	Hit           bool
}

// RayToAABB runs the slab test. Infinities coming from clamped reciprocal
// directions are valid inputs to the min/max reduction here.
func RayToAABB(r Ray, aabb AABB) RayAABBInfo {
	t0 := r.IntersectPoint(aabb.Min())
	t1 := r.IntersectPoint(aabb.Max())

	var tMin, tMax mgl32.Vec3
	for i := 0; i < 3; i++ {
		tMin[i] = min32(t0[i], t1[i])
		tMax[i] = max32(t0[i], t1[i])
	}

	tEnterUnbound := max32(tMin[0], max32(tMin[1], tMin[2]))
	tEnter := max32(tEnterUnbound, 0)
	tExit := min32(tMax[0], min32(tMax[1], tMax[2]))

	return RayAABBInfo{
		TEnter:        tEnter,
		TEnterUnbound: tEnterUnbound,
		TExit:         tExit,
		TMinAxes:      tMin,
		TMaxAxes:      tMax,
		Hit:           tExit > tEnter,
	}
}

// EntryFaceNormal recovers the normal of the AABB face the ray entered
// through, pointing back toward the ray. For origins inside the box it
// falls back to the reversed ray direction.
func EntryFaceNormal(r Ray, info RayAABBInfo) mgl32.Vec3 {
	if info.TEnterUnbound < 0 {
		return r.Dir.Mul(-1)
	}
	axis := 0
	for i := 1; i < 3; i++ {
		if info.TMinAxes[i] > info.TMinAxes[axis] {
			axis = i
		}
	}
	var n mgl32.Vec3
	if r.Dir[axis] > 0 {
		n[axis] = -1
	} else {
		n[axis] = 1
	}
	return n
}

func min32(a, b float32) float32 {
	return float32(math.Min(float64(a), float64(b)))
}

func max32(a, b float32) float32 {
	return float32(math.Max(float64(a), float64(b)))
}

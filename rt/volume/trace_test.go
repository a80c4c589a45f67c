package volume

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxtrace/rt/core"
)

func TestTraceModelUnknownSchemaMisses(t *testing.T) {
	w := NewWorld()
	bogus := w.AppendInfo([]uint32{99})

	aabb := core.AABBFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2})
	ray := core.NewRay(mgl32.Vec3{1, 1, 5}, mgl32.Vec3{0, 0, -1})
	if _, ok := TraceModel(w, ray, bogus, aabb); ok {
		t.Error("Unknown schema tag must be a miss, not a crash")
	}
	if _, ok := TraceModel(w, ray, NilPtr, aabb); ok {
		t.Error("Nil model pointer must be a miss")
	}
}

func TestTraceNearestPicksCloserInstance(t *testing.T) {
	w := NewWorld()
	red := NewFlatBuilder(2, 2, 2)
	red.SetMaterial(0, 0, 0, redMaterial)
	redPtr := red.Build(w)
	blue := NewFlatBuilder(2, 2, 2)
	blue.SetMaterial(0, 0, 0, blueMaterial)
	bluePtr := blue.Build(w)

	instances := []Instance{
		{Ptr: redPtr, AABB: core.AABBFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2})},
		{Ptr: bluePtr, AABB: core.AABBFromMinMax(mgl32.Vec3{0, 0, 4}, mgl32.Vec3{2, 2, 6})},
	}

	ray := core.NewRay(mgl32.Vec3{0.5, 0.5, 10}, mgl32.Vec3{0, 0, -1})
	hit, ok := TraceNearest(w, ray, instances)
	if !ok {
		t.Fatal("Stacked instances should hit")
	}
	if !nearVec(hit.Albedo, mgl32.Vec3{0, 0, 1}, 0.01) {
		t.Errorf("Nearer instance is the blue one, got albedo %v", hit.Albedo)
	}

	// From below, order reverses.
	ray = core.NewRay(mgl32.Vec3{0.5, 0.5, -10}, mgl32.Vec3{0, 0, 1})
	hit, ok = TraceNearest(w, ray, instances)
	if !ok {
		t.Fatal("Expected a hit from below")
	}
	if !nearVec(hit.Albedo, mgl32.Vec3{1, 0, 0}, 0.01) {
		t.Errorf("Nearer instance from below is the red one, got albedo %v", hit.Albedo)
	}
}

func TestTraceNearestEmpty(t *testing.T) {
	w := NewWorld()
	ray := core.NewRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1})
	if _, ok := TraceNearest(w, ray, nil); ok {
		t.Error("No instances means no hit")
	}
}

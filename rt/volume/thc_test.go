package volume

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxtrace/rt/core"
)

func TestTHCHeight(t *testing.T) {
	cases := []struct {
		side, height uint32
	}{
		{4, 0},
		{16, 1},
		{64, 2},
		{256, 3},
	}
	for _, c := range cases {
		w := NewWorld()
		ptr := NewTHCBuilder(c.side).Build(w)
		m, ok := DecodeTHCModel(w, ptr)
		if !ok {
			t.Fatalf("Decode failed for side %d", c.side)
		}
		if got := m.Height(); got != c.height {
			t.Errorf("Side %d: height %d, want %d", c.side, got, c.height)
		}
	}
}

func TestTHCGetVoxelAddrOrigin(t *testing.T) {
	w := NewWorld()
	b := NewTHCBuilder(4)
	b.SetMaterial(0, 0, 0, redMaterial)
	ptr := b.Build(w)

	m, _ := DecodeTHCModel(w, ptr)
	addr, ok := m.GetVoxelAddr(0, 0, 0)
	if !ok {
		t.Fatal("Origin voxel should be present")
	}
	if addr.NodeIndex != 0 {
		t.Errorf("Side-4 model is a single root leaf, got node %d", addr.NodeIndex)
	}
	if addr.MortonHalf != 0 {
		t.Errorf("Morton 0 lives in the low half, got %d", addr.MortonHalf)
	}
	if addr.ChildBit != 1 {
		t.Errorf("Expected child bit 1, got %#x", addr.ChildBit)
	}
}

func TestTHCGetVoxelAddrHighHalf(t *testing.T) {
	w := NewWorld()
	b := NewTHCBuilder(4)
	b.Set(3, 3, 3)
	ptr := b.Build(w)

	m, _ := DecodeTHCModel(w, ptr)
	addr, ok := m.GetVoxelAddr(3, 3, 3)
	if !ok {
		t.Fatal("Corner voxel should be present")
	}
	// Morton 63: high half, top bit.
	if addr.MortonHalf != 1 {
		t.Errorf("Morton 63 lives in the high half, got %d", addr.MortonHalf)
	}
	if addr.ChildBit != 1<<31 {
		t.Errorf("Expected child bit 1<<31, got %#x", addr.ChildBit)
	}

	if _, ok := m.GetVoxelAddr(0, 0, 0); ok {
		t.Error("Unset voxel should be absent")
	}
	if _, ok := m.GetVoxelAddr(4, 0, 0); ok {
		t.Error("Out-of-range coordinate should be absent")
	}
}

func TestTHCGetVoxelAddrDescends(t *testing.T) {
	w := NewWorld()
	b := NewTHCBuilder(16)
	b.Set(5, 6, 7)
	ptr := b.Build(w)

	m, _ := DecodeTHCModel(w, ptr)
	addr, ok := m.GetVoxelAddr(5, 6, 7)
	if !ok {
		t.Fatal("Voxel should be present two levels down")
	}
	if addr.NodeIndex == 0 {
		t.Error("Side-16 voxel must resolve to a preleaf below the root")
	}
	want := core.MortonEncode3(5&3, 6&3, 7&3)
	if addr.MortonHalf != want>>5 {
		t.Errorf("Morton %d: half %d, want %d", want, addr.MortonHalf, want>>5)
	}
	if addr.ChildBit != 1<<(want&31) {
		t.Errorf("Morton %d: child bit %#x, want %#x", want, addr.ChildBit, uint32(1)<<(want&31))
	}
}

func TestTHCTraceSingleVoxel(t *testing.T) {
	w := NewWorld()
	b := NewTHCBuilder(4)
	b.SetMaterial(0, 0, 0, redMaterial)
	ptr := b.Build(w)

	aabb := core.AABBFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{4, 4, 4})
	ray := core.NewRay(mgl32.Vec3{0.5, 0.5, 6}, mgl32.Vec3{0, 0, -1})

	hit, ok := TraceModel(w, ray, ptr, aabb)
	if !ok {
		t.Fatal("Column over the origin voxel should hit")
	}
	if !near(hit.T, 5, 1e-2) {
		t.Errorf("Expected hit near t=5, got %g", hit.T)
	}
	if !nearVec(hit.Albedo, mgl32.Vec3{1, 0, 0}, 0.01) {
		t.Errorf("Expected red albedo, got %v", hit.Albedo)
	}
	if !nearVec(hit.Normal, mgl32.Vec3{0, 0, 1}, 1e-4) {
		t.Errorf("Expected +z face normal, got %v", hit.Normal)
	}
	if hit.Schema != SchemaTHC {
		t.Errorf("Expected thc schema tag, got %d", hit.Schema)
	}
}

func TestTHCTraceNearestAcrossNodes(t *testing.T) {
	w := NewWorld()
	b := NewTHCBuilder(16)
	b.SetMaterial(8, 8, 2, redMaterial)
	b.SetMaterial(8, 8, 13, blueMaterial)
	ptr := b.Build(w)

	aabb := core.AABBFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{16, 16, 16})
	ray := core.NewRay(mgl32.Vec3{8.5, 8.5, 30}, mgl32.Vec3{0, 0, -1})

	hit, ok := TraceModel(w, ray, ptr, aabb)
	if !ok {
		t.Fatal("Column with two voxels should hit")
	}
	// The blue voxel at z=13 sits nearer the ray origin than the red one.
	if !nearVec(hit.Albedo, mgl32.Vec3{0, 0, 1}, 0.01) {
		t.Errorf("Expected the nearer blue voxel, got albedo %v", hit.Albedo)
	}
	if !near(hit.T, 16, 1e-2) {
		t.Errorf("Expected hit near t=16, got %g", hit.T)
	}

	// Reverse direction reaches the red voxel first.
	ray = core.NewRay(mgl32.Vec3{8.5, 8.5, -30}, mgl32.Vec3{0, 0, 1})
	hit, ok = TraceModel(w, ray, ptr, aabb)
	if !ok {
		t.Fatal("Reverse column should hit")
	}
	if !nearVec(hit.Albedo, mgl32.Vec3{1, 0, 0}, 0.01) {
		t.Errorf("Expected the red voxel from below, got albedo %v", hit.Albedo)
	}
}

func TestTHCTraceEmptyVolumeMisses(t *testing.T) {
	w := NewWorld()
	ptr := NewTHCBuilder(16).Build(w)

	aabb := core.AABBFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{16, 16, 16})
	ray := core.NewRay(mgl32.Vec3{8, 8, 30}, mgl32.Vec3{0, 0, -1})
	if _, ok := TraceModel(w, ray, ptr, aabb); ok {
		t.Error("Empty volume should miss")
	}
}

func TestTHCTraceScaledAABBKeepsWorldT(t *testing.T) {
	w := NewWorld()
	b := NewTHCBuilder(4)
	b.SetMaterial(0, 0, 0, redMaterial)
	ptr := b.Build(w)

	// The 4-voxel model stretched over an 8-unit box: voxels are 2 units.
	aabb := core.AABBFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{8, 8, 8})
	ray := core.NewRay(mgl32.Vec3{1, 1, 20}, mgl32.Vec3{0, 0, -1})

	hit, ok := TraceModel(w, ray, ptr, aabb)
	if !ok {
		t.Fatal("Scaled model should still hit")
	}
	// Voxel (0,0,0) spans z in [0,2): top face at z=2, so t=18.
	if !near(hit.T, 18, 1e-2) {
		t.Errorf("Parametric distance must stay in world units, got %g", hit.T)
	}
}

func TestTHCMaterialLessVoxelKeepsWalking(t *testing.T) {
	w := NewWorld()
	b := NewTHCBuilder(4)
	b.Set(0, 0, 3)
	b.SetMaterial(0, 0, 0, blueMaterial)
	ptr := b.Build(w)

	aabb := core.AABBFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{4, 4, 4})
	ray := core.NewRay(mgl32.Vec3{0.5, 0.5, 6}, mgl32.Vec3{0, 0, -1})

	hit, ok := TraceModel(w, ray, ptr, aabb)
	if !ok {
		t.Fatal("Materialized voxel behind the bare one should be hit")
	}
	if !nearVec(hit.Albedo, mgl32.Vec3{0, 0, 1}, 0.01) {
		t.Errorf("Expected blue albedo, got %v", hit.Albedo)
	}
}

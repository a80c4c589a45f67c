package volume

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxtrace/rt/core"
)

// Terrain maps an unbounded streaming world onto a bounded ring buffer of
// chunk slots. A chunk's slot index is (coord + windowOffset) mod side per
// axis, linearized row-major, so scrolling the anchor never moves resident
// chunks between slots; it only changes which world coordinates are in
// the window.
type Terrain struct {
	w *World

	// SideLength is the ring diameter in chunks.
	SideLength uint32
	// Anchor is the world chunk coordinate the ring origin currently maps
	// to.
	Anchor [3]int32
	// WindowOffset rotates ring addressing; kept equal to Anchor mod
	// SideLength per axis.
	WindowOffset [3]uint32
	// ChunkVoxelLength is a chunk's edge in voxels; one voxel spans one
	// world unit.
	ChunkVoxelLength uint32

	slots []uint32
}

const terrainIterCap = 512

func NewTerrain(w *World, sideLength, chunkVoxelLength uint32) *Terrain {
	slots := make([]uint32, sideLength*sideLength*sideLength)
	for i := range slots {
		slots[i] = NilPtr
	}
	return &Terrain{
		w:                w,
		SideLength:       sideLength,
		ChunkVoxelLength: chunkVoxelLength,
		slots:            slots,
	}
}

// SlotIndex linearizes a window-local chunk coordinate through the
// toroidal wrap.
func (t *Terrain) SlotIndex(local [3]uint32) uint32 {
	s := t.SideLength
	wx := (local[0] + t.WindowOffset[0]) % s
	wy := (local[1] + t.WindowOffset[1]) % s
	wz := (local[2] + t.WindowOffset[2]) % s
	return wx + wy*s + wz*s*s
}

func (t *Terrain) inWindow(worldChunk [3]int32) ([3]uint32, bool) {
	var local [3]uint32
	for i := 0; i < 3; i++ {
		d := worldChunk[i] - t.Anchor[i]
		if d < 0 || d >= int32(t.SideLength) {
			return local, false
		}
		local[i] = uint32(d)
	}
	return local, true
}

// ChunkModel reads the model pointer resident for a world chunk
// coordinate; ok is false outside the window or for an empty slot.
func (t *Terrain) ChunkModel(worldChunk [3]int32) (ModelPtr, bool) {
	local, ok := t.inWindow(worldChunk)
	if !ok {
		return NilPtr, false
	}
	ptr := t.slots[t.SlotIndex(local)]
	return ptr, ptr != NilPtr
}

// SetChunkModel installs (or clears, with NilPtr) a chunk's model.
func (t *Terrain) SetChunkModel(worldChunk [3]int32, ptr ModelPtr) bool {
	local, ok := t.inWindow(worldChunk)
	if !ok {
		return false
	}
	t.slots[t.SlotIndex(local)] = ptr
	return true
}

// SetAnchor scrolls the window to a new anchor. Slots whose chunks fell
// out of the window are evicted; surviving chunks keep their slots because
// the wrap depends only on the world coordinate modulo the side length.
func (t *Terrain) SetAnchor(anchor [3]int32) {
	oldAnchor := t.Anchor
	oldOffset := t.WindowOffset

	t.Anchor = anchor
	for i := 0; i < 3; i++ {
		t.WindowOffset[i] = uint32(modFloor(anchor[i], int32(t.SideLength)))
	}

	s := int32(t.SideLength)
	for lz := int32(0); lz < s; lz++ {
		for ly := int32(0); ly < s; ly++ {
			for lx := int32(0); lx < s; lx++ {
				wx := (uint32(lx) + oldOffset[0]) % t.SideLength
				wy := (uint32(ly) + oldOffset[1]) % t.SideLength
				wz := (uint32(lz) + oldOffset[2]) % t.SideLength
				slot := wx + wy*t.SideLength + wz*t.SideLength*t.SideLength
				if t.slots[slot] == NilPtr {
					continue
				}
				world := [3]int32{
					oldAnchor[0] + lx,
					oldAnchor[1] + ly,
					oldAnchor[2] + lz,
				}
				if _, still := t.inWindow(world); !still {
					t.slots[slot] = NilPtr
				}
			}
		}
	}
}

// WorldAABB is the box covering the whole resident window.
func (t *Terrain) WorldAABB() core.AABB {
	cl := float32(t.ChunkVoxelLength)
	min := mgl32.Vec3{
		float32(t.Anchor[0]) * cl,
		float32(t.Anchor[1]) * cl,
		float32(t.Anchor[2]) * cl,
	}
	side := float32(t.SideLength) * cl
	return core.AABBFromMinMax(min, min.Add(mgl32.Vec3{side, side, side}))
}

func (t *Terrain) chunkAABB(local [3]int) core.AABB {
	cl := float32(t.ChunkVoxelLength)
	min := mgl32.Vec3{
		(float32(t.Anchor[0]) + float32(local[0])) * cl,
		(float32(t.Anchor[1]) + float32(local[1])) * cl,
		(float32(t.Anchor[2]) + float32(local[2])) * cl,
	}
	return core.AABBFromMinMax(min, min.Add(mgl32.Vec3{cl, cl, cl}))
}

// Trace walks the chunk grid with the same DDA the flat encoding uses, at
// chunk granularity, dispatching into resident models as slots come up.
// The walk gives chunks in monotonic ray order, so the first model hit is
// the nearest.
func (t *Terrain) Trace(ray core.Ray) (Hit, bool) {
	worldBox := t.WorldAABB()
	info := core.RayToAABB(ray, worldBox)
	if !info.Hit {
		return Hit{}, false
	}

	entry := core.NewRay(ray.At(info.TEnter), ray.Dir)
	s := int(t.SideLength)
	dda := core.BeginDDA(entry, worldBox, [3]int{s, s, s})

	for iter := 0; iter < terrainIterCap && dda.InBounds(); iter++ {
		g := dda.CurrGrid
		local := [3]uint32{uint32(g[0]), uint32(g[1]), uint32(g[2])}
		if ptr := t.slots[t.SlotIndex(local)]; ptr != NilPtr {
			// Re-test against the chunk box with the original ray for a
			// precise local entry distance.
			if hit, ok := TraceModel(t.w, ray, ptr, t.chunkAABB(g)); ok {
				return hit, true
			}
		}
		dda.Step()
	}
	return Hit{}, false
}

// modFloor is the non-negative remainder of a/b.
func modFloor(a, b int32) int32 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

package volume

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxtrace/rt/core"
)

// VoxelExists answers "is there a voxel at this world coordinate",
// resolving through the terrain window into whichever encoding the
// owning chunk uses.
func (t *Terrain) VoxelExists(worldVoxel [3]int32) bool {
	_, _, ok := t.voxelAddr(worldVoxel)
	return ok
}

func (t *Terrain) voxelAddr(worldVoxel [3]int32) (*AttachmentTable, VoxelAddr, bool) {
	cl := int32(t.ChunkVoxelLength)
	var chunk [3]int32
	var local [3]uint32
	for i := 0; i < 3; i++ {
		chunk[i] = floorDiv(worldVoxel[i], cl)
		local[i] = uint32(modFloor(worldVoxel[i], cl))
	}
	ptr, ok := t.ChunkModel(chunk)
	if !ok {
		return nil, VoxelAddr{}, false
	}
	tag, _ := t.w.Schema(ptr)
	switch tag {
	case SchemaFlat:
		if m, ok := DecodeFlatModel(t.w, ptr); ok && m.VoxelPresent(local[0], local[1], local[2]) {
			table := m.attachments
			return &table, FlatAddr(m.VoxelIndex(local[0], local[1], local[2])), true
		}
	case SchemaTHC, SchemaTHCCompressed:
		if m, ok := DecodeTHCModel(t.w, ptr); ok {
			if addr, present := m.GetVoxelAddr(local[0], local[1], local[2]); present {
				table := m.attachments
				return &table, addr, true
			}
		}
	case SchemaESVO:
		if m, ok := DecodeESVOModel(t.w, ptr); ok {
			if addr, present := m.VoxelPresent(local[0], local[1], local[2], t.ChunkVoxelLength); present {
				table := m.attachments
				return &table, addr, true
			}
		}
	}
	return nil, VoxelAddr{}, false
}

// EstimateNormal derives a surface normal for one voxel by accumulating
// the offsets toward every absent neighbor in the surrounding 5x5x5 block,
// then writes it through the attachment table's rank-addressed slot. Each
// invocation writes exactly one word at an address no other voxel's
// invocation can produce, so a dispatch over disjoint voxels needs no
// locking. Returns false when the voxel is absent, fully enclosed, or has
// no normal attachment slot.
func (t *Terrain) EstimateNormal(worldVoxel [3]int32) bool {
	table, addr, ok := t.voxelAddr(worldVoxel)
	if !ok {
		return false
	}

	var acc mgl32.Vec3
	for dz := int32(-2); dz <= 2; dz++ {
		for dy := int32(-2); dy <= 2; dy++ {
			for dx := int32(-2); dx <= 2; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				neighbor := [3]int32{worldVoxel[0] + dx, worldVoxel[1] + dy, worldVoxel[2] + dz}
				if !t.VoxelExists(neighbor) {
					acc = acc.Add(mgl32.Vec3{float32(dx), float32(dy), float32(dz)})
				}
			}
		}
	}
	if acc.Len() == 0 {
		return false
	}
	normal := acc.Normalize()

	raw, ok := table.Resolve(AttachmentNormal, addr)
	if !ok {
		return false
	}
	t.w.Data[raw] = core.EncodeNormal(normal)
	return true
}

// EstimateChunkNormals runs the estimation for every voxel of one resident
// chunk. Invocations are independent; this sequential form matches a
// one-voxel-per-invocation dispatch.
func (t *Terrain) EstimateChunkNormals(worldChunk [3]int32) int {
	if _, ok := t.ChunkModel(worldChunk); !ok {
		return 0
	}
	cl := int32(t.ChunkVoxelLength)
	base := [3]int32{worldChunk[0] * cl, worldChunk[1] * cl, worldChunk[2] * cl}
	written := 0
	for z := int32(0); z < cl; z++ {
		for y := int32(0); y < cl; y++ {
			for x := int32(0); x < cl; x++ {
				if t.EstimateNormal([3]int32{base[0] + x, base[1] + y, base[2] + z}) {
					written++
				}
			}
		}
	}
	return written
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

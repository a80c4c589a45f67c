package volume

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxtrace/rt/core"
)

// Flat models store one presence bit per voxel, row-major x-fastest then y
// then z-slab, plus per-attachment presence masks over the same index
// domain.
//
// Info block: [0] tag, [1..3] side length xyz, [4] presence-bitmask ptr,
// [5..5+K) attachment presence ptrs, [5+K..5+2K) attachment raw ptrs.

const flatIterCap = 4096

type FlatModel struct {
	w      *World
	Length [3]uint32

	presencePtr uint32
	attachments AttachmentTable
}

func DecodeFlatModel(w *World, ptr ModelPtr) (FlatModel, bool) {
	tag, ok := w.Schema(ptr)
	if !ok || tag != SchemaFlat {
		return FlatModel{}, false
	}
	m := FlatModel{
		w: w,
		Length: [3]uint32{
			w.infoWord(ptr, 1),
			w.infoWord(ptr, 2),
			w.infoWord(ptr, 3),
		},
		presencePtr: w.infoWord(ptr, 4),
	}
	if m.presencePtr == NilPtr || m.Length[0] == 0 || m.Length[1] == 0 || m.Length[2] == 0 {
		return FlatModel{}, false
	}
	m.attachments = AttachmentTable{w: w, mode: attachFlat}
	for i := 0; i < AttachmentCount; i++ {
		m.attachments.presence[i] = w.infoWord(ptr, uint32(5+i))
		m.attachments.raw[i] = w.infoWord(ptr, uint32(5+AttachmentCount+i))
	}
	return m, true
}

func (m *FlatModel) VoxelIndex(x, y, z uint32) uint32 {
	return x + y*m.Length[0] + z*m.Length[0]*m.Length[1]
}

func (m *FlatModel) VoxelPresent(x, y, z uint32) bool {
	if x >= m.Length[0] || y >= m.Length[1] || z >= m.Length[2] {
		return false
	}
	idx := m.VoxelIndex(x, y, z)
	return m.w.dataWord(m.presencePtr+idx/32)&(1<<(idx&31)) != 0
}

func (m *FlatModel) Attachments() *AttachmentTable {
	return &m.attachments
}

// Trace steps the ray cell by cell through the presence grid. aabb is the
// model's world-space box.
func (m *FlatModel) Trace(ray core.Ray, aabb core.AABB) (Hit, bool) {
	info := core.RayToAABB(ray, aabb)
	if !info.Hit {
		return Hit{}, false
	}

	entry := core.NewRay(ray.At(info.TEnter), ray.Dir)
	bounds := [3]int{int(m.Length[0]), int(m.Length[1]), int(m.Length[2])}
	dda := core.BeginDDA(entry, aabb, bounds)

	cellT := float32(0)
	firstCell := true
	for iter := 0; iter < flatIterCap && dda.InBounds(); iter++ {
		g := dda.CurrGrid
		x, y, z := uint32(g[0]), uint32(g[1]), uint32(g[2])
		idx := m.VoxelIndex(x, y, z)
		if m.w.dataWord(m.presencePtr+idx/32)&(1<<(idx&31)) != 0 {
			if raw, ok := m.attachments.Resolve(AttachmentMaterial, FlatAddr(idx)); ok {
				if mat, valid := core.DecodeMaterial(m.w.dataWord(raw)); valid {
					var normal mgl32.Vec3
					if firstCell {
						normal = core.EntryFaceNormal(ray, info)
					} else {
						normal = dda.StepNormal()
					}
					if nraw, nok := m.attachments.Resolve(AttachmentNormal, FlatAddr(idx)); nok {
						if n := m.w.dataWord(nraw); n != 0 {
							normal = core.DecodeNormal(n)
						}
					}
					return Hit{
						T:      info.TEnter + cellT,
						Albedo: mat.Albedo,
						Normal: normal,
						Schema: SchemaFlat,
						Addr:   FlatAddr(idx),
					}, true
				}
				// Unrecognized material type: visibly-wrong placeholder,
				// still a hit so the authoring bug shows up on screen.
				return Hit{
					T:      info.TEnter + cellT,
					Albedo: placeholderAlbedo,
					Normal: dda.StepNormal(),
					Schema: SchemaFlat,
					Addr:   FlatAddr(idx),
				}, true
			}
			// Voxel present but no material: keep walking.
		}
		dda.Step()
		cellT = dda.EnterT
		firstCell = false
	}
	return Hit{}, false
}

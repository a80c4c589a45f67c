package volume

import (
	"math/bits"

	"github.com/gekko3d/voxtrace/rt/core"
)

// ESVO models are page-bucketed octrees. One 32-bit word per node:
// bits[7:0] leaf mask, bits[15:8] value (presence) mask, bit 16 reserved,
// bits[31:17] child-array offset relative to the node's own index. Word 0
// of every 8192-word page is a header holding the page's bucket-table
// offset (relative to the node buffer base); the bucket table maps node
// indices to bucket starts for attachment lookup.
//
// Info block: [0] tag, [1] node-data ptr, [2] attachment-lookup base ptr,
// [3] reserved render-index slot, [4..4+K) attachment raw ptrs.

const (
	ESVOPageSize = 8192

	// esvoStackCap bounds supported tree height; exceeding it is a defined
	// failure that returns a diagnostic hit instead of corrupting memory.
	esvoStackCap = 8
	esvoIterCap  = 1024
)

type ESVOModel struct {
	w *World

	nodePtr     uint32
	attachments AttachmentTable
}

func DecodeESVOModel(w *World, ptr ModelPtr) (ESVOModel, bool) {
	tag, ok := w.Schema(ptr)
	if !ok || tag != SchemaESVO {
		return ESVOModel{}, false
	}
	m := ESVOModel{w: w, nodePtr: w.infoWord(ptr, 1)}
	if m.nodePtr == NilPtr {
		return ESVOModel{}, false
	}
	lookupBase := w.infoWord(ptr, 2)
	m.attachments = AttachmentTable{w: w, mode: attachESVO, nodePtr: m.nodePtr}
	for i := 0; i < AttachmentCount; i++ {
		m.attachments.presence[i] = lookupBase
		m.attachments.raw[i] = w.infoWord(ptr, uint32(4+i))
	}
	return m, true
}

func (m *ESVOModel) Attachments() *AttachmentTable {
	return &m.attachments
}

// RootIndex is the index of the root node; index 0 of the first page is
// its header.
const esvoRootIndex = 1

func (m *ESVOModel) node(index uint32) uint32 {
	return m.w.dataWord(m.nodePtr + index)
}

func esvoLeafMask(node uint32) uint32  { return node & 0xFF }
func esvoValueMask(node uint32) uint32 { return (node >> 8) & 0xFF }
func esvoChildPtr(node uint32) uint32  { return node >> 17 }

// esvoChildIndex finds the slot of the octant's child: the relative child
// pointer plus the presence-mask prefix count below the octant.
func esvoChildIndex(nodeIndex, node, octant uint32) uint32 {
	rank := uint32(bits.OnesCount32(esvoValueMask(node) & ((1 << octant) - 1)))
	return nodeIndex + esvoChildPtr(node) + rank
}

// NextOctant picks the octant the ray occupies at parametric distance
// tEnter inside aabb: per axis, compare the distance to the center plane
// against tEnter and take the half-space the ray direction points into
// when already past the center, or the opposite one when before it.
func NextOctant(ray core.Ray, tEnter float32, aabb core.AABB) uint32 {
	octant := uint32(0)
	for i := 0; i < 3; i++ {
		tCenter := (aabb.Center[i] - ray.Origin[i]) * ray.InvDir[i]
		past := tEnter >= tCenter
		if ray.Dir[i] >= 0 {
			if past {
				octant |= 1 << i
			}
		} else {
			if !past {
				octant |= 1 << i
			}
		}
	}
	return octant
}

// NextOctantAABB bisects aabb into the given octant's child box.
func NextOctantAABB(aabb core.AABB, octant uint32) core.AABB {
	half := aabb.HalfExtent.Mul(0.5)
	center := aabb.Center
	for i := 0; i < 3; i++ {
		if octant&(1<<i) != 0 {
			center[i] += half[i]
		} else {
			center[i] -= half[i]
		}
	}
	return core.AABB{Center: center, HalfExtent: half}
}

// NextOctantParentAABB is the exact algebraic inverse of NextOctantAABB.
func NextOctantParentAABB(child core.AABB, octant uint32) core.AABB {
	center := child.Center
	for i := 0; i < 3; i++ {
		if octant&(1<<i) != 0 {
			center[i] -= child.HalfExtent[i]
		} else {
			center[i] += child.HalfExtent[i]
		}
	}
	return core.AABB{Center: center, HalfExtent: child.HalfExtent.Mul(2)}
}

type esvoFrame struct {
	nodeIndex uint32
	octant    uint32
}

type esvoState int

const (
	esvoDescend esvoState = iota
	esvoAdvance
	esvoPop
)

// Trace walks the octree with an explicit bounded stack. States: descend
// into the current octant, advance to a sibling octant, or pop back to the
// parent when the sibling step would carry outside it. An empty stack on
// pop is a miss; blowing the stack cap is a diagnostic hit.
func (m *ESVOModel) Trace(ray core.Ray, aabb core.AABB) (Hit, bool) {
	rootInfo := core.RayToAABB(ray, aabb)
	if !rootInfo.Hit {
		return Hit{}, false
	}

	var stack [esvoStackCap]esvoFrame
	depth := 0

	nodeIndex := uint32(esvoRootIndex)
	nodeAABB := aabb
	tEnter := rootInfo.TEnter
	octant := NextOctant(ray, tEnter, nodeAABB)
	state := esvoDescend

	for iter := 0; iter < esvoIterCap; iter++ {
		switch state {
		case esvoDescend:
			node := m.node(nodeIndex)
			bit := uint32(1) << octant
			if esvoValueMask(node)&bit == 0 {
				state = esvoAdvance
				continue
			}
			childAABB := NextOctantAABB(nodeAABB, octant)
			if esvoLeafMask(node)&bit != 0 {
				childInfo := core.RayToAABB(ray, childAABB)
				addr := ESVOAddr(nodeIndex, octant)
				if raw, ok := m.attachments.Resolve(AttachmentMaterial, addr); ok {
					albedo := placeholderAlbedo
					if mat, valid := core.DecodeMaterial(m.w.dataWord(raw)); valid {
						albedo = mat.Albedo
					}
					normal := core.EntryFaceNormal(ray, childInfo)
					if nraw, nok := m.attachments.Resolve(AttachmentNormal, addr); nok {
						if n := m.w.dataWord(nraw); n != 0 {
							normal = core.DecodeNormal(n)
						}
					}
					return Hit{
						T:      childInfo.TEnter,
						Albedo: albedo,
						Normal: normal,
						Schema: SchemaESVO,
						Addr:   addr,
					}, true
				}
				// Leaf without material data: behaves as empty space.
				state = esvoAdvance
				continue
			}
			if depth == esvoStackCap {
				return m.stackOverflowHit(ray, nodeAABB)
			}
			stack[depth] = esvoFrame{nodeIndex: nodeIndex, octant: octant}
			depth++
			nodeIndex = esvoChildIndex(nodeIndex, node, octant)
			nodeAABB = childAABB
			tEnter = core.RayToAABB(ray, nodeAABB).TEnter
			octant = NextOctant(ray, tEnter, nodeAABB)

		case esvoAdvance:
			childAABB := NextOctantAABB(nodeAABB, octant)
			info := core.RayToAABB(ray, childAABB)
			exitMask := uint32(0)
			mustPop := false
			for i := 0; i < 3; i++ {
				if info.TMaxAxes[i] != info.TExit {
					continue
				}
				exitMask |= 1 << i
				// A sibling step carries outside the parent when the ray
				// leaves through the face the octant already borders.
				bitSet := octant&(1<<i) != 0
				if ray.Dir[i] >= 0 {
					if bitSet {
						mustPop = true
					}
				} else {
					if !bitSet {
						mustPop = true
					}
				}
			}
			if mustPop {
				state = esvoPop
				continue
			}
			octant ^= exitMask
			tEnter = info.TExit
			state = esvoDescend

		case esvoPop:
			if depth == 0 {
				// Exhausted: walked out of the root.
				return Hit{}, false
			}
			depth--
			frame := stack[depth]
			nodeAABB = NextOctantParentAABB(nodeAABB, frame.octant)
			nodeIndex = frame.nodeIndex
			octant = frame.octant
			state = esvoAdvance
		}
	}
	// Iteration cap: degrade to a miss, the structure is malformed or
	// deeper than supported.
	return Hit{}, false
}

func (m *ESVOModel) stackOverflowHit(ray core.Ray, aabb core.AABB) (Hit, bool) {
	info := core.RayToAABB(ray, aabb)
	return Hit{
		T:      info.TEnter,
		Albedo: placeholderAlbedo,
		Normal: ray.Dir.Mul(-1),
		Schema: SchemaESVO,
	}, true
}

// VoxelPresent descends by octants to test a single voxel. sideLength is
// the model's edge in voxels (power of two), supplied by the owner since
// the info block does not record it.
func (m *ESVOModel) VoxelPresent(x, y, z, sideLength uint32) (VoxelAddr, bool) {
	if x >= sideLength || y >= sideLength || z >= sideLength {
		return VoxelAddr{}, false
	}
	nodeIndex := uint32(esvoRootIndex)
	for size := sideLength; size >= 2; size /= 2 {
		half := size / 2
		octant := core.OctantOf(boolBit(x >= half), boolBit(y >= half), boolBit(z >= half))
		node := m.node(nodeIndex)
		bit := uint32(1) << octant
		if esvoValueMask(node)&bit == 0 {
			return VoxelAddr{}, false
		}
		if esvoLeafMask(node)&bit != 0 {
			// A leaf above voxel resolution covers its whole cell.
			return ESVOAddr(nodeIndex, octant), true
		}
		if size == 2 {
			return VoxelAddr{}, false
		}
		nodeIndex = esvoChildIndex(nodeIndex, node, octant)
		if x >= half {
			x -= half
		}
		if y >= half {
			y -= half
		}
		if z >= half {
			z -= half
		}
	}
	return VoxelAddr{}, false
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

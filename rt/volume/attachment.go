package volume

import "math/bits"

// VoxelAddr identifies one voxel's slot in whichever encoding owns it.
// Flat uses VoxelIndex, THC uses NodeIndex + MortonHalf + ChildBit, ESVO
// uses NodeIndex + ChildBit (the octant bit).
type VoxelAddr struct {
	NodeIndex  uint32
	MortonHalf uint32
	ChildBit   uint32
	VoxelIndex uint32
}

func FlatAddr(voxelIndex uint32) VoxelAddr {
	return VoxelAddr{VoxelIndex: voxelIndex}
}

func THCAddr(nodeIndex, mortonIdx uint32) VoxelAddr {
	return VoxelAddr{
		NodeIndex:  nodeIndex,
		MortonHalf: mortonIdx >> 5,
		ChildBit:   1 << (mortonIdx & 31),
	}
}

func ESVOAddr(nodeIndex, octant uint32) VoxelAddr {
	return VoxelAddr{NodeIndex: nodeIndex, ChildBit: 1 << octant}
}

type attachmentMode uint8

const (
	attachFlat attachmentMode = iota
	attachTHC
	attachESVO
)

// AttachmentTable is the presence/lookup/raw indirection shared by all
// model encodings. Absent attachments cost no storage; present ones are
// stored densely packed, addressed by the rank of their presence bit. The
// same rank math serves the read path and the normal-estimation write path,
// so addresses cannot diverge between them.
type AttachmentTable struct {
	w    *World
	mode attachmentMode

	// presence: Flat presence-bitmask pointers, THC lookup-node pointers,
	// or the shared ESVO lookup base pointer per attachment.
	presence [AttachmentCount]uint32
	raw      [AttachmentCount]uint32

	// nodePtr locates the ESVO node buffer, whose page headers lead to the
	// bucket table.
	nodePtr uint32
}

// Resolve maps (attachment, voxel) to the word offset of its packed value
// in the Data buffer. ok is false both when the attachment type is not
// defined for this model (sentinel pointers) and when this particular voxel
// lacks the attachment (presence bit clear); callers treat either as a
// normal absence, never an error.
func (t *AttachmentTable) Resolve(att int, addr VoxelAddr) (uint32, bool) {
	if att < 0 || att >= AttachmentCount {
		return 0, false
	}
	if t.presence[att] == NilPtr || t.raw[att] == NilPtr {
		return 0, false
	}
	switch t.mode {
	case attachFlat:
		return t.resolveFlat(att, addr.VoxelIndex)
	case attachTHC:
		return t.resolveTHC(att, addr)
	case attachESVO:
		return t.resolveESVO(att, addr)
	}
	return 0, false
}

func (t *AttachmentTable) resolveFlat(att int, voxelIndex uint32) (uint32, bool) {
	base := t.presence[att]
	wordIdx := base + voxelIndex/32
	bit := uint32(1) << (voxelIndex & 31)
	if t.w.dataWord(wordIdx)&bit == 0 {
		return 0, false
	}
	rank := uint32(0)
	for i := base; i < wordIdx; i++ {
		rank += uint32(bits.OnesCount32(t.w.dataWord(i)))
	}
	rank += rankBelow32(t.w.dataWord(wordIdx), bit)
	return t.raw[att] + rank, true
}

func (t *AttachmentTable) resolveTHC(att int, addr VoxelAddr) (uint32, bool) {
	entry := t.presence[att] + addr.NodeIndex*3
	dataPtr := t.w.dataWord(entry)
	lo := t.w.dataWord(entry + 1)
	hi := t.w.dataWord(entry + 2)

	var half uint32
	if addr.MortonHalf == 0 {
		half = lo
	} else {
		half = hi
	}
	if half&addr.ChildBit == 0 {
		return 0, false
	}
	rank := rankBelow32(half, addr.ChildBit)
	if addr.MortonHalf == 1 {
		// Cross-half carry: everything set in the low word precedes us.
		rank += uint32(bits.OnesCount32(lo))
	}
	return t.raw[att] + dataPtr + rank, true
}

func (t *AttachmentTable) resolveESVO(att int, addr VoxelAddr) (uint32, bool) {
	start, lookupOff, ok := t.esvoBucket(addr.NodeIndex)
	if !ok {
		return 0, false
	}
	rel := addr.NodeIndex - start
	word := t.w.dataWord(t.presence[att] + lookupOff + rel*AttachmentCount + uint32(att))
	mask := word & 0xFF
	if mask&addr.ChildBit == 0 {
		return 0, false
	}
	rawBase := word >> 8
	rank := rankBelow32(mask, addr.ChildBit)
	return t.raw[att] + rawBase + rank, true
}

// esvoBucket walks the owning page's bucket table to find the bucket start
// index and the bucket's offset into the lookup buffer.
func (t *AttachmentTable) esvoBucket(nodeIndex uint32) (start, lookupOff uint32, ok bool) {
	pageBase := t.nodePtr + (nodeIndex/ESVOPageSize)*ESVOPageSize
	tableOff := t.w.dataWord(pageBase)
	if tableOff == NilPtr {
		return 0, 0, false
	}
	table := t.nodePtr + tableOff
	count := t.w.dataWord(table)
	// A page cannot hold more buckets than nodes. A larger count is
	// malformed model data, not a longer table; walking it would be the
	// one unbounded loop in the traversal path.
	if count > ESVOPageSize {
		return 0, 0, false
	}
	for i := uint32(0); i < count; i++ {
		bStart := t.w.dataWord(table + 1 + i*2)
		bLookup := t.w.dataWord(table + 2 + i*2)
		var bEnd uint32
		if i+1 < count {
			bEnd = t.w.dataWord(table + 3 + i*2)
		} else {
			bEnd = NilPtr
		}
		if nodeIndex >= bStart && nodeIndex < bEnd {
			return bStart, bLookup, true
		}
	}
	return 0, 0, false
}

// rankBelow32 counts set bits strictly below bit within one mask word.
func rankBelow32(mask, bit uint32) uint32 {
	return uint32(bits.OnesCount32(mask & (bit - 1)))
}

// rank64 counts set bits strictly below bitIdx across a two-word mask,
// carrying the low half's population into the high half.
func rank64(lo, hi uint32, bitIdx uint32) uint32 {
	if bitIdx < 32 {
		return rankBelow32(lo, 1<<bitIdx)
	}
	return uint32(bits.OnesCount32(lo)) + rankBelow32(hi, 1<<(bitIdx-32))
}

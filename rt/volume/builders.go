package volume

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/gekko3d/voxtrace/rt/core"
)

// Builders author the read-side binary layouts. They are not a streaming
// pipeline; they exist so tests and demo worlds can produce the exact word
// formats the traversals consume. Every voxel given a material also gets a
// zero-initialized normal slot so the normal-estimation pass has somewhere
// to write.

type builderVoxel struct {
	material    uint32
	hasMaterial bool
}

// ---- Flat ----

type FlatBuilder struct {
	length [3]uint32
	voxels map[uint32]builderVoxel
}

func NewFlatBuilder(lx, ly, lz uint32) *FlatBuilder {
	return &FlatBuilder{
		length: [3]uint32{lx, ly, lz},
		voxels: make(map[uint32]builderVoxel),
	}
}

func (b *FlatBuilder) index(x, y, z uint32) uint32 {
	return x + y*b.length[0] + z*b.length[0]*b.length[1]
}

// Set marks a voxel present without any attachment data.
func (b *FlatBuilder) Set(x, y, z uint32) {
	idx := b.index(x, y, z)
	if _, ok := b.voxels[idx]; !ok {
		b.voxels[idx] = builderVoxel{}
	}
}

func (b *FlatBuilder) SetMaterial(x, y, z uint32, mat core.Material) {
	b.voxels[b.index(x, y, z)] = builderVoxel{
		material:    core.EncodeMaterial(mat),
		hasMaterial: true,
	}
}

func (b *FlatBuilder) Build(w *World) ModelPtr {
	total := b.length[0] * b.length[1] * b.length[2]
	maskWords := (total + 31) / 32

	presence := make([]uint32, maskWords)
	matPresence := make([]uint32, maskWords)

	indices := make([]uint32, 0, len(b.voxels))
	for idx := range b.voxels {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	var matRaw []uint32
	for _, idx := range indices {
		presence[idx/32] |= 1 << (idx & 31)
		v := b.voxels[idx]
		if v.hasMaterial {
			matPresence[idx/32] |= 1 << (idx & 31)
			matRaw = append(matRaw, v.material)
		}
	}

	presencePtr := w.AppendData(presence)

	attPresence := [AttachmentCount]uint32{NilPtr, NilPtr}
	attRaw := [AttachmentCount]uint32{NilPtr, NilPtr}
	if len(matRaw) > 0 {
		attPresence[AttachmentMaterial] = w.AppendData(matPresence)
		attRaw[AttachmentMaterial] = w.AppendData(matRaw)
		// Normal slots shadow the material presence domain.
		attPresence[AttachmentNormal] = w.AppendData(matPresence)
		attRaw[AttachmentNormal] = w.AppendData(make([]uint32, len(matRaw)))
	}

	info := []uint32{SchemaFlat, b.length[0], b.length[1], b.length[2], presencePtr}
	info = append(info, attPresence[:]...)
	info = append(info, attRaw[:]...)
	return w.AppendInfo(info)
}

// ---- THC ----

type THCBuilder struct {
	sideLength uint32
	voxels     map[[3]uint32]builderVoxel
}

// NewTHCBuilder requires sideLength to be a power of four, at least 4.
func NewTHCBuilder(sideLength uint32) *THCBuilder {
	if sideLength < 4 || !isPowerOfFour(sideLength) {
		panic(fmt.Sprintf("thc side length must be a power of 4, got %d", sideLength))
	}
	return &THCBuilder{sideLength: sideLength, voxels: make(map[[3]uint32]builderVoxel)}
}

func (b *THCBuilder) Set(x, y, z uint32) {
	p := [3]uint32{x, y, z}
	if _, ok := b.voxels[p]; !ok {
		b.voxels[p] = builderVoxel{}
	}
}

func (b *THCBuilder) SetMaterial(x, y, z uint32, mat core.Material) {
	b.voxels[[3]uint32{x, y, z}] = builderVoxel{
		material:    core.EncodeMaterial(mat),
		hasMaterial: true,
	}
}

type thcBuildNode struct {
	leaf     bool
	mask     uint64
	children [64]*thcBuildNode
	// attachment masks and packed words, leaf nodes only
	matMask uint64
	matRaw  []uint32
}

func (b *THCBuilder) buildNode(min [3]uint32, size uint32) *thcBuildNode {
	n := &thcBuildNode{}
	cell := size / 4
	if cell == 1 {
		n.leaf = true
		for m := uint32(0); m < 64; m++ {
			dx, dy, dz := core.MortonDecode3(m)
			p := [3]uint32{min[0] + dx, min[1] + dy, min[2] + dz}
			v, ok := b.voxels[p]
			if !ok {
				continue
			}
			n.mask |= 1 << m
			if v.hasMaterial {
				n.matMask |= 1 << m
				n.matRaw = append(n.matRaw, v.material)
			}
		}
		if n.mask == 0 {
			return nil
		}
		return n
	}
	for m := uint32(0); m < 64; m++ {
		dx, dy, dz := core.MortonDecode3(m)
		cmin := [3]uint32{min[0] + dx*cell, min[1] + dy*cell, min[2] + dz*cell}
		if child := b.buildNode(cmin, cell); child != nil {
			n.mask |= 1 << m
			n.children[m] = child
		}
	}
	if n.mask == 0 {
		return nil
	}
	return n
}

func (b *THCBuilder) Build(w *World) ModelPtr {
	root := b.buildNode([3]uint32{}, b.sideLength)
	if root == nil {
		root = &thcBuildNode{leaf: b.sideLength == 4}
	}

	// BFS flatten so child arrays are contiguous and base pointers simple.
	order := []*thcBuildNode{root}
	for i := 0; i < len(order); i++ {
		n := order[i]
		if n.leaf {
			continue
		}
		for m := uint32(0); m < 64; m++ {
			if n.children[m] != nil {
				order = append(order, n.children[m])
			}
		}
	}
	childBase := make([]uint32, len(order))
	next := uint32(1)
	for i, n := range order {
		if n.leaf {
			continue
		}
		childBase[i] = next
		next += uint32(bits.OnesCount64(n.mask))
	}

	nodes := make([]uint32, 0, len(order)*3)
	lookup := make([]uint32, 0, len(order)*3)
	var matRaw []uint32
	for i, n := range order {
		childWord := childBase[i]
		if n.leaf {
			childWord = thcLeafFlag
		}
		nodes = append(nodes, childWord, uint32(n.mask), uint32(n.mask>>32))
		lookup = append(lookup, uint32(len(matRaw)), uint32(n.matMask), uint32(n.matMask>>32))
		matRaw = append(matRaw, n.matRaw...)
	}

	nodePtr := w.AppendData(nodes)

	attLookup := [AttachmentCount]uint32{NilPtr, NilPtr}
	attRaw := [AttachmentCount]uint32{NilPtr, NilPtr}
	if len(matRaw) > 0 {
		attLookup[AttachmentMaterial] = w.AppendData(lookup)
		attRaw[AttachmentMaterial] = w.AppendData(matRaw)
		attLookup[AttachmentNormal] = w.AppendData(lookup)
		attRaw[AttachmentNormal] = w.AppendData(make([]uint32, len(matRaw)))
	}

	info := []uint32{SchemaTHC, b.sideLength, nodePtr}
	info = append(info, attLookup[:]...)
	info = append(info, attRaw[:]...)
	return w.AppendInfo(info)
}

// ---- ESVO ----

type ESVOBuilder struct {
	sideLength uint32
	voxels     map[[3]uint32]builderVoxel
}

// NewESVOBuilder requires sideLength to be a power of two, at least 2.
func NewESVOBuilder(sideLength uint32) *ESVOBuilder {
	if sideLength < 2 || sideLength&(sideLength-1) != 0 {
		panic(fmt.Sprintf("esvo side length must be a power of 2, got %d", sideLength))
	}
	return &ESVOBuilder{sideLength: sideLength, voxels: make(map[[3]uint32]builderVoxel)}
}

func (b *ESVOBuilder) Set(x, y, z uint32) {
	p := [3]uint32{x, y, z}
	if _, ok := b.voxels[p]; !ok {
		b.voxels[p] = builderVoxel{}
	}
}

func (b *ESVOBuilder) SetMaterial(x, y, z uint32, mat core.Material) {
	b.voxels[[3]uint32{x, y, z}] = builderVoxel{
		material:    core.EncodeMaterial(mat),
		hasMaterial: true,
	}
}

type esvoBuildNode struct {
	valueMask uint32
	leafMask  uint32
	children  [8]*esvoBuildNode
	// material words per leaf octant, packed in octant order
	matMask uint32
	matRaw  []uint32
}

func (b *ESVOBuilder) buildNode(min [3]uint32, size uint32) *esvoBuildNode {
	n := &esvoBuildNode{}
	half := size / 2
	for oct := uint32(0); oct < 8; oct++ {
		cmin := [3]uint32{
			min[0] + core.OctantAxis(oct, 0)*half,
			min[1] + core.OctantAxis(oct, 1)*half,
			min[2] + core.OctantAxis(oct, 2)*half,
		}
		if half == 1 {
			v, ok := b.voxels[cmin]
			if !ok {
				continue
			}
			n.valueMask |= 1 << oct
			n.leafMask |= 1 << oct
			if v.hasMaterial {
				n.matMask |= 1 << oct
				n.matRaw = append(n.matRaw, v.material)
			}
			continue
		}
		if child := b.buildNode(cmin, half); child != nil {
			n.valueMask |= 1 << oct
			n.children[oct] = child
		}
	}
	if n.valueMask == 0 {
		return nil
	}
	return n
}

func (b *ESVOBuilder) Build(w *World) ModelPtr {
	root := b.buildNode([3]uint32{}, b.sideLength)
	if root == nil {
		root = &esvoBuildNode{}
	}

	// BFS flatten. Every present child gets a slot (leaf slots hold zero),
	// matching the presence-mask prefix count traversal uses. Root sits at
	// index 1 behind the first page header.
	type placed struct {
		node  *esvoBuildNode
		index uint32
	}
	order := []placed{{node: root, index: esvoRootIndex}}
	firstChild := make(map[uint32]uint32)
	next := uint32(esvoRootIndex + 1)
	for i := 0; i < len(order); i++ {
		p := order[i]
		if p.node.valueMask == 0 {
			continue
		}
		firstChild[p.index] = next
		for oct := uint32(0); oct < 8; oct++ {
			if p.node.valueMask&(1<<oct) == 0 {
				continue
			}
			if child := p.node.children[oct]; child != nil {
				order = append(order, placed{node: child, index: next})
			}
			next++
		}
	}
	if next > ESVOPageSize-1 {
		panic("esvo builder: model exceeds one node page")
	}

	nodeWords := make([]uint32, next)
	slotNode := make(map[uint32]*esvoBuildNode, len(order))
	for _, p := range order {
		slotNode[p.index] = p.node
		childPtr := uint32(0)
		if fc, ok := firstChild[p.index]; ok {
			childPtr = fc - p.index
		}
		nodeWords[p.index] = (childPtr << 17) | (p.node.valueMask << 8) | p.node.leafMask
	}

	// One bucket covering the whole (single-page) model.
	bucketTableOff := next
	nodeWords[0] = bucketTableOff
	nodeWords = append(nodeWords, 1, esvoRootIndex, 0)

	// Lookup entries: one word per attachment per node slot, indexed
	// bucket-relative. Empty slots keep zero words.
	haveMaterial := false
	lookup := make([]uint32, (next-esvoRootIndex)*AttachmentCount)
	var matRaw []uint32
	for idx := uint32(esvoRootIndex); idx < next; idx++ {
		n, ok := slotNode[idx]
		if !ok || n.matMask == 0 {
			continue
		}
		haveMaterial = true
		base := (idx - esvoRootIndex) * AttachmentCount
		lookup[base+AttachmentMaterial] = (uint32(len(matRaw)) << 8) | n.matMask
		lookup[base+AttachmentNormal] = (uint32(len(matRaw)) << 8) | n.matMask
		matRaw = append(matRaw, n.matRaw...)
	}

	nodePtr := w.AppendData(nodeWords)

	lookupBase := NilPtr
	attRaw := [AttachmentCount]uint32{NilPtr, NilPtr}
	if haveMaterial {
		lookupBase = w.AppendData(lookup)
		attRaw[AttachmentMaterial] = w.AppendData(matRaw)
		attRaw[AttachmentNormal] = w.AppendData(make([]uint32, len(matRaw)))
	}

	info := []uint32{SchemaESVO, nodePtr, lookupBase, 0}
	info = append(info, attRaw[:]...)
	return w.AppendInfo(info)
}

func isPowerOfFour(x uint32) bool {
	return x != 0 && x&(x-1) == 0 && x&0x55555555 != 0
}

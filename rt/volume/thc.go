package volume

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxtrace/rt/core"
)

// THC models branch 64 ways per level: each node covers a 4x4x4 sub-grid
// addressed by a 6-bit Morton index split over two 32-bit occupancy words.
// A node is exactly 3 consecutive words: [child-array base | leaf flag in
// the top bit], [occupancy low 32], [occupancy high 32]. Tree height is
// log4(side) - 1; each level consumes 2 bits of grid coordinate per axis.
//
// Info block: [0] tag, [1] side length, [2] node-data ptr,
// [3..3+K) attachment-lookup ptrs, [3+K..3+2K) attachment raw ptrs.

const (
	thcLeafFlag = uint32(0x80000000)

	// Generous relative to the worst-case step count at max tree height.
	thcIterCap = 2000
)

type THCModel struct {
	w *World

	SideLength uint32
	nodePtr    uint32

	attachments AttachmentTable
}

func DecodeTHCModel(w *World, ptr ModelPtr) (THCModel, bool) {
	tag, ok := w.Schema(ptr)
	if !ok || (tag != SchemaTHC && tag != SchemaTHCCompressed) {
		return THCModel{}, false
	}
	m := THCModel{
		w:          w,
		SideLength: w.infoWord(ptr, 1),
		nodePtr:    w.infoWord(ptr, 2),
	}
	if m.SideLength < 4 || m.nodePtr == NilPtr {
		return THCModel{}, false
	}
	m.attachments = AttachmentTable{w: w, mode: attachTHC}
	for i := 0; i < AttachmentCount; i++ {
		m.attachments.presence[i] = w.infoWord(ptr, uint32(3+i))
		m.attachments.raw[i] = w.infoWord(ptr, uint32(3+AttachmentCount+i))
	}
	return m, true
}

func (m *THCModel) Attachments() *AttachmentTable {
	return &m.attachments
}

// Height is log4(side) - 1: the deepest node level index.
func (m *THCModel) Height() uint32 {
	h := uint32(0)
	for s := m.SideLength; s > 4; s >>= 2 {
		h++
	}
	return h
}

func (m *THCModel) nodeWords(index uint32) (childWord, maskLo, maskHi uint32) {
	base := m.nodePtr + index*3
	return m.w.dataWord(base), m.w.dataWord(base + 1), m.w.dataWord(base + 2)
}

// thcMorton6 interleaves three 2-bit locals into the 0..63 child index.
func thcMorton6(x, y, z uint32) uint32 {
	return core.MortonEncode3(x&3, y&3, z&3)
}

// GetVoxelAddr descends to the preleaf containing pos and returns the
// voxel's attachment address. ok is false when the voxel is absent.
func (m *THCModel) GetVoxelAddr(x, y, z uint32) (VoxelAddr, bool) {
	if x >= m.SideLength || y >= m.SideLength || z >= m.SideLength {
		return VoxelAddr{}, false
	}
	height := m.Height()
	nodeIndex := uint32(0)
	for level := uint32(0); ; level++ {
		shift := 2 * (height - level)
		morton := thcMorton6(x>>shift, y>>shift, z>>shift)
		childWord, lo, hi := m.nodeWords(nodeIndex)
		var half uint32
		if morton < 32 {
			half = lo
		} else {
			half = hi
		}
		if half&(1<<(morton&31)) == 0 {
			return VoxelAddr{}, false
		}
		if childWord&thcLeafFlag != 0 {
			return THCAddr(nodeIndex, morton), true
		}
		if level == height {
			return VoxelAddr{}, false
		}
		nodeIndex = (childWord &^ thcLeafFlag) + rank64(lo, hi, morton)
	}
}

// Trace walks the tile tree with local/anchor grid arithmetic: the current
// position in voxel space selects a 2-bit local coordinate per axis at the
// current height; descents push node indices keyed by height, and steps
// advance to the next cell boundary at the current node's cell size.
func (m *THCModel) Trace(ray core.Ray, aabb core.AABB) (Hit, bool) {
	info := core.RayToAABB(ray, aabb)
	if !info.Hit {
		return Hit{}, false
	}

	// Work in voxel units: scale origin and direction alike so parametric
	// distances stay world-valued.
	s := float32(m.SideLength) / aabb.SideLength()[0]
	vray := core.NewRay(ray.Origin.Sub(aabb.Min()).Mul(s), ray.Dir.Mul(s))

	side := float32(m.SideLength)
	height := m.Height()
	// Nudge inside the entered cell so floor() lands on it.
	eps := float32(1e-4) / s

	var nodeStack [16]uint32
	var tileStack [16][3]uint32

	t := info.TEnter
	pos := vray.At(t + eps)
	if !insideGrid(pos, side) {
		return Hit{}, false
	}

	level := uint32(0)
	nodeIndex := uint32(0)
	grid := floorGrid(pos)
	currTile := tileOf(grid, height, 0)
	firstCell := true
	lastStep := [3]int{}

	for iter := 0; iter < thcIterCap; iter++ {
		shift := 2 * (height - level)
		morton := thcMorton6(grid[0]>>shift, grid[1]>>shift, grid[2]>>shift)
		childWord, lo, hi := m.nodeWords(nodeIndex)

		var half uint32
		if morton < 32 {
			half = lo
		} else {
			half = hi
		}
		present := half&(1<<(morton&31)) != 0

		if present && childWord&thcLeafFlag != 0 {
			addr := THCAddr(nodeIndex, morton)
			if raw, ok := m.attachments.Resolve(AttachmentMaterial, addr); ok {
				albedo := placeholderAlbedo
				if mat, valid := core.DecodeMaterial(m.w.dataWord(raw)); valid {
					albedo = mat.Albedo
				}
				var normal mgl32.Vec3
				if firstCell {
					normal = core.EntryFaceNormal(ray, info)
				} else {
					normal = mgl32.Vec3{
						-float32(lastStep[0]),
						-float32(lastStep[1]),
						-float32(lastStep[2]),
					}
				}
				if nraw, nok := m.attachments.Resolve(AttachmentNormal, addr); nok {
					if n := m.w.dataWord(nraw); n != 0 {
						normal = core.DecodeNormal(n)
					}
				}
				return Hit{
					T:      t,
					Albedo: albedo,
					Normal: normal,
					Schema: SchemaTHC,
					Addr:   addr,
				}, true
			}
			// Leaf voxel without material: fall through to a step.
		} else if present && level < height {
			nodeStack[level] = nodeIndex
			tileStack[level] = currTile
			nodeIndex = (childWord &^ thcLeafFlag) + rank64(lo, hi, morton)
			level++
			currTile = tileOf(grid, height, level)
			continue
		}

		// Step to the next boundary of the current level's cell grid.
		cell := float32(uint32(1) << shift)
		stepT := float32(math.MaxFloat32)
		for i := 0; i < 3; i++ {
			if vray.Dir[i] == 0 {
				continue
			}
			var boundary float32
			if vray.Dir[i] > 0 {
				boundary = (float32(math.Floor(float64(pos[i]/cell))) + 1) * cell
			} else {
				boundary = float32(math.Floor(float64(pos[i]/cell))) * cell
			}
			axisT := (boundary - pos[i]) * vray.InvDir[i]
			if axisT < stepT {
				stepT = axisT
			}
		}
		if stepT == math.MaxFloat32 {
			return Hit{}, false
		}
		if stepT < 0 {
			stepT = 0
		}

		prev := grid
		t += stepT
		pos = vray.At(t + eps)
		if !insideGrid(pos, side) {
			return Hit{}, false
		}
		grid = floorGrid(pos)
		for i := 0; i < 3; i++ {
			switch {
			case grid[i] > prev[i]:
				lastStep[i] = 1
			case grid[i] < prev[i]:
				lastStep[i] = -1
			default:
				lastStep[i] = 0
			}
		}
		firstCell = false

		// Pop while the new position left the tile the current node covers.
		for level > 0 && tileOf(grid, height, level) != currTile {
			level--
			nodeIndex = nodeStack[level]
			currTile = tileStack[level]
		}
	}
	return Hit{}, false
}

func insideGrid(pos mgl32.Vec3, side float32) bool {
	return pos[0] >= 0 && pos[1] >= 0 && pos[2] >= 0 &&
		pos[0] < side && pos[1] < side && pos[2] < side
}

func floorGrid(pos mgl32.Vec3) [3]uint32 {
	return [3]uint32{
		uint32(math.Floor(float64(pos[0]))),
		uint32(math.Floor(float64(pos[1]))),
		uint32(math.Floor(float64(pos[2]))),
	}
}

// tileOf identifies the tile (anchor grid coordinate) a voxel belongs to at
// the given node level.
func tileOf(grid [3]uint32, height, level uint32) [3]uint32 {
	shift := 2 * (height - level + 1)
	return [3]uint32{grid[0] >> shift, grid[1] >> shift, grid[2] >> shift}
}

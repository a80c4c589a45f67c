package volume

// World owns the flat word buffers every model encoding lives in. Info holds
// per-model header blocks, Data holds node/bitmask/attachment payloads. The
// traversal side only ever reads these; the one writer is the normal
// estimation pass, which touches a single Data word per invocation.
type World struct {
	Info []uint32
	Data []uint32
}

// ModelPtr is a word offset into the Info buffer. The word at that offset is
// always the schema tag.
type ModelPtr = uint32

const (
	// NilPtr marks "does not exist" for every pointer-valued word.
	NilPtr uint32 = 0xFFFFFFFF

	SchemaESVO          uint32 = 1
	SchemaTHC           uint32 = 2
	SchemaTHCCompressed uint32 = 3
	SchemaFlat          uint32 = 4
)

const (
	AttachmentMaterial = 0
	AttachmentNormal   = 1
	AttachmentCount    = 2
)

func NewWorld() *World {
	return &World{}
}

// AppendData copies words into the Data buffer and returns their offset.
func (w *World) AppendData(words []uint32) uint32 {
	off := uint32(len(w.Data))
	w.Data = append(w.Data, words...)
	return off
}

// AppendInfo copies a header block into the Info buffer and returns the
// model pointer for it.
func (w *World) AppendInfo(words []uint32) ModelPtr {
	off := uint32(len(w.Info))
	w.Info = append(w.Info, words...)
	return off
}

// Schema reads the schema tag for ptr; ok is false when the pointer is the
// sentinel or out of range.
func (w *World) Schema(ptr ModelPtr) (uint32, bool) {
	if ptr == NilPtr || int(ptr) >= len(w.Info) {
		return 0, false
	}
	return w.Info[ptr], true
}

func (w *World) infoWord(ptr ModelPtr, off uint32) uint32 {
	i := int(ptr + off)
	if i >= len(w.Info) {
		return NilPtr
	}
	return w.Info[i]
}

func (w *World) dataWord(off uint32) uint32 {
	if int(off) >= len(w.Data) {
		return 0
	}
	return w.Data[off]
}

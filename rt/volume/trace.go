package volume

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxtrace/rt/core"
)

// placeholderAlbedo is the visibly-wrong magenta used when a material word
// carries an unrecognized type tag.
var placeholderAlbedo = mgl32.Vec3{1, 0, 1}

type Hit struct {
	// T is the world-space parametric distance along the queried ray.
	T      float32
	Albedo mgl32.Vec3 // linear space
	Normal mgl32.Vec3
	Schema uint32
	Addr   VoxelAddr
}

// TraceModel dispatches on the model's schema tag. aabb is the model's
// world-space box (for terrain chunks, the chunk AABB). An unknown schema
// is a miss, never an error: a bad tag must not take down the invocation.
func TraceModel(w *World, ray core.Ray, ptr ModelPtr, aabb core.AABB) (Hit, bool) {
	tag, ok := w.Schema(ptr)
	if !ok {
		return Hit{}, false
	}
	switch tag {
	case SchemaESVO:
		if m, ok := DecodeESVOModel(w, ptr); ok {
			return m.Trace(ray, aabb)
		}
	case SchemaTHC, SchemaTHCCompressed:
		if m, ok := DecodeTHCModel(w, ptr); ok {
			return m.Trace(ray, aabb)
		}
	case SchemaFlat:
		if m, ok := DecodeFlatModel(w, ptr); ok {
			return m.Trace(ray, aabb)
		}
	}
	return Hit{}, false
}

// Instance places a model in the world for entity-level tracing.
type Instance struct {
	Ptr  ModelPtr
	AABB core.AABB
}

// TraceNearest returns the closest hit across a set of placed models.
func TraceNearest(w *World, ray core.Ray, instances []Instance) (Hit, bool) {
	var best Hit
	found := false
	for _, inst := range instances {
		if !core.RayToAABB(ray, inst.AABB).Hit {
			continue
		}
		hit, ok := TraceModel(w, ray, inst.Ptr, inst.AABB)
		if !ok {
			continue
		}
		if !found || hit.T < best.T {
			best = hit
			found = true
		}
	}
	return best, found
}

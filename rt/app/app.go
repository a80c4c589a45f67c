package app

import (
	"image"
	"image/color"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxtrace/rt/core"
	"github.com/gekko3d/voxtrace/rt/volume"
)

// App owns the CPU render loop: a world of models, an optional terrain
// window, a camera, and a linear accumulation buffer that frames average
// into. Pixels are independent; RenderFrame fans rows out over a worker
// pool and every pixel derives all of its randomness from its own seeded
// generator, so frame output is deterministic for a given frame index.
type App struct {
	Cfg  Config
	Log  Logger
	Prof *Profiler

	World     *volume.World
	Terrain   *volume.Terrain
	Instances []volume.Instance
	Camera    *core.Camera

	SunDir  mgl32.Vec3
	Ambient float32

	accum []mgl32.Vec3
	frame uint32
}

func NewApp(cfg Config, w *volume.World) (*App, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cam := core.NewCamera()
	cam.FovDeg = cfg.FovDeg
	return &App{
		Cfg:     cfg,
		Log:     NewNopLogger(),
		Prof:    NewProfiler(),
		World:   w,
		Camera:  cam,
		SunDir:  mgl32.Vec3{0.4, -0.6, 0.8}.Normalize(),
		Ambient: 0.2,
		accum:   make([]mgl32.Vec3, cfg.Width*cfg.Height),
	}, nil
}

// Frame is the number of frames accumulated so far.
func (a *App) Frame() uint32 {
	return a.frame
}

// ResetAccumulation discards accumulated samples, for camera cuts.
func (a *App) ResetAccumulation() {
	for i := range a.accum {
		a.accum[i] = mgl32.Vec3{}
	}
	a.frame = 0
}

// RenderFrame traces one jittered sample set for every pixel and adds the
// results into the accumulation buffer.
func (a *App) RenderFrame() {
	a.Prof.BeginScope("render")

	rows := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < a.Cfg.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rows {
				a.renderRow(y)
			}
		}()
	}
	for y := 0; y < a.Cfg.Height; y++ {
		rows <- y
	}
	close(rows)
	wg.Wait()

	a.frame++
	a.Prof.EndScope("render")
	a.Prof.SetCount("frames", int(a.frame))
}

func (a *App) renderRow(y int) {
	for x := 0; x < a.Cfg.Width; x++ {
		rng := core.SeedRng(uint32(x), uint32(y), a.frame)
		var sampleSum mgl32.Vec3
		for s := 0; s < a.Cfg.SamplesPerFrame; s++ {
			ray := a.Camera.PrimaryRay(x, y, a.Cfg.Width, a.Cfg.Height, rng.Float32(), rng.Float32())
			sampleSum = sampleSum.Add(a.Shade(ray))
		}
		a.accum[y*a.Cfg.Width+x] = a.accum[y*a.Cfg.Width+x].Add(
			sampleSum.Mul(1 / float32(a.Cfg.SamplesPerFrame)))
	}
}

// Shade resolves one primary ray to a linear color: lambert against a
// fixed sun for hits, a vertical sky gradient for misses.
func (a *App) Shade(ray core.Ray) mgl32.Vec3 {
	hit, ok := a.trace(ray)
	if !ok {
		return skyColor(ray.Dir)
	}
	diffuse := hit.Normal.Dot(a.SunDir)
	if diffuse < 0 {
		diffuse = 0
	}
	return hit.Albedo.Mul(a.Ambient + (1-a.Ambient)*diffuse)
}

func (a *App) trace(ray core.Ray) (volume.Hit, bool) {
	var best volume.Hit
	found := false
	if a.Terrain != nil {
		if hit, ok := a.Terrain.Trace(ray); ok {
			best = hit
			found = true
		}
	}
	if len(a.Instances) > 0 {
		if hit, ok := volume.TraceNearest(a.World, ray, a.Instances); ok {
			if !found || hit.T < best.T {
				best = hit
				found = true
			}
		}
	}
	return best, found
}

func skyColor(dir mgl32.Vec3) mgl32.Vec3 {
	t := dir[2]*0.5 + 0.5
	horizon := mgl32.Vec3{0.8, 0.85, 0.95}
	zenith := mgl32.Vec3{0.25, 0.45, 0.85}
	return horizon.Mul(1 - t).Add(zenith.Mul(t))
}

// Image averages the accumulation buffer, tonemaps, and quantizes to an
// sRGB image. Dither noise is reseeded per pixel so the mapping stays
// deterministic for a given frame count.
func (a *App) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, a.Cfg.Width, a.Cfg.Height))
	frames := a.frame
	if frames == 0 {
		frames = 1
	}
	inv := 1 / float32(frames)
	for y := 0; y < a.Cfg.Height; y++ {
		for x := 0; x < a.Cfg.Width; x++ {
			rng := core.SeedRng(uint32(x), uint32(y), a.frame+0x9E3779B9)
			linear := a.accum[y*a.Cfg.Width+x].Mul(inv)
			img.SetRGBA(x, y, color.RGBA{
				R: quantize(core.LinearToSrgb(tonemap(linear[0])), &rng),
				G: quantize(core.LinearToSrgb(tonemap(linear[1])), &rng),
				B: quantize(core.LinearToSrgb(tonemap(linear[2])), &rng),
				A: 255,
			})
		}
	}
	if a.Cfg.Overlay {
		DrawOverlay(img, a.Prof.GetStatsString())
	}
	return img
}

// tonemap is Reinhard: compresses unbounded linear light into [0,1).
func tonemap(c float32) float32 {
	return c / (1 + c)
}

func quantize(srgb float32, rng *core.Rng) uint8 {
	v := srgb*255 + rng.TriangleDither()
	if v < 0 {
		v = 0
	} else if v > 255 {
		v = 255
	}
	return uint8(v)
}

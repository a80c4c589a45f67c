package main

import (
	"fmt"
	"image/png"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/urfave/cli"

	"github.com/gekko3d/voxtrace/rt/app"
	"github.com/gekko3d/voxtrace/rt/core"
	"github.com/gekko3d/voxtrace/rt/volume"
)

func main() {
	cliApp := cli.NewApp()
	cliApp.Name = "voxtrace"
	cliApp.Usage = "trace rays through voxel models on the CPU"
	cliApp.Version = "0.1.0"
	cliApp.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
	}
	cliApp.Commands = []cli.Command{
		{
			Name:        "render",
			Usage:       "render the demo scene to a png",
			Description: `Build the demo terrain, accumulate the requested number of frames and write the tonemapped result.`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 640,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 360,
					Usage: "frame height",
				},
				cli.IntFlag{
					Name:  "frames",
					Value: 16,
					Usage: "frames to accumulate",
				},
				cli.BoolFlag{
					Name:  "overlay",
					Usage: "draw the profiler overlay",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame",
				},
			},
			Action: renderDemo,
		},
		{
			Name:   "info",
			Usage:  "print demo scene model and buffer stats",
			Action: printInfo,
		},
	}

	cliApp.Run(os.Args)
}

func newLogger(ctx *cli.Context) app.Logger {
	return app.NewDefaultLogger("voxtrace", ctx.GlobalBool("v"))
}

// buildDemoScene assembles one chunk of each encoding into a 2x2x2 chunk
// window: a flat ground slab, a small octree pillar and a tile-tree arch.
func buildDemoScene(w *volume.World, reg *volume.Registry) (*volume.Terrain, error) {
	const chunkSide = 16

	grass := core.Material{Type: core.MaterialTypeDiffuse, Albedo: mgl32.Vec3{0.2, 0.55, 0.18}}
	stone := core.Material{Type: core.MaterialTypeDiffuse, Albedo: mgl32.Vec3{0.55, 0.52, 0.5}}
	brick := core.Material{Type: core.MaterialTypeDiffuse, Albedo: mgl32.Vec3{0.6, 0.22, 0.16}}

	ground := volume.NewFlatBuilder(chunkSide, chunkSide, chunkSide)
	for y := uint32(0); y < chunkSide; y++ {
		for x := uint32(0); x < chunkSide; x++ {
			ground.SetMaterial(x, y, 0, grass)
			ground.SetMaterial(x, y, 1, grass)
		}
	}
	groundPtr := ground.Build(w)

	pillar := volume.NewESVOBuilder(chunkSide)
	for z := uint32(0); z < 12; z++ {
		for dy := uint32(0); dy < 2; dy++ {
			for dx := uint32(0); dx < 2; dx++ {
				pillar.SetMaterial(7+dx, 7+dy, z, stone)
			}
		}
	}
	pillarPtr := pillar.Build(w)

	arch := volume.NewTHCBuilder(chunkSide)
	for x := uint32(2); x < 14; x++ {
		arch.SetMaterial(x, 8, 10, brick)
	}
	for z := uint32(0); z < 10; z++ {
		arch.SetMaterial(2, 8, z, brick)
		arch.SetMaterial(13, 8, z, brick)
	}
	archPtr := arch.Build(w)

	for name, ptr := range map[string]volume.ModelPtr{
		"ground": groundPtr,
		"pillar": pillarPtr,
		"arch":   archPtr,
	} {
		if _, err := reg.Register(w, name, ptr); err != nil {
			return nil, err
		}
	}

	terrain := volume.NewTerrain(w, 2, chunkSide)
	terrain.SetChunkModel([3]int32{0, 0, 0}, groundPtr)
	terrain.SetChunkModel([3]int32{1, 0, 0}, pillarPtr)
	terrain.SetChunkModel([3]int32{0, 1, 0}, archPtr)

	for _, chunk := range [][3]int32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}} {
		terrain.EstimateChunkNormals(chunk)
	}
	return terrain, nil
}

func renderDemo(ctx *cli.Context) error {
	log := newLogger(ctx)

	cfg := app.DefaultConfig()
	cfg.Width = ctx.Int("width")
	cfg.Height = ctx.Int("height")
	cfg.Overlay = ctx.Bool("overlay")

	w := volume.NewWorld()
	reg := volume.NewRegistry()
	terrain, err := buildDemoScene(w, reg)
	if err != nil {
		return err
	}

	a, err := app.NewApp(cfg, w)
	if err != nil {
		return err
	}
	a.Log = log
	a.Terrain = terrain
	a.Camera.Position = mgl32.Vec3{16, -14, 14}
	a.Camera.Yaw = math.Pi
	a.Camera.Pitch = -0.35

	frames := ctx.Int("frames")
	if frames < 1 {
		frames = 1
	}
	log.Infof("rendering %dx%d, %d frames", cfg.Width, cfg.Height, frames)
	for i := 0; i < frames; i++ {
		a.RenderFrame()
	}
	a.Prof.SetCount("models", reg.Len())

	out := ctx.String("out")
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()
	if err := png.Encode(f, a.Image()); err != nil {
		return fmt.Errorf("encode %s: %w", out, err)
	}
	log.Infof("wrote %s", out)
	if log.DebugEnabled() {
		log.Debugf("profiler:\n%s", a.Prof.GetStatsString())
	}
	return nil
}

func printInfo(ctx *cli.Context) error {
	w := volume.NewWorld()
	reg := volume.NewRegistry()
	terrain, err := buildDemoScene(w, reg)
	if err != nil {
		return err
	}

	fmt.Printf("info words: %d\n", len(w.Info))
	fmt.Printf("data words: %d\n", len(w.Data))
	fmt.Printf("terrain window: %d chunks/axis, %d voxels/chunk\n",
		terrain.SideLength, terrain.ChunkVoxelLength)

	for _, name := range []string{"ground", "pillar", "arch"} {
		entry, ok := reg.Find(name)
		if !ok {
			continue
		}
		fmt.Printf("%-8s schema=%d ptr=%d\n", entry.Name, entry.Schema, entry.Ptr)
	}
	return nil
}

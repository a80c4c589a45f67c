package app

import (
	"fmt"
	"runtime"
)

type Config struct {
	Width  int
	Height int
	FovDeg float32

	// SamplesPerFrame is the jittered primary rays per pixel per frame.
	SamplesPerFrame int
	// Workers caps the render goroutines; 0 means one per CPU.
	Workers int

	Overlay bool
	Debug   bool
}

func DefaultConfig() Config {
	return Config{
		Width:           640,
		Height:          360,
		FovDeg:          60,
		SamplesPerFrame: 1,
	}
}

func (c Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("config: image size %dx%d is not positive", c.Width, c.Height)
	}
	if c.FovDeg <= 0 || c.FovDeg >= 180 {
		return fmt.Errorf("config: fov %g degrees out of range", c.FovDeg)
	}
	if c.SamplesPerFrame <= 0 {
		return fmt.Errorf("config: samples per frame %d is not positive", c.SamplesPerFrame)
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

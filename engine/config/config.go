// Package config loads the engine configuration from TOML and reloads it when
// the file changes on disk.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer"
)

type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Scene    SceneConfig    `toml:"scene"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

type WindowConfig struct {
	// The application name used in windowing, if applicable.
	Title string `toml:"title"`
	// Window starting position, if applicable.
	PosX uint32 `toml:"pos_x"`
	PosY uint32 `toml:"pos_y"`
	// Window starting size. Also the size of the frames rendered headless.
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type RendererConfig struct {
	// headless or vulkan.
	Backend string `toml:"backend"`
	// standard or reference.
	Mode string `toml:"mode"`
	// Enables the Vulkan validation layer.
	Debug bool `toml:"debug"`
	// Frames rendered before exiting. Zero runs until interrupted.
	Frames uint32 `toml:"frames"`

	ArenaCapacity      uint64 `toml:"arena_capacity"`
	MaxMeshes          uint32 `toml:"max_meshes"`
	MaxBindlessImages  uint32 `toml:"max_bindless_images"`
	AccumulationWidth  uint32 `toml:"accumulation_width"`
	AccumulationHeight uint32 `toml:"accumulation_height"`
}

type SceneConfig struct {
	// Wavefront OBJ files registered at startup, in order.
	Meshes []string `toml:"meshes"`
	// Images registered in the bindless table at startup, in order.
	Images []string `toml:"images"`

	CameraPosition [3]float32 `toml:"camera_position"`
	CameraTarget   [3]float32 `toml:"camera_target"`
	// Vertical field of view in degrees.
	FovY float32 `toml:"fov_y"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
	// Address the prometheus handler listens on.
	Address string `toml:"address"`
}

func Default() *Config {
	client := renderer.DefaultClientConfig()
	return &Config{
		Window: WindowConfig{
			Title:  "Lumen",
			PosX:   100,
			PosY:   100,
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			Backend:            renderer.Headless.String(),
			Mode:               renderer.RenderModeStandard.String(),
			ArenaCapacity:      client.ArenaCapacity,
			MaxMeshes:          client.MaxMeshes,
			MaxBindlessImages:  client.MaxBindlessImages,
			AccumulationWidth:  client.AccumulationExtent[0],
			AccumulationHeight: client.AccumulationExtent[1],
		},
		Scene: SceneConfig{
			CameraPosition: [3]float32{0, 1, 4},
			CameraTarget:   [3]float32{0, 0, 0},
			FovY:           60,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "127.0.0.1:9464",
		},
	}
}

// Load decodes the file at path on top of the defaults. Unknown keys are
// rejected so typos do not silently fall back to a default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown configuration keys:\n%s", strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("configuration line %d column %d: %w", row, col, err)
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format+": %w", append(args, core.ErrPrecondition)...))
	}

	if c.Window.Width == 0 || c.Window.Height == 0 {
		invalid("window size %dx%d has a zero dimension", c.Window.Width, c.Window.Height)
	}
	if _, err := renderer.ParseRendererType(c.Renderer.Backend); err != nil {
		invalid("renderer.backend: %s", err)
	}
	if _, err := renderer.ParseRenderMode(c.Renderer.Mode); err != nil {
		invalid("renderer.mode: %s", err)
	}
	if !math.IsPowerOfTwo(c.Renderer.ArenaCapacity) {
		invalid("renderer.arena_capacity %d is not a non-zero power of two", c.Renderer.ArenaCapacity)
	}
	if c.Renderer.MaxMeshes == 0 {
		invalid("renderer.max_meshes is zero")
	}
	if !math.IsPowerOfTwo(c.Renderer.MaxBindlessImages) {
		invalid("renderer.max_bindless_images %d is not a non-zero power of two", c.Renderer.MaxBindlessImages)
	}
	if c.Renderer.AccumulationWidth == 0 || c.Renderer.AccumulationHeight == 0 {
		invalid("accumulation size %dx%d has a zero dimension", c.Renderer.AccumulationWidth, c.Renderer.AccumulationHeight)
	}
	if c.Scene.FovY <= 0 || c.Scene.FovY >= 180 {
		invalid("scene.fov_y %g outside (0, 180)", c.Scene.FovY)
	}
	if c.Scene.CameraPosition == c.Scene.CameraTarget {
		invalid("scene camera position and target coincide")
	}
	if err := core.ValidateLogLevel(c.Log.Level); err != nil {
		invalid("log.level: %s", err)
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		invalid("metrics enabled without an address")
	}

	return errors.Join(errs...)
}

// ClientConfig returns the render client settings. Validate must have passed.
func (c *Config) ClientConfig() renderer.ClientConfig {
	return renderer.ClientConfig{
		ArenaCapacity:      c.Renderer.ArenaCapacity,
		MaxMeshes:          c.Renderer.MaxMeshes,
		MaxBindlessImages:  c.Renderer.MaxBindlessImages,
		AccumulationExtent: [2]uint32{c.Renderer.AccumulationWidth, c.Renderer.AccumulationHeight},
	}
}

func (c *Config) RenderMode() renderer.RenderMode {
	mode, _ := renderer.ParseRenderMode(c.Renderer.Mode)
	return mode
}

func (c *Config) Backend() renderer.RendererType {
	backend, _ := renderer.ParseRendererType(c.Renderer.Backend)
	return backend
}

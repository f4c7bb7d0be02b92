package engine

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/passes"
	"github.com/spaghettifunk/lumen/engine/systems"
)

const (
	// Bindless handle shaders sample the BRDF table from. Registered first.
	brdfFgLutID uint32 = 0
	// Textures larger than this are downscaled when loaded.
	maxTextureDimension uint32 = 2048
)

// Fallbacks for material maps a mesh does not provide.
type defaultImages [loaders.MapCount]renderer.BindlessImageHandle

type textureRequest struct {
	path  string
	gamma metadata.TexGamma
	// Configured images must load, material maps fall back to a default.
	required bool
}

func mapGamma(slot int) metadata.TexGamma {
	switch slot {
	case loaders.MapAlbedo, loaders.MapEmissive:
		return metadata.TexGammaSrgb
	default:
		return metadata.TexGammaLinear
	}
}

func solidImage(r, g, b, a uint8) *metadata.ImageResourceData {
	return &metadata.ImageResourceData{
		ChannelCount: 4,
		Width:        1,
		Height:       1,
		Pixels:       []uint8{r, g, b, a},
	}
}

func addDefaultImages(client *renderer.RenderClient) (defaultImages, error) {
	var defaults defaultImages
	white, err := client.AddImage(solidImage(255, 255, 255, 255), metadata.TexParams{Gamma: metadata.TexGammaLinear})
	if err != nil {
		return defaults, err
	}
	flatNormal, err := client.AddImage(solidImage(128, 128, 255, 255), metadata.TexParams{Gamma: metadata.TexGammaLinear})
	if err != nil {
		return defaults, err
	}
	black, err := client.AddImage(solidImage(0, 0, 0, 255), metadata.TexParams{Gamma: metadata.TexGammaLinear})
	if err != nil {
		return defaults, err
	}

	defaults[loaders.MapAlbedo] = white
	defaults[loaders.MapNormal] = flatNormal
	defaults[loaders.MapRoughnessMetalness] = white
	defaults[loaders.MapEmissive] = black
	return defaults, nil
}

// materialParams points every map of m at its registered image, or at the
// default for maps that are absent or failed to load.
func materialParams(m loaders.Material, dir string, handles map[string]renderer.BindlessImageHandle, defaults defaultImages) metadata.MeshMaterial {
	params := m.Params
	for slot, path := range m.Maps {
		params.Maps[slot] = uint32(defaults[slot])
		if path == "" {
			continue
		}
		if handle, ok := handles[filepath.Join(dir, path)]; ok {
			params.Maps[slot] = uint32(handle)
		}
	}
	return params
}

// loadParallel runs load for every name on a job system and returns the
// results in input order. Failed entries hold the zero value and their error.
func loadParallel[T any](names []string, load func(string) (T, error)) ([]T, []error, error) {
	results := make([]T, len(names))
	errs := make([]error, len(names))
	if len(names) == 0 {
		return results, errs, nil
	}

	js, err := systems.NewJobSystem(min(runtime.NumCPU(), len(names)), len(names))
	if err != nil {
		return nil, nil, err
	}
	for i, name := range names {
		js.Submit(systems.JobTask{
			Name: name,
			OnStart: func() error {
				res, err := load(name)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			},
			OnFailure: func(err error) { errs[i] = err },
		})
	}
	// Failures are reported per entry.
	_ = js.Shutdown()
	return results, errs, nil
}

// defaultScene is a ground plane with a unit cube resting on it.
func defaultScene() []*metadata.PackedTriangleMesh {
	ground := systems.GeneratePlane(10, 10, 4, 4, 4, 4)
	cube := systems.GenerateCube(1, 1, 1, 1, 1)
	systems.TranslateMesh(cube, mgl32.Vec3{0, 0.5, 0})
	return []*metadata.PackedTriangleMesh{ground, cube}
}

// loadScene registers the lookup tables, default images, configured images
// and meshes, then builds the top level acceleration.
func (e *Engine) loadScene() error {
	if err := e.client.AddImageLut(passes.BrdfFgLutComputer{}, brdfFgLutID); err != nil {
		return err
	}
	defaults, err := addDefaultImages(e.client)
	if err != nil {
		return err
	}

	models, errs, err := loadParallel(e.cfg.Scene.Meshes, e.assetManager.LoadModel)
	if err != nil {
		return err
	}
	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("loading mesh %s: %w", e.cfg.Scene.Meshes[i], err)
		}
	}

	// Every distinct texture is decoded once, in first use order.
	var requests []textureRequest
	seen := make(map[string]bool)
	request := func(path string, gamma metadata.TexGamma, required bool) {
		if !seen[path] {
			seen[path] = true
			requests = append(requests, textureRequest{path: path, gamma: gamma, required: required})
		}
	}
	for _, name := range e.cfg.Scene.Images {
		request(name, metadata.TexGammaSrgb, true)
	}
	for _, model := range models {
		for _, m := range model.Materials {
			for slot, path := range m.Maps {
				if path != "" {
					request(filepath.Join(model.Dir, path), mapGamma(slot), false)
				}
			}
		}
	}

	paths := make([]string, len(requests))
	for i, r := range requests {
		paths[i] = r.path
	}
	params := metadata.ImageResourceParams{MaxDimension: maxTextureDimension}
	images, errs, err := loadParallel(paths, func(path string) (*metadata.ImageResourceData, error) {
		return e.assetManager.LoadImage(path, params)
	})
	if err != nil {
		return err
	}

	handles := make(map[string]renderer.BindlessImageHandle, len(requests))
	for i, r := range requests {
		if errs[i] != nil {
			if r.required {
				return fmt.Errorf("loading image %s: %w", r.path, errs[i])
			}
			core.LogWarn("texture %s unavailable, using the default map: %s", r.path, errs[i])
			continue
		}
		handle, err := e.client.AddImage(images[i], metadata.TexParams{Gamma: r.gamma})
		if err != nil {
			return fmt.Errorf("registering image %s: %w", r.path, err)
		}
		handles[r.path] = handle
	}

	var meshes []*metadata.PackedTriangleMesh
	for _, model := range models {
		for i, m := range model.Materials {
			model.Mesh.Materials[i] = materialParams(m, model.Dir, handles, defaults)
		}
		meshes = append(meshes, model.Mesh)
	}
	if len(meshes) == 0 {
		core.LogInfo("no meshes configured, loading the default scene")
		meshes = defaultScene()
		for _, mesh := range meshes {
			for i := range mesh.Materials {
				for slot := range mesh.Materials[i].Maps {
					mesh.Materials[i].Maps[slot] = uint32(defaults[slot])
				}
			}
		}
	}

	for _, mesh := range meshes {
		if _, err := e.client.AddMesh(mesh); err != nil {
			return err
		}
	}
	if err := e.client.BuildTopLevelAcceleration(); err != nil {
		return err
	}

	core.LogInfo("scene loaded: %d meshes, %d bindless images, %s of geometry",
		e.client.MeshCount(), e.client.BindlessImageCount(), math.FormatBytes(e.client.ArenaBytesWritten()))
	return nil
}

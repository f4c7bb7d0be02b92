package metadata

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/core"
)

type WindowConfig struct {
	Width  uint32
	Height uint32
}

func (w WindowConfig) Dims() [2]uint32 {
	return [2]uint32{w.Width, w.Height}
}

/** @brief The camera transforms for one frame. */
type CameraMatrices struct {
	ViewToClip  mgl32.Mat4
	ClipToView  mgl32.Mat4
	WorldToView mgl32.Mat4
	ViewToWorld mgl32.Mat4
}

/** @brief Input sampled at the beginning of a frame. */
type InputState struct {
	Keys  core.KeyboardState
	Mouse core.MouseState
}

/** @brief Everything the renderer needs to know about the frame being prepared. */
type FrameState struct {
	Window         WindowConfig
	CameraMatrices CameraMatrices
	Input          InputState
}

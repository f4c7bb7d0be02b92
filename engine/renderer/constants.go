package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// ViewConstants is the camera block shared by every shader.
type ViewConstants struct {
	ViewToClip         mgl32.Mat4
	ClipToView         mgl32.Mat4
	ViewToSample       mgl32.Mat4
	SampleToView       mgl32.Mat4
	WorldToView        mgl32.Mat4
	ViewToWorld        mgl32.Mat4
	SampleOffsetPixels mgl32.Vec2
	SampleOffsetClip   mgl32.Vec2
}

type ViewConstantsBuilder struct {
	cameraMatrices metadata.CameraMatrices
	width, height  uint32
	pixelOffset    *mgl32.Vec2
}

func NewViewConstantsBuilder(cm metadata.CameraMatrices, width, height uint32) *ViewConstantsBuilder {
	return &ViewConstantsBuilder{cameraMatrices: cm, width: width, height: height}
}

// PixelOffset jitters the sample position by a sub-pixel amount.
func (b *ViewConstantsBuilder) PixelOffset(offset mgl32.Vec2) *ViewConstantsBuilder {
	b.pixelOffset = &offset
	return b
}

func (b *ViewConstantsBuilder) Build() ViewConstants {
	cm := b.cameraMatrices
	res := ViewConstants{
		ViewToClip:   cm.ViewToClip,
		ClipToView:   cm.ClipToView,
		ViewToSample: cm.ViewToClip,
		SampleToView: cm.ClipToView,
		WorldToView:  cm.WorldToView,
		ViewToWorld:  cm.ViewToWorld,
	}

	if b.pixelOffset != nil && b.width > 0 && b.height > 0 {
		offset := *b.pixelOffset
		clip := mgl32.Vec2{
			2.0 * offset.X() / float32(b.width),
			2.0 * offset.Y() / float32(b.height),
		}
		jitter := mgl32.Translate3D(-clip.X(), -clip.Y(), 0)
		jitterInv := mgl32.Translate3D(clip.X(), clip.Y(), 0)

		res.ViewToSample = jitter.Mul4(cm.ViewToClip)
		res.SampleToView = cm.ClipToView.Mul4(jitterInv)
		res.SampleOffsetPixels = offset
		res.SampleOffsetClip = clip
	}
	return res
}

// FrameConstants is pushed to the dynamic constants buffer once per frame.
type FrameConstants struct {
	ViewConstants ViewConstants
	Mouse         [4]float32
	FrameIndex    uint32
}

// shaderMouseState packs the cursor position normalized to the window, the
// left button, and -1 when left shift is held (1 otherwise).
func shaderMouseState(fs *metadata.FrameState) [4]float32 {
	var pos [2]float32
	if fs.Window.Width > 0 && fs.Window.Height > 0 {
		pos[0] = float32(fs.Input.Mouse.X) / float32(fs.Window.Width)
		pos[1] = float32(fs.Input.Mouse.Y) / float32(fs.Window.Height)
	}

	var button float32
	if fs.Input.Mouse.ButtonMask()&1 != 0 {
		button = 1
	}

	shift := float32(1)
	if fs.Input.Keys.IsKeyDown(core.KEY_LSHIFT) {
		shift = -1
	}
	return [4]float32{pos[0], pos[1], button, shift}
}

package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
)

func testCameraMatrices() metadata.CameraMatrices {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 16.0/9.0, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 1, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	return metadata.CameraMatrices{
		ViewToClip:  proj,
		ClipToView:  proj.Inv(),
		WorldToView: view,
		ViewToWorld: view.Inv(),
	}
}

func TestViewConstantsWithoutJitter(t *testing.T) {
	cm := testCameraMatrices()
	vc := NewViewConstantsBuilder(cm, 1280, 720).Build()

	assert.Equal(t, cm.ViewToClip, vc.ViewToSample)
	assert.Equal(t, cm.ClipToView, vc.SampleToView)
	assert.Equal(t, cm.WorldToView, vc.WorldToView)
	assert.Zero(t, vc.SampleOffsetClip)
}

func TestViewConstantsJitter(t *testing.T) {
	cm := testCameraMatrices()
	vc := NewViewConstantsBuilder(cm, 100, 50).PixelOffset(mgl32.Vec2{0.5, -0.25}).Build()

	assert.Equal(t, mgl32.Vec2{0.01, -0.01}, vc.SampleOffsetClip)
	assert.Equal(t, mgl32.Vec2{0.5, -0.25}, vc.SampleOffsetPixels)

	roundTrip := vc.SampleToView.Mul4(vc.ViewToSample)
	assert.True(t, roundTrip.ApproxEqualThreshold(mgl32.Ident4(), 1e-4))
	assert.Equal(t, cm.ViewToClip, vc.ViewToClip)
}

func TestShaderMouseState(t *testing.T) {
	fs := &metadata.FrameState{Window: metadata.WindowConfig{Width: 200, Height: 100}}
	fs.Input.Mouse.X = 50
	fs.Input.Mouse.Y = 25
	assert.Equal(t, [4]float32{0.25, 0.25, 0, 1}, shaderMouseState(fs))

	fs.Input.Mouse.Buttons[core.BUTTON_LEFT] = true
	fs.Input.Keys.Keys[core.KEY_LSHIFT] = true
	assert.Equal(t, [4]float32{0.25, 0.25, 1, -1}, shaderMouseState(fs))
}

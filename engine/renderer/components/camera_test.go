package components

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/stretchr/testify/assert"
)

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, 1e-5), "want %v, got %v", want, got)
}

func TestNewCameraLooksAtTarget(t *testing.T) {
	tests := []struct {
		name     string
		position mgl32.Vec3
		forward  mgl32.Vec3
	}{
		{"from +z", mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, -1}},
		{"from +x", mgl32.Vec3{5, 0, 0}, mgl32.Vec3{-1, 0, 0}},
		{"from -z", mgl32.Vec3{0, 0, -3}, mgl32.Vec3{0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCamera(tt.position, mgl32.Vec3{}, 60)
			assertVec3(t, tt.forward, c.Forward())

			// The target lands on the negative view axis.
			target := c.GetView().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
			assert.InDelta(t, 0, target.X(), 1e-5)
			assert.InDelta(t, 0, target.Y(), 1e-5)
			assert.Less(t, target.Z(), float32(0))
		})
	}
}

func TestLookAtOwnPositionKeepsRotation(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, 60)
	before := c.EulerRotation
	c.LookAt(c.Position)
	assert.Equal(t, before, c.EulerRotation)
}

func TestPitchIsClamped(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, 60)
	c.Pitch(10)
	assert.Equal(t, pitchLimit, c.EulerRotation[0])
	c.Pitch(-20)
	assert.Equal(t, -pitchLimit, c.EulerRotation[0])
}

func TestTakeMoved(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, 60)
	assert.True(t, c.TakeMoved())
	assert.False(t, c.TakeMoved())

	c.MoveForward(1)
	assert.True(t, c.TakeMoved())
	assertVec3(t, mgl32.Vec3{0, 0, 4}, c.Position)
	assert.False(t, c.TakeMoved())

	// Reading matrices is not a move.
	c.Matrices(16.0 / 9.0)
	assert.False(t, c.TakeMoved())
}

func TestMatricesAreInverses(t *testing.T) {
	c := NewCamera(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0.5, 0}, 45)
	m := c.Matrices(2)

	assert.True(t, m.ViewToClip.Mul4(m.ClipToView).ApproxEqualThreshold(mgl32.Ident4(), 1e-4))
	assert.True(t, m.WorldToView.Mul4(m.ViewToWorld).ApproxEqualThreshold(mgl32.Ident4(), 1e-4))
	assertVec3(t, c.Position, m.ViewToWorld.Col(3).Vec3())
}

func TestControllerMovesCamera(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, 60)
	c.TakeMoved()
	cc := &CameraController{MoveSpeed: 1, TurnSpeed: 1}

	var keys core.KeyboardState
	cc.Update(c, keys, 1)
	assert.False(t, c.TakeMoved())

	keys.Keys[core.KEY_W] = true
	keys.Keys[core.KEY_LSHIFT] = true
	cc.Update(c, keys, 0.5)
	assert.True(t, c.TakeMoved())
	assertVec3(t, mgl32.Vec3{0, 0, 4}, c.Position)

	keys = core.KeyboardState{}
	keys.Keys[core.KEY_E] = true
	cc.Update(c, keys, 1)
	assertVec3(t, mgl32.Vec3{0, 1, 4}, c.Position)
}

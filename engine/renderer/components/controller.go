package components

import (
	"github.com/spaghettifunk/lumen/engine/core"
)

// CameraController flies a camera from keyboard state: WASD to move, QE to
// descend and rise, arrows to turn. Shift doubles the speed.
type CameraController struct {
	// Units per second.
	MoveSpeed float32
	// Radians per second.
	TurnSpeed float32
}

func NewCameraController() *CameraController {
	return &CameraController{MoveSpeed: 2.5, TurnSpeed: 1.5}
}

func (cc *CameraController) Update(camera *Camera, keys core.KeyboardState, deltaTime float64) {
	dt := float32(deltaTime)
	move := cc.MoveSpeed * dt
	if keys.IsKeyDown(core.KEY_LSHIFT) || keys.IsKeyDown(core.KEY_RSHIFT) {
		move *= 2
	}
	turn := cc.TurnSpeed * dt

	if keys.IsKeyDown(core.KEY_W) {
		camera.MoveForward(move)
	}
	if keys.IsKeyDown(core.KEY_S) {
		camera.MoveBackward(move)
	}
	if keys.IsKeyDown(core.KEY_A) {
		camera.MoveLeft(move)
	}
	if keys.IsKeyDown(core.KEY_D) {
		camera.MoveRight(move)
	}
	if keys.IsKeyDown(core.KEY_E) {
		camera.MoveUp(move)
	}
	if keys.IsKeyDown(core.KEY_Q) {
		camera.MoveDown(move)
	}
	if keys.IsKeyDown(core.KEY_LEFT) {
		camera.Yaw(turn)
	}
	if keys.IsKeyDown(core.KEY_RIGHT) {
		camera.Yaw(-turn)
	}
	if keys.IsKeyDown(core.KEY_UP) {
		camera.Pitch(turn)
	}
	if keys.IsKeyDown(core.KEY_DOWN) {
		camera.Pitch(-turn)
	}
}

package testbed

import (
	"github.com/spaghettifunk/lumen/engine"
	"github.com/spaghettifunk/lumen/engine/core"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	// Radians per second the camera yaws in place. Zero keeps it still.
	spinSpeed float32
	elapsed    float64

	width  uint32
	height uint32
}

// NewTestGame returns a game which optionally spins the camera, so that the
// reference path keeps restarting its accumulation.
func NewTestGame(spinSpeed float32) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			State: &gameState{spinSpeed: spinSpeed},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize

	return tg
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogDebug("TestGame Initialize fn....")

	state := g.State.(*gameState)
	state.width, state.height = e.GetFramebufferSize()
	return nil
}

func (g *TestGame) Update(e *engine.Engine, deltaTime float64) error {
	state := g.State.(*gameState)
	state.elapsed += deltaTime

	if state.spinSpeed != 0 {
		e.Camera().Yaw(state.spinSpeed * float32(deltaTime))
	}
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	core.LogDebug("testbed viewport %dx%d", width, height)
	return nil
}

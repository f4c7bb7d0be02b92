package engine

// Game hooks into the engine's lifecycle. Every callback is optional.
type Game struct {
	State        interface{}
	FnInitialize Initialize
	FnUpdate     Update
	FnOnResize   OnResize
}

// Initialize runs once the scene is loaded, before the first frame.
type Initialize func(e *Engine) error

// Update runs at the start of every frame, before the camera controller.
type Update func(e *Engine, deltaTime float64) error
type OnResize func(width uint32, height uint32) error

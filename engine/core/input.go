package core

import "sync"

type Button uint16

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_MAX_BUTTONS
)

// Key code definitions
type KeyCode uint16

const (
	KEY_TAB    KeyCode = 0x09
	KEY_ENTER  KeyCode = 0x0D
	KEY_ESCAPE KeyCode = 0x1B
	KEY_SPACE  KeyCode = 0x20
	KEY_LEFT   KeyCode = 0x25
	KEY_UP     KeyCode = 0x26
	KEY_RIGHT  KeyCode = 0x27
	KEY_DOWN   KeyCode = 0x28
	KEY_A      KeyCode = 0x41
	KEY_D      KeyCode = 0x44
	KEY_E      KeyCode = 0x45
	KEY_Q      KeyCode = 0x51
	KEY_R      KeyCode = 0x52
	KEY_S      KeyCode = 0x53
	KEY_W      KeyCode = 0x57
	KEY_F1     KeyCode = 0x70
	KEY_F2     KeyCode = 0x71
	KEY_LSHIFT KeyCode = 0xA0
	KEY_RSHIFT KeyCode = 0xA1

	KEYS_MAX_KEYS KeyCode = 0xFF
)

// Mouse state structure
type MouseState struct {
	X       uint16
	Y       uint16
	Buttons [BUTTON_MAX_BUTTONS]bool // button states (pressed/released)
}

// ButtonMask packs the pressed buttons into a bit mask, BUTTON_LEFT being bit 0.
func (m MouseState) ButtonMask() uint32 {
	var mask uint32
	for i, down := range m.Buttons {
		if down {
			mask |= 1 << uint32(i)
		}
	}
	return mask
}

// Keyboard state structure
type KeyboardState struct {
	Keys [256]bool
}

func (k KeyboardState) IsKeyDown(key KeyCode) bool {
	return k.Keys[key]
}

// Input state structure that holds current and previous states for keyboard and mouse
type InputState struct {
	KeyboardCurrent  KeyboardState
	KeyboardPrevious KeyboardState
	MouseCurrent     MouseState
	MousePrevious    MouseState
}

var onceInput sync.Once
var inputMu sync.Mutex
var inputInitialized bool = false
var inputState *InputState = nil

func InputInitialize() error {
	onceInput.Do(func() {
		inputState = &InputState{}
	})
	inputInitialized = true
	LogInfo("Input subsystem initialized.")
	return nil
}

func InputShutdown() error {
	inputInitialized = false
	return nil
}

func InputUpdate(deltaTime float64) error {
	if !inputInitialized {
		return nil
	}
	inputMu.Lock()
	defer inputMu.Unlock()

	// Copy current states to previous states.
	inputState.KeyboardPrevious = inputState.KeyboardCurrent
	inputState.MousePrevious = inputState.MouseCurrent

	return nil
}

// InputSnapshot returns a copy of the current keyboard and mouse state.
func InputSnapshot() (KeyboardState, MouseState) {
	if !inputInitialized {
		return KeyboardState{}, MouseState{}
	}
	inputMu.Lock()
	defer inputMu.Unlock()
	return inputState.KeyboardCurrent, inputState.MouseCurrent
}

// keyboard input
func InputIsKeyDown(key KeyCode) bool {
	if !inputInitialized {
		return false
	}
	inputMu.Lock()
	defer inputMu.Unlock()
	return inputState.KeyboardCurrent.Keys[key]
}

func InputWasKeyDown(key KeyCode) bool {
	if !inputInitialized {
		return false
	}
	inputMu.Lock()
	defer inputMu.Unlock()
	return inputState.KeyboardPrevious.Keys[key]
}

func InputProcessKey(key KeyCode, pressed bool) error {
	if !inputInitialized {
		return nil
	}
	inputMu.Lock()
	changed := inputState.KeyboardCurrent.Keys[key] != pressed
	inputState.KeyboardCurrent.Keys[key] = pressed
	inputMu.Unlock()

	// Only handle this if the state actually changed.
	if changed {
		code := EVENT_CODE_KEY_RELEASED
		if pressed {
			code = EVENT_CODE_KEY_PRESSED
		}
		ctx := EventContext{}
		ctx.Data.U16[0] = uint16(key)
		EventFire(code, nil, ctx)
	}
	return nil
}

// mouse input
func InputIsButtonDown(button Button) bool {
	if !inputInitialized {
		return false
	}
	inputMu.Lock()
	defer inputMu.Unlock()
	return inputState.MouseCurrent.Buttons[button]
}

func InputGetMousePosition() (int32, int32) {
	if !inputInitialized {
		return 0, 0
	}
	inputMu.Lock()
	defer inputMu.Unlock()
	return int32(inputState.MouseCurrent.X), int32(inputState.MouseCurrent.Y)
}

func InputProcessButton(button Button, pressed bool) error {
	if !inputInitialized {
		return nil
	}
	inputMu.Lock()
	changed := inputState.MouseCurrent.Buttons[button] != pressed
	inputState.MouseCurrent.Buttons[button] = pressed
	inputMu.Unlock()

	// If the state changed, fire an event.
	if changed {
		code := EVENT_CODE_BUTTON_RELEASED
		if pressed {
			code = EVENT_CODE_BUTTON_PRESSED
		}
		ctx := EventContext{}
		ctx.Data.U16[0] = uint16(button)
		EventFire(code, nil, ctx)
	}
	return nil
}

func InputProcessMouseMove(x uint16, y uint16) error {
	if !inputInitialized {
		return nil
	}
	inputMu.Lock()
	changed := inputState.MouseCurrent.X != x || inputState.MouseCurrent.Y != y
	inputState.MouseCurrent.X = x
	inputState.MouseCurrent.Y = y
	inputMu.Unlock()

	if changed {
		ctx := EventContext{}
		ctx.Data.U16[0] = x
		ctx.Data.U16[1] = y
		EventFire(EVENT_CODE_MOUSE_MOVED, nil, ctx)
	}
	return nil
}

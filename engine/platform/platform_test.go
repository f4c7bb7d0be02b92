package platform

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/stretchr/testify/assert"
)

func TestTranslateKey(t *testing.T) {
	code, ok := translateKey(glfw.KeyW)
	assert.True(t, ok)
	assert.Equal(t, core.KEY_W, code)

	code, ok = translateKey(glfw.KeyLeftShift)
	assert.True(t, ok)
	assert.Equal(t, core.KEY_LSHIFT, code)

	_, ok = translateKey(glfw.KeyF12)
	assert.False(t, ok)
}

func TestTranslateButton(t *testing.T) {
	b, ok := translateButton(glfw.MouseButtonLeft)
	assert.True(t, ok)
	assert.Equal(t, core.BUTTON_LEFT, b)

	_, ok = translateButton(glfw.MouseButton4)
	assert.False(t, ok)
}

func TestCursorCoordinateClamps(t *testing.T) {
	assert.Equal(t, uint16(0), cursorCoordinate(-12))
	assert.Equal(t, uint16(640), cursorCoordinate(640.7))
	assert.Equal(t, uint16(65535), cursorCoordinate(1e9))
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputKeyTransitionsFireOnce(t *testing.T) {
	require.NoError(t, InputInitialize())
	require.True(t, EventInitialize())
	listener := new(int)
	t.Cleanup(func() {
		EventUnregister(EVENT_CODE_KEY_PRESSED, listener)
		EventUnregister(EVENT_CODE_KEY_RELEASED, listener)
		_ = InputProcessKey(KEY_W, false)
	})

	var events []SystemEventCode
	record := func(code SystemEventCode, _ interface{}, _ interface{}, ctx EventContext) bool {
		assert.Equal(t, uint16(KEY_W), ctx.Data.U16[0])
		events = append(events, code)
		return false
	}
	EventRegister(EVENT_CODE_KEY_PRESSED, listener, record)
	EventRegister(EVENT_CODE_KEY_RELEASED, listener, record)

	require.NoError(t, InputProcessKey(KEY_W, true))
	require.NoError(t, InputProcessKey(KEY_W, true))
	assert.True(t, InputIsKeyDown(KEY_W))
	assert.False(t, InputWasKeyDown(KEY_W))

	require.NoError(t, InputUpdate(0.016))
	assert.True(t, InputWasKeyDown(KEY_W))

	require.NoError(t, InputProcessKey(KEY_W, false))
	assert.Equal(t, []SystemEventCode{EVENT_CODE_KEY_PRESSED, EVENT_CODE_KEY_RELEASED}, events)
}

func TestInputSnapshot(t *testing.T) {
	require.NoError(t, InputInitialize())
	t.Cleanup(func() {
		_ = InputProcessButton(BUTTON_RIGHT, false)
		_ = InputProcessKey(KEY_LSHIFT, false)
	})

	require.NoError(t, InputProcessMouseMove(10, 20))
	require.NoError(t, InputProcessButton(BUTTON_RIGHT, true))
	require.NoError(t, InputProcessKey(KEY_LSHIFT, true))

	keys, mouse := InputSnapshot()
	assert.True(t, keys.IsKeyDown(KEY_LSHIFT))
	assert.Equal(t, uint16(10), mouse.X)
	assert.Equal(t, uint16(20), mouse.Y)
	assert.Equal(t, uint32(0b10), mouse.ButtonMask())

	x, y := InputGetMousePosition()
	assert.Equal(t, int32(10), x)
	assert.Equal(t, int32(20), y)
}

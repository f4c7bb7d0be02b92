package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEventCode SystemEventCode = MAX_EVENT_CODE + 1

func TestEventRegisterRejectsDuplicates(t *testing.T) {
	require.True(t, EventInitialize())
	listener := new(int)
	t.Cleanup(func() { EventUnregister(testEventCode, listener) })

	noop := func(SystemEventCode, interface{}, interface{}, EventContext) bool { return false }
	assert.True(t, EventRegister(testEventCode, listener, noop))
	assert.False(t, EventRegister(testEventCode, listener, noop))

	assert.True(t, EventUnregister(testEventCode, listener))
	assert.False(t, EventUnregister(testEventCode, listener))
}

func TestEventFireStopsAtFirstHandler(t *testing.T) {
	require.True(t, EventInitialize())
	first, second := new(int), new(int)
	t.Cleanup(func() {
		EventUnregister(testEventCode, first)
		EventUnregister(testEventCode, second)
	})

	var got []uint32
	EventRegister(testEventCode, first, func(_ SystemEventCode, _ interface{}, listener interface{}, ctx EventContext) bool {
		assert.Same(t, first, listener)
		got = append(got, ctx.Data.U32[0])
		return ctx.Data.U32[0] == 2
	})
	EventRegister(testEventCode, second, func(_ SystemEventCode, _ interface{}, _ interface{}, ctx EventContext) bool {
		got = append(got, ctx.Data.U32[0]+100)
		return true
	})

	ctx := EventContext{}
	ctx.Data.U32[0] = 1
	assert.True(t, EventFire(testEventCode, nil, ctx))
	ctx.Data.U32[0] = 2
	assert.True(t, EventFire(testEventCode, nil, ctx))

	assert.Equal(t, []uint32{1, 101, 2}, got)
}

func TestEventListenerMayUnregisterItself(t *testing.T) {
	require.True(t, EventInitialize())
	listener := new(int)

	calls := 0
	EventRegister(testEventCode, listener, func(code SystemEventCode, _ interface{}, l interface{}, _ EventContext) bool {
		calls++
		EventUnregister(code, l)
		return false
	})

	EventFire(testEventCode, nil, EventContext{})
	EventFire(testEventCode, nil, EventContext{})
	assert.Equal(t, 1, calls)
}

package systems

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidatesArguments(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)

	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystemRunsEveryJob(t *testing.T) {
	js, err := NewJobSystem(4, 2)
	require.NoError(t, err)

	var started, completed, callbacks atomic.Int32
	results := make([]int, 16)
	for i := range results {
		js.Submit(JobTask{
			Name: "square",
			OnStart: func() error {
				started.Add(1)
				results[i] = i * i
				return nil
			},
			OnComplete:           func() { completed.Add(1) },
			OnCompletionCallback: func() { callbacks.Add(1) },
		})
	}
	require.NoError(t, js.Shutdown())

	assert.Equal(t, int32(16), started.Load())
	assert.Equal(t, int32(16), completed.Load())
	assert.Equal(t, int32(16), callbacks.Load())
	for i, r := range results {
		assert.Equal(t, i*i, r)
	}
}

func TestJobSystemCollectsFailures(t *testing.T) {
	js, err := NewJobSystem(2, 0)
	require.NoError(t, err)

	boom := errors.New("boom")
	var failed atomic.Int32
	js.Submit(JobTask{
		Name:      "broken",
		OnStart:   func() error { return boom },
		OnFailure: func(error) { failed.Add(1) },
		OnComplete: func() {
			t.Error("completion must not run for a failed job")
		},
	})
	js.Submit(JobTask{Name: "fine", OnStart: func() error { return nil }})

	err = js.Shutdown()
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "job broken")
	assert.Equal(t, int32(1), failed.Load())

	// A second shutdown is a no-op.
	assert.NoError(t, js.Shutdown())
}

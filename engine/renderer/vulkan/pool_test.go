package vulkan

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeCallSerializesGroup(t *testing.T) {
	pool := NewVulkanLockPool()

	var wg sync.WaitGroup
	counter := 0
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.SafeCall(ResourceManagement, func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestSafeCallReturnsError(t *testing.T) {
	pool := NewVulkanLockPool()
	want := errors.New("boom")
	assert.ErrorIs(t, pool.SafeCall(DescriptorManagement, func() error { return want }), want)
}

func TestSafeQueueCallAllowsNestedPoolUse(t *testing.T) {
	pool := NewVulkanLockPool()
	pool.SetQueueFamily(0)

	err := pool.SafeQueueCall(0, func() error {
		pool.SetQueueFamily(1)
		return pool.SafeCall(CommandPoolManagement, func() error { return nil })
	})
	assert.NoError(t, err)
}

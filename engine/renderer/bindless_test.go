package renderer

import (
	"testing"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/headless"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindlessDescriptorSetLayout(t *testing.T) {
	layout := BindlessDescriptorSetLayout()
	require.Len(t, layout, 3)

	assert.Equal(t, metadata.DescriptorTypeStorageBuffer, layout[0].Type)
	assert.Equal(t, metadata.DescriptorTypeStorageBuffer, layout[1].Type)
	assert.Equal(t, metadata.DescriptorTypeSampledImage, layout[2].Type)
	assert.True(t, layout[2].IsBindless)
	assert.Equal(t, MaxBindlessDescriptorCount, layout[2].Count)

	// Callers get their own copy.
	delete(layout, 2)
	assert.Len(t, BindlessDescriptorSetLayout(), 3)
}

func newTestBindless(t *testing.T, capacity uint32) (*headless.Device, *BindlessTable, *MeshTable, *GeometryArena) {
	t.Helper()
	d := newTestDevice(t)
	table, err := NewMeshTable(d, 4)
	require.NoError(t, err)
	arena, err := NewGeometryArena(d, 1024)
	require.NoError(t, err)
	bindless, err := NewBindlessTable(d, table.Buffer(), arena.Buffer(), capacity)
	require.NoError(t, err)
	return d, bindless, table, arena
}

func TestBindlessTableBindsBuffers(t *testing.T) {
	_, bindless, table, arena := newTestBindless(t, 4)
	set := bindless.Set().(*headless.DescriptorSet)

	assert.Equal(t, table.Buffer().Name(), set.StorageBuffer(0).Name)
	assert.Equal(t, arena.Buffer().Name(), set.StorageBuffer(1).Name)
}

func TestBindlessTableHandlesAreSequential(t *testing.T) {
	d, bindless, _, _ := newTestBindless(t, 2)
	set := bindless.Set().(*headless.DescriptorSet)

	views := make([]*metadata.ImageView, 3)
	for i := range views {
		img, err := d.CreateImage(metadata.NewImageDesc2D(metadata.FormatR8Unorm, [2]uint32{1, 1}), nil)
		require.NoError(t, err)
		views[i], err = d.CreateImageView(img)
		require.NoError(t, err)
	}

	h0, err := bindless.RegisterImageView(views[0])
	require.NoError(t, err)
	h1, err := bindless.RegisterImageView(views[1])
	require.NoError(t, err)

	assert.Equal(t, BindlessImageHandle(0), h0)
	assert.Equal(t, BindlessImageHandle(1), h1)
	assert.Same(t, views[1], set.SampledImage(2, 1))

	_, err = bindless.RegisterImageView(views[2])
	assert.ErrorIs(t, err, core.ErrCapacityExceeded)
	assert.Equal(t, uint32(2), bindless.Count())
}

func TestBindlessTableCapacityBounds(t *testing.T) {
	d := newTestDevice(t)
	table, err := NewMeshTable(d, 1)
	require.NoError(t, err)
	arena, err := NewGeometryArena(d, 64)
	require.NoError(t, err)

	_, err = NewBindlessTable(d, table.Buffer(), arena.Buffer(), 0)
	assert.ErrorIs(t, err, core.ErrPrecondition)
	_, err = NewBindlessTable(d, table.Buffer(), arena.Buffer(), MaxBindlessDescriptorCount+1)
	assert.ErrorIs(t, err, core.ErrPrecondition)
}

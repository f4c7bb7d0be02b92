package renderer

import (
	"fmt"
	"maps"
	"sync"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// MaxBindlessDescriptorCount is the size of the sampled image array.
const MaxBindlessDescriptorCount uint32 = 512 * 1024

// BindlessDescriptorSetIndex is the set index the bindless layout is installed at.
const BindlessDescriptorSetIndex uint32 = 1

const (
	bindingMeshTable     uint32 = 0
	bindingGeometryArena uint32 = 1
	bindingImages        uint32 = 2
)

// BindlessImageHandle indexes the sampled image array of the bindless set.
type BindlessImageHandle uint32

var (
	bindlessLayoutOnce sync.Once
	bindlessLayout     metadata.DescriptorSetLayout
)

// BindlessDescriptorSetLayout returns the layout of the bindless set. The
// returned map is a copy and may be modified by the caller.
func BindlessDescriptorSetLayout() metadata.DescriptorSetLayout {
	bindlessLayoutOnce.Do(func() {
		bindlessLayout = metadata.DescriptorSetLayout{
			bindingMeshTable: {
				Type:  metadata.DescriptorTypeStorageBuffer,
				Count: 1,
			},
			bindingGeometryArena: {
				Type:  metadata.DescriptorTypeStorageBuffer,
				Count: 1,
			},
			bindingImages: {
				Type:       metadata.DescriptorTypeSampledImage,
				IsBindless: true,
				Count:      MaxBindlessDescriptorCount,
			},
		}
	})
	return maps.Clone(bindlessLayout)
}

// BindlessTable owns the bindless descriptor set and hands out image handles.
// Handles are never reused.
type BindlessTable struct {
	set      metadata.DescriptorSet
	next     uint32
	capacity uint32
}

func NewBindlessTable(device Device, meshTable, arena *SharedBuffer, capacity uint32) (*BindlessTable, error) {
	if capacity == 0 || capacity > MaxBindlessDescriptorCount {
		return nil, fmt.Errorf("bindless capacity %d outside (0, %d]: %w", capacity, MaxBindlessDescriptorCount, core.ErrPrecondition)
	}
	set, err := device.CreateBindlessDescriptorSet(BindlessDescriptorSetLayout(), capacity)
	if err != nil {
		return nil, fmt.Errorf("creating bindless descriptor set: %w", err)
	}
	if err := set.WriteStorageBuffer(bindingMeshTable, meshTable.buffer); err != nil {
		return nil, err
	}
	if err := set.WriteStorageBuffer(bindingGeometryArena, arena.buffer); err != nil {
		return nil, err
	}
	return &BindlessTable{set: set, capacity: capacity}, nil
}

// RegisterImageView writes view at the next free index and returns that index.
func (b *BindlessTable) RegisterImageView(view *metadata.ImageView) (BindlessImageHandle, error) {
	if b.next >= b.capacity {
		return 0, fmt.Errorf("bindless image %d of %d: %w", b.next, b.capacity, core.ErrCapacityExceeded)
	}
	handle := BindlessImageHandle(b.next)
	if err := b.set.WriteSampledImage(bindingImages, uint32(handle), view); err != nil {
		return 0, err
	}
	b.next++
	return handle, nil
}

func (b *BindlessTable) Set() metadata.DescriptorSet {
	return b.set
}

// Count is the number of handles issued so far.
func (b *BindlessTable) Count() uint32 {
	return b.next
}

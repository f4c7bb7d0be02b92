package vulkan

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// VulkanDescriptorSet implements metadata.DescriptorSet on a set allocated
// from its own pool. Bindless bindings are sized to the requested capacity.
type VulkanDescriptorSet struct {
	mu sync.Mutex

	context          *VulkanContext
	layout           metadata.DescriptorSetLayout
	bindlessCapacity uint32

	LayoutHandle vk.DescriptorSetLayout
	Pool         vk.DescriptorPool
	Handle       vk.DescriptorSet
}

func bindingCount(info metadata.DescriptorInfo, bindlessCapacity uint32) uint32 {
	if info.IsBindless {
		return min(info.Count, bindlessCapacity)
	}
	return max(info.Count, 1)
}

func DescriptorSetCreate(context *VulkanContext, layout metadata.DescriptorSetLayout, bindlessCapacity uint32) (*VulkanDescriptorSet, error) {
	indices := slices.Sorted(maps.Keys(layout))

	bindings := make([]vk.DescriptorSetLayoutBinding, 0, len(indices))
	poolSizes := make([]vk.DescriptorPoolSize, 0, len(indices))
	for _, index := range indices {
		info := layout[index]
		t, err := descriptorType(info.Type)
		if err != nil {
			return nil, fmt.Errorf("binding %d: %w", index, err)
		}
		count := bindingCount(info, bindlessCapacity)
		if count == 0 {
			return nil, fmt.Errorf("binding %d has no descriptors: %w", index, core.ErrPrecondition)
		}
		bindings = append(bindings, vk.DescriptorSetLayoutBinding{
			Binding:         index,
			DescriptorType:  t,
			DescriptorCount: count,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageAll),
		})
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{Type: t, DescriptorCount: count})
	}

	set := &VulkanDescriptorSet{
		context:          context,
		layout:           layout,
		bindlessCapacity: bindlessCapacity,
	}

	err := context.Locks.SafeCall(DescriptorManagement, func() error {
		layoutInfo := vk.DescriptorSetLayoutCreateInfo{
			SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
			BindingCount: uint32(len(bindings)),
			PBindings:    bindings,
		}
		if err := checkResult("vkCreateDescriptorSetLayout", vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutInfo, context.Allocator, &set.LayoutHandle)); err != nil {
			return err
		}

		poolInfo := vk.DescriptorPoolCreateInfo{
			SType:         vk.StructureTypeDescriptorPoolCreateInfo,
			MaxSets:       1,
			PoolSizeCount: uint32(len(poolSizes)),
			PPoolSizes:    poolSizes,
		}
		if err := checkResult("vkCreateDescriptorPool", vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &set.Pool)); err != nil {
			return err
		}

		allocateInfo := vk.DescriptorSetAllocateInfo{
			SType:              vk.StructureTypeDescriptorSetAllocateInfo,
			DescriptorPool:     set.Pool,
			DescriptorSetCount: 1,
			PSetLayouts:        []vk.DescriptorSetLayout{set.LayoutHandle},
		}
		return checkResult("vkAllocateDescriptorSets", vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &set.Handle))
	})
	if err != nil {
		set.Destroy()
		return nil, err
	}
	return set, nil
}

func (s *VulkanDescriptorSet) Layout() metadata.DescriptorSetLayout {
	return s.layout
}

func (s *VulkanDescriptorSet) binding(binding uint32, want metadata.DescriptorType) (metadata.DescriptorInfo, error) {
	info, ok := s.layout[binding]
	if !ok {
		return info, fmt.Errorf("binding %d not in layout: %w", binding, core.ErrPrecondition)
	}
	if info.Type != want {
		return info, fmt.Errorf("binding %d is %s, not %s: %w", binding, info.Type, want, core.ErrPrecondition)
	}
	return info, nil
}

func (s *VulkanDescriptorSet) WriteStorageBuffer(binding uint32, buffer *metadata.Buffer) error {
	if _, err := s.binding(binding, metadata.DescriptorTypeStorageBuffer); err != nil {
		return err
	}
	vb, ok := buffer.InternalData.(*VulkanBuffer)
	if !ok {
		return fmt.Errorf("buffer %q was not created by the Vulkan backend: %w", buffer.Name, core.ErrPrecondition)
	}
	if buffer.Desc.Usage&metadata.BufferUsageStorage == 0 {
		return fmt.Errorf("buffer %q lacks storage usage: %w", buffer.Name, core.ErrPrecondition)
	}

	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          s.Handle,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeStorageBuffer,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: vb.Handle,
			Offset: 0,
			Range:  vk.DeviceSize(vk.WholeSize),
		}},
	}
	s.update(write)
	return nil
}

func (s *VulkanDescriptorSet) WriteSampledImage(binding, arrayElement uint32, view *metadata.ImageView) error {
	info, err := s.binding(binding, metadata.DescriptorTypeSampledImage)
	if err != nil {
		return err
	}
	if limit := bindingCount(info, s.bindlessCapacity); arrayElement >= limit {
		return fmt.Errorf("binding %d element %d of %d: %w", binding, arrayElement, limit, core.ErrCapacityExceeded)
	}
	handle, ok := view.InternalData.(vk.ImageView)
	if !ok {
		return fmt.Errorf("image view was not created by the Vulkan backend: %w", core.ErrPrecondition)
	}

	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          s.Handle,
		DstBinding:      binding,
		DstArrayElement: arrayElement,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeSampledImage,
		PImageInfo: []vk.DescriptorImageInfo{{
			ImageView:   handle,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}},
	}
	s.update(write)
	return nil
}

func (s *VulkanDescriptorSet) update(write vk.WriteDescriptorSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.context.Locks.SafeCall(DescriptorManagement, func() error {
		vk.UpdateDescriptorSets(s.context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
		return nil
	})
}

func (s *VulkanDescriptorSet) Destroy() {
	device := s.context.Device.LogicalDevice
	if s.Pool != vk.NullDescriptorPool {
		// Frees the set with it.
		vk.DestroyDescriptorPool(device, s.Pool, s.context.Allocator)
		s.Pool = vk.NullDescriptorPool
		s.Handle = vk.NullDescriptorSet
	}
	if s.LayoutHandle != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(device, s.LayoutHandle, s.context.Allocator)
		s.LayoutHandle = vk.NullDescriptorSetLayout
	}
}

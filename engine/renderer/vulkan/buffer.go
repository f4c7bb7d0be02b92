package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// VulkanBuffer is the InternalData of buffers created by the Vulkan backend.
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   uint64
	// Persistently mapped memory of host visible buffers.
	Mapped []byte
}

func BufferCreate(context *VulkanContext, size uint64, usage vk.BufferUsageFlags, memoryFlags uint32, mapMemory bool) (*VulkanBuffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("buffer of zero size: %w", core.ErrPrecondition)
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	out := &VulkanBuffer{Size: size}
	err := context.Locks.SafeCall(ResourceManagement, func() error {
		return checkResult("vkCreateBuffer", vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &out.Handle))
	})
	if err != nil {
		return nil, err
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, out.Handle, &requirements)
	requirements.Deref()

	memoryIndex, err := context.FindMemoryIndex(requirements.MemoryTypeBits, memoryFlags)
	if err != nil {
		out.Destroy(context)
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryIndex,
	}
	if err := checkResult("vkAllocateMemory", vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &out.Memory)); err != nil {
		out.Destroy(context)
		return nil, err
	}
	if err := checkResult("vkBindBufferMemory", vk.BindBufferMemory(context.Device.LogicalDevice, out.Handle, out.Memory, 0)); err != nil {
		out.Destroy(context)
		return nil, err
	}

	if mapMemory {
		var data unsafe.Pointer
		if err := checkResult("vkMapMemory", vk.MapMemory(context.Device.LogicalDevice, out.Memory, 0, vk.DeviceSize(size), 0, &data)); err != nil {
			out.Destroy(context)
			return nil, err
		}
		out.Mapped = unsafe.Slice((*byte)(data), size)
	}

	return out, nil
}

// CopyTo records and submits a copy of size bytes into dst, blocking until
// the queue has executed it.
func (b *VulkanBuffer) CopyTo(context *VulkanContext, dst *VulkanBuffer, size uint64) error {
	if size > b.Size || size > dst.Size {
		return fmt.Errorf("copy of %d bytes between buffers of %d and %d bytes: %w", size, b.Size, dst.Size, core.ErrCapacityExceeded)
	}

	cb, err := AllocateAndBeginSingleUse(context, context.Device.GraphicsCommandPool)
	if err != nil {
		return err
	}
	vk.CmdCopyBuffer(cb.Handle, b.Handle, dst.Handle, 1, []vk.BufferCopy{{Size: vk.DeviceSize(size)}})
	return cb.EndSingleUse(context, context.Device.GraphicsCommandPool, context.Device.GraphicsQueue)
}

func (b *VulkanBuffer) Destroy(context *VulkanContext) {
	if b.Mapped != nil {
		vk.UnmapMemory(context.Device.LogicalDevice, b.Memory)
		b.Mapped = nil
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, b.Memory, context.Allocator)
		b.Memory = vk.NullDeviceMemory
	}
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(context.Device.LogicalDevice, b.Handle, context.Allocator)
		b.Handle = vk.NullBuffer
	}
}

// createMetadataBuffer creates the device buffer backing desc. GpuOnly
// buffers receive their initial data through a staging copy.
func createMetadataBuffer(context *VulkanContext, desc metadata.BufferDesc, initialData []byte) (*VulkanBuffer, error) {
	if uint64(len(initialData)) > desc.Size {
		return nil, fmt.Errorf("%d bytes of initial data exceed size %d: %w", len(initialData), desc.Size, core.ErrPrecondition)
	}

	usage := bufferUsageFlags(desc.Usage)
	hostVisible := desc.Location.IsHostVisible()
	if !hostVisible && len(initialData) > 0 {
		usage |= vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	}

	buffer, err := BufferCreate(context, desc.Size, usage, memoryPropertyFlags(desc.Location), hostVisible)
	if err != nil {
		return nil, err
	}
	if len(initialData) == 0 {
		return buffer, nil
	}
	if hostVisible {
		copy(buffer.Mapped, initialData)
		return buffer, nil
	}

	staging, err := BufferCreate(
		context,
		uint64(len(initialData)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		memoryPropertyFlags(metadata.MemoryLocationCpuToGpu),
		true,
	)
	if err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	defer staging.Destroy(context)

	copy(staging.Mapped, initialData)
	if err := staging.CopyTo(context, buffer, uint64(len(initialData))); err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	return buffer, nil
}

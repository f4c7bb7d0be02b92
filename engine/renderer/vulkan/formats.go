package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

func vulkanFormat(f metadata.Format) (vk.Format, error) {
	switch f {
	case metadata.FormatR8Unorm:
		return vk.FormatR8Unorm, nil
	case metadata.FormatR8G8B8A8Unorm:
		return vk.FormatR8g8b8a8Unorm, nil
	case metadata.FormatR8G8B8A8Srgb:
		return vk.FormatR8g8b8a8Srgb, nil
	case metadata.FormatR16G16Sfloat:
		return vk.FormatR16g16Sfloat, nil
	case metadata.FormatR16G16B16A16Sfloat:
		return vk.FormatR16g16b16a16Sfloat, nil
	case metadata.FormatR32G32B32Sfloat:
		return vk.FormatR32g32b32Sfloat, nil
	case metadata.FormatR32G32B32A32Sfloat:
		return vk.FormatR32g32b32a32Sfloat, nil
	case metadata.FormatD24UnormS8Uint:
		return vk.FormatD24UnormS8Uint, nil
	default:
		return vk.FormatUndefined, fmt.Errorf("format %s has no Vulkan equivalent: %w", f, core.ErrPrecondition)
	}
}

func bufferUsageFlags(u metadata.BufferUsage) vk.BufferUsageFlags {
	var flags vk.BufferUsageFlagBits
	if u&metadata.BufferUsageTransferSrc != 0 {
		flags |= vk.BufferUsageTransferSrcBit
	}
	if u&metadata.BufferUsageTransferDst != 0 {
		flags |= vk.BufferUsageTransferDstBit
	}
	if u&metadata.BufferUsageUniform != 0 {
		flags |= vk.BufferUsageUniformBufferBit
	}
	// Acceleration inputs are read through storage descriptors by the host
	// side builder, device addresses are virtual.
	if u&(metadata.BufferUsageStorage|metadata.BufferUsageShaderDeviceAddress|metadata.BufferUsageAccelerationStructureBuildInput) != 0 {
		flags |= vk.BufferUsageStorageBufferBit
	}
	if u&metadata.BufferUsageIndex != 0 {
		flags |= vk.BufferUsageIndexBufferBit
	}
	if u&metadata.BufferUsageVertex != 0 {
		flags |= vk.BufferUsageVertexBufferBit
	}
	return vk.BufferUsageFlags(flags)
}

func imageUsageFlags(u metadata.ImageUsage) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlagBits
	if u&metadata.ImageUsageTransferSrc != 0 {
		flags |= vk.ImageUsageTransferSrcBit
	}
	if u&metadata.ImageUsageTransferDst != 0 {
		flags |= vk.ImageUsageTransferDstBit
	}
	if u&metadata.ImageUsageSampled != 0 {
		flags |= vk.ImageUsageSampledBit
	}
	if u&metadata.ImageUsageStorage != 0 {
		flags |= vk.ImageUsageStorageBit
	}
	if u&metadata.ImageUsageColorAttachment != 0 {
		flags |= vk.ImageUsageColorAttachmentBit
	}
	if u&metadata.ImageUsageDepthStencilAttachment != 0 {
		flags |= vk.ImageUsageDepthStencilAttachmentBit
	}
	return vk.ImageUsageFlags(flags)
}

func memoryPropertyFlags(l metadata.MemoryLocation) uint32 {
	switch l {
	case metadata.MemoryLocationCpuToGpu:
		return uint32(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	case metadata.MemoryLocationGpuToCpu:
		return uint32(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit | vk.MemoryPropertyHostCachedBit)
	default:
		return uint32(vk.MemoryPropertyDeviceLocalBit)
	}
}

func descriptorType(t metadata.DescriptorType) (vk.DescriptorType, error) {
	switch t {
	case metadata.DescriptorTypeSampler:
		return vk.DescriptorTypeSampler, nil
	case metadata.DescriptorTypeSampledImage:
		return vk.DescriptorTypeSampledImage, nil
	case metadata.DescriptorTypeStorageImage:
		return vk.DescriptorTypeStorageImage, nil
	case metadata.DescriptorTypeUniformBuffer:
		return vk.DescriptorTypeUniformBuffer, nil
	case metadata.DescriptorTypeStorageBuffer:
		return vk.DescriptorTypeStorageBuffer, nil
	default:
		return 0, fmt.Errorf("descriptor type %s is not supported by the Vulkan backend: %w", t, core.ErrPrecondition)
	}
}

func attachmentLoadOp(op metadata.AttachmentLoadOp) vk.AttachmentLoadOp {
	switch op {
	case metadata.AttachmentLoadOpClear:
		return vk.AttachmentLoadOpClear
	case metadata.AttachmentLoadOpDontCare:
		return vk.AttachmentLoadOpDontCare
	default:
		return vk.AttachmentLoadOpLoad
	}
}

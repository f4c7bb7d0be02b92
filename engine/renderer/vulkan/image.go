package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// VulkanImage is the InternalData of images created by the Vulkan backend.
type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	Format vk.Format
	Aspect vk.ImageAspectFlags
	Views  []vk.ImageView
	Desc   metadata.ImageDesc
}

func ImageCreate(context *VulkanContext, desc metadata.ImageDesc) (*VulkanImage, error) {
	if desc.Extent[0] == 0 || desc.Extent[1] == 0 || desc.Extent[2] == 0 {
		return nil, fmt.Errorf("image extent %v has a zero dimension: %w", desc.Extent, core.ErrPrecondition)
	}
	if desc.MipLevels == 0 {
		return nil, fmt.Errorf("image without mip levels: %w", core.ErrPrecondition)
	}
	format, err := vulkanFormat(desc.Format)
	if err != nil {
		return nil, err
	}

	imageType := vk.ImageType2d
	if desc.Type == metadata.ImageType3d {
		imageType = vk.ImageType3d
	}
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if desc.Format.IsDepth() {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: imageType,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  desc.Extent[0],
			Height: desc.Extent[1],
			Depth:  desc.Extent[2],
		},
		MipLevels:     uint32(desc.MipLevels),
		ArrayLayers:   max(desc.ArrayElements, 1),
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         imageUsageFlags(desc.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	out := &VulkanImage{Format: format, Aspect: aspect, Desc: desc}
	err = context.Locks.SafeCall(ResourceManagement, func() error {
		return checkResult("vkCreateImage", vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &out.Handle))
	})
	if err != nil {
		return nil, err
	}

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, out.Handle, &requirements)
	requirements.Deref()

	memoryIndex, err := context.FindMemoryIndex(requirements.MemoryTypeBits, uint32(vk.MemoryPropertyDeviceLocalBit))
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
	if err := checkResult("vkBindImageMemory", vk.BindImageMemory(context.Device.LogicalDevice, out.Handle, out.Memory, 0)); err != nil {
		out.Destroy(context)
		return nil, err
	}
	return out, nil
}

func (vi *VulkanImage) subresourceRange() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask:     vi.Aspect,
		BaseMipLevel:   0,
		LevelCount:     uint32(vi.Desc.MipLevels),
		BaseArrayLayer: 0,
		LayerCount:     max(vi.Desc.ArrayElements, 1),
	}
}

// TransitionLayout records a full-image layout transition.
func (vi *VulkanImage) TransitionLayout(cb *VulkanCommandBuffer, oldLayout, newLayout vk.ImageLayout) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               vi.Handle,
		SubresourceRange:    vi.subresourceRange(),
	}

	var srcStage, dstStage vk.PipelineStageFlagBits
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage = vk.PipelineStageTopOfPipeBit
		dstStage = vk.PipelineStageTransferBit
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage = vk.PipelineStageTransferBit
		dstStage = vk.PipelineStageFragmentShaderBit | vk.PipelineStageComputeShaderBit
	default:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessMemoryWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessMemoryReadBit | vk.AccessMemoryWriteBit)
		srcStage = vk.PipelineStageAllCommandsBit
		dstStage = vk.PipelineStageAllCommandsBit
	}

	vk.CmdPipelineBarrier(
		cb.Handle,
		vk.PipelineStageFlags(srcStage),
		vk.PipelineStageFlags(dstStage),
		0,
		0, nil,
		0, nil,
		1, []vk.ImageMemoryBarrier{barrier},
	)
}

// Upload copies the top mip level from data and leaves the whole image in
// the shader read layout.
func (vi *VulkanImage) Upload(context *VulkanContext, data metadata.ImageSubresourceData) error {
	bpp := vi.Desc.Format.BytesPerPixel()
	rowBytes := vi.Desc.Extent[0] * bpp
	if data.RowPitch < rowBytes || data.RowPitch%bpp != 0 {
		return fmt.Errorf("row pitch %d for rows of %d bytes: %w", data.RowPitch, rowBytes, core.ErrPrecondition)
	}
	need := uint64(data.RowPitch) * uint64(vi.Desc.Extent[1]) * uint64(vi.Desc.Extent[2])
	if uint64(len(data.Data)) < need {
		return fmt.Errorf("image data is %d bytes, need %d: %w", len(data.Data), need, core.ErrPrecondition)
	}

	staging, err := BufferCreate(
		context,
		need,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		memoryPropertyFlags(metadata.MemoryLocationCpuToGpu),
		true,
	)
	if err != nil {
		return err
	}
	defer staging.Destroy(context)
	copy(staging.Mapped, data.Data[:need])

	pool := context.Device.GraphicsCommandPool
	cb, err := AllocateAndBeginSingleUse(context, pool)
	if err != nil {
		return err
	}

	vi.TransitionLayout(cb, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	region := vk.BufferImageCopy{
		BufferRowLength: data.RowPitch / bpp,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vi.Aspect,
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{
			Width:  vi.Desc.Extent[0],
			Height: vi.Desc.Extent[1],
			Depth:  vi.Desc.Extent[2],
		},
	}
	vk.CmdCopyBufferToImage(cb.Handle, staging.Handle, vi.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
	vi.TransitionLayout(cb, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)

	return cb.EndSingleUse(context, pool, context.Device.GraphicsQueue)
}

func (vi *VulkanImage) CreateView(context *VulkanContext) (vk.ImageView, error) {
	viewType := vk.ImageViewType2d
	if vi.Desc.Type == metadata.ImageType3d {
		viewType = vk.ImageViewType3d
	}

	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:            vk.StructureTypeImageViewCreateInfo,
		Image:            vi.Handle,
		ViewType:         viewType,
		Format:           vi.Format,
		SubresourceRange: vi.subresourceRange(),
	}

	var view vk.ImageView
	if err := checkResult("vkCreateImageView", vk.CreateImageView(context.Device.LogicalDevice, &viewCreateInfo, context.Allocator, &view)); err != nil {
		return vk.NullImageView, err
	}
	vi.Views = append(vi.Views, view)
	return view, nil
}

func (vi *VulkanImage) Destroy(context *VulkanContext) {
	for _, view := range vi.Views {
		vk.DestroyImageView(context.Device.LogicalDevice, view, context.Allocator)
	}
	vi.Views = nil
	if vi.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, vi.Memory, context.Allocator)
		vi.Memory = vk.NullDeviceMemory
	}
	if vi.Handle != vk.NullImage {
		vk.DestroyImage(context.Device.LogicalDevice, vi.Handle, context.Allocator)
		vi.Handle = vk.NullImage
	}
}

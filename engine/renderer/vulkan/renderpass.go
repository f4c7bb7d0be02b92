package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type VulkanRenderpass struct {
	Handle vk.RenderPass
	Desc   metadata.RenderPassDesc
}

// RenderpassCreate builds a single subpass render pass with one attachment
// per color target and an optional depth target, in description order.
func RenderpassCreate(context *VulkanContext, desc metadata.RenderPassDesc) (*VulkanRenderpass, error) {
	if len(desc.ColorAttachments) == 0 && desc.DepthAttachment == nil {
		return nil, fmt.Errorf("render pass without attachments: %w", core.ErrPrecondition)
	}

	attachmentDescriptions := make([]vk.AttachmentDescription, 0, len(desc.ColorAttachments)+1)
	colorAttachmentReferences := make([]vk.AttachmentReference, 0, len(desc.ColorAttachments))

	for i, a := range desc.ColorAttachments {
		format, err := vulkanFormat(a.Format)
		if err != nil {
			return nil, err
		}
		attachmentDescriptions = append(attachmentDescriptions, vk.AttachmentDescription{
			Format:         format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         attachmentLoadOp(a.LoadOp),
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  initialLayout(a.LoadOp, vk.ImageLayoutColorAttachmentOptimal),
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		})
		colorAttachmentReferences = append(colorAttachmentReferences, vk.AttachmentReference{
			Attachment: uint32(i),
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		})
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorAttachmentReferences)),
		PColorAttachments:    colorAttachmentReferences,
	}

	if d := desc.DepthAttachment; d != nil {
		if !d.Format.IsDepth() {
			return nil, fmt.Errorf("depth attachment format %s: %w", d.Format, core.ErrPrecondition)
		}
		format, err := vulkanFormat(d.Format)
		if err != nil {
			return nil, err
		}
		attachmentDescriptions = append(attachmentDescriptions, vk.AttachmentDescription{
			Format:         format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         attachmentLoadOp(d.LoadOp),
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  initialLayout(d.LoadOp, vk.ImageLayoutDepthStencilAttachmentOptimal),
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: uint32(len(attachmentDescriptions) - 1),
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachmentDescriptions)),
		PAttachments:    attachmentDescriptions,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var pRenderPass vk.RenderPass
	err := checkResult("vkCreateRenderPass", vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &pRenderPass))
	if err != nil {
		return nil, err
	}
	return &VulkanRenderpass{Handle: pRenderPass, Desc: desc}, nil
}

// Attachments whose contents are not loaded can start from any layout.
func initialLayout(op metadata.AttachmentLoadOp, loaded vk.ImageLayout) vk.ImageLayout {
	if op == metadata.AttachmentLoadOpLoad {
		return loaded
	}
	return vk.ImageLayoutUndefined
}

func (vr *VulkanRenderpass) RenderpassDestroy(context *VulkanContext) {
	if vr.Handle != vk.NullRenderPass {
		vk.DestroyRenderPass(context.Device.LogicalDevice, vr.Handle, context.Allocator)
		vr.Handle = vk.NullRenderPass
	}
}

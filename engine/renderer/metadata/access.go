package metadata

/**
 * @brief The way a resource is accessed by the GPU. The render graph derives
 * pipeline barriers from the transition between two access types.
 */
type AccessType uint32

const (
	/** @brief No access. Used for resources which were never touched, or to ask for the last used access on export. */
	AccessNothing AccessType = iota
	AccessIndexBuffer
	AccessVertexBuffer
	AccessAnyShaderReadUniformBuffer
	AccessAnyShaderReadSampledImageOrUniformTexelBuffer
	AccessAnyShaderReadOther
	AccessAnyShaderWrite
	AccessComputeShaderWrite
	AccessColorAttachmentWrite
	AccessDepthStencilAttachmentWrite
	AccessTransferRead
	AccessTransferWrite
	AccessHostWrite
	AccessRayTracingShaderReadAccelerationStructure
)

func (a AccessType) IsWrite() bool {
	switch a {
	case AccessAnyShaderWrite, AccessComputeShaderWrite, AccessColorAttachmentWrite,
		AccessDepthStencilAttachmentWrite, AccessTransferWrite, AccessHostWrite:
		return true
	default:
		return false
	}
}

func (a AccessType) String() string {
	switch a {
	case AccessNothing:
		return "Nothing"
	case AccessIndexBuffer:
		return "IndexBuffer"
	case AccessVertexBuffer:
		return "VertexBuffer"
	case AccessAnyShaderReadUniformBuffer:
		return "AnyShaderReadUniformBuffer"
	case AccessAnyShaderReadSampledImageOrUniformTexelBuffer:
		return "AnyShaderReadSampledImageOrUniformTexelBuffer"
	case AccessAnyShaderReadOther:
		return "AnyShaderReadOther"
	case AccessAnyShaderWrite:
		return "AnyShaderWrite"
	case AccessComputeShaderWrite:
		return "ComputeShaderWrite"
	case AccessColorAttachmentWrite:
		return "ColorAttachmentWrite"
	case AccessDepthStencilAttachmentWrite:
		return "DepthStencilAttachmentWrite"
	case AccessTransferRead:
		return "TransferRead"
	case AccessTransferWrite:
		return "TransferWrite"
	case AccessHostWrite:
		return "HostWrite"
	case AccessRayTracingShaderReadAccelerationStructure:
		return "RayTracingShaderReadAccelerationStructure"
	default:
		return "Unknown"
	}
}

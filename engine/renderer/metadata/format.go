package metadata

/**
 * @brief The pixel and vertex formats understood by the renderer backends.
 */
type Format uint32

const (
	FormatUndefined Format = iota
	FormatR8Unorm
	FormatR8G8B8A8Unorm
	FormatR8G8B8A8Srgb
	FormatR16G16Sfloat
	FormatR16G16B16A16Sfloat
	FormatR32G32B32Sfloat
	FormatR32G32B32A32Sfloat
	FormatD24UnormS8Uint
)

/** @brief Returns the size of one texel (or vertex attribute) in bytes. */
func (f Format) BytesPerPixel() uint32 {
	switch f {
	case FormatR8Unorm:
		return 1
	case FormatR8G8B8A8Unorm, FormatR8G8B8A8Srgb, FormatR16G16Sfloat, FormatD24UnormS8Uint:
		return 4
	case FormatR16G16B16A16Sfloat:
		return 8
	case FormatR32G32B32Sfloat:
		return 12
	case FormatR32G32B32A32Sfloat:
		return 16
	default:
		return 0
	}
}

func (f Format) IsDepth() bool {
	return f == FormatD24UnormS8Uint
}

func (f Format) String() string {
	switch f {
	case FormatR8Unorm:
		return "R8_UNORM"
	case FormatR8G8B8A8Unorm:
		return "R8G8B8A8_UNORM"
	case FormatR8G8B8A8Srgb:
		return "R8G8B8A8_SRGB"
	case FormatR16G16Sfloat:
		return "R16G16_SFLOAT"
	case FormatR16G16B16A16Sfloat:
		return "R16G16B16A16_SFLOAT"
	case FormatR32G32B32Sfloat:
		return "R32G32B32_SFLOAT"
	case FormatR32G32B32A32Sfloat:
		return "R32G32B32A32_SFLOAT"
	case FormatD24UnormS8Uint:
		return "D24_UNORM_S8_UINT"
	default:
		return "UNDEFINED"
	}
}

/** @brief Buffer usage bit flags. */
type BufferUsage uint32

const (
	BufferUsageTransferSrc BufferUsage = 1 << iota
	BufferUsageTransferDst
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageIndex
	BufferUsageVertex
	BufferUsageShaderDeviceAddress
	BufferUsageAccelerationStructureBuildInput
)

/** @brief Image usage bit flags. */
type ImageUsage uint32

const (
	ImageUsageTransferSrc ImageUsage = 1 << iota
	ImageUsageTransferDst
	ImageUsageSampled
	ImageUsageStorage
	ImageUsageColorAttachment
	ImageUsageDepthStencilAttachment
)

/**
 * @brief Where a resource's memory lives. Host visible locations can be
 * mapped into the address space of the process.
 */
type MemoryLocation uint8

const (
	MemoryLocationGpuOnly MemoryLocation = iota
	MemoryLocationCpuToGpu
	MemoryLocationGpuToCpu
)

func (m MemoryLocation) IsHostVisible() bool {
	return m != MemoryLocationGpuOnly
}

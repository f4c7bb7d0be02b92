package metadata

/** @brief Describes a device buffer to be created. */
type BufferDesc struct {
	/** @brief The size of the buffer in bytes. */
	Size uint64
	/** @brief How the buffer is going to be used. */
	Usage BufferUsage
	/** @brief The memory location. CpuToGpu buffers are persistently mapped. */
	Location MemoryLocation
}

/**
 * @brief A device buffer. Host visible buffers expose their persistently
 * mapped memory through Mapped.
 */
type Buffer struct {
	/** @brief The buffer description. */
	Desc BufferDesc
	/** @brief A debug name. */
	Name string
	/** @brief The device address of the first byte of the buffer. */
	DeviceAddress uint64
	/** @brief The mapped memory, nil if the buffer is not host visible. */
	Mapped []byte
	/** @brief The backend specific data. */
	InternalData interface{}
}

type ImageType uint8

const (
	ImageType2d ImageType = iota
	ImageType3d
)

/** @brief Describes a device image to be created. */
type ImageDesc struct {
	Type          ImageType
	Format        Format
	Extent        [3]uint32
	Usage         ImageUsage
	MipLevels     uint16
	ArrayElements uint32
}

/** @brief Returns a single mip 2d image description. */
func NewImageDesc2D(format Format, extent [2]uint32) ImageDesc {
	return ImageDesc{
		Type:          ImageType2d,
		Format:        format,
		Extent:        [3]uint32{extent[0], extent[1], 1},
		MipLevels:     1,
		ArrayElements: 1,
	}
}

/** @brief Returns a copy of the description with the given usage flags. */
func (d ImageDesc) WithUsage(usage ImageUsage) ImageDesc {
	d.Usage = usage
	return d
}

func (d ImageDesc) Extent2D() [2]uint32 {
	return [2]uint32{d.Extent[0], d.Extent[1]}
}

/** @brief Initial data for one image subresource. */
type ImageSubresourceData struct {
	/** @brief The texel data. */
	Data []byte
	/** @brief The number of bytes between two consecutive rows. */
	RowPitch uint32
	/** @brief The number of bytes between two consecutive depth slices. Zero for 2d images. */
	SlicePitch uint32
}

/** @brief A device image. */
type Image struct {
	Desc         ImageDesc
	Name         string
	InternalData interface{}
}

/** @brief A view of an image which can be written into a descriptor set. */
type ImageView struct {
	Image        *Image
	InternalData interface{}
}

/**
 * @brief Creates device images. Implemented by every backend; lookup table
 * computers only need this much of a device.
 */
type ImageAllocator interface {
	CreateImage(desc ImageDesc, initialData []ImageSubresourceData) (*Image, error)
}

type AttachmentLoadOp uint8

const (
	AttachmentLoadOpLoad AttachmentLoadOp = iota
	AttachmentLoadOpClear
	AttachmentLoadOpDontCare
)

/** @brief Describes one attachment of a raster render pass. */
type RenderPassAttachmentDesc struct {
	Format Format
	LoadOp AttachmentLoadOp
}

/** @brief Returns an attachment which loads its previous contents. */
func NewRenderPassAttachmentDesc(format Format) RenderPassAttachmentDesc {
	return RenderPassAttachmentDesc{Format: format, LoadOp: AttachmentLoadOpLoad}
}

/** @brief Marks the previous contents of the attachment as irrelevant. */
func (d RenderPassAttachmentDesc) GarbageInput() RenderPassAttachmentDesc {
	d.LoadOp = AttachmentLoadOpDontCare
	return d
}

type RenderPassDesc struct {
	ColorAttachments []RenderPassAttachmentDesc
	DepthAttachment  *RenderPassAttachmentDesc
}

/** @brief A raster render pass compatible with the attachments it was described with. */
type RenderPass struct {
	Desc         RenderPassDesc
	InternalData interface{}
}

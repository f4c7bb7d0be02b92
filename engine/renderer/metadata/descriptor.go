package metadata

type DescriptorType uint8

const (
	DescriptorTypeSampler DescriptorType = iota
	DescriptorTypeSampledImage
	DescriptorTypeStorageImage
	DescriptorTypeUniformBuffer
	DescriptorTypeStorageBuffer
	DescriptorTypeAccelerationStructure
)

func (t DescriptorType) String() string {
	switch t {
	case DescriptorTypeSampler:
		return "SAMPLER"
	case DescriptorTypeSampledImage:
		return "SAMPLED_IMAGE"
	case DescriptorTypeStorageImage:
		return "STORAGE_IMAGE"
	case DescriptorTypeUniformBuffer:
		return "UNIFORM_BUFFER"
	case DescriptorTypeStorageBuffer:
		return "STORAGE_BUFFER"
	case DescriptorTypeAccelerationStructure:
		return "ACCELERATION_STRUCTURE"
	default:
		return "UNKNOWN"
	}
}

/** @brief Describes one binding of a descriptor set layout. */
type DescriptorInfo struct {
	Type DescriptorType
	/** @brief Indicates a runtime sized array indexed by bindless handles. */
	IsBindless bool
	/** @brief The number of descriptors in the binding. Bindless bindings use it as the capacity. */
	Count uint32
	Name  string
}

/** @brief Maps binding indices to binding descriptions. */
type DescriptorSetLayout map[uint32]DescriptorInfo

/**
 * @brief A descriptor set owned by a backend. Writes take effect immediately
 * and are visible to every pass recorded afterwards.
 */
type DescriptorSet interface {
	/** @brief Returns the layout the set was created with. */
	Layout() DescriptorSetLayout
	/** @brief Points a storage buffer binding at the whole buffer. */
	WriteStorageBuffer(binding uint32, buffer *Buffer) error
	/** @brief Writes one sampled image descriptor into an array binding. */
	WriteSampledImage(binding, arrayElement uint32, view *ImageView) error
}

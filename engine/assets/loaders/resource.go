package loaders

type ResourceType uint8

const (
	ResourceTypeNone ResourceType = iota
	ResourceTypeImage
	ResourceTypeModel
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeImage:
		return "image"
	case ResourceTypeModel:
		return "model"
	default:
		return "none"
	}
}

type Resource struct {
	Name     string
	FullPath string
	Type     ResourceType
	// Size of the decoded data in bytes.
	DataSize uint64
	// *metadata.ImageResourceData for images, *Model for models.
	Data interface{}
}

package metadata

/**
 * @brief A structure to hold image resource data. Pixels are tightly packed
 * rows of ChannelCount bytes per pixel.
 */
type ImageResourceData struct {
	/** @brief The number of channels. */
	ChannelCount uint8
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief The pixel data of the image. */
	Pixels []uint8
}

func (d *ImageResourceData) Dimensions() [2]uint32 {
	return [2]uint32{d.Width, d.Height}
}

/** @brief Parameters used when loading an image. */
type ImageResourceParams struct {
	/** @brief Indicates if the image should be flipped on the y-axis when loaded. */
	FlipY bool
	/** @brief Images with a larger side are downscaled to it. Zero keeps the source size. */
	MaxDimension uint32
}

/** @brief How the texel values of a texture are encoded. */
type TexGamma uint8

const (
	TexGammaLinear TexGamma = iota
	TexGammaSrgb
)

/** @brief Parameters a mesh attaches to each of its textures. */
type TexParams struct {
	Gamma TexGamma
}

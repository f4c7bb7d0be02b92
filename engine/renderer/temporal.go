package renderer

import (
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/rg"
)

// TemporalImage is an image carried across frames together with the access
// it was left in by the last retired graph.
type TemporalImage struct {
	Resource   *metadata.Image
	AccessType metadata.AccessType
	// Export handle of the graph which has not retired yet.
	LastRgHandle *rg.ExportedImage
}

func NewTemporalImage(resource *metadata.Image) *TemporalImage {
	return &TemporalImage{
		Resource:   resource,
		AccessType: metadata.AccessNothing,
	}
}

package rg

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type retiredResource struct {
	image  *metadata.Image
	access metadata.AccessType
}

// RetiredRenderGraph reports the final state of every resource a finished
// graph exported.
type RetiredRenderGraph struct {
	ID       uuid.UUID
	exported map[int]retiredResource
	passes   int
}

// GetImage returns the exported image and the access it was left in.
func (r *RetiredRenderGraph) GetImage(h ExportedImage) (*metadata.Image, metadata.AccessType, error) {
	if h.graph != r.ID {
		return nil, metadata.AccessNothing, fmt.Errorf("exported handle belongs to graph %s, not %s: %w", h.graph, r.ID, core.ErrPrecondition)
	}
	res, ok := r.exported[h.raw]
	if !ok {
		return nil, metadata.AccessNothing, fmt.Errorf("resource %d was not exported from graph %s: %w", h.raw, r.ID, core.ErrPrecondition)
	}
	return res.image, res.access, nil
}

func (r *RetiredRenderGraph) PassCount() int {
	return r.passes
}

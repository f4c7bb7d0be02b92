package rg

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Resource is the set of resource types a graph can track.
type Resource interface {
	metadata.Image | metadata.Buffer | metadata.AccelerationStructure
}

// Handle refers to a resource inside one render graph.
type Handle[T Resource] struct {
	graph uuid.UUID
	raw   int
}

// ExportedHandle refers to a resource exported out of a render graph. It is
// resolved against the retired graph once the frame completes.
type ExportedHandle[T Resource] struct {
	graph uuid.UUID
	raw   int
}

type ExportedImage = ExportedHandle[metadata.Image]

func (h Handle[T]) Graph() uuid.UUID { return h.graph }

func (h ExportedHandle[T]) Graph() uuid.UUID { return h.graph }

func (h Handle[T]) resourceIndex() int { return h.raw }

// ResourceRef is satisfied by every Handle and lets passes declare reads and
// writes without caring about the resource type.
type ResourceRef interface {
	Graph() uuid.UUID
	resourceIndex() int
}

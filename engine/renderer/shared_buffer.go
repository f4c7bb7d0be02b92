package renderer

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/rg"
)

// SharedBuffer is a host mapped device buffer written by the renderer and read
// by render graphs. Writing requires a BufferWriter, which can only be
// borrowed while no graph holds a lease on the buffer.
type SharedBuffer struct {
	mu       sync.Mutex
	buffer   *metadata.Buffer
	leases   int
	borrowed bool
}

func NewSharedBuffer(buffer *metadata.Buffer) *SharedBuffer {
	return &SharedBuffer{buffer: buffer}
}

func (s *SharedBuffer) Name() string          { return s.buffer.Name }
func (s *SharedBuffer) DeviceAddress() uint64 { return s.buffer.DeviceAddress }
func (s *SharedBuffer) Size() uint64          { return s.buffer.Desc.Size }

// Leases returns the number of outstanding read leases.
func (s *SharedBuffer) Leases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leases
}

// BufferWriter is the exclusive, scoped view of a SharedBuffer's mapped memory.
type BufferWriter struct {
	owner *SharedBuffer
	Bytes []byte
}

// Release ends the borrow. The writer must not be used afterwards.
func (w *BufferWriter) Release() {
	if w.owner == nil {
		return
	}
	w.owner.mu.Lock()
	w.owner.borrowed = false
	w.owner.mu.Unlock()
	w.owner = nil
	w.Bytes = nil
}

// BorrowMut hands out the mapped memory for writing. It fails if a render
// graph still holds a lease or another writer is outstanding.
func (s *SharedBuffer) BorrowMut() (*BufferWriter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buffer.Mapped == nil {
		return nil, fmt.Errorf("buffer %q: %w", s.buffer.Name, core.ErrNotMapped)
	}
	if s.borrowed {
		return nil, fmt.Errorf("buffer %q already borrowed for writing: %w", s.buffer.Name, core.ErrBufferAliased)
	}
	if s.leases > 0 {
		return nil, fmt.Errorf("buffer %q has %d outstanding read leases: %w", s.buffer.Name, s.leases, core.ErrBufferAliased)
	}
	s.borrowed = true
	return &BufferWriter{owner: s, Bytes: s.buffer.Mapped}, nil
}

// BufferLease is a read-only claim on a SharedBuffer held by a render graph.
type BufferLease struct {
	owner    *SharedBuffer
	released bool
}

func (l *BufferLease) Buffer() *metadata.Buffer {
	return l.owner.buffer
}

func (l *BufferLease) Release() {
	if l.released {
		return
	}
	l.released = true
	l.owner.mu.Lock()
	l.owner.leases--
	l.owner.mu.Unlock()
}

// Lease takes a read claim on the buffer. It fails while a writer is borrowed.
func (s *SharedBuffer) Lease() (*BufferLease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.borrowed {
		return nil, fmt.Errorf("buffer %q is borrowed for writing: %w", s.buffer.Name, core.ErrBufferAliased)
	}
	s.leases++
	return &BufferLease{owner: s}, nil
}

// Import leases the buffer for the lifetime of the graph and imports it.
// The lease is released when the graph retires.
func (s *SharedBuffer) Import(g *rg.RenderGraph, access metadata.AccessType) (rg.Handle[metadata.Buffer], error) {
	lease, err := s.Lease()
	if err != nil {
		return rg.Handle[metadata.Buffer]{}, err
	}
	g.OnRetire(lease.Release)
	return g.ImportBuffer(lease.Buffer(), access), nil
}

// ReadAt decodes len(out) elements stored at offset. Used to read back what
// the renderer wrote; the device never writes these buffers.
func ReadAt[T any](s *SharedBuffer, offset uint64, out []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buffer.Mapped == nil {
		return fmt.Errorf("buffer %q: %w", s.buffer.Name, core.ErrNotMapped)
	}
	if offset > uint64(len(s.buffer.Mapped)) {
		return fmt.Errorf("offset %d past the end of buffer %q: %w", offset, s.buffer.Name, core.ErrPrecondition)
	}
	_, err := binary.Decode(s.buffer.Mapped[offset:], binary.LittleEndian, out)
	return err
}

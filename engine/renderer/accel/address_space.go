package accel

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
)

const (
	// First address handed out. Zero stays invalid.
	BaseDeviceAddress uint64 = 0x1_0000_0000
	AddressAlignment  uint64 = 256
)

type mapping struct {
	address uint64
	name    string
	storage []byte
}

// AddressSpace hands out virtual device addresses for host visible memory
// and resolves them back. It implements MemoryResolver.
type AddressSpace struct {
	mu       sync.Mutex
	next     uint64
	mappings []mapping
}

func NewAddressSpace() *AddressSpace {
	return &AddressSpace{next: BaseDeviceAddress}
}

// Map assigns an address range to storage.
func (s *AddressSpace) Map(name string, storage []byte) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	address := s.next
	s.next = math.AlignUp(address+max(uint64(len(storage)), 1), AddressAlignment)
	s.mappings = append(s.mappings, mapping{address: address, name: name, storage: storage})
	return address
}

// Reserve assigns an address that resolves to nothing, for objects such as
// acceleration structures that have no host storage.
func (s *AddressSpace) Reserve() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	address := s.next
	s.next += AddressAlignment
	return address
}

func (s *AddressSpace) Resolve(address, size uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Addresses only grow, so mappings stay sorted.
	i := sort.Search(len(s.mappings), func(i int) bool {
		m := s.mappings[i]
		return m.address+uint64(len(m.storage)) > address
	})
	if i == len(s.mappings) || s.mappings[i].address > address {
		return nil, fmt.Errorf("device address %#x is not mapped: %w", address, core.ErrPrecondition)
	}
	m := s.mappings[i]
	offset := address - m.address
	if offset+size > uint64(len(m.storage)) {
		return nil, fmt.Errorf("range %#x+%d overruns %q: %w", address, size, m.name, core.ErrPrecondition)
	}
	return m.storage[offset : offset+size], nil
}

// Reset forgets every mapping.
func (s *AddressSpace) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings = nil
}

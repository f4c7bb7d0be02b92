package core

import (
	"errors"
)

var (
	// A fixed capacity (arena bytes, mesh slots, bindless handles) would be exceeded.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// The caller broke an ordering or input contract.
	ErrPrecondition = errors.New("precondition violated")
	// A bindless handle did not land on the slot the caller expected.
	ErrHandleMismatch = errors.New("bindless handle mismatch")
	// A shared buffer was borrowed mutably while another owner still holds it.
	ErrBufferAliased     = errors.New("buffer is aliased")
	ErrInvalidAlignment  = errors.New("alignment is not a power of two")
	ErrUnpackableElement = errors.New("element type has implicit padding")
	ErrNotMapped         = errors.New("buffer is not host mapped")
	ErrUnknown           = errors.New("unknown")
)

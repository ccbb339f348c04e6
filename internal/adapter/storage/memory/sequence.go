package memory

import "sync/atomic"

// Sequence implements ports.IDAllocator with an atomic counter.
// Values are never reused, even after the entity they named is deleted.
type Sequence struct {
	last atomic.Int64
}

// NewSequence creates a sequence whose first Next returns start.
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.last.Store(start - 1)
	return s
}

// Next returns the next identifier.
func (s *Sequence) Next() int64 {
	return s.last.Add(1)
}

// Package idgen provides identifier sources for generated records.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator returns a new unique identifier on every call.
type Generator interface {
	NewID() string
}

// UUID generates random (v4) UUID strings.
type UUID struct{}

// NewID implements Generator.
func (UUID) NewID() string {
	return uuid.NewString()
}

// Sequence generates "<prefix>-1", "<prefix>-2", ... and is deterministic.
type Sequence struct {
	Prefix string
	n      atomic.Int64
}

// NewSequence creates a Sequence with the given prefix.
func NewSequence(prefix string) *Sequence {
	return &Sequence{Prefix: prefix}
}

// NewID implements Generator.
func (s *Sequence) NewID() string {
	return fmt.Sprintf("%s-%d", s.Prefix, s.n.Add(1))
}

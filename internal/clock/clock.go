// Package clock abstracts time and ID generation so tidy's engine is
// deterministic in tests.
package clock

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval.
type Clock interface {
	Now() time.Time
}

// Real returns the actual current time.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique ID generation.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

package idgen

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/viant/monoflux/internal/clock"
)

// NewFunc returns a new globally unique identifier. Tests may stub it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier.
func New() string { return NewFunc() }

// NewRunID returns an identifier for an orchestration run, ordered by start time.
func NewRunID() string {
	id := New()
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("run-%s-%s", clock.Now().UTC().Format("20060102-150405"), id)
}

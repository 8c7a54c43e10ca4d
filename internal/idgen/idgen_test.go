package idgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/viant/monoflux/internal/clock"
)

func TestNewRunID(t *testing.T) {
	prevID, prevNow := NewFunc, clock.NowFunc
	defer func() { NewFunc, clock.NowFunc = prevID, prevNow }()
	NewFunc = func() string { return "0123456789abcdef" }
	clock.NowFunc = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	assert.Equal(t, "run-20260304-050607-01234567", NewRunID())
}

package executor

import "errors"

var (
	ErrNoResult = errors.New("strategy returned no result")
	ErrPanic    = errors.New("strategy panicked")
)

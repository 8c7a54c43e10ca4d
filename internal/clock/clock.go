package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Since returns the elapsed time from t in milliseconds.
func Since(t time.Time) int64 { return Now().Sub(t).Milliseconds() }

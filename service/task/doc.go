// Package task defines the strategies executed against every service unit:
// build, test, clean and release.  A strategy declares its default timeout
// and retry policy and turns a service descriptor into a task result.
package task

// Package policy filters the service units a run touches through allow and
// block lists.  It travels in the context; a nil policy admits every service.
package policy

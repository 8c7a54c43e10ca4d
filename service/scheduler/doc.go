// Package scheduler assigns every service unit an integer priority (1 most
// critical, 4 least) from an injected lookup table and groups services by
// priority in ascending order, preserving discovery order inside a group.
package scheduler

// Package discovery scans root collections of the workspace for service
// units.  Every immediate subdirectory carrying a readable manifest becomes
// a ServiceDescriptor; directories without one are excluded with a warning
// and never abort discovery of their siblings.
package discovery

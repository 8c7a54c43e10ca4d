// Package manifest reads service unit metadata (name, declared task commands
// and capability flags) from the manifest file stored in each service
// directory.  Both npm style package.json and service.yaml manifests are
// supported; reading is side-effect free.
package manifest

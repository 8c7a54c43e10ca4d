package aggregator

import (
	"context"

	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"github.com/viant/monoflux/internal/du"
	"github.com/viant/monoflux/model"
)

// DefaultArtifacts lists build output directories measured by FSProbe.
var DefaultArtifacts = []string{"dist", "build", ".next"}

// SizeProbe measures the artifact size of a service.  ok is false when
// nothing could be measured.
type SizeProbe interface {
	Probe(ctx context.Context, svc *model.ServiceDescriptor) (size int64, ok bool)
}

// FSProbe sums the size of artifact directories of a service.
type FSProbe struct {
	fs   afs.Service
	dirs []string
}

// NewFSProbe creates a probe measuring dirs relative to the service directory.
func NewFSProbe(fs afs.Service, dirs ...string) *FSProbe {
	if fs == nil {
		fs = afs.New()
	}
	if len(dirs) == 0 {
		dirs = DefaultArtifacts
	}
	return &FSProbe{fs: fs, dirs: dirs}
}

func (p *FSProbe) Probe(ctx context.Context, svc *model.ServiceDescriptor) (int64, bool) {
	if svc == nil || svc.URL == "" {
		return 0, false
	}
	var total int64
	found := false
	for _, dir := range p.dirs {
		location := url.Join(svc.URL, dir)
		if exists, _ := p.fs.Exists(ctx, location); !exists {
			continue
		}
		size, err := du.Size(ctx, p.fs, location)
		if err != nil {
			continue
		}
		found = true
		total += size
	}
	return total, found
}

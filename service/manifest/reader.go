package manifest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"github.com/viant/monoflux/model"
)

// ErrNoManifest is returned when a directory has none of the configured manifest files.
var ErrNoManifest = errors.New("no manifest found")

const (
	PackageJSON = "package.json"
	ServiceYAML = "service.yaml"
)

// DefaultNames lists manifest file names probed in order.
var DefaultNames = []string{PackageJSON, ServiceYAML}

// Reader loads service descriptors from manifest files.
type Reader struct {
	fs    afs.Service
	names []string
}

// New creates a reader probing the supplied manifest names in order.
func New(fs afs.Service, names ...string) *Reader {
	if fs == nil {
		fs = afs.New()
	}
	if len(names) == 0 {
		names = DefaultNames
	}
	return &Reader{fs: fs, names: names}
}

// Read loads the descriptor of the service stored in dirURL.  Placement
// attributes (root, kind, priority) are left for the caller.
func (r *Reader) Read(ctx context.Context, dirURL string) (*model.ServiceDescriptor, error) {
	for _, name := range r.names {
		manifestURL := url.Join(dirURL, name)
		exists, err := r.fs.Exists(ctx, manifestURL)
		if err != nil {
			return nil, fmt.Errorf("failed to check manifest %s: %w", manifestURL, err)
		}
		if !exists {
			continue
		}
		data, err := r.fs.DownloadWithURL(ctx, manifestURL)
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest %s: %w", manifestURL, err)
		}
		descriptor, err := Decode(name, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse manifest %s: %w", manifestURL, err)
		}
		if descriptor.Name == "" {
			descriptor.Name = path.Base(url.Path(dirURL))
		}
		descriptor.URL = dirURL
		descriptor.Path = url.Path(dirURL)
		descriptor.Manifest = manifestURL
		return descriptor, nil
	}
	return nil, ErrNoManifest
}

// Decode parses manifest content according to the manifest file name.
func Decode(name string, data []byte) (*model.ServiceDescriptor, error) {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".json":
		return decodePackageJSON(data)
	case ".yaml", ".yml":
		return decodeServiceYAML(data)
	default:
		return nil, fmt.Errorf("unsupported manifest format: %v", name)
	}
}

func capabilities(descriptor *model.ServiceDescriptor, framework model.Framework) model.Capabilities {
	_, hasBuild := descriptor.Command("build")
	_, hasTest := descriptor.Command("test")
	_, hasLint := descriptor.Command("lint")
	if framework == "" {
		framework = model.FrameworkUnknown
	}
	return model.Capabilities{
		HasBuild:   hasBuild,
		HasTest:    hasTest,
		HasLint:    hasLint,
		HasPublish: !descriptor.Private,
		Framework:  framework,
	}
}

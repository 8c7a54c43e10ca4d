package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"

	"github.com/viant/monoflux/model"
	"github.com/viant/monoflux/service/manifest"
)

// ErrNoRoots is returned when none of the supplied root collections exist.
var ErrNoRoots = errors.New("no root collection found")

// ignored directory names are never treated as service units.
var ignored = map[string]bool{"node_modules": true}

// Result holds discovered services in enumeration order and the warnings
// raised for excluded directories.
type Result struct {
	Services []*model.ServiceDescriptor
	Warnings []*model.ErrorEntry
}

// Service discovers service units.
type Service struct {
	fs       afs.Service
	reader   *manifest.Reader
	appRoots map[string]bool
	logger   *slog.Logger
}

// Option customises the discovery service.
type Option func(s *Service)

// WithLogger sets the logger used for discovery warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithAppRoots sets the root collection names whose services are apps.
func WithAppRoots(names ...string) Option {
	return func(s *Service) {
		for _, name := range names {
			s.appRoots[name] = true
		}
	}
}

// WithReader sets the manifest reader.
func WithReader(reader *manifest.Reader) Option {
	return func(s *Service) { s.reader = reader }
}

// New creates a discovery service.
func New(fs afs.Service, options ...Option) *Service {
	if fs == nil {
		fs = afs.New()
	}
	ret := &Service{fs: fs, appRoots: map[string]bool{}}
	for _, option := range options {
		option(ret)
	}
	if ret.reader == nil {
		ret.reader = manifest.New(fs)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	if len(ret.appRoots) == 0 {
		ret.appRoots["apps"] = true
	}
	return ret
}

// Discover lists immediate subdirectories of every root and reads their
// manifests.  Output order is root order, then directory name order, so
// repeated calls on an unchanged tree yield identical lists.  A root that
// exists but cannot be listed is fatal; missing roots are skipped unless
// none exist.
func (s *Service) Discover(ctx context.Context, roots []string) (*Result, error) {
	result := &Result{}
	seen := map[string]string{}
	existing := 0
	for _, root := range roots {
		exists, err := s.fs.Exists(ctx, root)
		if err != nil {
			return result, fmt.Errorf("failed to check root %s: %w", root, err)
		}
		if !exists {
			s.warn(result, "", fmt.Sprintf("root collection %s does not exist", root))
			continue
		}
		existing++
		dirs, err := s.listDirs(ctx, root)
		if err != nil {
			return result, fmt.Errorf("failed to list root %s: %w", root, err)
		}
		rootName := path.Base(url.Path(root))
		for _, dir := range dirs {
			descriptor, err := s.reader.Read(ctx, dir.URL())
			if err != nil {
				dErr := &model.DiscoveryError{Dir: url.Path(dir.URL()), Err: err}
				s.warn(result, dir.Name(), dErr.Error())
				continue
			}
			if previous, ok := seen[descriptor.Name]; ok {
				s.warn(result, descriptor.Name, fmt.Sprintf("duplicate service name %q in %s, already declared in %s", descriptor.Name, descriptor.Path, previous))
				continue
			}
			seen[descriptor.Name] = descriptor.Path
			descriptor.Root = rootName
			descriptor.Kind = model.KindLibraryService
			if s.appRoots[rootName] {
				descriptor.Kind = model.KindApp
			}
			result.Services = append(result.Services, descriptor)
		}
	}
	if existing == 0 && len(roots) > 0 {
		return result, fmt.Errorf("%w: %v", ErrNoRoots, strings.Join(roots, ", "))
	}
	return result, nil
}

func (s *Service) listDirs(ctx context.Context, root string) ([]storage.Object, error) {
	objects, err := s.fs.List(ctx, root)
	if err != nil {
		return nil, err
	}
	rootPath := strings.TrimRight(url.Path(root), "/")
	var dirs []storage.Object
	for _, object := range objects {
		if !object.IsDir() {
			continue
		}
		if strings.TrimRight(url.Path(object.URL()), "/") == rootPath {
			continue
		}
		name := object.Name()
		if strings.HasPrefix(name, ".") || ignored[name] {
			continue
		}
		dirs = append(dirs, object)
	}
	sort.SliceStable(dirs, func(i, j int) bool { return dirs[i].Name() < dirs[j].Name() })
	return dirs, nil
}

func (s *Service) warn(result *Result, service, message string) {
	s.logger.Warn("discovery: excluded", "service", service, "reason", message)
	result.Warnings = append(result.Warnings, &model.ErrorEntry{Kind: model.ErrorKindDiscovery, Message: message, Service: service})
}

// Package du computes disk usage of storage locations.
package du

import (
	"context"
	"os"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// maxDepth guards against symlink cycles in dependency trees.
const maxDepth = 64

// Size returns the total size in bytes of the file or directory tree at URL.
// A missing location has size zero.
func Size(ctx context.Context, fs afs.Service, URL string) (int64, error) {
	exists, err := fs.Exists(ctx, URL)
	if err != nil || !exists {
		return 0, err
	}
	object, err := fs.Object(ctx, URL)
	if err != nil {
		return 0, err
	}
	if !object.IsDir() {
		return object.Size(), nil
	}
	return dirSize(ctx, fs, URL, 0)
}

func dirSize(ctx context.Context, fs afs.Service, URL string, depth int) (int64, error) {
	if depth > maxDepth {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	objects, err := fs.List(ctx, URL)
	if err != nil {
		return 0, err
	}
	self := strings.TrimRight(url.Path(URL), "/")
	var total int64
	for _, object := range objects {
		if strings.TrimRight(url.Path(object.URL()), "/") == self {
			continue
		}
		if object.Mode()&os.ModeSymlink != 0 {
			continue
		}
		if !object.IsDir() {
			total += object.Size()
			continue
		}
		size, err := dirSize(ctx, fs, object.URL(), depth+1)
		if err != nil {
			return total, err
		}
		total += size
	}
	return total, nil
}

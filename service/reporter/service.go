package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"golang.org/x/term"

	"github.com/viant/monoflux/model"
)

// Option customises the reporter.
type Option func(s *Service)

// WithFS sets the storage service used to persist artifacts.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithDir sets the artifact directory; the report workspace is used otherwise.
func WithDir(dir string) Option {
	return func(s *Service) { s.dir = dir }
}

// WithColor forces ANSI colours on or off.
func WithColor(color bool) Option {
	return func(s *Service) { s.color = &color }
}

// Service renders and persists reports.
type Service struct {
	fs    afs.Service
	dir   string
	color *bool
}

// New creates a reporter.
func New(options ...Option) *Service {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	return ret
}

// Persist writes the JSON artifact and returns its URL.
func (s *Service) Persist(ctx context.Context, report *model.Report) (string, error) {
	dir := s.dir
	if dir == "" {
		dir = report.Workspace
	}
	if dir == "" {
		return "", fmt.Errorf("no artifact directory for %s report", report.Task)
	}
	data, err := json.MarshalIndent(NewArtifact(report), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	URL := url.Join(dir, report.Task.ArtifactName())
	if err := s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(append(data, '\n'))); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", URL, err)
	}
	return URL, nil
}

// Render writes the console report to w.  Colours are used only when w is
// a terminal unless forced with WithColor.
func (s *Service) Render(w io.Writer, report *model.Report) error {
	color := isTerminal(w)
	if s.color != nil {
		color = *s.color
	}
	r := &renderer{w: w, color: color}
	r.render(report)
	return r.err
}

// ExitCode returns 0 iff no service failed and no fatal error occurred.
func ExitCode(report *model.Report) int {
	if report == nil || report.Failed() {
		return 1
	}
	return 0
}

// Schema returns the JSON schema of the artifact.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{ExpandedStruct: true}
	schema := reflector.Reflect(&Artifact{})
	return json.MarshalIndent(schema, "", "  ")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

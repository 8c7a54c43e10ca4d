package monoflux_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/viant/monoflux"
	"github.com/viant/monoflux/model"
	"github.com/viant/monoflux/service/orchestrator"
	"github.com/viant/monoflux/service/task"
)

func newWorkspace(t *testing.T, manifests map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, manifest := range manifests {
		location := filepath.Join(dir, "services", name)
		require.NoError(t, os.MkdirAll(location, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(location, "package.json"), []byte(manifest), 0o644))
	}
	return dir
}

func newService(workspace string, out *bytes.Buffer, mutate func(c *monoflux.Config)) *monoflux.Service {
	config := monoflux.DefaultConfig()
	config.Workspace = workspace
	config.Roots = []string{"services"}
	if mutate != nil {
		mutate(config)
	}
	return monoflux.New(monoflux.WithConfig(config), monoflux.WithOutput(out), monoflux.WithColor(false))
}

func TestService_Build(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell required")
	}
	workspace := newWorkspace(t, map[string]string{
		"api": `{"name":"api","scripts":{"build":"echo built"}}`,
		"web": `{"name":"web","scripts":{"build":"echo broken >&2; exit 4"}}`,
	})
	out := &bytes.Buffer{}
	result := newService(workspace, out, nil).Build(context.Background())

	assert.Equal(t, 1, result.ExitCode)
	assert.Equal(t, model.Totals{Processed: 2, Succeeded: 1, Failed: 1}, result.Report.Totals)
	assert.Equal(t, orchestrator.StateFailure, result.Transitions[len(result.Transitions)-1])
	assert.True(t, strings.HasSuffix(result.Artifact, "build-results.json"), result.Artifact)
	assert.Contains(t, out.String(), "broken")

	data, err := os.ReadFile(filepath.Join(workspace, "build-results.json"))
	require.NoError(t, err)
	artifact := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(data, &artifact))
	assert.EqualValues(t, 1, artifact["successful"])
	assert.EqualValues(t, 1, artifact["failed"])
}

func TestService_Clean(t *testing.T) {
	workspace := newWorkspace(t, map[string]string{"api": `{"name":"api"}`})
	dist := filepath.Join(workspace, "services", "api", "dist")
	require.NoError(t, os.MkdirAll(dist, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dist, "main.js"), []byte("0123456789"), 0o644))

	srv := newService(workspace, &bytes.Buffer{}, nil)
	result := srv.Clean(context.Background(), monoflux.CleanOptions{DryRun: true})
	assert.Equal(t, 0, result.ExitCode)
	assert.EqualValues(t, 10, result.Report.TotalSizeBytes)
	assert.DirExists(t, dist)

	result = srv.Clean(context.Background(), monoflux.CleanOptions{})
	assert.Equal(t, 0, result.ExitCode)
	assert.NoDirExists(t, dist)
	assert.FileExists(t, filepath.Join(workspace, "cleanup-results.json"))
}

func TestService_Release(t *testing.T) {
	manifest := `{"name":"api","version":"1.2.3","scripts":{"publish":"echo publish"}}`
	workspace := newWorkspace(t, map[string]string{"api": manifest, "internal": `{"name":"internal","private":true,"version":"1.0.0"}`})
	srv := newService(workspace, &bytes.Buffer{}, nil)

	result := srv.Release(context.Background(), monoflux.ReleaseOptions{Type: task.ReleaseMinor, DryRun: true, SkipTests: true})
	assert.Equal(t, 0, result.ExitCode)
	api := result.Report.PerService["api"]
	require.NotNil(t, api)
	assert.Equal(t, "1.3.0", api.Details["nextVersion"])
	assert.Equal(t, task.NoteDryRun, api.Note)
	assert.Equal(t, model.OutcomeSkipped, result.Report.PerService["internal"].Outcome)
	data, err := os.ReadFile(filepath.Join(workspace, "services", "api", "package.json"))
	require.NoError(t, err)
	assert.Equal(t, manifest, string(data))

	result = srv.Release(context.Background(), monoflux.ReleaseOptions{Type: "huge"})
	assert.True(t, result.Report.Fatal)
	assert.Equal(t, 1, result.ExitCode)
}

func TestService_Run_Fatal(t *testing.T) {
	var testCases = []struct {
		description string
		workspace   string
		mutate      func(c *monoflux.Config)
	}{
		{description: "invalid concurrency", workspace: t.TempDir(), mutate: func(c *monoflux.Config) { c.Concurrency = -1 }},
		{description: "invalid runner", workspace: t.TempDir(), mutate: func(c *monoflux.Config) { c.Runner = "docker" }},
		{description: "missing workspace", workspace: filepath.Join(t.TempDir(), "missing")},
	}
	for _, testCase := range testCases {
		result := newService(testCase.workspace, &bytes.Buffer{}, testCase.mutate).Test(context.Background())
		assert.True(t, result.Report.Fatal, testCase.description)
		assert.Equal(t, 1, result.ExitCode, testCase.description)
		assert.Contains(t, result.Transitions, orchestrator.StateFatalAbort, testCase.description)
	}
}

// hashWorkspace digests every path and file content under dir except the
// cleanup artifact.
func hashWorkspace(t *testing.T, dir string) string {
	t.Helper()
	digest := sha256.New()
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, _ := filepath.Rel(dir, path)
		if relative == "cleanup-results.json" {
			return nil
		}
		digest.Write([]byte(relative))
		if entry.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		digest.Write(data)
		return nil
	})
	require.NoError(t, err)
	return hex.EncodeToString(digest.Sum(nil))
}

func TestService_Clean_DryRunLeavesWorkspace(t *testing.T) {
	var testCases = []struct {
		description string
		options     monoflux.CleanOptions
		targets     map[string]string
		expectSize  int64
	}{
		{description: "build output", options: monoflux.CleanOptions{DryRun: true}, targets: map[string]string{"dist/main.js": "0123456789"}, expectSize: 10},
		{description: "nested dependencies", options: monoflux.CleanOptions{DryRun: true, Deps: true}, targets: map[string]string{"node_modules/lib/index.js": "abc", "coverage/lcov.info": "12345"}, expectSize: 8},
	}
	for _, testCase := range testCases {
		workspace := newWorkspace(t, map[string]string{"api": `{"name":"api"}`})
		for location, content := range testCase.targets {
			path := filepath.Join(workspace, "services", "api", location)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), testCase.description)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644), testCase.description)
		}
		before := hashWorkspace(t, workspace)

		result := newService(workspace, &bytes.Buffer{}, nil).Clean(context.Background(), testCase.options)
		assert.Equal(t, 0, result.ExitCode, testCase.description)
		assert.EqualValues(t, testCase.expectSize, result.Report.TotalSizeBytes, testCase.description)
		assert.Equal(t, before, hashWorkspace(t, workspace), testCase.description)
		assert.FileExists(t, filepath.Join(workspace, "cleanup-results.json"), testCase.description)
	}
}

func TestService_WithTracingExporter(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	workspace := newWorkspace(t, map[string]string{"api": `{"name":"api"}`})
	config := monoflux.DefaultConfig()
	config.Workspace = workspace
	config.Roots = []string{"services"}
	srv := monoflux.New(monoflux.WithConfig(config), monoflux.WithOutput(&bytes.Buffer{}),
		monoflux.WithTracingExporter("monoflux-test", monoflux.Version, exporter))

	result := srv.Clean(context.Background(), monoflux.CleanOptions{DryRun: true})
	assert.Equal(t, 0, result.ExitCode)
	assert.NotEmpty(t, exporter.GetSpans())
	assert.NoError(t, srv.Close(context.Background()))
}

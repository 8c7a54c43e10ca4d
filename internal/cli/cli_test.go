package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	manifests := map[string]string{
		"api": `{"name":"api","version":"0.1.0","scripts":{"build":"echo api","test":"echo ok"}}`,
		"web": `{"name":"web","version":"0.1.0","scripts":{"build":"exit 7"}}`,
	}
	for name, manifest := range manifests {
		location := filepath.Join(dir, "services", name)
		require.NoError(t, os.MkdirAll(location, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(location, "package.json"), []byte(manifest), 0o644))
	}
	return dir
}

func TestRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell required")
	}
	var testCases = []struct {
		description string
		args        func(workspace string) []string
		config      string
		expectCode  int
		expectOut   []string
		artifact    string
	}{
		{
			description: "build with failing service",
			args:        func(ws string) []string { return []string{"build", "-w", ws} },
			expectCode:  1,
			expectOut:   []string{"FAILURE"},
			artifact:    "build-results.json",
		},
		{
			description: "build filtered to passing service",
			args:        func(ws string) []string { return []string{"build", "-w", ws, "--only", "api", "-j", "1"} },
			expectCode:  0,
			expectOut:   []string{"SUCCESS", "excluded by policy"},
		},
		{
			description: "skip failing service without report",
			args:        func(ws string) []string { return []string{"build", "-w", ws, "--skip", "web", "--no-report"} },
			expectCode:  0,
		},
		{
			description: "test skips services without test script",
			args:        func(ws string) []string { return []string{"test", "--workspace", ws} },
			expectCode:  0,
			artifact:    "test-results.json",
		},
		{
			description: "clean dry run",
			args:        func(ws string) []string { return []string{"clean", "-w", ws, "--dry-run", "--all"} },
			expectCode:  0,
			artifact:    "cleanup-results.json",
		},
		{
			description: "release dry run",
			args:        func(ws string) []string { return []string{"release", "patch", "-w", ws, "--dry-run", "--skip-tests"} },
			expectCode:  0,
		},
		{
			description: "release without type",
			args:        func(ws string) []string { return []string{"release", "-w", ws} },
			expectCode:  1,
		},
		{
			description: "release with unknown type",
			args:        func(ws string) []string { return []string{"release", "huge", "-w", ws} },
			expectCode:  1,
		},
		{
			description: "unknown flag",
			args:        func(ws string) []string { return []string{"build", "--fast"} },
			expectCode:  1,
		},
		{
			description: "invalid concurrency",
			args:        func(ws string) []string { return []string{"build", "-w", ws, "-j", "0"} },
			expectCode:  1,
			expectOut:   []string{"FAILURE"},
		},
		{
			description: "workspace config",
			args:        func(ws string) []string { return []string{"build", "-w", ws} },
			config:      "roots: [services]\npolicy:\n  skip: [web]\n",
			expectCode:  0,
		},
		{
			description: "malformed config",
			args:        func(ws string) []string { return []string{"build", "-w", ws} },
			config:      "concurrency: [",
			expectCode:  1,
			expectOut:   []string{"FAILURE"},
		},
	}
	for _, testCase := range testCases {
		workspace := newWorkspace(t)
		if testCase.config != "" {
			require.NoError(t, os.WriteFile(filepath.Join(workspace, "monoflux.yaml"), []byte(testCase.config), 0o644), testCase.description)
		}
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		code := Run(context.Background(), testCase.args(workspace), stdout, stderr)
		assert.Equal(t, testCase.expectCode, code, testCase.description+": "+stderr.String())
		for _, fragment := range testCase.expectOut {
			assert.Contains(t, stdout.String(), fragment, testCase.description)
		}
		if testCase.artifact != "" {
			assert.FileExists(t, filepath.Join(workspace, testCase.artifact), testCase.description)
		}
		if testCase.description == "skip failing service without report" {
			assert.NoFileExists(t, filepath.Join(workspace, "build-results.json"), testCase.description)
		}
	}
}

func TestRun_Schema(t *testing.T) {
	stdout := &bytes.Buffer{}
	code := Run(context.Background(), []string{"schema"}, stdout, &bytes.Buffer{})
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), `"successful"`)
}

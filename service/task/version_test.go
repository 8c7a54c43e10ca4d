package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBump(t *testing.T) {
	var testCases = []struct {
		description string
		version     string
		kind        ReleaseType
		expect      string
		expectErr   bool
	}{
		{description: "patch", version: "1.2.3", kind: ReleasePatch, expect: "1.2.4"},
		{description: "minor", version: "1.2.3", kind: ReleaseMinor, expect: "1.3.0"},
		{description: "major", version: "1.2.3", kind: ReleaseMajor, expect: "2.0.0"},
		{description: "prerelease from release", version: "1.2.3", kind: ReleasePrerelease, expect: "1.2.4-0"},
		{description: "prerelease increment", version: "1.2.4-0", kind: ReleasePrerelease, expect: "1.2.4-1"},
		{description: "prerelease named", version: "1.2.4-beta.3", kind: ReleasePrerelease, expect: "1.2.4-beta.4"},
		{description: "prerelease without number", version: "1.2.4-beta", kind: ReleasePrerelease, expect: "1.2.4-beta.0"},
		{description: "patch promotes prerelease", version: "1.2.4-1", kind: ReleasePatch, expect: "1.2.4"},
		{description: "minor promotes prerelease", version: "1.3.0-1", kind: ReleaseMinor, expect: "1.3.0"},
		{description: "minor from patch prerelease", version: "1.2.4-1", kind: ReleaseMinor, expect: "1.3.0"},
		{description: "major promotes prerelease", version: "2.0.0-rc.1", kind: ReleaseMajor, expect: "2.0.0"},
		{description: "v prefix preserved", version: "v0.9.1", kind: ReleaseMinor, expect: "v0.10.0"},
		{description: "build metadata dropped", version: "1.0.0+sha.1", kind: ReleasePatch, expect: "1.0.1"},
		{description: "empty version", version: "", kind: ReleasePatch, expect: "0.0.1"},
		{description: "invalid version", version: "latest", kind: ReleasePatch, expectErr: true},
		{description: "invalid type", version: "1.0.0", kind: "hotfix", expectErr: true},
	}
	for _, testCase := range testCases {
		actual, err := Bump(testCase.version, testCase.kind)
		if testCase.expectErr {
			assert.Error(t, err, testCase.description)
			continue
		}
		assert.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
}

func TestParseReleaseType(t *testing.T) {
	kind, err := ParseReleaseType("Minor")
	assert.NoError(t, err)
	assert.Equal(t, ReleaseMinor, kind)
	_, err = ParseReleaseType("hotfix")
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	patch, stats, err := Diff([]byte("a\nb\nc\n"), []byte("a\nB\nc\nd\n"), "file.txt")
	assert.NoError(t, err)
	assert.Contains(t, patch, "--- a/file.txt")
	assert.Equal(t, DiffStats{Added: 2, Removed: 1}, stats)

	patch, stats, err = Diff([]byte("same"), []byte("same"), "file.txt")
	assert.NoError(t, err)
	assert.Equal(t, "", patch)
	assert.Equal(t, DiffStats{}, stats)
}

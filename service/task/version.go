package task

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// ReleaseType selects which version component a release bumps.
type ReleaseType string

const (
	ReleasePatch      ReleaseType = "patch"
	ReleaseMinor      ReleaseType = "minor"
	ReleaseMajor      ReleaseType = "major"
	ReleasePrerelease ReleaseType = "prerelease"
)

// ParseReleaseType converts text into a ReleaseType.
func ParseReleaseType(text string) (ReleaseType, error) {
	switch kind := ReleaseType(strings.ToLower(text)); kind {
	case ReleasePatch, ReleaseMinor, ReleaseMajor, ReleasePrerelease:
		return kind, nil
	}
	return "", fmt.Errorf("unsupported release type: %q, expected patch, minor, major or prerelease", text)
}

// Bump returns the next version.  A prerelease is promoted to its release
// when the bumped component is already the one being released, so
// 1.3.0-1 bumped minor is 1.3.0.  Prerelease bumps increment the last
// numeric identifier: 1.2.3 becomes 1.2.4-0, 1.2.4-0 becomes 1.2.4-1.
// Build metadata is dropped.  A leading "v" is preserved.
func Bump(version string, kind ReleaseType) (string, error) {
	prefix := ""
	if strings.HasPrefix(version, "v") {
		prefix = "v"
	}
	if version == "" {
		version = "0.0.0"
	}
	canonical := semver.Canonical("v" + strings.TrimPrefix(version, "v"))
	if canonical == "" {
		return "", fmt.Errorf("invalid version: %q", version)
	}
	pre := strings.TrimPrefix(semver.Prerelease(canonical), "-")
	parts := strings.Split(strings.TrimPrefix(strings.TrimSuffix(canonical, semver.Prerelease(canonical)), "v"), ".")
	numbers := make([]int, 3)
	for i, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil {
			return "", fmt.Errorf("invalid version: %q: %w", version, err)
		}
		numbers[i] = value
	}
	major, minor, patch := numbers[0], numbers[1], numbers[2]
	switch kind {
	case ReleaseMajor:
		if pre == "" || minor != 0 || patch != 0 {
			major++
		}
		minor, patch, pre = 0, 0, ""
	case ReleaseMinor:
		if pre == "" || patch != 0 {
			minor++
		}
		patch, pre = 0, ""
	case ReleasePatch:
		if pre == "" {
			patch++
		}
		pre = ""
	case ReleasePrerelease:
		if pre == "" {
			patch++
			pre = "0"
		} else {
			pre = nextPrerelease(pre)
		}
	default:
		return "", fmt.Errorf("unsupported release type: %q", kind)
	}
	next := fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if pre != "" {
		next += "-" + pre
	}
	return prefix + next, nil
}

func nextPrerelease(pre string) string {
	identifiers := strings.Split(pre, ".")
	for i := len(identifiers) - 1; i >= 0; i-- {
		if value, err := strconv.Atoi(identifiers[i]); err == nil {
			identifiers[i] = strconv.Itoa(value + 1)
			return strings.Join(identifiers, ".")
		}
	}
	return pre + ".0"
}

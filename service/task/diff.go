package task

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	sgdiff "github.com/sourcegraph/go-diff/diff"
)

// DiffStats counts changed lines of a unified diff.
type DiffStats struct {
	Added   int
	Removed int
}

// Diff produces a unified diff between old and new content.  Identical
// content yields an empty diff.
func Diff(oldContent, newContent []byte, name string) (string, DiffStats, error) {
	if string(oldContent) == string(newContent) {
		return "", DiffStats{}, nil
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(oldContent)),
		B:        difflib.SplitLines(string(newContent)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	}
	patch, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", DiffStats{}, err
	}
	return patch, diffStats(patch), nil
}

func diffStats(patch string) DiffStats {
	var stats DiffStats
	fileDiffs, err := sgdiff.ParseMultiFileDiff([]byte(patch))
	if err != nil || len(fileDiffs) == 0 {
		countLines(patch, &stats, true)
		return stats
	}
	for _, fileDiff := range fileDiffs {
		for _, hunk := range fileDiff.Hunks {
			countLines(string(hunk.Body), &stats, false)
		}
	}
	return stats
}

func countLines(text string, stats *DiffStats, withHeaders bool) {
	for _, line := range strings.Split(text, "\n") {
		switch {
		case withHeaders && (strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---")):
		case strings.HasPrefix(line, "+"):
			stats.Added++
		case strings.HasPrefix(line, "-"):
			stats.Removed++
		}
	}
}

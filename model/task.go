package model

import "fmt"

// TaskKind names the task executed against every service unit.
type TaskKind string

const (
	TaskBuild   TaskKind = "build"
	TaskTest    TaskKind = "test"
	TaskClean   TaskKind = "clean"
	TaskRelease TaskKind = "release"
)

// ArtifactName returns the name of the JSON results file for the task kind.
func (k TaskKind) ArtifactName() string {
	if k == TaskClean {
		return "cleanup-results.json"
	}
	return fmt.Sprintf("%s-results.json", k)
}

// ParseTaskKind converts text into a TaskKind.
func ParseTaskKind(text string) (TaskKind, error) {
	switch kind := TaskKind(text); kind {
	case TaskBuild, TaskTest, TaskClean, TaskRelease:
		return kind, nil
	}
	return "", fmt.Errorf("unsupported task: %q", text)
}

package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/viant/monoflux/model"
)

type serviceYAML struct {
	Name         string            `yaml:"name"`
	Version      string            `yaml:"version"`
	Private      bool              `yaml:"private"`
	Framework    string            `yaml:"framework"`
	Tasks        map[string]string `yaml:"tasks"`
	Dependencies []string          `yaml:"dependencies"`
}

func decodeServiceYAML(data []byte) (*model.ServiceDescriptor, error) {
	manifest := &serviceYAML{}
	if err := yaml.Unmarshal(data, manifest); err != nil {
		return nil, err
	}
	if manifest.Name == "" && len(manifest.Tasks) == 0 && manifest.Version == "" {
		return nil, fmt.Errorf("empty service manifest")
	}
	descriptor := &model.ServiceDescriptor{
		Name:    manifest.Name,
		Version: manifest.Version,
		Private: manifest.Private,
		Tasks:   map[string]string{},
	}
	for name, command := range manifest.Tasks {
		descriptor.Tasks[name] = command
	}
	framework := model.Framework(manifest.Framework)
	if framework == "" {
		dependencies := map[string]bool{}
		for _, dependency := range manifest.Dependencies {
			dependencies[dependency] = true
		}
		framework = DetectFramework(dependencies)
	}
	descriptor.Capabilities = capabilities(descriptor, framework)
	return descriptor, nil
}

package manifest

import (
	"fmt"
	"path"
	"strings"

	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"
)

// SetVersion rewrites the version field of manifest content, keeping the
// remaining document untouched where the format allows it.
func SetVersion(name string, data []byte, version string) ([]byte, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return sjson.SetBytes(data, "version", version)
	case ".yaml", ".yml":
		return setYAMLVersion(data, version)
	}
	return nil, fmt.Errorf("unsupported manifest format: %v", name)
}

func setYAMLVersion(data []byte, version string) ([]byte, error) {
	var document yaml.Node
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, err
	}
	root := &document
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected mapping at manifest root")
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "version" {
			root.Content[i+1].Value = version
			root.Content[i+1].Tag = "!!str"
			root.Content[i+1].Style = yaml.DoubleQuotedStyle
			return yaml.Marshal(&document)
		}
	}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "version"},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: version, Style: yaml.DoubleQuotedStyle})
	return yaml.Marshal(&document)
}

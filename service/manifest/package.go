package manifest

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/viant/monoflux/model"
)

// npm init writes this placeholder; it is treated as no test script.
const npmTestPlaceholder = "no test specified"

var dependencyFields = []string{"dependencies", "devDependencies", "peerDependencies"}

func decodePackageJSON(data []byte) (*model.ServiceDescriptor, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("expected JSON object")
	}
	descriptor := &model.ServiceDescriptor{
		Name:    doc.Get("name").String(),
		Version: doc.Get("version").String(),
		Private: doc.Get("private").Bool(),
		Tasks:   map[string]string{},
	}
	doc.Get("scripts").ForEach(func(key, value gjson.Result) bool {
		script := value.String()
		if key.String() == "test" && strings.Contains(script, npmTestPlaceholder) {
			return true
		}
		descriptor.Tasks[key.String()] = script
		return true
	})
	dependencies := map[string]bool{}
	for _, field := range dependencyFields {
		doc.Get(field).ForEach(func(key, _ gjson.Result) bool {
			dependencies[key.String()] = true
			return true
		})
	}
	descriptor.Capabilities = capabilities(descriptor, DetectFramework(dependencies))
	return descriptor, nil
}

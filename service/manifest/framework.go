package manifest

import "github.com/viant/monoflux/model"

// frameworkMarkers is ordered: meta-frameworks come before the libraries they build on.
var frameworkMarkers = []struct {
	dependency string
	framework  model.Framework
}{
	{"next", model.FrameworkNext},
	{"nuxt", model.FrameworkNuxt},
	{"@nestjs/core", model.FrameworkNest},
	{"@angular/core", model.FrameworkAngular},
	{"svelte", model.FrameworkSvelte},
	{"react", model.FrameworkReact},
	{"vue", model.FrameworkVue},
	{"fastify", model.FrameworkFastify},
	{"express", model.FrameworkExpress},
	{"koa", model.FrameworkKoa},
}

// DetectFramework returns the first framework whose marker dependency is present.
func DetectFramework(dependencies map[string]bool) model.Framework {
	for _, marker := range frameworkMarkers {
		if dependencies[marker.dependency] {
			return marker.framework
		}
	}
	return model.FrameworkUnknown
}

package main

import (
	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
	"github.com/alexisbeaulieu97/groundwork/internal/plugins/info"
	"github.com/alexisbeaulieu97/groundwork/internal/plugins/recipebuilder"
)

// builtinClasses are the plugins shipped with the groundwork binary.
func builtinClasses() []plugin.Class {
	return append(info.Classes(), recipebuilder.Class())
}

// builtinCatalog publishes the built-in classes for discovery and for
// resolving the symbols of plugin manifests.
func builtinCatalog() *plugin.Catalog {
	catalog := plugin.NewCatalog()
	distribution := &plugin.Distribution{Key: "groundwork"}
	if version != "dev" {
		distribution.Version = version
	}
	for _, class := range builtinClasses() {
		catalog.PublishClass(class, distribution)
	}
	return catalog
}

func builtinNames() []string {
	classes := builtinClasses()
	names := make([]string, 0, len(classes))
	for _, class := range classes {
		names = append(names, class.Name)
	}
	return names
}

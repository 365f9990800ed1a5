package info

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/groundwork/internal/commands"
	"github.com/alexisbeaulieu97/groundwork/internal/documents"
	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
)

const pluginsOverview = `Plugins overview
================

Registered plugins: {{ len .Plugins }}
{{ range .Plugins }}
 * {{ .Name }}{{ end }}
{{ range .Plugins }}
{{ .Name }}
{{ repeat "-" (len .Name) }}
Class: {{ .Class }}
State: {{ .State }}
{{- if .Needs }}
Needs: {{ join .Needs ", " }}{{ end }}
{{ end }}`

const pluginClasses = `Plugin classes overview
=======================

Found plugin classes: {{ len .Classes }}
{{ range .Classes }}
{{ .Name }}
{{ repeat "-" (len .Name) }}
Package: {{ if .Package }}{{ .Package }} - {{ .Version }}{{ else }}built in{{ end }}
{{- if .Path }}
Path: {{ .Path }}{{ end }}
{{ end }}`

// PluginsInfo lists plugin classes and instances.
type PluginsInfo struct {
	plugin.Base
}

// NewPluginsInfo is the factory of the gw_plugins_info class.
func NewPluginsInfo(host plugin.Host, name string) (plugin.Plugin, error) {
	p := &PluginsInfo{}
	if err := p.Init(host, name, p); err != nil {
		return nil, err
	}
	return p, nil
}

// OnActivate registers plugin_list and the plugin documents.
func (p *PluginsInfo) OnActivate() error {
	_, err := commands.Of(&p.Base).Register("plugin_list", "List all plugins", p.list,
		commands.Param{Name: "json", Kind: commands.FlagBool, Usage: "print JSON"})
	if err != nil {
		return err
	}
	if _, err := documents.Of(&p.Base).Register("plugins_overview", pluginsOverview,
		"Gives an overview about all registered plugins"); err != nil {
		return err
	}
	_, err = documents.Of(&p.Base).Register("plugins_classes", pluginClasses,
		"Gives an overview about all available plugin classes")
	return err
}

// OnDeactivate has nothing to release.
func (p *PluginsInfo) OnDeactivate() error { return nil }

func (p *PluginsInfo) list(_ context.Context, inv *commands.Invocation) error {
	overview := Snapshot(p.Host())
	out := inv.Out()
	if inv.Bool("json") {
		return writeJSON(out, struct {
			Plugins []PluginView `json:"plugins"`
			Classes []ClassView  `json:"classes"`
		}{overview.Plugins, overview.Classes})
	}

	classes := make(map[string]ClassView, len(overview.Classes))
	for _, class := range overview.Classes {
		classes[class.Name] = class
	}

	heading(out, fmt.Sprintf("Plugins of %s", overview.App))
	rows := make([][]string, 0, len(overview.Classes)+len(overview.Plugins))
	for _, view := range overview.Plugins {
		rows = append(rows, []string{
			view.Name,
			valueOrFallback(view.Class, "-"),
			view.State,
			packageOf(classes[view.Class]),
			valueOrFallback(strings.Join(view.Needs, ", "), "-"),
		})
		delete(classes, view.Class)
	}
	for _, class := range overview.Classes {
		if _, unused := classes[class.Name]; !unused {
			continue
		}
		rows = append(rows, []string{"-", class.Name, plugin.StateUninitialised.String(), packageOf(class), "-"})
	}
	return table(out, []string{"NAME", "CLASS", "STATE", "PACKAGE", "NEEDS"}, rows)
}

func packageOf(class ClassView) string {
	if class.Package == "" {
		return "built in"
	}
	return fmt.Sprintf("%s (%s)", class.Package, valueOrFallback(class.Version, "unversioned"))
}

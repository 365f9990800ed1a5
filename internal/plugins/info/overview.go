// Package info provides plugins that describe the running application:
// its plugins, signals, commands and documents.
package info

import (
	"sort"

	"github.com/alexisbeaulieu97/groundwork/internal/commands"
	"github.com/alexisbeaulieu97/groundwork/internal/documents"
	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
	"github.com/alexisbeaulieu97/groundwork/internal/registry"
)

// Overview is the data every info document is rendered with.
type Overview struct {
	App       string         `json:"app"`
	Path      string         `json:"path"`
	Plugins   []PluginView   `json:"plugins"`
	Classes   []ClassView    `json:"classes"`
	Signals   []SignalView   `json:"signals"`
	Receivers []ReceiverView `json:"receivers"`
	Commands  []CommandView  `json:"commands"`
	Documents []DocumentView `json:"documents"`
}

type PluginView struct {
	Name  string   `json:"name"`
	Class string   `json:"class"`
	State string   `json:"state"`
	Needs []string `json:"needs,omitempty"`
}

type ClassView struct {
	Name       string `json:"name"`
	EntryPoint string `json:"entry_point,omitempty"`
	Package    string `json:"package,omitempty"`
	Version    string `json:"version,omitempty"`
	Path       string `json:"path,omitempty"`
}

type SignalView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

type ReceiverView struct {
	Name        string `json:"name"`
	Signal      string `json:"signal"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

type CommandView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

type DocumentView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

// Snapshot collects the current state of host. Every list is sorted by name.
func Snapshot(host plugin.Host) Overview {
	overview := Overview{App: host.Name(), Path: host.Path()}

	manager := host.Plugins()
	for _, name := range manager.Names() {
		instance, ok := manager.Get(name)
		if !ok {
			continue
		}
		base := instance.PluginBase()
		overview.Plugins = append(overview.Plugins, PluginView{
			Name:  name,
			Class: base.ClassName(),
			State: base.State().String(),
			Needs: instance.NeededPlugins(),
		})
	}

	for _, name := range manager.Classes().Names() {
		class, _ := manager.Classes().Get(name)
		view := ClassView{Name: class.Name, EntryPoint: class.EntryPoint}
		if class.Distribution != nil {
			view.Package = class.Distribution.Key
			view.Version = class.Distribution.Version
			view.Path = class.Distribution.Path
		}
		overview.Classes = append(overview.Classes, view)
	}

	bus := host.Signals()
	for _, name := range bus.SignalNames(nil) {
		if signal, ok := bus.Get(name, nil); ok {
			overview.Signals = append(overview.Signals, SignalView{
				Name:        signal.Name,
				Description: signal.Description,
				Owner:       ownerName(signal.Owner()),
			})
		}
	}
	for _, name := range bus.ReceiverNames(nil) {
		if receiver, ok := bus.GetReceiver(name, nil); ok {
			overview.Receivers = append(overview.Receivers, ReceiverView{
				Name:        receiver.Name,
				Signal:      receiver.Signal,
				Description: receiver.Description,
				Owner:       ownerName(receiver.Owner()),
			})
		}
	}

	for _, command := range sorted(commands.For(host).List(nil)) {
		overview.Commands = append(overview.Commands, CommandView{
			Name:        command.Name,
			Description: command.Description,
			Owner:       ownerName(command.Owner()),
		})
	}
	for _, document := range sorted(documents.For(host).List(nil)) {
		overview.Documents = append(overview.Documents, DocumentView{
			Name:        document.Name,
			Description: document.Description,
			Owner:       ownerName(document.Owner()),
		})
	}
	return overview
}

func sorted[T registry.Owned](items map[string]T) []T {
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]T, 0, len(names))
	for _, name := range names {
		result = append(result, items[name])
	}
	return result
}

func ownerName(owner registry.Owner) string {
	if owner == nil {
		return ""
	}
	return owner.Name()
}

package commands

import (
	"fmt"

	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
)

type registryKey struct{}

type handleKey struct{}

// For returns the command registry of host, creating it on first use.
func For(host plugin.Host) *Registry {
	return host.Attach(registryKey{}, func() any {
		return NewRegistry("groundwork", host.Name(), host.Logger().Named("commands"))
	}).(*Registry)
}

// Handle manages the commands of a single plugin.
type Handle struct {
	base     *plugin.Base
	registry *Registry
}

// Of returns the command handle of the plugin owning base.
func Of(base *plugin.Base) *Handle {
	return base.Attach(handleKey{}, func() any {
		return &Handle{base: base, registry: For(base.Host())}
	}).(*Handle)
}

// Register adds a command owned by the plugin. The plugin's commands are
// unregistered automatically when it is deactivated.
func (h *Handle) Register(name, description string, fn Func, params ...Param) (*Command, error) {
	err := h.base.OnDeactivated("command_deactivation",
		fmt.Sprintf("Deactivate commands for %s", h.base.Name()),
		h.unregisterAll)
	if err != nil {
		return nil, err
	}
	return h.registry.Register(name, description, fn, params, h.base.Plugin())
}

// Unregister removes a command.
func (h *Handle) Unregister(name string) {
	h.registry.Unregister(name)
}

// Get returns a command registered by the plugin.
func (h *Handle) Get(name string) (*Command, bool) {
	return h.registry.Get(name, h.base.Plugin())
}

// List returns the commands registered by the plugin.
func (h *Handle) List() map[string]*Command {
	return h.registry.List(h.base.Plugin())
}

func (h *Handle) unregisterAll() error {
	for _, name := range h.registry.Names(h.base.Plugin()) {
		h.registry.Unregister(name)
	}
	return nil
}

package threads

import (
	"fmt"

	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
)

type registryKey struct{}

type handleKey struct{}

// For returns the thread registry of host, creating it on first use.
func For(host plugin.Host) *Registry {
	return host.Attach(registryKey{}, func() any {
		return NewRegistry(host.Logger().Named("threads"))
	}).(*Registry)
}

// Handle manages the threads of a single plugin.
type Handle struct {
	base     *plugin.Base
	registry *Registry
}

// Of returns the thread handle of the plugin owning base.
func Of(base *plugin.Base) *Handle {
	return base.Attach(handleKey{}, func() any {
		return &Handle{base: base, registry: For(base.Host())}
	}).(*Handle)
}

// Register adds a thread owned by the plugin. Deactivating the plugin stops
// and removes its threads.
func (h *Handle) Register(name string, fn Func, description string) (*Thread, error) {
	err := h.base.OnDeactivated("threads_deactivation",
		fmt.Sprintf("Deactivate threads for %s", h.base.Name()),
		h.unregisterAll)
	if err != nil {
		return nil, err
	}
	return h.registry.Register(name, fn, h.base.Plugin(), description)
}

// Unregister removes a thread.
func (h *Handle) Unregister(name string) {
	h.registry.Unregister(name)
}

// Get returns a thread registered by the plugin.
func (h *Handle) Get(name string) (*Thread, bool) {
	return h.registry.Get(name, h.base.Plugin())
}

// List returns the threads registered by the plugin.
func (h *Handle) List() map[string]*Thread {
	return h.registry.List(h.base.Plugin())
}

func (h *Handle) unregisterAll() error {
	for _, name := range h.registry.Names(h.base.Plugin()) {
		h.registry.Unregister(name)
	}
	return nil
}

package sharedobjects

import (
	"fmt"

	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
)

type registryKey struct{}

type handleKey struct{}

// For returns the shared object registry of host, creating it on first use.
func For(host plugin.Host) *Registry {
	return host.Attach(registryKey{}, func() any {
		return NewRegistry(host.Logger().Named("shared_objects"))
	}).(*Registry)
}

// Handle manages the shared objects of a single plugin.
type Handle struct {
	base     *plugin.Base
	registry *Registry
}

// Of returns the shared object handle of the plugin owning base.
func Of(base *plugin.Base) *Handle {
	return base.Attach(handleKey{}, func() any {
		return &Handle{base: base, registry: For(base.Host())}
	}).(*Handle)
}

// Register publishes obj on behalf of the plugin until it is deactivated.
func (h *Handle) Register(name, description string, obj any) (*SharedObject, error) {
	err := h.base.OnDeactivated("shared_objects_deactivation",
		fmt.Sprintf("Deactivate shared objects for %s", h.base.Name()),
		h.unregisterAll)
	if err != nil {
		return nil, err
	}
	return h.registry.Register(name, description, obj, h.base.Plugin())
}

// Unregister removes a shared object.
func (h *Handle) Unregister(name string) {
	h.registry.Unregister(name)
}

// Get returns a shared object registered by the plugin.
func (h *Handle) Get(name string) (*SharedObject, bool) {
	return h.registry.Get(name, h.base.Plugin())
}

// List returns the shared objects registered by the plugin.
func (h *Handle) List() map[string]*SharedObject {
	return h.registry.List(h.base.Plugin())
}

// Access returns any plugin's shared object.
func (h *Handle) Access(name string) (any, error) {
	return h.registry.Access(name)
}

func (h *Handle) unregisterAll() error {
	for _, name := range h.registry.Names(h.base.Plugin()) {
		h.registry.Unregister(name)
	}
	return nil
}

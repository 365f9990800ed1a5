package documents

import (
	"fmt"

	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
)

type registryKey struct{}

type handleKey struct{}

// For returns the document registry of host, creating it on first use.
func For(host plugin.Host) *Registry {
	return host.Attach(registryKey{}, func() any {
		return NewRegistry(host.Logger().Named("documents"))
	}).(*Registry)
}

// Handle manages the documents of a single plugin.
type Handle struct {
	base     *plugin.Base
	registry *Registry
}

// Of returns the document handle of the plugin owning base.
func Of(base *plugin.Base) *Handle {
	return base.Attach(handleKey{}, func() any {
		return &Handle{base: base, registry: For(base.Host())}
	}).(*Handle)
}

// Register adds a document owned by the plugin. It is removed when the
// plugin is deactivated.
func (h *Handle) Register(name, content, description string) (*Document, error) {
	err := h.base.OnDeactivated("documents_deactivation",
		fmt.Sprintf("Deactivate documents for %s", h.base.Name()),
		h.unregisterAll)
	if err != nil {
		return nil, err
	}
	return h.registry.Register(name, content, h.base.Plugin(), description)
}

// Unregister removes a document.
func (h *Handle) Unregister(name string) {
	h.registry.Unregister(name)
}

// Get returns a document registered by the plugin.
func (h *Handle) Get(name string) (*Document, bool) {
	return h.registry.Get(name, h.base.Plugin())
}

// List returns the documents registered by the plugin.
func (h *Handle) List() map[string]*Document {
	return h.registry.List(h.base.Plugin())
}

func (h *Handle) unregisterAll() error {
	for _, name := range h.registry.Names(h.base.Plugin()) {
		h.registry.Unregister(name)
	}
	return nil
}

package recipes

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
)

type registryKey struct{}

type handleKey struct{}

// For returns the recipe registry of host, creating it on first use.
func For(host plugin.Host) *Registry {
	return host.Attach(registryKey{}, func() any {
		return NewRegistry(host.Logger().Named("recipes"))
	}).(*Registry)
}

// Handle manages the recipes of a single plugin.
type Handle struct {
	base     *plugin.Base
	registry *Registry
}

// Of returns the recipe handle of the plugin owning base.
func Of(base *plugin.Base) *Handle {
	return base.Attach(handleKey{}, func() any {
		return &Handle{base: base, registry: For(base.Host())}
	}).(*Handle)
}

func (h *Handle) connect() error {
	return h.base.OnDeactivated("recipes_deactivation",
		fmt.Sprintf("Deactivate recipes for %s", h.base.Name()),
		h.unregisterAll)
}

// Register adds a recipe at path owned by the plugin.
func (h *Handle) Register(name, path, description, finalWords string) (*Recipe, error) {
	if err := h.connect(); err != nil {
		return nil, err
	}
	return h.registry.Register(name, path, h.base.Plugin(), description, finalWords)
}

// RegisterFS adds a recipe backed by fsys owned by the plugin.
func (h *Handle) RegisterFS(name string, fsys fs.FS, description, finalWords string) (*Recipe, error) {
	if err := h.connect(); err != nil {
		return nil, err
	}
	return h.registry.RegisterFS(name, fsys, h.base.Plugin(), description, finalWords)
}

// Unregister removes a recipe.
func (h *Handle) Unregister(name string) {
	h.registry.Unregister(name)
}

// Get returns a recipe registered by the plugin.
func (h *Handle) Get(name string) (*Recipe, bool) {
	return h.registry.Get(name, h.base.Plugin())
}

// List returns the recipes registered by the plugin.
func (h *Handle) List() map[string]*Recipe {
	return h.registry.List(h.base.Plugin())
}

// Build builds one of the plugin's recipes.
func (h *Handle) Build(ctx context.Context, name string, opts BuildOptions) (string, error) {
	return h.registry.Build(ctx, name, h.base.Plugin(), opts)
}

func (h *Handle) unregisterAll() error {
	for _, name := range h.registry.Names(h.base.Plugin()) {
		h.registry.Unregister(name)
	}
	return nil
}

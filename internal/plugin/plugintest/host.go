// Package plugintest provides a minimal plugin.Host for tests of plugin
// capabilities.
package plugintest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/groundwork/internal/logger"
	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
	"github.com/alexisbeaulieu97/groundwork/internal/signals"
)

// Host is an in-memory application with the lifecycle signals registered.
type Host struct {
	mu       sync.Mutex
	name     string
	path     string
	strict   bool
	log      *logger.Logger
	bus      *signals.Bus
	manager  *plugin.Manager
	attached map[any]any
}

// NewHost creates a strict host rooted at t.TempDir().
func NewHost(t testing.TB) *Host {
	t.Helper()
	host := &Host{
		name:     "test app",
		path:     t.TempDir(),
		strict:   true,
		log:      logger.Nop(),
		bus:      signals.NewBus(nil),
		attached: make(map[any]any),
	}
	host.manager = plugin.NewManager(host)

	for _, name := range []string{
		signals.PluginActivatePre,
		signals.PluginActivatePost,
		signals.PluginDeactivatePre,
		signals.PluginDeactivatePost,
	} {
		_, err := host.bus.Register(name, host, "")
		require.NoError(t, err)
	}
	return host
}

func (h *Host) Name() string             { return h.name }
func (h *Host) Path() string             { return h.path }
func (h *Host) Strict() bool             { return h.strict }
func (h *Host) Logger() *logger.Logger   { return h.log }
func (h *Host) Signals() *signals.Bus    { return h.bus }
func (h *Host) Plugins() *plugin.Manager { return h.manager }

// Attach implements plugin.Host.
func (h *Host) Attach(key any, create func() any) any {
	h.mu.Lock()
	defer h.mu.Unlock()
	if value, ok := h.attached[key]; ok {
		return value
	}
	value := create()
	h.attached[key] = value
	return value
}

// Plugin is a plugin whose activation and deactivation run the supplied functions.
type Plugin struct {
	plugin.Base
	ActivateFn   func(p *Plugin) error
	DeactivateFn func(p *Plugin) error
}

// NewPlugin initialises a Plugin named name on host.
func NewPlugin(t testing.TB, host plugin.Host, name string, activate func(p *Plugin) error) *Plugin {
	t.Helper()
	p := &Plugin{ActivateFn: activate}
	require.NoError(t, p.Init(host, name, p))
	return p
}

// OnActivate implements plugin.Plugin.
func (p *Plugin) OnActivate() error {
	if p.ActivateFn == nil {
		return nil
	}
	return p.ActivateFn(p)
}

// OnDeactivate implements plugin.Plugin.
func (p *Plugin) OnDeactivate() error {
	if p.DeactivateFn == nil {
		return nil
	}
	return p.DeactivateFn(p)
}

package plugin

import (
	"github.com/alexisbeaulieu97/groundwork/internal/logger"
	"github.com/alexisbeaulieu97/groundwork/internal/signals"
)

// Plugin is the contract every groundwork plugin satisfies.
//
// Concrete plugins embed Base by value, call Base.Init from their constructor
// and override OnActivate and OnDeactivate. NeededPlugins may be overridden
// to declare dependencies statically; otherwise Base.Needs sets them.
type Plugin interface {
	// Name is the instance name, unique within an application.
	Name() string

	// PluginBase exposes the embedded Base. It is promoted automatically
	// when Base is embedded.
	PluginBase() *Base

	// NeededPlugins lists the plugins that must be active before this one.
	NeededPlugins() []string

	// OnActivate is the user-supplied activation routine.
	OnActivate() error

	// OnDeactivate is the user-supplied deactivation routine.
	OnDeactivate() error
}

// Host is the application a plugin is bound to.
type Host interface {
	Name() string
	Path() string
	Strict() bool
	Logger() *logger.Logger
	Signals() *signals.Bus
	Plugins() *Manager

	// Attach returns the application-wide value stored under key, calling
	// create on first use. Capability packages keep their registries here.
	Attach(key any, create func() any) any
}

// Factory constructs a plugin instance bound to host under name.
type Factory func(host Host, name string) (Plugin, error)

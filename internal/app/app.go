// Package app provides the groundwork application container: configuration,
// logging, the signal bus, the plugin manager and the plugin capabilities.
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/alexisbeaulieu97/groundwork/internal/commands"
	"github.com/alexisbeaulieu97/groundwork/internal/config"
	"github.com/alexisbeaulieu97/groundwork/internal/documents"
	"github.com/alexisbeaulieu97/groundwork/internal/logger"
	"github.com/alexisbeaulieu97/groundwork/internal/plugin"
	"github.com/alexisbeaulieu97/groundwork/internal/recipes"
	"github.com/alexisbeaulieu97/groundwork/internal/sharedobjects"
	"github.com/alexisbeaulieu97/groundwork/internal/signals"
	"github.com/alexisbeaulieu97/groundwork/internal/threads"
)

// DefaultName is used when APP_NAME is not configured.
const DefaultName = "NoName App"

var lifecycleSignals = []struct {
	name        string
	description string
}{
	{signals.PluginActivatePre, "Gets send right before activation routine of a plugins will be executed"},
	{signals.PluginActivatePost, "Gets send right after activation routine of a plugins was executed"},
	{signals.PluginDeactivatePre, "Gets send right before deactivation routine of a plugins will be executed"},
	{signals.PluginDeactivatePost, "Gets send right after deactivation routine of a plugins was executed"},
}

// Options configures New.
type Options struct {
	// ConfigFiles are loaded in order, later files override earlier ones.
	ConfigFiles []string
	// Classes are registered after discovery.
	Classes []plugin.Class
	// Policy overrides GROUNDWORK_STRICT and the environment default.
	Policy plugin.Policy
	// Sources are searched for plugin classes.
	Sources []plugin.Source
	// Catalog resolves the symbols of PLUGIN_MANIFESTS files.
	Catalog *plugin.Catalog
	// LogWriter receives log output. Defaults to stdout.
	LogWriter io.Writer
	// LogLevel overrides the level from GROUNDWORK_LOGGING.
	LogLevel string
}

// App is a groundwork application.
type App struct {
	name     string
	path     string
	policy   plugin.Policy
	settings *config.Settings
	log      *logger.Logger
	bus      *signals.Bus
	manager  *plugin.Manager
	tracer   *Tracer

	mu       sync.Mutex
	attached map[any]any
}

var _ plugin.Host = (*App)(nil)

// New loads the configuration and builds the application. Plugins are
// neither initialised nor activated.
func New(opts Options) (*App, error) {
	settings, err := config.Load(opts.ConfigFiles...)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	log, err := newLogger(settings, opts.LogWriter, opts.LogLevel)
	if err != nil {
		return nil, err
	}
	log.Info("initializing groundwork")

	path, err := resolvePath(settings, log)
	if err != nil {
		return nil, err
	}

	a := &App{
		name:     settings.String(config.KeyAppName, ""),
		path:     path,
		policy:   resolvePolicy(opts.Policy, settings),
		settings: settings,
		log:      log,
		attached: make(map[any]any),
	}
	if a.name == "" {
		a.name = DefaultName
	}

	a.bus = signals.NewBus(log.Named("signals"))
	for _, signal := range lifecycleSignals {
		if _, err := a.bus.Register(signal.name, a, signal.description); err != nil {
			return nil, err
		}
	}
	a.tracer = NewTracer(log.Named("lifecycle"))
	if err := a.tracer.Connect(a.bus, a); err != nil {
		return nil, err
	}

	a.manager = plugin.NewManager(a)

	sources, err := a.manifestSources(opts.Catalog)
	if err != nil {
		return nil, err
	}
	if err := a.manager.Classes().Discover(append(opts.Sources, sources...)...); err != nil {
		return nil, err
	}
	if len(opts.Classes) > 0 {
		if err := a.manager.Classes().Register(opts.Classes...); err != nil {
			return nil, err
		}
	}

	log.Debug(fmt.Sprintf("application %s ready at %s (%s)", a.name, a.path, a.policy))
	return a, nil
}

func newLogger(settings *config.Settings, writer io.Writer, level string) (*logger.Logger, error) {
	logging, err := settings.Logging()
	if err != nil {
		return nil, err
	}
	if level != "" {
		logging.Level = level
	}
	root, err := logger.New(logger.Options{
		Level:         logging.Level,
		HumanReadable: logging.HumanReadable,
		Writer:        writer,
	})
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	return root.Named("groundwork"), nil
}

func resolvePath(settings *config.Settings, log *logger.Logger) (string, error) {
	path := settings.String(config.KeyAppPath, "")
	switch {
	case path == "":
		return os.Getwd()
	case !filepath.IsAbs(path):
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		log.Warn(fmt.Sprintf("given APP_PATH is relative, calculated following, absolute path: %s", abs))
		return abs, nil
	default:
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("given APP_PATH does not exist: %s: %w", path, err)
		}
		return path, nil
	}
}

func resolvePolicy(policy plugin.Policy, settings *config.Settings) plugin.Policy {
	if policy != "" {
		return policy
	}
	if parsed, ok := plugin.ParsePolicy(settings.String(config.KeyStrict, "")); ok {
		return parsed
	}
	return plugin.DefaultPolicy()
}

func (a *App) manifestSources(catalog *plugin.Catalog) ([]plugin.Source, error) {
	paths := a.settings.Strings(config.KeyManifests)
	if len(paths) == 0 {
		return nil, nil
	}
	if catalog == nil {
		return nil, errors.New("PLUGIN_MANIFESTS is set but no catalog is available")
	}

	sources := make([]plugin.Source, 0, len(paths))
	for _, path := range paths {
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.path, path)
		}
		sources = append(sources, plugin.NewManifestSource(path, catalog))
	}
	return sources, nil
}

// Name returns APP_NAME.
func (a *App) Name() string { return a.name }

// Path returns the absolute APP_PATH.
func (a *App) Path() string { return a.path }

// Strict reports whether plugin failures abort operations.
func (a *App) Strict() bool { return a.policy.Strict() }

// Policy returns the failure policy.
func (a *App) Policy() plugin.Policy { return a.policy }

// Logger returns the application logger.
func (a *App) Logger() *logger.Logger { return a.log }

// Settings returns the loaded configuration.
func (a *App) Settings() *config.Settings { return a.settings }

// Signals returns the signal bus.
func (a *App) Signals() *signals.Bus { return a.bus }

// Plugins returns the plugin manager.
func (a *App) Plugins() *plugin.Manager { return a.manager }

// Lifecycle returns the tracer recording plugin lifecycle signals.
func (a *App) Lifecycle() *Tracer { return a.tracer }

// Attach implements plugin.Host.
func (a *App) Attach(key any, create func() any) any {
	a.mu.Lock()
	defer a.mu.Unlock()
	if value, ok := a.attached[key]; ok {
		return value
	}
	value := create()
	a.attached[key] = value
	return value
}

// Commands returns the command registry.
func (a *App) Commands() *commands.Registry { return commands.For(a) }

// Documents returns the document registry.
func (a *App) Documents() *documents.Registry { return documents.For(a) }

// SharedObjects returns the shared object registry.
func (a *App) SharedObjects() *sharedobjects.Registry { return sharedobjects.For(a) }

// Recipes returns the recipe registry.
func (a *App) Recipes() *recipes.Registry { return recipes.For(a) }

// Threads returns the thread registry.
func (a *App) Threads() *threads.Registry { return threads.For(a) }

// Initialise constructs the plugins whose classes are registered under names.
func (a *App) Initialise(names ...string) error {
	return a.manager.InitialiseByNames(names...)
}

// Activate activates the named plugins. Names that only exist as classes
// are initialised first.
func (a *App) Activate(names ...string) error {
	return a.manager.Activate(names...)
}

// Deactivate deactivates the named plugins.
func (a *App) Deactivate(names ...string) error {
	return a.manager.Deactivate(names...)
}

// Shutdown deactivates every active plugin in reverse activation order.
func (a *App) Shutdown() error {
	order, err := a.manager.Graph().ActivationOrder()
	if err != nil {
		order = a.manager.Names()
	}

	var active []string
	for i := len(order) - 1; i >= 0; i-- {
		if ok, _ := a.manager.IsActive(order[i]); ok {
			active = append(active, order[i])
		}
	}
	if len(active) == 0 {
		return nil
	}
	return a.manager.Deactivate(active...)
}

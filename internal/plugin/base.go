package plugin

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alexisbeaulieu97/groundwork/internal/logger"
	"github.com/alexisbeaulieu97/groundwork/internal/signals"
)

// Base carries the state and lifecycle shared by every plugin. Embed it by
// value and call Init from the plugin constructor:
//
//	type Greeter struct {
//		plugin.Base
//	}
//
//	func NewGreeter(host plugin.Host, name string) (plugin.Plugin, error) {
//		g := &Greeter{}
//		return g, g.Init(host, name, g)
//	}
type Base struct {
	mu        sync.Mutex
	host      Host
	name      string
	className string
	self      Plugin
	log       *logger.Logger
	signals   *signals.Handle
	state     State
	needed    []string

	attachMu    sync.Mutex
	attachments map[any]any

	cleanupMu sync.Mutex
	cleanups  map[string]func() error
}

// Init binds the plugin to host. self must be the plugin embedding this Base.
func (b *Base) Init(host Host, name string, self Plugin) error {
	if host == nil {
		return fmt.Errorf("plugin '%s' requires a host: %w", name, ErrInvalidArgument)
	}
	if self == nil || self.PluginBase() != b {
		return fmt.Errorf("plugin '%s' must pass itself to Base.Init: %w", name, ErrInvalidArgument)
	}
	if strings.TrimSpace(name) == "" {
		return ErrAttributeMissing{Attribute: "name"}
	}

	b.mu.Lock()
	b.host = host
	b.name = name
	b.self = self
	b.log = host.Logger().Named(name)
	b.signals = signals.NewHandle(host.Signals(), self)
	b.state = StateInitialised
	b.mu.Unlock()

	if err := host.Plugins().track(self); err != nil {
		return err
	}
	b.log.Debug(fmt.Sprintf("plugin %s initialised", name))
	return nil
}

// Name returns the instance name.
func (b *Base) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}

// PluginBase returns b.
func (b *Base) PluginBase() *Base {
	return b
}

// Plugin returns the plugin embedding b. It is the owner of everything the
// plugin registers.
func (b *Base) Plugin() Plugin {
	return b.self
}

// Host returns the application the plugin is bound to.
func (b *Base) Host() Host {
	return b.host
}

// Log returns the plugin logger, named after the plugin.
func (b *Base) Log() *logger.Logger {
	return b.log
}

// Signals returns the plugin-scoped signal handle.
func (b *Base) Signals() *signals.Handle {
	return b.signals
}

// ClassName is the name of the class the plugin was constructed from.
func (b *Base) ClassName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.className
}

// State returns the lifecycle state.
func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Active reports whether the plugin is active.
func (b *Base) Active() bool {
	return b.State() == StateActive
}

// Initialised reports whether Init completed.
func (b *Base) Initialised() bool {
	return b.State() != StateUninitialised
}

// Needs sets the plugins returned by the default NeededPlugins.
func (b *Base) Needs(names ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.needed = append([]string(nil), names...)
}

// NeededPlugins returns the names set with Needs.
func (b *Base) NeededPlugins() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.needed...)
}

// OnActivate is the default activation routine. It only warns.
func (b *Base) OnActivate() error {
	b.log.Warn(fmt.Sprintf("no activation routine defined for %s, plugin does nothing", b.Name()))
	return nil
}

// OnDeactivate is the default deactivation routine. It only warns.
func (b *Base) OnDeactivate() error {
	b.log.Warn(fmt.Sprintf("no deactivation routine defined for %s", b.Name()))
	return nil
}

// Attach returns the per-plugin value stored under key, calling create on
// first use.
func (b *Base) Attach(key any, create func() any) any {
	b.attachMu.Lock()
	defer b.attachMu.Unlock()
	if b.attachments == nil {
		b.attachments = make(map[any]any)
	}
	if value, ok := b.attachments[key]; ok {
		return value
	}
	value := create()
	b.attachments[key] = value
	return value
}

// OnDeactivated connects fn to plugin_deactivate_post for this plugin only,
// as receiver "<plugin>_<suffix>". It is a no-op while the receiver is
// connected; deactivation tears it down, so callers reconnect on next use.
func (b *Base) OnDeactivated(suffix, description string, fn func() error) error {
	name := fmt.Sprintf("%s_%s", b.Name(), suffix)
	if _, ok := b.signals.GetReceiver(name); ok {
		return nil
	}
	b.cleanupMu.Lock()
	if b.cleanups == nil {
		b.cleanups = make(map[string]func() error)
	}
	b.cleanups[name] = fn
	b.cleanupMu.Unlock()

	_, err := b.signals.Connect(name, signals.PluginDeactivatePost, func(signals.Owner, signals.Payload) (any, error) {
		return nil, fn()
	}, description, b.self)
	return err
}

// Activate activates the plugin and the plugins it needs.
func (b *Base) Activate() error {
	return b.activate(newResolving())
}

// Deactivate runs the deactivation routine and removes every signal and
// receiver the plugin owns.
func (b *Base) Deactivate() error {
	if !b.Initialised() {
		return ErrBaseNotInitialised{Type: fmt.Sprintf("%T", b.self)}
	}
	if !b.Active() {
		b.log.Warn(fmt.Sprintf("plugin %s is not active and can not be deactivated", b.Name()))
		return nil
	}

	if _, err := b.host.Signals().Send(signals.PluginDeactivatePre, b.self, nil); err != nil {
		return err
	}
	if err := callHook(b.self.OnDeactivate); err != nil {
		return err
	}
	return b.postDeactivate()
}

func (b *Base) activate(resolving *Resolving) error {
	if !b.Initialised() {
		return ErrBaseNotInitialised{Type: fmt.Sprintf("%T", b.self)}
	}
	if b.Active() {
		return ErrAlreadyActive{Plugin: b.Name()}
	}

	proceed, err := b.preActivate(resolving)
	if err != nil || !proceed {
		return err
	}
	if err := callHook(b.self.OnActivate); err != nil {
		b.rollback()
		return err
	}
	return b.postActivate()
}

func (b *Base) preActivate(resolving *Resolving) (bool, error) {
	if err := b.ensureClass(); err != nil {
		return false, err
	}

	resolved, err := b.resolveNeeded(resolving)
	if err != nil || !resolved {
		return false, err
	}

	if _, err := b.host.Signals().Send(signals.PluginActivatePre, b.self, nil); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Base) postActivate() error {
	b.setState(StateActive)
	b.log.Debug(fmt.Sprintf("plugin %s activated", b.Name()))
	_, err := b.host.Signals().Send(signals.PluginActivatePost, b.self, nil)
	return err
}

func (b *Base) postDeactivate() error {
	b.setState(StateInactive)
	_, sendErr := b.host.Signals().Broadcast(signals.PluginDeactivatePost, b.self, nil)
	teardownErr := b.signals.Teardown()
	b.takeCleanups()
	b.log.Debug(fmt.Sprintf("plugin %s deactivated", b.Name()))
	return errors.Join(sendErr, teardownErr)
}

// rollback undoes what a failed OnActivate registered, so the plugin can be
// activated again. Third-party receivers are not told: the plugin never
// became active.
func (b *Base) rollback() {
	for name, fn := range b.takeCleanups() {
		if err := callHook(fn); err != nil {
			b.log.Error(err, fmt.Sprintf("cleanup %s failed after activation error", name))
		}
	}
	if err := b.signals.Teardown(); err != nil {
		b.log.Error(err, "signal teardown failed after activation error")
	}
}

func (b *Base) takeCleanups() map[string]func() error {
	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()
	cleanups := b.cleanups
	b.cleanups = nil
	return cleanups
}

// ensureClass registers the plugin's own type when it was constructed by
// hand rather than through a registered class.
func (b *Base) ensureClass() error {
	classes := b.host.Plugins().Classes()
	if name := b.ClassName(); name != "" && classes.Exist(name) {
		return nil
	}

	class, err := ClassOf(b.self)
	if err != nil {
		return err
	}
	if !classes.Exist(class.Name) {
		if err := classes.Register(class); err != nil {
			return err
		}
	}

	b.mu.Lock()
	b.className = class.Name
	b.mu.Unlock()
	return nil
}

// resolveNeeded activates the needed plugins. It reports false when this
// activation re-entered a plugin still resolving and must be abandoned.
func (b *Base) resolveNeeded(resolving *Resolving) (bool, error) {
	name := b.Name()
	if resolving.Has(name) {
		loop := ErrDependencyLoop{Plugin: name, Chain: resolving.Chain()}
		b.log.Warn(loop.Error())
		if b.host.Strict() {
			return false, loop
		}
		return false, nil
	}

	resolving.Push(name)
	defer resolving.Pop()

	for _, dependency := range b.self.NeededPlugins() {
		if err := b.host.Plugins().activateDependency(name, dependency, resolving); err != nil {
			return false, fmt.Errorf("resolve needed plugin '%s': %w", dependency, err)
		}
	}
	return true, nil
}

func (b *Base) setState(state State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = state
}

func (b *Base) rename(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.name = name
	b.log = b.host.Logger().Named(name)
}

func (b *Base) setClassName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.className = name
}

// callHook runs user lifecycle code, turning a panic into an error.
func callHook(hook func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	return hook()
}

// Resolving is the set of plugins currently resolving their needed plugins
// within one top-level activation.
type Resolving struct {
	chain []string
}

func newResolving() *Resolving {
	return &Resolving{}
}

// Has reports whether name is resolving.
func (r *Resolving) Has(name string) bool {
	for _, entry := range r.chain {
		if entry == name {
			return true
		}
	}
	return false
}

// Chain returns the resolving plugins in activation order.
func (r *Resolving) Chain() []string {
	return append([]string(nil), r.chain...)
}

// Push marks name as resolving.
func (r *Resolving) Push(name string) {
	r.chain = append(r.chain, name)
}

// Pop removes the most recently pushed name.
func (r *Resolving) Pop() {
	if len(r.chain) > 0 {
		r.chain = r.chain[:len(r.chain)-1]
	}
}

package plugin

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/alexisbeaulieu97/groundwork/internal/logger"
)

// Manager owns the plugin instances of one application and drives their
// lifecycle.
type Manager struct {
	mu      sync.RWMutex
	host    Host
	classes *ClassRegistry
	plugins map[string]Plugin
	log     *logger.Logger
}

// NewManager creates a manager for host.
func NewManager(host Host) *Manager {
	log := host.Logger().Named("plugins")
	return &Manager{
		host:    host,
		classes: NewClassRegistry(host.Strict(), log.Named("classes")),
		plugins: make(map[string]Plugin),
		log:     log,
	}
}

// Classes returns the class registry.
func (m *Manager) Classes() *ClassRegistry {
	return m.classes
}

// InitialiseByNames constructs one instance per name, using the class
// registered under the same name.
func (m *Manager) InitialiseByNames(names ...string) error {
	if err := validateNames(names); err != nil {
		return err
	}

	for _, name := range names {
		class, ok := m.classes.Get(name)
		if !ok {
			return &NotInitialisableError{Name: name, Err: ErrPluginNotFound{Name: name}}
		}
		if _, err := m.Initialise(class, name); err != nil {
			return err
		}
	}
	return nil
}

// Initialise constructs an instance of class named name. An empty name uses
// the class name.
func (m *Manager) Initialise(class Class, name string) (Plugin, error) {
	if err := class.Validate(); err != nil {
		return nil, &NotInitialisableError{Name: name, Class: class.Name, Err: err}
	}
	if name == "" {
		name = class.Name
	}
	if existing, ok := m.Get(name); ok {
		return nil, &NotInitialisableError{
			Name:  name,
			Class: class.Name,
			Err:   &RegistrationError{Name: existing.Name(), Kind: "instance"},
		}
	}

	instance, err := construct(class.New, m.host, name)
	if err == nil && instance == nil {
		err = errors.New("factory returned no plugin")
	}
	if err != nil {
		m.forget(name, nil)
		m.log.Warn(fmt.Sprintf("plugin %s could not be initialised: %v", name, err))
		return nil, &NotInitialisableError{Name: name, Class: class.Name, Err: err}
	}

	base := instance.PluginBase()
	if base == nil || !base.Initialised() {
		m.forget(name, instance)
		notInitialised := ErrBaseNotInitialised{Plugin: name, Type: fmt.Sprintf("%T", instance)}
		m.log.Error(notInitialised, "plugin base was not initialised")
		m.log.Debug(fmt.Sprintf("composition of %s: %s", name, strings.Join(composition(instance), " -> ")))
		return nil, &NotInitialisableError{Name: name, Class: class.Name, Err: notInitialised}
	}

	if base.Name() != name {
		m.log.Warn(fmt.Sprintf("plugin constructed as %s, renaming to %s", base.Name(), name))
		m.forget(base.Name(), instance)
		base.rename(name)
	}
	base.setClassName(class.Name)
	if err := m.track(instance); err != nil {
		return nil, &NotInitialisableError{Name: name, Class: class.Name, Err: err}
	}

	m.log.Debug(fmt.Sprintf("plugin %s initialised from class %s", name, class.Name))
	return instance, nil
}

// Activate activates the named plugins, constructing them from their class
// first when needed. In strict mode the first failure aborts the batch; in
// lenient mode failures are logged, the batch continues and the runtime
// failures are returned joined.
func (m *Manager) Activate(names ...string) error {
	if err := validateNames(names); err != nil {
		return err
	}

	var errs []error
	var activated []string
	for _, name := range names {
		done, err := m.activateOne(name)
		if err != nil {
			if m.host.Strict() || isFatal(err) {
				return err
			}
			m.log.Error(err, "plugin activation failed")
			errs = append(errs, err)
			continue
		}
		if done {
			activated = append(activated, name)
		}
	}

	if len(activated) > 0 {
		m.log.Info(fmt.Sprintf("plugins activated: %s", strings.Join(activated, ", ")))
	}
	return errors.Join(errs...)
}

func (m *Manager) activateOne(name string) (bool, error) {
	instance, ok := m.Get(name)
	if !ok {
		class, found := m.classes.Get(name)
		if !found {
			notFound := ErrPluginNotFound{Name: name}
			m.log.Warn(fmt.Sprintf("plugin %s is unknown and can not be activated", name))
			if m.host.Strict() {
				return false, notFound
			}
			return false, nil
		}

		var err error
		if instance, err = m.Initialise(class, name); err != nil {
			return false, err
		}
	}

	base := instance.PluginBase()
	if base.Active() {
		m.log.Warn(fmt.Sprintf("plugin %s is already active", name))
		if m.host.Strict() {
			return false, ErrAlreadyActive{Plugin: name}
		}
		return false, nil
	}

	if err := base.Activate(); err != nil {
		if isFatal(err) {
			return false, err
		}
		return false, &NotActivatableError{Name: name, Err: err}
	}
	return base.Active(), nil
}

// activateDependency makes sure dependency is active while plugin resolves
// its needed plugins.
func (m *Manager) activateDependency(plugin, dependency string, resolving *Resolving) error {
	instance, ok := m.Get(dependency)
	if !ok {
		class, found := m.classes.Get(dependency)
		if !found {
			missing := ErrMissingDependency{Plugin: plugin, Dependency: dependency}
			m.log.Warn(missing.Error())
			if m.host.Strict() {
				return missing
			}
			return nil
		}

		var err error
		if instance, err = m.Initialise(class, dependency); err != nil {
			return err
		}
	}

	base := instance.PluginBase()
	if base.Active() {
		return nil
	}
	if err := base.activate(resolving); err != nil {
		var loop ErrDependencyLoop
		if errors.As(err, &loop) || isFatal(err) {
			return err
		}
		return &NotActivatableError{Name: dependency, Err: err}
	}
	return nil
}

// Deactivate deactivates the named plugins. Unknown and inactive plugins
// are skipped.
func (m *Manager) Deactivate(names ...string) error {
	if err := validateNames(names); err != nil {
		return err
	}

	var errs []error
	var deactivated []string
	for _, name := range names {
		instance, ok := m.Get(name)
		if !ok {
			m.log.Warn(fmt.Sprintf("plugin %s is unknown and can not be deactivated", name))
			continue
		}
		base := instance.PluginBase()
		if !base.Active() {
			m.log.Warn(fmt.Sprintf("plugin %s is not active", name))
			continue
		}

		if err := base.Deactivate(); err != nil {
			wrapped := &NotDeactivatableError{Name: name, Err: err}
			if m.host.Strict() {
				return wrapped
			}
			m.log.Error(wrapped, "plugin deactivation failed")
			errs = append(errs, wrapped)
			continue
		}
		deactivated = append(deactivated, name)
	}

	if len(deactivated) > 0 {
		m.log.Info(fmt.Sprintf("plugins deactivated: %s", strings.Join(deactivated, ", ")))
	}
	return errors.Join(errs...)
}

// Get returns the instance registered under name.
func (m *Manager) Get(name string) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	instance, ok := m.plugins[name]
	return instance, ok
}

// Exist reports whether an instance is registered under name.
func (m *Manager) Exist(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// IsActive reports whether name is active. known is false for unknown names.
func (m *Manager) IsActive(name string) (active bool, known bool) {
	instance, ok := m.Get(name)
	if !ok {
		return false, false
	}
	return instance.PluginBase().Active(), true
}

// All returns a copy of the registered instances.
func (m *Manager) All() map[string]Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Plugin, len(m.plugins))
	for name, instance := range m.plugins {
		out[name] = instance
	}
	return out
}

// Names returns the instance names sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.plugins))
	for name := range m.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Graph builds the dependency graph of the registered instances.
func (m *Manager) Graph() *DependencyGraph {
	graph := NewDependencyGraph()
	for name, instance := range m.All() {
		graph.AddPlugin(name)
		for _, dependency := range instance.NeededPlugins() {
			graph.AddNeed(name, dependency)
		}
	}
	return graph
}

func (m *Manager) track(instance Plugin) error {
	name := instance.Name()

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.plugins[name]; ok && existing != instance {
		return &RegistrationError{Name: name, Kind: "instance"}
	}
	m.plugins[name] = instance
	return nil
}

// forget drops name unless it belongs to a different instance than owner.
// A nil owner drops whatever was tracked during a failed construction.
func (m *Manager) forget(name string, owner Plugin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.plugins[name]
	if !ok || (owner != nil && existing != owner) {
		return
	}
	delete(m.plugins, name)
}

func construct(factory Factory, host Host, name string) (instance Plugin, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			instance, err = nil, fmt.Errorf("panic: %v", recovered)
		}
	}()
	return factory(host, name)
}

func validateNames(names []string) error {
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("plugin name must not be empty: %w", ErrInvalidArgument)
		}
	}
	return nil
}

// composition lists the type of instance followed by its embedded types.
func composition(instance any) []string {
	var chain []string
	typ := reflect.TypeOf(instance)
	for typ != nil {
		if typ.Kind() == reflect.Ptr {
			typ = typ.Elem()
		}
		chain = append(chain, typ.String())
		if typ.Kind() != reflect.Struct {
			break
		}

		var next reflect.Type
		for i := 0; i < typ.NumField(); i++ {
			if field := typ.Field(i); field.Anonymous {
				next = field.Type
				break
			}
		}
		typ = next
	}
	return chain
}

package plugin

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/alexisbeaulieu97/groundwork/internal/logger"
)

// Distribution identifies the package a discovered class came from.
type Distribution struct {
	Key     string `yaml:"key" validate:"required"`
	Version string `yaml:"version" validate:"omitempty,semver"`
	Path    string `yaml:"path"`
}

// Class describes a constructible plugin type.
type Class struct {
	Name string
	New  Factory

	// Provenance, set for classes found through discovery.
	EntryPoint   string
	Distribution *Distribution
}

// Validate checks that the class can construct plugins.
func (c Class) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrInvalidClass{Reason: "class name is empty"}
	}
	if c.New == nil {
		return ErrInvalidClass{Name: c.Name, Reason: "class has no factory"}
	}
	return nil
}

// ClassOf derives a class from a prototype value such as (*MyPlugin)(nil).
// The produced factory allocates a zero value of the type and runs Base.Init
// on it, so types that need their own constructor should register a Class.
func ClassOf(prototype Plugin) (Class, error) {
	typ := reflect.TypeOf(prototype)
	if typ == nil || typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		return Class{}, ErrInvalidClass{Reason: fmt.Sprintf("%T is not a pointer to a struct", prototype)}
	}
	elem := typ.Elem()

	return Class{
		Name: elem.Name(),
		New: func(host Host, name string) (Plugin, error) {
			instance, ok := reflect.New(elem).Interface().(Plugin)
			if !ok {
				return nil, ErrInvalidClass{Name: elem.Name(), Reason: "type does not implement Plugin"}
			}
			base := instance.PluginBase()
			if base == nil {
				return nil, ErrInvalidClass{Name: elem.Name(), Reason: "Base must be embedded by value"}
			}
			if err := base.Init(host, name, instance); err != nil {
				return nil, err
			}
			return instance, nil
		},
	}, nil
}

// ClassRegistry keeps the plugin classes known to an application.
type ClassRegistry struct {
	mu      sync.RWMutex
	classes map[string]Class
	strict  bool
	log     *logger.Logger
}

// NewClassRegistry creates an empty registry using the given policy.
func NewClassRegistry(strict bool, log *logger.Logger) *ClassRegistry {
	return &ClassRegistry{
		classes: make(map[string]Class),
		strict:  strict,
		log:     log,
	}
}

// Register adds classes. Invalid or duplicate classes are errors in strict
// mode and are logged and skipped otherwise.
func (r *ClassRegistry) Register(classes ...Class) error {
	var registered []string
	for _, class := range classes {
		if err := r.add(class); err != nil {
			r.log.Warn(err.Error())
			if r.strict {
				return err
			}
			continue
		}
		registered = append(registered, class.Name)
	}

	if len(registered) > 0 {
		r.log.Debug(fmt.Sprintf("plugin classes registered: %s", strings.Join(registered, ", ")))
	}
	return nil
}

// RegisterType registers the class derived from prototype with ClassOf.
func (r *ClassRegistry) RegisterType(prototype Plugin) error {
	class, err := ClassOf(prototype)
	if err != nil {
		r.log.Warn(err.Error())
		if r.strict {
			return err
		}
		return nil
	}
	return r.Register(class)
}

func (r *ClassRegistry) add(class Class) error {
	if err := class.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.classes[class.Name]; exists {
		return &RegistrationError{Name: class.Name, Kind: "class"}
	}
	r.classes[class.Name] = class
	return nil
}

// Get returns the class registered under name.
func (r *ClassRegistry) Get(name string) (Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	class, ok := r.classes[name]
	return class, ok
}

// Exist reports whether a class is registered under name.
func (r *ClassRegistry) Exist(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// All returns a copy of every registered class.
func (r *ClassRegistry) All() map[string]Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Class, len(r.classes))
	for name, class := range r.classes {
		out[name] = class
	}
	return out
}

// Names returns the registered class names sorted.
func (r *ClassRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package sharedobjects lets plugins publish arbitrary values under a name
// so other plugins can use them without importing the publisher.
package sharedobjects

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/groundwork/internal/logger"
	"github.com/alexisbeaulieu97/groundwork/internal/registry"
)

// ErrNotRegistered is returned by Access for unknown names.
type ErrNotRegistered struct {
	Name string
}

func (e ErrNotRegistered) Error() string {
	return fmt.Sprintf("no shared object registered as %s", e.Name)
}

// ErrObjectExists is returned when a shared object name is already taken.
type ErrObjectExists struct {
	Name  string
	Owner string
}

func (e ErrObjectExists) Error() string {
	return fmt.Sprintf("shared object %s already registered by %s", e.Name, e.Owner)
}

// SharedObject wraps a value published by a plugin.
type SharedObject struct {
	Name        string
	Description string
	Object      any

	owner registry.Owner
}

// Owner returns whoever registered the object.
func (s *SharedObject) Owner() registry.Owner {
	return s.owner
}

// Registry holds the shared objects of an application.
type Registry struct {
	objects *registry.Store[*SharedObject]
	log     *logger.Logger
}

// NewRegistry creates an empty shared object registry.
func NewRegistry(log *logger.Logger) *Registry {
	log.Debug("application shared objects initialised")
	return &Registry{
		objects: registry.NewStore[*SharedObject]("shared object"),
		log:     log,
	}
}

// Register publishes obj under name.
func (r *Registry) Register(name, description string, obj any, owner registry.Owner) (*SharedObject, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("shared object name must not be empty")
	}
	if owner == nil {
		return nil, fmt.Errorf("shared object %s requires an owner", name)
	}

	shared := &SharedObject{
		Name:        name,
		Description: description,
		Object:      obj,
		owner:       owner,
	}
	if err := r.objects.Add(name, shared); err != nil {
		var exists registry.ErrExists
		if errors.As(err, &exists) {
			return nil, ErrObjectExists{Name: name, Owner: exists.Owner}
		}
		return nil, err
	}

	r.log.Debug(fmt.Sprintf("shared object registered: %s", name))
	return shared, nil
}

// Unregister removes a shared object. Unknown names are only logged.
func (r *Registry) Unregister(name string) {
	if _, ok := r.objects.Remove(name); !ok {
		r.log.Warn(fmt.Sprintf("can not unregister shared object %s", name))
		return
	}
	r.log.Debug(fmt.Sprintf("shared object %s got unregistered", name))
}

// Get returns a shared object, restricted to owner when owner is non-nil.
func (r *Registry) Get(name string, owner registry.Owner) (*SharedObject, bool) {
	return r.objects.Get(name, owner)
}

// List returns all shared objects, or those of owner when owner is non-nil.
func (r *Registry) List(owner registry.Owner) map[string]*SharedObject {
	return r.objects.List(owner)
}

// Names returns the sorted shared object names of owner (all when nil).
func (r *Registry) Names(owner registry.Owner) []string {
	return r.objects.Names(owner)
}

// Access returns the value published under name, regardless of its owner.
func (r *Registry) Access(name string) (any, error) {
	shared, ok := r.objects.Get(name, nil)
	if !ok {
		return nil, ErrNotRegistered{Name: name}
	}
	return shared.Object, nil
}

// AccessAs returns the value published under name as a T.
func AccessAs[T any](r *Registry, name string) (T, error) {
	var zero T
	obj, err := r.Access(name)
	if err != nil {
		return zero, err
	}
	value, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("shared object %s is %T, not %T", name, obj, zero)
	}
	return value, nil
}

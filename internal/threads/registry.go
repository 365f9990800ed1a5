package threads

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/groundwork/internal/logger"
	"github.com/alexisbeaulieu97/groundwork/internal/registry"
)

// ErrThreadExists is returned when a thread name is already taken.
type ErrThreadExists struct {
	Name  string
	Owner string
}

func (e ErrThreadExists) Error() string {
	return fmt.Sprintf("thread %s was already registered by %s", e.Name, e.Owner)
}

// Registry holds the threads of an application.
type Registry struct {
	threads *registry.Store[*Thread]
	log     *logger.Logger
}

// NewRegistry creates an empty thread registry.
func NewRegistry(log *logger.Logger) *Registry {
	log.Debug("application threads initialised")
	return &Registry{
		threads: registry.NewStore[*Thread]("thread"),
		log:     log,
	}
}

// Register stores fn as a thread named name. The thread is not started.
func (r *Registry) Register(name string, fn Func, owner registry.Owner, description string) (*Thread, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("thread name must not be empty")
	}
	if fn == nil {
		return nil, fmt.Errorf("thread %s has no function", name)
	}
	if owner == nil {
		return nil, fmt.Errorf("thread %s requires an owner", name)
	}

	thread := &Thread{
		Name:        name,
		Description: description,
		Function:    fn,
		owner:       owner,
	}
	if err := r.threads.Add(name, thread); err != nil {
		var exists registry.ErrExists
		if errors.As(err, &exists) {
			return nil, ErrThreadExists{Name: name, Owner: exists.Owner}
		}
		return nil, err
	}

	r.log.Debug(fmt.Sprintf("thread %s registered by %s", name, owner.Name()))
	return thread, nil
}

// Unregister removes a thread and stops it if it is running. Unknown names
// are only logged.
func (r *Registry) Unregister(name string) {
	thread, ok := r.threads.Remove(name)
	if !ok {
		r.log.Warn(fmt.Sprintf("can not unregister thread %s", name))
		return
	}
	thread.Stop()
	r.log.Debug(fmt.Sprintf("thread %s got unregistered", name))
}

// Get returns a thread, restricted to owner when owner is non-nil.
func (r *Registry) Get(name string, owner registry.Owner) (*Thread, bool) {
	return r.threads.Get(name, owner)
}

// List returns all threads, or those of owner when owner is non-nil.
func (r *Registry) List(owner registry.Owner) map[string]*Thread {
	return r.threads.List(owner)
}

// Names returns the sorted thread names of owner (all when nil).
func (r *Registry) Names(owner registry.Owner) []string {
	return r.threads.Names(owner)
}

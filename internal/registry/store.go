package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Owner identifies whoever registered an entity. Plugins and the application
// itself are owners. Owners are compared by identity.
type Owner interface {
	Name() string
}

// Owned is implemented by every entity kept in a Store.
type Owned interface {
	Owner() Owner
}

// ErrExists is returned when a name is already taken in a Store.
type ErrExists struct {
	Kind  string
	Name  string
	Owner string
}

func (e ErrExists) Error() string {
	if e.Owner == "" {
		return fmt.Sprintf("%s '%s' already registered", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s '%s' already registered by %s", e.Kind, e.Name, e.Owner)
}

// Lookup returns the entity stored under name. When owner is non-nil the
// entity is only returned if it was registered by that owner.
func Lookup[T Owned](items map[string]T, name string, owner Owner) (T, bool) {
	var zero T
	item, ok := items[name]
	if !ok {
		return zero, false
	}
	if owner != nil && item.Owner() != owner {
		return zero, false
	}
	return item, true
}

// Filter returns a copy of items, restricted to the entities of owner when
// owner is non-nil.
func Filter[T Owned](items map[string]T, owner Owner) map[string]T {
	result := make(map[string]T, len(items))
	for name, item := range items {
		if owner != nil && item.Owner() != owner {
			continue
		}
		result[name] = item
	}
	return result
}

// Store is a name keyed collection of owned entities.
type Store[T Owned] struct {
	mu    sync.RWMutex
	kind  string
	items map[string]T
}

// NewStore creates an empty store. kind is used in error messages.
func NewStore[T Owned](kind string) *Store[T] {
	return &Store[T]{
		kind:  kind,
		items: make(map[string]T),
	}
}

// Add stores item under name. Names are unique across all owners.
func (s *Store[T]) Add(name string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.items[name]; ok {
		return ErrExists{Kind: s.kind, Name: name, Owner: ownerName(existing.Owner())}
	}
	s.items[name] = item
	return nil
}

// Remove deletes the entity stored under name and returns it.
func (s *Store[T]) Remove(name string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[name]
	if ok {
		delete(s.items, name)
	}
	return item, ok
}

// Get returns a single entity, see Lookup.
func (s *Store[T]) Get(name string, owner Owner) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Lookup(s.items, name, owner)
}

// List returns all entities, or the entities of owner when owner is non-nil.
func (s *Store[T]) List(owner Owner) map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Filter(s.items, owner)
}

// Names returns the sorted names of the entities of owner (all when nil).
func (s *Store[T]) Names(owner Owner) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.items))
	for name, item := range s.items {
		if owner != nil && item.Owner() != owner {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (s *Store[T]) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[name]
	return ok
}

// Len returns the number of stored entities.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func ownerName(owner Owner) string {
	if owner == nil {
		return ""
	}
	return owner.Name()
}

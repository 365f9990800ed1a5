package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// EntryPointGroup is the discovery group plugin classes are published under.
const EntryPointGroup = "groundwork.plugin"

// Loader produces the value published by an entry: a Class, a *Class or a Factory.
type Loader interface {
	Load() (any, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func() (any, error)

// Load calls f.
func (f LoaderFunc) Load() (any, error) {
	return f()
}

// Entry is one published plugin class.
type Entry struct {
	Name         string
	Distribution *Distribution
	Loader       Loader
}

// Load resolves the entry.
func (e Entry) Load() (any, error) {
	if e.Loader == nil {
		return nil, fmt.Errorf("entry '%s' has no loader", e.Name)
	}
	return e.Loader.Load()
}

// Source lists the entries published under a group.
type Source interface {
	Entries(group string) ([]Entry, error)
}

// Discover loads every entry of EntryPointGroup from sources and registers
// the resulting classes. Entries that fail to load are logged and skipped.
func (r *ClassRegistry) Discover(sources ...Source) error {
	for _, source := range sources {
		entries, err := source.Entries(EntryPointGroup)
		if err != nil {
			r.log.Error(err, "plugin source could not be read")
			continue
		}

		for _, entry := range entries {
			value, err := entry.Load()
			if err != nil {
				r.log.Debug(fmt.Sprintf("plugin entry %s could not be loaded: %v", entry.Name, err))
				continue
			}

			class, err := classFromEntry(entry, value)
			if err != nil {
				r.log.Warn(err.Error())
				if r.strict {
					return err
				}
				continue
			}
			if err := r.Register(class); err != nil {
				return err
			}
		}
	}
	return nil
}

func classFromEntry(entry Entry, value any) (Class, error) {
	var class Class
	switch v := value.(type) {
	case Class:
		class = v
	case *Class:
		if v == nil {
			return Class{}, ErrInvalidClass{Name: entry.Name, Reason: "entry published a nil class"}
		}
		class = *v
	case Factory:
		class = Class{Name: entry.Name, New: v}
	case func(Host, string) (Plugin, error):
		class = Class{Name: entry.Name, New: v}
	default:
		return Class{}, ErrInvalidClass{Name: entry.Name, Reason: fmt.Sprintf("entry published %T, not a plugin class", value)}
	}

	if class.Name == "" {
		class.Name = entry.Name
	}
	class.EntryPoint = entry.Name
	class.Distribution = entry.Distribution
	return class, nil
}

// Catalog is an in-process Source. Plugin packages publish their classes
// into a catalog, usually from the command that assembles the application.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]map[string]Entry
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]map[string]Entry)}
}

// Publish adds value under name to group. value must be a Class, *Class or Factory.
func (c *Catalog) Publish(group, name string, value any, distribution *Distribution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[group] == nil {
		c.entries[group] = make(map[string]Entry)
	}
	c.entries[group][name] = Entry{
		Name:         name,
		Distribution: distribution,
		Loader:       LoaderFunc(func() (any, error) { return value, nil }),
	}
}

// PublishClass publishes class under the plugin group.
func (c *Catalog) PublishClass(class Class, distribution *Distribution) {
	c.Publish(EntryPointGroup, class.Name, class, distribution)
}

// Lookup returns the entry published under name in group.
func (c *Catalog) Lookup(group, name string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[group][name]
	return entry, ok
}

// Entries implements Source. Entries are sorted by name.
func (c *Catalog) Entries(group string) ([]Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entries := make([]Entry, 0, len(c.entries[group]))
	for _, entry := range c.entries[group] {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

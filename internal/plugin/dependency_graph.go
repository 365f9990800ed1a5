package plugin

import (
	"fmt"
	"slices"
	"sort"
)

// DependencyGraph records which plugins need which. Edges point from a
// plugin to the plugins it needs.
type DependencyGraph struct {
	needs    map[string]map[string]struct{}
	neededBy map[string]map[string]struct{}
}

// NewDependencyGraph creates an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		needs:    make(map[string]map[string]struct{}),
		neededBy: make(map[string]map[string]struct{}),
	}
}

// AddPlugin adds a node without edges.
func (g *DependencyGraph) AddPlugin(name string) {
	if _, ok := g.needs[name]; ok {
		return
	}
	g.needs[name] = make(map[string]struct{})
	g.neededBy[name] = make(map[string]struct{})
}

// AddNeed records that plugin needs dependency.
func (g *DependencyGraph) AddNeed(plugin, dependency string) {
	g.AddPlugin(plugin)
	g.AddPlugin(dependency)
	g.needs[plugin][dependency] = struct{}{}
	g.neededBy[dependency][plugin] = struct{}{}
}

// Has reports whether name is part of the graph.
func (g *DependencyGraph) Has(name string) bool {
	if g == nil {
		return false
	}
	_, ok := g.needs[name]
	return ok
}

// Plugins returns all node names sorted.
func (g *DependencyGraph) Plugins() []string {
	return sortedKeys(g.needs)
}

// Needs returns the sorted plugins needed by name.
func (g *DependencyGraph) Needs(name string) []string {
	return sortedKeys(g.needs[name])
}

// NeededBy returns the sorted plugins that need name.
func (g *DependencyGraph) NeededBy(name string) []string {
	return sortedKeys(g.neededBy[name])
}

// Cycle returns one dependency cycle, or nil when the graph is acyclic.
func (g *DependencyGraph) Cycle() []string {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)
	var path, cycle []string

	var visit func(node string) bool
	visit = func(node string) bool {
		visited[node] = true
		onPath[node] = true
		path = append(path, node)

		for _, dependency := range g.Needs(node) {
			if onPath[dependency] {
				start := slices.Index(path, dependency)
				cycle = slices.Clone(path[start:])
				return true
			}
			if !visited[dependency] && visit(dependency) {
				return true
			}
		}

		onPath[node] = false
		path = path[:len(path)-1]
		return false
	}

	for _, node := range g.Plugins() {
		if !visited[node] && visit(node) {
			return cycle
		}
	}
	return nil
}

// ActivationOrder lists the plugins so that every plugin comes after the
// plugins it needs. Ties are broken alphabetically.
func (g *DependencyGraph) ActivationOrder() ([]string, error) {
	pending := make(map[string]int, len(g.needs))
	var ready []string
	for node, deps := range g.needs {
		pending[node] = len(deps)
		if len(deps) == 0 {
			ready = append(ready, node)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.needs))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)

		for _, dependent := range g.NeededBy(current) {
			pending[dependent]--
			if pending[dependent] == 0 {
				ready = append(ready, dependent)
				sort.Strings(ready)
			}
		}
	}

	if len(order) != len(g.needs) {
		if cycle := g.Cycle(); len(cycle) > 0 {
			return nil, ErrCircularDependency{Cycle: cycle}
		}
		return nil, fmt.Errorf("dependency graph contains unresolved plugins")
	}
	return order, nil
}

func sortedKeys[V any](set map[string]V) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

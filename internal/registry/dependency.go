package registry

import (
	"sort"
)

// DependencyAnalyzer analyzes references between registered templates
type DependencyAnalyzer struct {
	registry *TemplateRegistry
}

// NewDependencyAnalyzer creates a new dependency analyzer
func NewDependencyAnalyzer(registry *TemplateRegistry) *DependencyAnalyzer {
	return &DependencyAnalyzer{
		registry: registry,
	}
}

// MissingReference is a reference to a template that is not registered.
type MissingReference struct {
	From string
	Name string
}

// GetDependents returns the templates that reference name, ordered by name
func (da *DependencyAnalyzer) GetDependents(name string) []*TemplateInfo {
	var dependents []*TemplateInfo

	for _, info := range da.registry.GetAll() {
		for _, ref := range info.References {
			if ref == name {
				dependents = append(dependents, info)
				break
			}
		}
	}

	return dependents
}

// GetDependencyGraph returns the reference graph keyed by template name
func (da *DependencyAnalyzer) GetDependencyGraph() map[string][]string {
	da.registry.mutex.RLock()
	defer da.registry.mutex.RUnlock()

	graph := make(map[string][]string, len(da.registry.templates))
	for name, info := range da.registry.templates {
		graph[name] = make([]string, len(info.References))
		copy(graph[name], info.References)
	}

	return graph
}

// MissingReferences lists references whose target is not registered, for
// every template or only for the named ones.
func (da *DependencyAnalyzer) MissingReferences(names ...string) []MissingReference {
	graph := da.GetDependencyGraph()

	sources := names
	if len(sources) == 0 {
		sources = sortedKeys(graph)
	}

	var missing []MissingReference
	for _, from := range sources {
		for _, ref := range graph[from] {
			if _, ok := graph[ref]; !ok {
				missing = append(missing, MissingReference{From: from, Name: ref})
			}
		}
	}

	return missing
}

// DetectCircularDependencies returns each reference cycle once, as a closed
// path that starts and ends with the same template.
func (da *DependencyAnalyzer) DetectCircularDependencies() [][]string {
	var cycles [][]string
	graph := da.GetDependencyGraph()

	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for _, name := range sortedKeys(graph) {
		if !visited[name] {
			cycles = append(cycles, da.detectCycleDFS(name, graph, visited, recStack, nil)...)
		}
	}

	return cycles
}

// detectCycleDFS performs DFS to detect cycles
func (da *DependencyAnalyzer) detectCycleDFS(name string, graph map[string][]string, visited, recStack map[string]bool, path []string) [][]string {
	var cycles [][]string

	visited[name] = true
	recStack[name] = true
	path = append(path, name)

	for _, dep := range graph[name] {
		if _, registered := graph[dep]; !registered {
			continue
		}
		if !visited[dep] {
			cycles = append(cycles, da.detectCycleDFS(dep, graph, visited, recStack, path)...)
		} else if recStack[dep] {
			for i, p := range path {
				if p == dep {
					cycle := make([]string, len(path)-i+1)
					copy(cycle, path[i:])
					cycle[len(cycle)-1] = dep
					cycles = append(cycles, cycle)
					break
				}
			}
		}
	}

	recStack[name] = false
	return cycles
}

func sortedKeys(graph map[string][]string) []string {
	keys := make([]string, 0, len(graph))
	for k := range graph {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package registry keeps the set of parsed templates known to snail and
// notifies watchers when templates are added, updated or removed.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/conneroisu/snail/pkg/snail"
)

// TemplateRegistry manages all discovered templates
type TemplateRegistry struct {
	templates map[string]*TemplateInfo
	mutex     sync.RWMutex
	watchers  []chan TemplateEvent
}

// TemplateInfo holds a parsed template and where it came from
type TemplateInfo struct {
	Name       string
	FilePath   string
	Template   *snail.Template
	Hash       string
	LastMod    time.Time
	References []string
	Parameters []snail.ParameterInfo
}

// NewTemplateInfo fills References and Parameters from tmpl.
func NewTemplateInfo(name, filePath string, tmpl *snail.Template) *TemplateInfo {
	return &TemplateInfo{
		Name:       name,
		FilePath:   filePath,
		Template:   tmpl,
		LastMod:    time.Now(),
		References: tmpl.References(),
		Parameters: tmpl.Parameters(),
	}
}

// TemplateEvent represents a change in the template registry
type TemplateEvent struct {
	Type      EventType
	Template  *TemplateInfo
	Timestamp time.Time
}

// EventType represents the type of template event
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

func (e EventType) String() string {
	switch e {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	case EventTypeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// NewTemplateRegistry creates a new template registry
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]*TemplateInfo),
		watchers:  make([]chan TemplateEvent, 0),
	}
}

// Register adds or updates a template in the registry
func (r *TemplateRegistry) Register(info *TemplateInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeAdded
	if _, exists := r.templates[info.Name]; exists {
		eventType = EventTypeUpdated
	}

	r.templates[info.Name] = info
	r.notify(TemplateEvent{Type: eventType, Template: info, Timestamp: time.Now()})
}

// Get retrieves a template by name
func (r *TemplateRegistry) Get(name string) (*TemplateInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	info, exists := r.templates[name]
	return info, exists
}

// FindByFile returns the template loaded from path.
func (r *TemplateRegistry) FindByFile(path string) (*TemplateInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, info := range r.templates {
		if info.FilePath == path {
			return info, true
		}
	}
	return nil, false
}

// GetAll returns all registered templates ordered by name
func (r *TemplateRegistry) GetAll() []*TemplateInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*TemplateInfo, 0, len(r.templates))
	for _, info := range r.templates {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Names returns the sorted template names.
func (r *TemplateRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Remove removes a template from the registry
func (r *TemplateRegistry) Remove(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	info, exists := r.templates[name]
	if !exists {
		return
	}

	delete(r.templates, name)
	r.notify(TemplateEvent{Type: EventTypeRemoved, Template: info, Timestamp: time.Now()})
}

// Snapshot returns the current templates as an engine registry. The map is
// a copy; the templates themselves are immutable and shared.
func (r *TemplateRegistry) Snapshot() snail.Registry {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	snapshot := make(snail.Registry, len(r.templates))
	for name, info := range r.templates {
		snapshot[name] = info.Template
	}
	return snapshot
}

// Watch returns a channel that receives template events
func (r *TemplateRegistry) Watch() <-chan TemplateEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan TemplateEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *TemplateRegistry) UnWatch(ch <-chan TemplateEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered templates
func (r *TemplateRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.templates)
}

// notify must be called with the write lock held. Full channels drop the event.
func (r *TemplateRegistry) notify(event TemplateEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
		}
	}
}

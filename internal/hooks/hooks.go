package hooks

import (
	"sort"
	"sync"

	"vsgtalent-backend/internal/logging"
)

// Event names published by the server. Subscribers registered for these
// names run without the publishing code knowing who listens.
const (
	EventUploadComplete = "upload_complete"
	EventContentSave    = "content_save"
	EventRestPrepare    = "rest_prepare"
)

// ActionFunc observes an event. Actions cannot alter the payload.
type ActionFunc func(args ...interface{})

// FilterFunc transforms a value as it passes through an event.
type FilterFunc func(value interface{}, args ...interface{}) interface{}

type actionEntry struct {
	priority int
	seq      int
	fn       ActionFunc
}

type filterEntry struct {
	priority int
	seq      int
	fn       FilterFunc
}

// Registry is a named publish/subscribe hook table. Registration happens
// at process start; dispatch may run from any request goroutine.
type Registry struct {
	mu      sync.RWMutex
	seq     int
	actions map[string][]actionEntry
	filters map[string][]filterEntry
}

// NewRegistry returns an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string][]actionEntry),
		filters: make(map[string][]filterEntry),
	}
}

// AddAction subscribes fn to the named event. Lower priority runs first;
// equal priorities run in registration order.
func (r *Registry) AddAction(name string, priority int, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.actions[name] = append(r.actions[name], actionEntry{priority: priority, seq: r.seq, fn: fn})
	sortActions(r.actions[name])
}

// DoAction invokes every action subscribed to the named event in priority
// order.
func (r *Registry) DoAction(name string, args ...interface{}) {
	r.mu.RLock()
	entries := r.actions[name]
	r.mu.RUnlock()

	if len(entries) == 0 {
		logging.Debug("no actions registered for %q", name)
		return
	}
	for _, e := range entries {
		e.fn(args...)
	}
}

// AddFilter subscribes fn to the named filter chain.
func (r *Registry) AddFilter(name string, priority int, fn FilterFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.filters[name] = append(r.filters[name], filterEntry{priority: priority, seq: r.seq, fn: fn})
	sortFilters(r.filters[name])
}

// ApplyFilters threads value through every filter subscribed to the named
// chain and returns the final value. With no subscribers the value passes
// through unchanged.
func (r *Registry) ApplyFilters(name string, value interface{}, args ...interface{}) interface{} {
	r.mu.RLock()
	entries := r.filters[name]
	r.mu.RUnlock()

	for _, e := range entries {
		value = e.fn(value, args...)
	}
	return value
}

func sortActions(entries []actionEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].seq < entries[j].seq
	})
}

func sortFilters(entries []filterEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].seq < entries[j].seq
	})
}

package registry

import (
	"errors"
	"sort"
	"sync"
)

// Match is one link recognized in free text.
type Match struct {
	// Source is the name of the source that recognized the link.
	Source string
	// Kind is the resource kind ("track", "album", "playlist").
	Kind string
	// ID is the native identifier captured from the link.
	ID string
	// Offset is the byte offset of the link in the scanned text.
	Offset int
}

// Source recognizes its own links in free text.
type Source interface {
	// Name returns the source's unique identifier.
	Name() string

	// Match returns every link of this source found in text, in text order.
	Match(text string) []Match
}

// Registry manages registered sources in a thread-safe manner.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
	// Order preserving list so equal offsets resolve by registration order
	ordered []Source
}

// New creates a new Registry instance.
func New() *Registry {
	return &Registry{
		sources: make(map[string]Source),
		ordered: make([]Source, 0),
	}
}

// Register adds a source to the registry.
// Returns an error if the source is nil, has an empty name, or is already registered.
func (r *Registry) Register(s Source) error {
	if s == nil {
		return errors.New("source cannot be nil")
	}

	name := s.Name()
	if name == "" {
		return errors.New("source name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[name]; exists {
		return errors.New("source already registered: " + name)
	}

	r.sources[name] = s
	r.ordered = append(r.ordered, s)

	return nil
}

// Get retrieves a source by name.
func (r *Registry) Get(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sources[name]
	return s, ok
}

// GetAll returns all registered sources in registration order.
// The returned slice is a copy and safe for concurrent use.
func (r *Registry) GetAll() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Source, 0, len(r.ordered))
	result = append(result, r.ordered...)

	return result
}

// MatchAll merges the matches of every source ordered by offset in text.
// Matches at the same offset keep registration order.
func (r *Registry) MatchAll(text string) []Match {
	if text == "" {
		return nil
	}
	var matches []Match
	for _, s := range r.GetAll() {
		matches = append(matches, s.Match(text)...)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Offset < matches[j].Offset
	})
	return matches
}

// MatchFirst returns the left-most match of the given kind.
func (r *Registry) MatchFirst(text, kind string) (Match, bool) {
	for _, m := range r.MatchAll(text) {
		if m.Kind == kind {
			return m, true
		}
	}
	return Match{}, false
}

// Reset clears all registered sources.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = make(map[string]Source)
	r.ordered = r.ordered[:0]
}

package attendance

import (
	"sort"
	"sync"
)

// Registry resolves scanned identifiers to people. A miss is reported through the bool,
// never as an error.
type Registry interface {
	Resolve(id string) (Person, bool)
	Known(c Classification) []string
}

// MemoryRegistry is a map-backed Registry that the roster layer keeps in sync with storage.
type MemoryRegistry struct {
	mu     sync.RWMutex
	people map[string]Person
}

// NewMemoryRegistry creates a registry seeded with people.
func NewMemoryRegistry(people ...Person) *MemoryRegistry {
	r := &MemoryRegistry{people: make(map[string]Person, len(people))}
	for _, p := range people {
		r.people[p.ID] = p
	}
	return r
}

func (r *MemoryRegistry) Resolve(id string) (Person, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.people[id]
	return p, ok
}

// Known returns the identifiers currently registered with classification c, sorted.
func (r *MemoryRegistry) Known(c Classification) []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.people))
	for id, p := range r.people {
		if p.Classification == c {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Count returns the current population size for c.
func (r *MemoryRegistry) Count(c Classification) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.people {
		if p.Classification == c {
			n++
		}
	}
	return n
}

// Put registers or renames a person.
func (r *MemoryRegistry) Put(p Person) {
	r.mu.Lock()
	r.people[p.ID] = p
	r.mu.Unlock()
}

// Remove drops a person. Their past events stay in the ledger.
func (r *MemoryRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.people, id)
	r.mu.Unlock()
}

// Replace swaps the whole roster, used when loading from storage.
func (r *MemoryRegistry) Replace(people []Person) {
	next := make(map[string]Person, len(people))
	for _, p := range people {
		next[p.ID] = p
	}
	r.mu.Lock()
	r.people = next
	r.mu.Unlock()
}

package metadata

import (
	"sort"
	"sync"
)

// Registry holds the schema descriptors of every known entity.
// It is populated at startup and replaced wholesale on reload.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]*Entity),
	}
}

// GetEntity returns the entity with the given name, or nil.
// Namespaced entities can also be found by their short name.
func (r *Registry) GetEntity(name string) *Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entities[name]; ok {
		return e
	}
	for _, n := range r.order {
		if e := r.entities[n]; e.ShortName() == name {
			return e
		}
	}
	return nil
}

// AllEntities returns all registered entities ordered by name.
func (r *Registry) AllEntities() []*Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entities := make([]*Entity, 0, len(r.order))
	for _, name := range r.order {
		entities = append(entities, r.entities[name])
	}
	return entities
}

// ManagedEntities returns the entities that carry an admin configuration.
func (r *Registry) ManagedEntities() []*Entity {
	var managed []*Entity
	for _, e := range r.AllEntities() {
		if e.IsManaged() {
			managed = append(managed, e)
		}
	}
	return managed
}

// Load replaces all entities in the registry.
func (r *Registry) Load(entities []*Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entities = make(map[string]*Entity, len(entities))
	r.order = make([]string, 0, len(entities))
	for _, e := range entities {
		if _, dup := r.entities[e.Name]; !dup {
			r.order = append(r.order, e.Name)
		}
		r.entities[e.Name] = e
	}
	sort.Strings(r.order)
}

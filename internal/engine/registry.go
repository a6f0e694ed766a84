package engine

import (
	"log"
	"sync"

	"rocket-admin/internal/metadata"
)

// Origin tells where a registered source came from. Later origins win on
// identifier collisions.
type Origin int

const (
	OriginSchema Origin = iota
	OriginProvider
	OriginCustom
)

func (o Origin) String() string {
	switch o {
	case OriginSchema:
		return "schema"
	case OriginProvider:
		return "provider"
	default:
		return "custom"
	}
}

// Provider supplies data sources from outside the schema, e.g. a plugin.
type Provider interface {
	DataSources() ([]DataSource, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() ([]DataSource, error)

func (f ProviderFunc) DataSources() ([]DataSource, error) { return f() }

// SourceFactory builds the data source of one schema-discovered entity.
type SourceFactory func(desc *Descriptors) (DataSource, error)

// Discovery yields one data source per managed entity, memoized until cleared.
type Discovery struct {
	meta    *metadata.Registry
	intro   *Introspector
	factory SourceFactory

	mu      sync.Mutex
	built   bool
	sources []DataSource
}

func NewDiscovery(meta *metadata.Registry, intro *Introspector, factory SourceFactory) *Discovery {
	return &Discovery{meta: meta, intro: intro, factory: factory}
}

// Sources returns the discovered sources in entity name order.
func (d *Discovery) Sources() []DataSource {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.built {
		return d.sources
	}

	d.sources = nil
	for _, e := range d.meta.ManagedEntities() {
		desc := d.intro.Describe(e.Name)
		if desc == nil {
			continue
		}
		src, err := d.factory(desc)
		if err != nil {
			log.Printf("WARN: skipping data source for %s: %v", e.Name, err)
			continue
		}
		d.sources = append(d.sources, src)
	}
	d.built = true
	return d.sources
}

// ClearCache drops the discovered sources and the descriptors they were built from.
func (d *Discovery) ClearCache() {
	d.mu.Lock()
	d.built = false
	d.sources = nil
	d.mu.Unlock()
	d.intro.ClearCache()
}

type registryEntry struct {
	source DataSource
	origin Origin
}

// Registry merges schema-discovered, provider and custom sources into one
// identifier map. The merge runs on first access and is cached until ClearCache.
type Registry struct {
	discovery *Discovery

	mu        sync.RWMutex
	providers []Provider
	custom    []DataSource
	built     bool
	entries   map[string]registryEntry
	order     []string
}

func NewRegistry(discovery *Discovery) *Registry {
	return &Registry{discovery: discovery}
}

// AddProvider registers a provider and invalidates the merged map.
func (r *Registry) AddProvider(p Provider) {
	r.mu.Lock()
	r.providers = append(r.providers, p)
	r.built = false
	r.mu.Unlock()
}

// Register adds a custom source. It overrides any other source with the same identifier.
func (r *Registry) Register(src DataSource) {
	r.mu.Lock()
	r.custom = append(r.custom, src)
	r.built = false
	r.mu.Unlock()
}

func (r *Registry) ensure() {
	r.mu.RLock()
	built := r.built
	r.mu.RUnlock()
	if built {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.built {
		return
	}

	r.entries = make(map[string]registryEntry)
	r.order = nil
	put := func(src DataSource, origin Origin) {
		id := src.Identifier()
		if _, exists := r.entries[id]; !exists {
			r.order = append(r.order, id)
		}
		r.entries[id] = registryEntry{source: src, origin: origin}
	}

	if r.discovery != nil {
		for _, src := range r.discovery.Sources() {
			put(src, OriginSchema)
		}
	}
	for _, p := range r.providers {
		sources, err := p.DataSources()
		if err != nil {
			log.Printf("WARN: data source provider failed: %v", err)
			continue
		}
		for _, src := range sources {
			put(src, OriginProvider)
		}
	}
	for _, src := range r.custom {
		put(src, OriginCustom)
	}
	r.built = true
}

// All returns every source in first-registration order.
func (r *Registry) All() []DataSource {
	r.ensure()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DataSource, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].source)
	}
	return out
}

// Get returns the source registered under id. Unknown ids are not an error.
func (r *Registry) Get(id string) (DataSource, bool) {
	r.ensure()
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e.source, ok
}

func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

func (r *Registry) Identifiers() []string {
	r.ensure()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Origin reports which origin won for id.
func (r *Registry) Origin(id string) (Origin, bool) {
	r.ensure()
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e.origin, ok
}

// ClearCache invalidates the merged map and schema discovery so the next
// access rebuilds from scratch.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	r.built = false
	r.entries = nil
	r.order = nil
	r.mu.Unlock()
	if r.discovery != nil {
		r.discovery.ClearCache()
	}
}

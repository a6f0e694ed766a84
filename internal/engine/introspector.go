package engine

import (
	"log"
	"sort"
	"sync"

	"rocket-admin/internal/metadata"
)

// Descriptors is the full column and filter set derived for one entity.
type Descriptors struct {
	Entity  *metadata.Entity
	Columns Columns
	Filters Filters
}

// Introspector derives descriptors from the schema registry and memoizes them per entity.
type Introspector struct {
	registry *metadata.Registry
	resolver *FilterTypeResolver

	mu    sync.RWMutex
	cache map[string]*Descriptors
}

func NewIntrospector(reg *metadata.Registry, resolver *FilterTypeResolver) *Introspector {
	if resolver == nil {
		resolver = NewFilterTypeResolver()
	}
	return &Introspector{
		registry: reg,
		resolver: resolver,
		cache:    make(map[string]*Descriptors),
	}
}

// Describe returns the descriptors of the named entity, or nil if it is unknown.
func (in *Introspector) Describe(name string) *Descriptors {
	in.mu.RLock()
	d, ok := in.cache[name]
	in.mu.RUnlock()
	if ok {
		return d
	}

	entity := in.registry.GetEntity(name)
	if entity == nil {
		return nil
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if d, ok := in.cache[name]; ok {
		return d
	}
	d = in.build(entity)
	in.cache[name] = d
	return d
}

// ClearCache drops every memoized descriptor set.
func (in *Introspector) ClearCache() {
	in.mu.Lock()
	in.cache = make(map[string]*Descriptors)
	in.mu.Unlock()
}

func (in *Introspector) build(entity *metadata.Entity) *Descriptors {
	d := &Descriptors{Entity: entity}

	for _, f := range entity.Fields {
		d.Columns = append(d.Columns, ColumnDescriptor{
			Name:     f.Name,
			Label:    firstNonEmpty(f.Label, humanize(f.Name)),
			Type:     columnTypeFor(f.Type),
			Sortable: f.Type != "json",
			Template: f.Template,
		})
		if fd, ok := in.resolver.ResolveField(f); ok {
			d.Filters = append(d.Filters, fd)
		}
	}

	for _, a := range entity.Associations {
		col := ColumnDescriptor{
			Name:     a.Name,
			Label:    firstNonEmpty(a.Label, humanize(a.Name)),
			Template: a.Template,
		}
		if a.Collection {
			col.Type = ColumnCollection
		} else {
			col.Type = ColumnRelation
			col.Sortable = true
			col.Field = a.ForeignKey
		}
		d.Columns = append(d.Columns, col)

		if a.Collection {
			continue
		}
		target := in.registry.GetEntity(a.Target)
		if target == nil {
			log.Printf("WARN: %s.%s targets unknown entity %s", entity.Name, a.Name, a.Target)
		}
		if fd, ok := in.resolver.ResolveAssociation(a, target); ok {
			d.Filters = append(d.Filters, fd)
		}
	}

	sort.SliceStable(d.Filters, func(i, j int) bool {
		return d.Filters[i].Priority < d.Filters[j].Priority
	})
	return d
}

func columnTypeFor(fieldType string) ColumnType {
	switch fieldType {
	case "text":
		return ColumnText
	case "int", "integer", "bigint":
		return ColumnInteger
	case "decimal", "float":
		return ColumnDecimal
	case "boolean":
		return ColumnBoolean
	case "date":
		return ColumnDate
	case "timestamp", "datetime", "timestamptz":
		return ColumnDatetime
	case "time":
		return ColumnTime
	case "json":
		return ColumnJSON
	default:
		return ColumnString
	}
}

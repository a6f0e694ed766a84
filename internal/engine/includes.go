package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graph-gophers/dataloader"

	"rocket-admin/internal/metadata"
	"rocket-admin/internal/store"
)

// RelationValue is what a to-one relation column holds on a hydrated record.
type RelationValue struct {
	ID    any `json:"id"`
	Label any `json:"label"`
}

type ctxKey string

const relationLoadersKey ctxKey = "relationLoaders"

// RelationLoaders holds one batched loader per relation target for the
// lifetime of a request. Associations that point at the same target column
// share a loader, so their keys go out in one query and hits are cached.
type RelationLoaders struct {
	store *store.Store

	mu      sync.Mutex
	loaders map[string]*dataloader.Loader
}

func NewRelationLoaders(s *store.Store) *RelationLoaders {
	return &RelationLoaders{store: s, loaders: make(map[string]*dataloader.Loader)}
}

// WithRelationLoaders attaches a fresh loader set to ctx.
func WithRelationLoaders(ctx context.Context, loaders *RelationLoaders) context.Context {
	return context.WithValue(ctx, relationLoadersKey, loaders)
}

// RelationLoadersFrom returns the loader set attached to ctx, if any.
func RelationLoadersFrom(ctx context.Context) *RelationLoaders {
	if l, ok := ctx.Value(relationLoadersKey).(*RelationLoaders); ok {
		return l
	}
	return nil
}

// RelationLoaderMiddleware gives every request its own loader set.
func RelationLoaderMiddleware(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(WithRelationLoaders(c.UserContext(), NewRelationLoaders(s)))
		return c.Next()
	}
}

// relationTarget is what one loader fetches: key and label columns of a table.
type relationTarget struct {
	table   string
	key     string
	label   string
	keyType string
}

func (t relationTarget) id() string {
	return t.table + "." + t.key + ":" + t.label
}

func (l *RelationLoaders) loader(t relationTarget) *dataloader.Loader {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ld, ok := l.loaders[t.id()]; ok {
		return ld
	}
	ld := dataloader.NewBatchedLoader(l.batchFn(t), dataloader.WithWait(5*time.Millisecond))
	l.loaders[t.id()] = ld
	return ld
}

func (l *RelationLoaders) batchFn(t relationTarget) dataloader.BatchFunc {
	return func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		results := make([]*dataloader.Result, len(keys))

		ids := make([]any, 0, len(keys))
		for _, k := range keys {
			if v, ok := coerceValue(t.keyType, k.String()); ok {
				ids = append(ids, v)
			}
		}
		if len(ids) == 0 {
			for i := range results {
				results[i] = &dataloader.Result{}
			}
			return results
		}

		pb := l.store.Dialect.NewParamBuilder()
		cols := t.key
		if t.label != t.key {
			cols += ", " + t.label
		}
		q := fmt.Sprintf("SELECT %s FROM %s WHERE %s", cols, t.table, l.store.Dialect.InExpr(t.key, pb, ids))
		found, err := store.QueryRows(ctx, l.store.DB, q, pb.Params()...)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		byKey := make(map[string]map[string]any, len(found))
		for _, r := range found {
			byKey[fmt.Sprintf("%v", r[t.key])] = r
		}
		for i, k := range keys {
			if r, ok := byKey[k.String()]; ok {
				results[i] = &dataloader.Result{Data: RelationValue{ID: r[t.key], Label: r[t.label]}}
			} else {
				results[i] = &dataloader.Result{}
			}
		}
		return results
	}
}

// LoadRelations replaces the foreign keys of every to-one association on rows
// with {id, label} values. Loads for all associations are queued before any
// is awaited so associations sharing a target are fetched together.
func LoadRelations(ctx context.Context, s *store.Store, reg *metadata.Registry, resolver *FilterTypeResolver, entity *metadata.Entity, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	loaders := RelationLoadersFrom(ctx)
	if loaders == nil {
		loaders = NewRelationLoaders(s)
	}

	type pending struct {
		assoc  metadata.Association
		thunks map[string]dataloader.Thunk
	}
	var queued []pending
	for _, a := range entity.Associations {
		if a.Collection || a.ForeignKey == "" {
			continue
		}
		target := reg.GetEntity(a.Target)
		if target == nil {
			continue
		}
		ld := loaders.loader(relationTargetFor(resolver, a, target))

		thunks := make(map[string]dataloader.Thunk)
		for _, row := range rows {
			fk := row[a.ForeignKey]
			if fk == nil {
				continue
			}
			k := fmt.Sprintf("%v", fk)
			if _, ok := thunks[k]; !ok {
				thunks[k] = ld.Load(ctx, dataloader.StringKey(k))
			}
		}
		queued = append(queued, pending{assoc: a, thunks: thunks})
	}

	for _, p := range queued {
		loaded := make(map[string]any, len(p.thunks))
		for k, thunk := range p.thunks {
			v, err := thunk()
			if err != nil {
				return fmt.Errorf("load relation %s: %w", p.assoc.Name, err)
			}
			if v != nil {
				loaded[k] = v
			}
		}
		for _, row := range rows {
			fk := row[p.assoc.ForeignKey]
			if fk == nil {
				row[p.assoc.Name] = nil
				continue
			}
			if v, ok := loaded[fmt.Sprintf("%v", fk)]; ok {
				row[p.assoc.Name] = v
			} else {
				row[p.assoc.Name] = RelationValue{ID: fk}
			}
		}
	}
	return nil
}

func relationTargetFor(resolver *FilterTypeResolver, a metadata.Association, target *metadata.Entity) relationTarget {
	key := targetKeyFor(a, target)
	var override []string
	if a.Filter != nil {
		override = a.Filter.SearchFields
	}
	t := relationTarget{
		table:   target.Table,
		key:     key,
		label:   resolver.SearchFields(override, target)[0],
		keyType: "string",
	}
	if f := target.GetField(key); f != nil {
		t.keyType = valueTypeFor(f.Type)
	}
	return t
}

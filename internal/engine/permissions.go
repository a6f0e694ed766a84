package engine

import (
	"context"
	"fmt"
	"sync"

	"rocket-admin/internal/metadata"
)

// Authorizer answers a single capability check for a subject.
type Authorizer interface {
	Granted(capability string, subject *metadata.UserContext) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(capability string, subject *metadata.UserContext) bool

func (f AuthorizerFunc) Granted(capability string, subject *metadata.UserContext) bool {
	return f(capability, subject)
}

// RoleAuthorizer grants a capability to admins and to subjects holding a role of the same name.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Granted(capability string, subject *metadata.UserContext) bool {
	if subject == nil {
		return false
	}
	return subject.IsAdmin() || subject.HasRole(capability)
}

// PermissionFilter removes columns, and the filters over them, that the
// caller's capabilities do not cover. Denied sets are cached per record type
// and role set.
type PermissionFilter struct {
	auth Authorizer

	mu     sync.RWMutex
	denied map[string]map[string]bool
}

func NewPermissionFilter(auth Authorizer) *PermissionFilter {
	if auth == nil {
		auth = RoleAuthorizer{}
	}
	return &PermissionFilter{auth: auth, denied: make(map[string]map[string]bool)}
}

// Authorizer returns the capability checker backing the filter.
func (p *PermissionFilter) Authorizer() Authorizer { return p.auth }

// Denied returns the column names of entity the user may not see.
func (p *PermissionFilter) Denied(entity *metadata.Entity, user *metadata.UserContext) map[string]bool {
	if entity == nil {
		return nil
	}
	key := entity.Name + "|" + user.Key()

	p.mu.RLock()
	denied, ok := p.denied[key]
	p.mu.RUnlock()
	if ok {
		return denied
	}

	denied = make(map[string]bool)
	for column, capability := range entity.ColumnCapabilities() {
		if !p.auth.Granted(capability, user) {
			denied[column] = true
		}
	}

	p.mu.Lock()
	p.denied[key] = denied
	p.mu.Unlock()
	return denied
}

// PermittedColumns returns the source's columns minus denied ones, in order.
func (p *PermissionFilter) PermittedColumns(src DataSource, user *metadata.UserContext) Columns {
	denied := p.Denied(recordTypeOf(src), user)
	all := src.Columns()
	if len(denied) == 0 {
		return all
	}
	out := make(Columns, 0, len(all))
	for _, c := range all {
		if !denied[c.Name] {
			out = append(out, c)
		}
	}
	return out
}

// PermittedFilters returns the source's filters minus those over denied columns.
func (p *PermissionFilter) PermittedFilters(src DataSource, user *metadata.UserContext) Filters {
	denied := p.Denied(recordTypeOf(src), user)
	if len(denied) == 0 {
		return src.Filters()
	}
	return src.Filters().Without(denied)
}

// ClearCache drops every cached denied set.
func (p *PermissionFilter) ClearCache() {
	p.mu.Lock()
	p.denied = make(map[string]map[string]bool)
	p.mu.Unlock()
}

// Scope returns a view of src for one user: denied columns disappear from
// the descriptors, cannot be searched, filtered or sorted on, and are
// stripped from returned records.
func (p *PermissionFilter) Scope(src DataSource, user *metadata.UserContext) DataSource {
	denied := p.Denied(recordTypeOf(src), user)
	if len(denied) == 0 {
		return src
	}
	redact := make(map[string]bool, len(denied))
	for name := range denied {
		redact[name] = true
		if c, ok := src.Columns().Get(name); ok && c.Field != "" {
			redact[c.Field] = true
		}
	}
	return &scopedSource{
		DataSource: src,
		columns:    p.PermittedColumns(src, user),
		filters:    p.PermittedFilters(src, user),
		denied:     denied,
		redact:     redact,
	}
}

type scopedSource struct {
	DataSource
	columns Columns
	filters Filters
	denied  map[string]bool
	redact  map[string]bool
}

func (s *scopedSource) Columns() Columns { return s.columns }
func (s *scopedSource) Filters() Filters { return s.filters }

func (s *scopedSource) Query(ctx context.Context, params ListParams) (*PaginatedResult, error) {
	params.Denied = s.denied
	res, err := s.DataSource.Query(ctx, params)
	if err != nil {
		return nil, err
	}
	for _, item := range res.Items {
		s.strip(item)
	}
	return res, nil
}

func (s *scopedSource) Find(ctx context.Context, id string) (map[string]any, error) {
	rec, err := s.DataSource.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.strip(rec)
	return rec, nil
}

func (s *scopedSource) Export(ctx context.Context, params ListParams, limit int) ([]map[string]any, error) {
	params.Denied = s.denied
	recs, err := exportRecords(ctx, s.DataSource, params, limit)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		s.strip(rec)
	}
	return recs, nil
}

func (s *scopedSource) ItemValue(record map[string]any, field string) any {
	if s.redact[field] {
		return nil
	}
	return s.DataSource.ItemValue(record, field)
}

func (s *scopedSource) strip(rec map[string]any) {
	for name := range s.redact {
		delete(rec, name)
	}
}

// CheckAction returns a FORBIDDEN error unless src supports the action and the
// user holds the capability it requires.
func CheckAction(src DataSource, action string, user *metadata.UserContext, auth Authorizer) error {
	if !src.SupportsAction(action) {
		return ForbiddenError(fmt.Sprintf("Action %s is not supported by %s", action, src.Identifier()))
	}
	guard, ok := src.(ActionGuard)
	if !ok {
		return nil
	}
	capability := guard.RequiredCapability(action)
	if capability != "" && !auth.Granted(capability, user) {
		return ForbiddenError(fmt.Sprintf("Permission denied for %s on %s", action, src.Identifier()))
	}
	return nil
}

// BatchDelete deletes the listed records after checking the batch_delete action.
func BatchDelete(ctx context.Context, src DataSource, ids []string, user *metadata.UserContext, auth Authorizer) (int, error) {
	if err := CheckAction(src, metadata.ActionBatchDelete, user, auth); err != nil {
		return 0, err
	}
	deleter, ok := src.(BatchDeleter)
	if !ok {
		return 0, ForbiddenError(fmt.Sprintf("%s does not support batch delete", src.Identifier()))
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return deleter.DeleteMany(ctx, ids)
}

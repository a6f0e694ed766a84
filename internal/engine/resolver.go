package engine

import (
	"log"
	"strings"

	"rocket-admin/internal/metadata"
)

// DefaultSearchFields holds known search fields per target type, keyed by
// lower-cased short type name.
var DefaultSearchFields = map[string][]string{
	"user":     {"email", "username", "name"},
	"customer": {"name", "email"},
	"category": {"name", "slug"},
	"tag":      {"name", "slug"},
	"product":  {"name", "sku"},
	"order":    {"number", "reference"},
	"country":  {"name", "code"},
}

// SearchFieldCandidates are tried in order when a target type has no known defaults.
var SearchFieldCandidates = []string{"name", "title", "label", "email", "username", "code", "slug"}

// FilterTypeResolver derives filter descriptors from field declarations and overrides.
type FilterTypeResolver struct {
	defaults map[string][]string
}

func NewFilterTypeResolver() *FilterTypeResolver {
	return &FilterTypeResolver{defaults: DefaultSearchFields}
}

// ResolveField resolves the filter for a scalar field. ok is false when the
// field is not filterable or explicitly disabled.
func (r *FilterTypeResolver) ResolveField(f metadata.Field) (FilterDescriptor, bool) {
	o := f.Filter
	if o == nil {
		o = &metadata.FilterOverride{}
	}

	d := FilterDescriptor{
		Name:      f.Name,
		Field:     f.Name,
		Label:     firstNonEmpty(o.Label, f.Label, humanize(f.Name)),
		ValueType: valueTypeFor(f.Type),
	}

	switch {
	case o.Type != "":
		d.Type = FilterType(o.Type)
	case f.IsEnum():
		d.Type = FilterEnum
	default:
		t, ok := autoFilterType(f.Type)
		if !ok {
			return d, false
		}
		d.Type = t
	}

	if d.Type == FilterEnum {
		d.Enum = enumOptions(f, o)
	}

	d.Operator = operatorFor(d, o, f.Type)
	applyCommon(&d, o)
	return d, d.Enabled
}

// ResolveAssociation resolves the filter for an association. Collections are
// never filterable. target may be nil when the target type is unknown.
func (r *FilterTypeResolver) ResolveAssociation(a metadata.Association, target *metadata.Entity) (FilterDescriptor, bool) {
	if a.Collection {
		return FilterDescriptor{}, false
	}
	o := a.Filter
	if o == nil {
		o = &metadata.FilterOverride{}
	}

	d := FilterDescriptor{
		Name:  a.Name,
		Field: a.ForeignKey,
		Label: firstNonEmpty(o.Label, a.Label, humanize(a.Name)),
		Type:  FilterRelation,
	}
	if o.Type != "" {
		d.Type = FilterType(o.Type)
	}

	if d.Type == FilterRelation {
		if target == nil {
			return d, false
		}
		d.SearchFields = r.SearchFields(o.SearchFields, target)
		d.Join = &JoinSpec{Table: target.Table, Key: targetKeyFor(a, target), ForeignKey: a.ForeignKey}
	} else if target != nil {
		// filtering on the foreign key itself
		if pk := target.GetField(target.PrimaryKey.Field); pk != nil {
			d.ValueType = valueTypeFor(pk.Type)
		}
	}
	if d.Type == FilterEnum {
		d.Enum = enumOptions(metadata.Field{}, o)
	}

	d.Operator = operatorFor(d, o, "")
	applyCommon(&d, o)
	return d, d.Enabled
}

// SearchFields resolves the fields searched on a relation's target:
// explicit list, then known defaults, then auto-detection, then the target's identifier.
// Every entry must exist on the target; an emptied list falls back to auto-detection.
func (r *FilterTypeResolver) SearchFields(explicit []string, target *metadata.Entity) []string {
	fieldSet := target.FieldSet()

	requested := explicit
	if len(requested) == 0 {
		requested = r.defaults[strings.ToLower(target.ShortName())]
	}
	if len(requested) > 0 {
		var valid []string
		for _, name := range requested {
			if fieldSet[name] {
				valid = append(valid, name)
			}
		}
		if len(valid) > 0 {
			return valid
		}
	}
	return autoSearchFields(fieldSet, target.PrimaryKey.Field)
}

func autoSearchFields(fieldSet map[string]bool, idField string) []string {
	for _, name := range SearchFieldCandidates {
		if fieldSet[name] {
			return []string{name}
		}
	}
	if idField == "" {
		idField = "id"
	}
	return []string{idField}
}

// targetKeyFor is the target column a to-one association points at. A declared
// key missing from the target falls back to the target's primary key.
func targetKeyFor(a metadata.Association, target *metadata.Entity) string {
	if a.TargetKey == "" {
		return target.PrimaryKey.Field
	}
	if !target.HasField(a.TargetKey) {
		log.Printf("WARN: association %s: target key %s is not a field of %s, using %s",
			a.Name, a.TargetKey, target.Name, target.PrimaryKey.Field)
		return target.PrimaryKey.Field
	}
	return a.TargetKey
}

func autoFilterType(fieldType string) (FilterType, bool) {
	switch fieldType {
	case "string", "text", "uuid":
		return FilterText, true
	case "int", "integer", "bigint", "decimal", "float":
		return FilterNumber, true
	case "boolean":
		return FilterBoolean, true
	case "date", "datetime", "timestamp", "timestamptz":
		return FilterDate, true
	}
	return "", false
}

func operatorFor(d FilterDescriptor, o *metadata.FilterOverride, fieldType string) string {
	if op := strings.ToUpper(o.Operator); ValidOperator(op) {
		return op
	}
	switch d.Type {
	case FilterText:
		if fieldType == "uuid" {
			return OpEq
		}
		return OpLike
	case FilterRelation:
		return OpLike
	case FilterDate, FilterDateRange:
		return OpBetween
	case FilterEnum:
		if d.Enum != nil && d.Enum.Multiple {
			return OpIn
		}
		return OpEq
	default:
		return OpEq
	}
}

func enumOptions(f metadata.Field, o *metadata.FilterOverride) *EnumOptions {
	opts := &EnumOptions{ShowAllOption: true}
	switch {
	case len(o.Options) > 0:
		opts.Values = append([]string(nil), o.Options...)
	case o.Enum != "":
		opts.EnumName = o.Enum
	case len(f.Enum) > 0:
		opts.Values = append([]string(nil), f.Enum...)
	default:
		opts.EnumName = f.EnumName
	}
	if o.Multiple != nil {
		opts.Multiple = *o.Multiple
	}
	if o.ShowAllOption != nil {
		opts.ShowAllOption = *o.ShowAllOption
	}
	return opts
}

func applyCommon(d *FilterDescriptor, o *metadata.FilterOverride) {
	d.Placeholder = o.Placeholder
	d.Priority = DefaultFilterPriority
	if o.Priority != nil {
		d.Priority = *o.Priority
	}
	d.Enabled = o.Enabled == nil || *o.Enabled
	if d.Type == FilterRelation && len(d.SearchFields) == 0 {
		d.SearchFields = []string{"id"}
	}
}

// valueTypeFor maps a declared field type onto the scalar type filter values are coerced to.
func valueTypeFor(fieldType string) string {
	switch fieldType {
	case "int", "integer", "bigint":
		return "integer"
	case "decimal", "float":
		return "decimal"
	case "boolean":
		return "boolean"
	default:
		return "string"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

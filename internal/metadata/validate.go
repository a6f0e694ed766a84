package metadata

import (
	"fmt"
	"regexp"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s is safe to splice into SQL as a table or column name.
func IsIdentifier(s string) bool {
	return identRe.MatchString(s)
}

// Validate checks an entity definition before it is admitted to the registry.
// Table and column names end up in generated SQL, so they must be plain identifiers.
func Validate(e *Entity) error {
	if e.Name == "" {
		return fmt.Errorf("entity name is required")
	}
	if !IsIdentifier(e.Table) {
		return fmt.Errorf("entity %s: invalid table name %q", e.Name, e.Table)
	}
	if len(e.Fields) == 0 {
		return fmt.Errorf("entity %s: at least one field is required", e.Name)
	}
	seen := make(map[string]bool, len(e.Fields)+len(e.Associations))
	for _, f := range e.Fields {
		if !IsIdentifier(f.Name) {
			return fmt.Errorf("entity %s: invalid field name %q", e.Name, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("entity %s: duplicate field %s", e.Name, f.Name)
		}
		seen[f.Name] = true
	}
	if e.PrimaryKey.Field == "" {
		return fmt.Errorf("entity %s: primary key field is required", e.Name)
	}
	if !e.HasField(e.PrimaryKey.Field) {
		return fmt.Errorf("entity %s: primary key %s is not a field", e.Name, e.PrimaryKey.Field)
	}
	for _, a := range e.Associations {
		if !IsIdentifier(a.Name) {
			return fmt.Errorf("entity %s: invalid association name %q", e.Name, a.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("entity %s: association %s collides with another column", e.Name, a.Name)
		}
		seen[a.Name] = true
		if a.Target == "" {
			return fmt.Errorf("entity %s: association %s has no target", e.Name, a.Name)
		}
		if a.TargetKey != "" && !IsIdentifier(a.TargetKey) {
			return fmt.Errorf("entity %s: association %s: invalid target key %q", e.Name, a.Name, a.TargetKey)
		}
		if a.Collection {
			continue
		}
		if !e.HasField(a.ForeignKey) {
			return fmt.Errorf("entity %s: association %s: foreign key %q is not a field", e.Name, a.Name, a.ForeignKey)
		}
	}
	return nil
}

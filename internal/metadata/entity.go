package metadata

import "strings"

// Entity is the schema descriptor of one managed record type.
type Entity struct {
	Name         string        `json:"name" yaml:"name"`
	Table        string        `json:"table" yaml:"table"`
	Label        string        `json:"label,omitempty" yaml:"label,omitempty"`
	Icon         string        `json:"icon,omitempty" yaml:"icon,omitempty"`
	PrimaryKey   PrimaryKey    `json:"primary_key" yaml:"primary_key"`
	SoftDelete   bool          `json:"soft_delete,omitempty" yaml:"soft_delete,omitempty"`
	Fields       []Field       `json:"fields" yaml:"fields"`
	Associations []Association `json:"associations,omitempty" yaml:"associations,omitempty"`
	Admin        *AdminConfig  `json:"admin,omitempty" yaml:"admin,omitempty"`
}

type PrimaryKey struct {
	Field     string `json:"field" yaml:"field"`
	Type      string `json:"type" yaml:"type"` // uuid, int, bigint, string
	Generated bool   `json:"generated,omitempty" yaml:"generated,omitempty"`
}

// ShortName returns the name without any dotted namespace prefix.
// It is the identifier a schema-discovered data source is registered under.
func (e *Entity) ShortName() string {
	if i := strings.LastIndex(e.Name, "."); i >= 0 {
		return e.Name[i+1:]
	}
	return e.Name
}

// IsManaged reports whether the entity carries an admin configuration and
// therefore gets a data source of its own.
func (e *Entity) IsManaged() bool {
	return e.Admin != nil
}

// GetField returns a pointer to the field with the given name, or nil.
func (e *Entity) GetField(name string) *Field {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i]
		}
	}
	return nil
}

// HasField returns true if the entity has a field with the given name.
func (e *Entity) HasField(name string) bool {
	return e.GetField(name) != nil
}

// GetAssociation returns a pointer to the association with the given name, or nil.
func (e *Entity) GetAssociation(name string) *Association {
	for i := range e.Associations {
		if e.Associations[i].Name == name {
			return &e.Associations[i]
		}
	}
	return nil
}

// FieldNames returns all scalar field names in declaration order.
func (e *Entity) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return names
}

// FieldSet returns the scalar field names as a lookup set.
func (e *Entity) FieldSet() map[string]bool {
	set := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		set[f.Name] = true
	}
	return set
}

// ColumnCapabilities maps column name to the capability required to see it.
// Columns without a requirement are absent.
func (e *Entity) ColumnCapabilities() map[string]string {
	caps := make(map[string]string)
	for _, f := range e.Fields {
		if f.Capability != "" {
			caps[f.Name] = f.Capability
		}
	}
	for _, a := range e.Associations {
		if a.Capability != "" {
			caps[a.Name] = a.Capability
		}
	}
	return caps
}

// BooleanFields returns the names of boolean fields. SQLite hands these back as integers.
func (e *Entity) BooleanFields() []string {
	var names []string
	for _, f := range e.Fields {
		if f.Type == "boolean" {
			names = append(names, f.Name)
		}
	}
	return names
}

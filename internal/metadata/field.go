package metadata

// Field is one scalar column of an entity.
type Field struct {
	Name       string          `json:"name" yaml:"name"`
	Type       string          `json:"type" yaml:"type"`
	Label      string          `json:"label,omitempty" yaml:"label,omitempty"`
	Nullable   bool            `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Enum       []string        `json:"enum,omitempty" yaml:"enum,omitempty"`           // closed value set
	EnumName   string          `json:"enum_name,omitempty" yaml:"enum_name,omitempty"` // backing enumeration identifier
	Capability string          `json:"capability,omitempty" yaml:"capability,omitempty"`
	Template   string          `json:"template,omitempty" yaml:"template,omitempty"`
	Precision  int             `json:"precision,omitempty" yaml:"precision,omitempty"`
	Filter     *FilterOverride `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// IsEnum reports whether the field is typed as a closed value set,
// regardless of how the values are stored.
func (f Field) IsEnum() bool {
	return f.Type == "enum" || len(f.Enum) > 0 || f.EnumName != ""
}

// Association links an entity to another one. To-one associations are
// backed by ForeignKey on the owning table; collections by TargetKey on the target.
type Association struct {
	Name       string          `json:"name" yaml:"name"`
	Target     string          `json:"target" yaml:"target"`
	Collection bool            `json:"collection,omitempty" yaml:"collection,omitempty"`
	ForeignKey string          `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
	TargetKey  string          `json:"target_key,omitempty" yaml:"target_key,omitempty"`
	Label      string          `json:"label,omitempty" yaml:"label,omitempty"`
	Capability string          `json:"capability,omitempty" yaml:"capability,omitempty"`
	Template   string          `json:"template,omitempty" yaml:"template,omitempty"`
	Filter     *FilterOverride `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// FilterOverride is the per-field filter configuration attached at registration time.
// Nil pointers mean "not set" so that defaults can be told apart from explicit zero values.
type FilterOverride struct {
	Type          string   `json:"type,omitempty" yaml:"type,omitempty"`
	Operator      string   `json:"operator,omitempty" yaml:"operator,omitempty"`
	Label         string   `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder   string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Priority      *int     `json:"priority,omitempty" yaml:"priority,omitempty"`
	SearchFields  []string `json:"search_fields,omitempty" yaml:"search_fields,omitempty"`
	Enabled       *bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Enum          string   `json:"enum,omitempty" yaml:"enum,omitempty"`
	Options       []string `json:"options,omitempty" yaml:"options,omitempty"`
	Multiple      *bool    `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	ShowAllOption *bool    `json:"show_all_option,omitempty" yaml:"show_all_option,omitempty"`
}

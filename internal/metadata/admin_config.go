package metadata

import "strings"

// Actions a data source can support.
const (
	ActionIndex       = "index"
	ActionShow        = "show"
	ActionNew         = "new"
	ActionEdit        = "edit"
	ActionDelete      = "delete"
	ActionBatchDelete = "batch_delete"
)

// AllActions lists every action in display order.
var AllActions = []string{ActionIndex, ActionShow, ActionNew, ActionEdit, ActionDelete, ActionBatchDelete}

// AdminConfig is the per-entity list view configuration.
type AdminConfig struct {
	Columns              []string          `json:"columns,omitempty" yaml:"columns,omitempty"`
	ExcludeColumns       []string          `json:"exclude_columns,omitempty" yaml:"exclude_columns,omitempty"`
	Filterable           *[]string         `json:"filterable,omitempty" yaml:"filterable,omitempty"` // nil = all enabled filters
	DefaultSortBy        string            `json:"default_sort_by,omitempty" yaml:"default_sort_by,omitempty"`
	DefaultSortDirection string            `json:"default_sort_direction,omitempty" yaml:"default_sort_direction,omitempty"`
	PageSize             int               `json:"page_size,omitempty" yaml:"page_size,omitempty"`
	Actions              []string          `json:"actions,omitempty" yaml:"actions,omitempty"`         // empty = all
	Permissions          map[string]string `json:"permissions,omitempty" yaml:"permissions,omitempty"` // action -> capability
	BatchActions         *bool             `json:"batch_actions,omitempty" yaml:"batch_actions,omitempty"`
	ColumnVisibility     *bool             `json:"column_visibility,omitempty" yaml:"column_visibility,omitempty"`
	Computed             []ComputedColumn  `json:"computed,omitempty" yaml:"computed,omitempty"`
}

// ComputedColumn is a virtual column whose value is an expression over the record.
type ComputedColumn struct {
	Name       string `json:"name" yaml:"name"`
	Label      string `json:"label,omitempty" yaml:"label,omitempty"`
	Expression string `json:"expression" yaml:"expression"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	Template   string `json:"template,omitempty" yaml:"template,omitempty"`
}

// SortDirection returns the configured default direction, normalized to ASC or DESC.
func (a *AdminConfig) SortDirection() string {
	if a == nil || !strings.EqualFold(a.DefaultSortDirection, "DESC") {
		return "ASC"
	}
	return "DESC"
}

// BatchActionsEnabled defaults to true.
func (a *AdminConfig) BatchActionsEnabled() bool {
	return a == nil || a.BatchActions == nil || *a.BatchActions
}

// ColumnVisibilityEnabled defaults to true.
func (a *AdminConfig) ColumnVisibilityEnabled() bool {
	return a == nil || a.ColumnVisibility == nil || *a.ColumnVisibility
}

// Supports reports whether the action is enabled by the configuration.
// Batch delete additionally needs delete and the batch-actions toggle.
func (a *AdminConfig) Supports(action string) bool {
	if action == ActionBatchDelete {
		if !a.BatchActionsEnabled() || !a.Supports(ActionDelete) {
			return false
		}
	}
	if a == nil || len(a.Actions) == 0 {
		for _, known := range AllActions {
			if known == action {
				return true
			}
		}
		return false
	}
	for _, act := range a.Actions {
		if act == action {
			return true
		}
	}
	return false
}

// RequiredCapability returns the capability needed for the action, or "".
func (a *AdminConfig) RequiredCapability(action string) string {
	if a == nil {
		return ""
	}
	return a.Permissions[action]
}

package metadata

import (
	"sort"
	"strings"
)

// UserContext represents the authenticated user, set by auth middleware.
type UserContext struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}

// HasRole checks whether the user has a specific role.
func (u *UserContext) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// IsAdmin checks whether the user has the admin role.
func (u *UserContext) IsAdmin() bool {
	return u.HasRole("admin")
}

// Key identifies the user's role set. Two users with the same roles share
// every capability decision, so caches are keyed by it.
func (u *UserContext) Key() string {
	if u == nil {
		return ""
	}
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = strings.ToLower(r)
	}
	sort.Strings(roles)
	return strings.Join(roles, ",")
}

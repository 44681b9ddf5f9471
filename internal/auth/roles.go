package auth

import (
	"fmt"
	"strings"

	"github.com/XiaoHuahai/group3/internal/apperr"
)

// Role is a capability a user may hold. A user can hold several at once.
type Role string

const (
	RoleSubmitter Role = "Submitter"
	RoleModerator Role = "Moderator"
	RoleAnalyst   Role = "Analyst"
	RoleAdmin     Role = "Admin"
)

// AllRoles lists every role in display order.
var AllRoles = []Role{RoleSubmitter, RoleModerator, RoleAnalyst, RoleAdmin}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole accepts a role name in any letter case.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, known := range AllRoles {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: unknown role %q", apperr.ErrInvalidArgument, s)
}

// ParseRoles parses and deduplicates role names, keeping the first occurrence order.
func ParseRoles(values []string) ([]Role, error) {
	roles := make([]Role, 0, len(values))
	for _, v := range values {
		role, err := ParseRole(v)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return dedupeRoles(roles), nil
}

// Authorize reports whether the principal's roles intersect the required set.
func Authorize(principalRoles, requiredRoles []Role) bool {
	for _, have := range principalRoles {
		for _, want := range requiredRoles {
			if have == want {
				return true
			}
		}
	}
	return false
}

func dedupeRoles(roles []Role) []Role {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[Role]struct{}, len(roles))
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

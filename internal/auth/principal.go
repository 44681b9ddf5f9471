package auth

import (
	"fmt"

	"github.com/XiaoHuahai/group3/internal/apperr"
)

// Principal is the identity behind a request: either an authenticated user
// with the roles carried by its token, or Anonymous.
type Principal struct {
	UserID string
	Email  string
	Roles  []Role
}

// Anonymous is the principal of a request without credentials.
var Anonymous = Principal{}

// Authenticated reports whether p identifies a user.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// HasAnyRole reports whether an authenticated p holds one of roles.
func (p Principal) HasAnyRole(roles ...Role) bool {
	return p.Authenticated() && Authorize(p.Roles, roles)
}

// Require fails with ErrUnauthorized for Anonymous and ErrForbidden when p
// holds none of roles.
func (p Principal) Require(roles ...Role) error {
	if !p.Authenticated() {
		return fmt.Errorf("%w: authentication required", apperr.ErrUnauthorized)
	}
	if !Authorize(p.Roles, roles) {
		return fmt.Errorf("%w: requires one of %v", apperr.ErrForbidden, roles)
	}
	return nil
}

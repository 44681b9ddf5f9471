package auth

import (
	"context"
	"time"
)

// UserStore describes persistence operations required by the identity service.
type UserStore interface {
	// Create inserts u. It fails with apperr.ErrConflict when the email is taken.
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (User, error)
	// FindByEmail matches the email exactly.
	FindByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	// UpdateRoles replaces the role set of one user atomically.
	UpdateRoles(ctx context.Context, id string, roles []Role, at time.Time) (User, error)
}

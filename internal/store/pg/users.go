package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/XiaoHuahai/group3/internal/apperr"
	"github.com/XiaoHuahai/group3/internal/auth"
)

var _ auth.UserStore = (*Users)(nil)

// Users implements auth.UserStore.
type Users struct {
	db *sql.DB
}

const userColumns = `id, email, password_hash, name, roles, created_at, updated_at`

func (s *Users) Create(ctx context.Context, u *auth.User) error {
	if s.db == nil {
		return errNoDB
	}
	roles, err := json.Marshal(u.Roles)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		insert into users (id, email, password_hash, name, roles, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Email, u.PasswordHash, nullIfEmpty(u.Name), roles, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return fmt.Errorf("%w: email already registered", apperr.ErrConflict)
		}
		return err
	}
	return nil
}

func (s *Users) FindByID(ctx context.Context, id string) (auth.User, error) {
	return s.userWhere(ctx, "id", id)
}

func (s *Users) FindByEmail(ctx context.Context, email string) (auth.User, error) {
	return s.userWhere(ctx, "email", email)
}

func (s *Users) List(ctx context.Context) ([]auth.User, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+userColumns+`
		from users
		order by created_at asc, id asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]auth.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Users) UpdateRoles(ctx context.Context, id string, roles []auth.Role, at time.Time) (auth.User, error) {
	if s.db == nil {
		return auth.User{}, errNoDB
	}
	raw, err := json.Marshal(roles)
	if err != nil {
		return auth.User{}, fmt.Errorf("encode roles: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `
		update users set roles = $2, updated_at = $3
		where id = $1
		returning `+userColumns, id, raw, at)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	return u, err
}

// userWhere looks a user up by a unique column. column is never user input.
func (s *Users) userWhere(ctx context.Context, column, value string) (auth.User, error) {
	if s.db == nil {
		return auth.User{}, errNoDB
	}
	row := s.db.QueryRowContext(ctx, `
		select `+userColumns+`
		from users
		where `+column+` = $1
	`, value)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, fmt.Errorf("%w: user", apperr.ErrNotFound)
	}
	return u, err
}

func scanUser(row scanner) (auth.User, error) {
	var (
		u     auth.User
		name  sql.NullString
		roles []byte
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &name, &roles, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return auth.User{}, err
	}
	u.Name = name.String
	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &u.Roles); err != nil {
			return auth.User{}, fmt.Errorf("decode roles: %w", err)
		}
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

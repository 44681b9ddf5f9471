package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/XiaoHuahai/group3/internal/apperr"
	"github.com/XiaoHuahai/group3/internal/ids"
)

// Service registers users, authenticates them and administers roles.
type Service struct {
	users  UserStore
	tokens *Tokens
	now    func() time.Time
	newID  ids.Generator
	log    *zap.Logger
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
			if s.tokens != nil {
				s.tokens.now = fn
			}
		}
		return nil
	}
}

// WithIDGenerator overrides how user ids are minted.
func WithIDGenerator(gen ids.Generator) ServiceOption {
	return func(s *Service) error {
		if gen != nil {
			s.newID = gen
		}
		return nil
	}
}

// WithLogger sets the logger used for account events.
func WithLogger(log *zap.Logger) ServiceOption {
	return func(s *Service) error {
		if log != nil {
			s.log = log
		}
		return nil
	}
}

// NewService constructs Service with optional configuration.
func NewService(users UserStore, tokens *Tokens, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, errors.New("auth: user store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token issuer is required")
	}
	svc := &Service{
		users:  users,
		tokens: tokens,
		now:    time.Now,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	if svc.newID == nil {
		svc.newID = ids.NewGenerator(svc.now)
	}
	return svc, nil
}

// Register creates a self-service account holding the Submitter role.
func (s *Service) Register(ctx context.Context, email, password, name string) (User, error) {
	return s.create(ctx, email, password, name, []Role{RoleSubmitter})
}

// CreateAdmin creates an account holding only the Admin role. It is meant
// for out-of-band bootstrap, never for the network boundary.
func (s *Service) CreateAdmin(ctx context.Context, email, password, name string) (User, error) {
	return s.create(ctx, email, password, name, []Role{RoleAdmin})
}

// EnsureAdmin creates the Admin account unless one with that email already
// exists. created is false when the account was already provisioned. An
// existing account without the Admin role is a Conflict.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) (user User, created bool, err error) {
	user, err = s.CreateAdmin(ctx, email, password, name)
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, apperr.ErrConflict) {
		return User{}, false, err
	}
	existing, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return User{}, false, err
	}
	if !existing.HasRole(RoleAdmin) {
		return User{}, false, fmt.Errorf("%w: %s is registered without the Admin role", apperr.ErrConflict, existing.Email)
	}
	return existing, false, nil
}

func (s *Service) create(ctx context.Context, email, password, name string, roles []Role) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: valid email is required", apperr.ErrInvalidArgument)
	}
	if password == "" {
		return User{}, fmt.Errorf("%w: password is required", apperr.ErrInvalidArgument)
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return User{}, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return User{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	now := s.now().UTC()
	user := User{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return User{}, err
	}
	s.log.Info("user created", zap.String("user_id", user.ID), zap.Any("roles", user.Roles))
	return user, nil
}

// Login checks credentials and issues an access token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return LoginResult{}, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
		}
		return LoginResult{}, err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return LoginResult{}, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
	}
	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{AccessToken: token, ExpiresAt: exp, User: user}, nil
}

// Authenticate turns a bearer token into a principal.
func (s *Service) Authenticate(_ context.Context, token string) (Principal, error) {
	return s.tokens.Verify(token)
}

// GetUser returns one user by id.
func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, fmt.Errorf("%w: user id is required", apperr.ErrInvalidArgument)
	}
	return s.users.FindByID(ctx, id)
}

// ListUsers returns all users, oldest first.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

// UpdateRoles replaces the roles of targetID. The acting user must hold
// Admin in its stored record at the time of the call; token claims are not
// trusted here so a demoted admin holding an old token is refused.
func (s *Service) UpdateRoles(ctx context.Context, targetID string, roles []Role, actingID string) (User, error) {
	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		return User{}, err
	}
	actor, err := s.users.FindByID(ctx, actingID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return User{}, fmt.Errorf("%w: acting user no longer exists", apperr.ErrForbidden)
		}
		return User{}, err
	}
	if !actor.HasRole(RoleAdmin) {
		return User{}, fmt.Errorf("%w: only admins can change roles", apperr.ErrForbidden)
	}
	// Names are parsed after the actor check: a demoted caller always gets Forbidden.
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	if roles, err = ParseRoles(names); err != nil {
		return User{}, err
	}
	if len(roles) == 0 {
		return User{}, fmt.Errorf("%w: at least one role is required", apperr.ErrInvalidArgument)
	}
	updated, err := s.users.UpdateRoles(ctx, targetID, roles, s.now().UTC())
	if err != nil {
		return User{}, err
	}
	s.log.Info("roles updated",
		zap.String("user_id", targetID),
		zap.String("actor_id", actingID),
		zap.Any("roles", updated.Roles),
	)
	return updated, nil
}

// Stats counts users in total and per role.
func (s *Service) Stats(ctx context.Context) (UserStats, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return UserStats{}, err
	}
	stats := UserStats{Total: len(users), ByRole: make(map[Role]int, len(AllRoles))}
	for _, r := range AllRoles {
		stats.ByRole[r] = 0
	}
	for _, u := range users {
		for _, r := range u.Roles {
			stats.ByRole[r]++
		}
	}
	return stats, nil
}

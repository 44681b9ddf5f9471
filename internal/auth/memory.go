package auth

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/XiaoHuahai/group3/internal/apperr"
)

var _ UserStore = (*InMemoryUsers)(nil)

// InMemoryUsers implements UserStore with in-process concurrency safety.
type InMemoryUsers struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

// NewInMemoryUsers creates an empty user store.
func NewInMemoryUsers() *InMemoryUsers {
	return &InMemoryUsers{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (s *InMemoryUsers) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email]; ok {
		return fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	}
	if _, ok := s.byID[u.ID]; ok {
		return fmt.Errorf("%w: user id already exists", apperr.ErrConflict)
	}
	s.byID[u.ID] = cloneUser(*u)
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *InMemoryUsers) FindByID(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	return cloneUser(u), nil
}

func (s *InMemoryUsers) FindByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return User{}, fmt.Errorf("%w: user with that email", apperr.ErrNotFound)
	}
	return cloneUser(s.byID[id]), nil
}

func (s *InMemoryUsers) List(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryUsers) UpdateRoles(_ context.Context, id string, roles []Role, at time.Time) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	u.Roles = append([]Role(nil), roles...)
	u.UpdatedAt = at
	s.byID[id] = u
	return cloneUser(u), nil
}

func cloneUser(u User) User {
	u.Roles = append([]Role(nil), u.Roles...)
	return u
}

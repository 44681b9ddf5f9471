package article

import (
	"context"
	"fmt"
	"sync"

	"github.com/XiaoHuahai/group3/internal/apperr"
)

var _ Store = (*InMemory)(nil)

// InMemory implements Store with in-process concurrency safety.
type InMemory struct {
	mu       sync.RWMutex
	articles map[string]Article
}

// NewInMemory creates an empty article store.
func NewInMemory() *InMemory {
	return &InMemory{articles: make(map[string]Article)}
}

func (s *InMemory) Insert(_ context.Context, a *Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[a.ID]; ok {
		return fmt.Errorf("%w: article %s already exists", apperr.ErrConflict, a.ID)
	}
	s.articles[a.ID] = cloneArticle(*a)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	if !ok {
		return Article{}, fmt.Errorf("%w: article %s", apperr.ErrNotFound, id)
	}
	return cloneArticle(a), nil
}

func (s *InMemory) FindMany(_ context.Context, f Filter, order Sort) ([]Article, error) {
	s.mu.RLock()
	out := make([]Article, 0)
	for _, a := range s.articles {
		if f.Match(a) {
			out = append(out, cloneArticle(a))
		}
	}
	s.mu.RUnlock()
	SortArticles(out, order)
	return out, nil
}

func (s *InMemory) UpdateByID(_ context.Context, id string, mutate func(*Article) error) (Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.articles[id]
	if !ok {
		return Article{}, fmt.Errorf("%w: article %s", apperr.ErrNotFound, id)
	}
	next := cloneArticle(cur)
	if err := mutate(&next); err != nil {
		return Article{}, err
	}
	next.ID = cur.ID
	next.SubmitterID = cur.SubmitterID
	next.CreatedAt = cur.CreatedAt
	s.articles[id] = cloneArticle(next)
	return next, nil
}

func (s *InMemory) DeleteByID(_ context.Context, id string, guard func(Article) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.articles[id]
	if !ok {
		return fmt.Errorf("%w: article %s", apperr.ErrNotFound, id)
	}
	if guard != nil {
		if err := guard(cloneArticle(cur)); err != nil {
			return err
		}
	}
	delete(s.articles, id)
	return nil
}

func (s *InMemory) Count(_ context.Context, f Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.articles {
		if f.Match(a) {
			n++
		}
	}
	return n, nil
}

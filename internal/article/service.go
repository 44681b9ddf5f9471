package article

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/XiaoHuahai/group3/internal/apperr"
	"github.com/XiaoHuahai/group3/internal/auth"
	"github.com/XiaoHuahai/group3/internal/ids"
	"github.com/XiaoHuahai/group3/internal/obs"
)

// Service drives articles through submission, moderation and analysis.
type Service struct {
	store Store
	now   func() time.Time
	newID ids.Generator
	log   *zap.Logger
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// WithIDGenerator overrides how article ids are minted.
func WithIDGenerator(gen ids.Generator) ServiceOption {
	return func(s *Service) error {
		if gen != nil {
			s.newID = gen
		}
		return nil
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(log *zap.Logger) ServiceOption {
	return func(s *Service) error {
		if log != nil {
			s.log = log
		}
		return nil
	}
}

// NewService constructs Service with optional configuration.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("article: store is required")
	}
	svc := &Service{
		store: store,
		now:   time.Now,
		log:   zap.NewNop(),
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

// Submit creates a new article owned by p in the Submitted state.
func (s *Service) Submit(ctx context.Context, p auth.Principal, fields Fields) (a Article, err error) {
	defer func() { obs.RecordTransition("submit", err) }()
	if err := p.Require(auth.AllRoles...); err != nil {
		return Article{}, err
	}
	fields, err = fields.Normalize()
	if err != nil {
		return Article{}, err
	}
	now := s.now().UTC()
	a = Article{
		ID:          s.newID(),
		SubmitterID: p.UserID,
		Status:      StatusSubmitted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	a.applyFields(fields)
	if err := s.store.Insert(ctx, &a); err != nil {
		return Article{}, err
	}
	s.log.Info("article submitted",
		zap.String("article_id", a.ID),
		zap.String("actor_id", p.UserID),
	)
	return a, nil
}

// Update overwrites the editable fields of an article still awaiting
// moderation. Only the submitter may do so, whatever roles others hold.
func (s *Service) Update(ctx context.Context, p auth.Principal, id string, fields Fields) (a Article, err error) {
	defer func() { obs.RecordTransition("update", err) }()
	if err := requireAuthenticated(p); err != nil {
		return Article{}, err
	}
	fields, err = fields.Normalize()
	if err != nil {
		return Article{}, err
	}
	a, err = s.store.UpdateByID(ctx, id, func(cur *Article) error {
		if err := checkOwnedAndSubmitted(cur, p, "edited"); err != nil {
			return err
		}
		cur.applyFields(fields)
		cur.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return Article{}, err
	}
	s.log.Info("article updated", zap.String("article_id", a.ID), zap.String("actor_id", p.UserID))
	return a, nil
}

// Delete removes an article still awaiting moderation. Only the submitter may
// do so.
func (s *Service) Delete(ctx context.Context, p auth.Principal, id string) (err error) {
	defer func() { obs.RecordTransition("delete", err) }()
	if err := requireAuthenticated(p); err != nil {
		return err
	}
	err = s.store.DeleteByID(ctx, id, func(cur Article) error {
		return checkOwnedAndSubmitted(&cur, p, "deleted")
	})
	if err != nil {
		return err
	}
	s.log.Info("article deleted", zap.String("article_id", id), zap.String("actor_id", p.UserID))
	return nil
}

// Moderate approves or rejects a Submitted article. A second moderation of
// the same article fails with apperr.ErrInvalidState. Any analysis left on
// the record is cleared for both decisions, not only for reject.
func (s *Service) Moderate(ctx context.Context, p auth.Principal, id string, decision Decision, note string) (a Article, err error) {
	defer func() { obs.RecordTransition("moderate", err) }()
	if err := p.Require(auth.RoleModerator, auth.RoleAdmin); err != nil {
		return Article{}, err
	}
	decision, err = ParseDecision(string(decision))
	if err != nil {
		return Article{}, err
	}
	note = strings.TrimSpace(note)
	a, err = s.store.UpdateByID(ctx, id, func(cur *Article) error {
		if cur.Status != StatusSubmitted {
			return fmt.Errorf("%w: article is %s, not awaiting moderation", apperr.ErrInvalidState, cur.Status)
		}
		now := s.now().UTC()
		if decision == DecisionApprove {
			cur.Status = StatusApprovedForAnalysis
		} else {
			cur.Status = StatusRejected
		}
		cur.ModerationNote = note
		cur.ModeratedBy = p.UserID
		cur.ModeratedAt = &now
		cur.UpdatedAt = now
		// Analysis only exists on Published articles, and neither outcome
		// is Published, so approve clears it too.
		cur.clearAnalysis()
		return nil
	})
	if err != nil {
		return Article{}, err
	}
	s.log.Info("article moderated",
		zap.String("article_id", a.ID),
		zap.String("actor_id", p.UserID),
		zap.String("status", string(a.Status)),
	)
	return a, nil
}

// RecordAnalysis attaches the analyst's findings to an approved article and
// publishes it.
func (s *Service) RecordAnalysis(ctx context.Context, p auth.Principal, id string, fields AnalysisFields) (a Article, err error) {
	defer func() { obs.RecordTransition("analysis", err) }()
	if err := p.Require(auth.RoleAnalyst, auth.RoleAdmin); err != nil {
		return Article{}, err
	}
	analysis, err := fields.Analysis()
	if err != nil {
		return Article{}, err
	}
	a, err = s.store.UpdateByID(ctx, id, func(cur *Article) error {
		if cur.Status != StatusApprovedForAnalysis {
			return fmt.Errorf("%w: article is %s, not awaiting analysis", apperr.ErrInvalidState, cur.Status)
		}
		now := s.now().UTC()
		an := analysis
		cur.Analysis = &an
		cur.Status = StatusPublished
		cur.AnalystID = p.UserID
		cur.AnalysisCompletedAt = &now
		cur.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Article{}, err
	}
	s.log.Info("article published",
		zap.String("article_id", a.ID),
		zap.String("actor_id", p.UserID),
		zap.String("practice", analysis.Practice),
	)
	return a, nil
}

// FindByIDVisibleTo returns a Published article to anyone and an unpublished
// one only to its submitter. Hidden articles are reported as not found.
func (s *Service) FindByIDVisibleTo(ctx context.Context, p auth.Principal, id string) (Article, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Article{}, err
	}
	if a.Status == StatusPublished {
		return a, nil
	}
	if p.Authenticated() && p.UserID == a.SubmitterID {
		return a, nil
	}
	return Article{}, fmt.Errorf("%w: article %s", apperr.ErrNotFound, id)
}

// FindPublishedByID returns the article only if it is Published.
func (s *Service) FindPublishedByID(ctx context.Context, id string) (Article, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Article{}, err
	}
	if a.Status != StatusPublished {
		return Article{}, fmt.Errorf("%w: article %s", apperr.ErrNotFound, id)
	}
	return a, nil
}

// Search returns approved and published articles matching c, newest
// publication first.
func (s *Service) Search(ctx context.Context, c Criteria) ([]Article, error) {
	f, err := BuildFilter(c)
	if err != nil {
		return nil, err
	}
	return s.store.FindMany(ctx, f, SortPublicationDesc)
}

// ListMine returns the caller's own articles, newest first.
func (s *Service) ListMine(ctx context.Context, p auth.Principal) ([]Article, error) {
	if err := p.Require(auth.AllRoles...); err != nil {
		return nil, err
	}
	return s.store.FindMany(ctx, Filter{SubmitterID: p.UserID}, SortCreatedDesc)
}

// PendingModeration returns Submitted articles, oldest first.
func (s *Service) PendingModeration(ctx context.Context, p auth.Principal) ([]Article, error) {
	if err := p.Require(auth.RoleModerator, auth.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.FindMany(ctx, Filter{Statuses: []Status{StatusSubmitted}}, SortCreatedAsc)
}

// PendingAnalysis returns approved articles in the order they were moderated.
func (s *Service) PendingAnalysis(ctx context.Context, p auth.Principal) ([]Article, error) {
	if err := p.Require(auth.RoleAnalyst, auth.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.FindMany(ctx, Filter{Statuses: []Status{StatusApprovedForAnalysis}}, SortModeratedAsc)
}

// Stats counts the articles in each status. Total is the sum of ByStatus.
// The per-status counts are separate reads, so under concurrent writes they
// need not describe a single instant.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByStatus: make(map[Status]int, len(AllStatuses))}
	for _, st := range AllStatuses {
		n, err := s.store.Count(ctx, Filter{Statuses: []Status{st}})
		if err != nil {
			return Stats{}, err
		}
		stats.ByStatus[st] = n
		stats.Total += n
	}
	return stats, nil
}

func requireAuthenticated(p auth.Principal) error {
	if !p.Authenticated() {
		return fmt.Errorf("%w: authentication required", apperr.ErrUnauthorized)
	}
	return nil
}

func checkOwnedAndSubmitted(a *Article, p auth.Principal, verb string) error {
	if a.SubmitterID != p.UserID {
		return fmt.Errorf("%w: only the submitter can change this article", apperr.ErrForbidden)
	}
	if a.Status != StatusSubmitted {
		return fmt.Errorf("%w: article is %s and can no longer be %s", apperr.ErrInvalidState, a.Status, verb)
	}
	return nil
}

package article

import "context"

// Store persists articles. UpdateByID and DeleteByID run their callback
// against the freshly read record and apply the write atomically with it, so
// two concurrent transitions on one article cannot both pass their checks.
type Store interface {
	Insert(ctx context.Context, a *Article) error
	FindByID(ctx context.Context, id string) (Article, error)
	FindMany(ctx context.Context, f Filter, s Sort) ([]Article, error)
	// UpdateByID loads the article, lets mutate change it and persists the
	// result. A non-nil error from mutate aborts without writing. The id and
	// submitter of the article are never changed.
	UpdateByID(ctx context.Context, id string, mutate func(*Article) error) (Article, error)
	// DeleteByID removes the article if guard accepts the current record.
	DeleteByID(ctx context.Context, id string, guard func(Article) error) error
	Count(ctx context.Context, f Filter) (int, error)
}

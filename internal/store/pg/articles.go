package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/XiaoHuahai/group3/internal/apperr"
	"github.com/XiaoHuahai/group3/internal/article"
)

var _ article.Store = (*Articles)(nil)

// Articles implements article.Store. Guarded writes lock the row with
// select ... for update inside a transaction.
type Articles struct {
	db *sql.DB
}

const articleColumns = `id, title, authors, journal_or_conference, publication_year,
	volume, issue, pages, doi, submitter_id, status,
	moderation_note, moderated_by, moderated_at,
	analysis_practice, analysis_claim, analysis_outcome,
	analysis_research_method, analysis_participant_type, analysis_summary,
	analyst_id, analysis_completed_at, created_at, updated_at`

func (s *Articles) Insert(ctx context.Context, a *article.Article) error {
	if s.db == nil {
		return errNoDB
	}
	authors, err := json.Marshal(a.Authors)
	if err != nil {
		return fmt.Errorf("encode authors: %w", err)
	}
	an := analysisColumns(a.Analysis)
	_, err = s.db.ExecContext(ctx, `
		insert into articles (`+articleColumns+`)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`, a.ID, a.Title, authors, nullIfEmpty(a.JournalOrConference), nullYear(a.PublicationYear),
		nullIfEmpty(a.Volume), nullIfEmpty(a.Issue), nullIfEmpty(a.Pages), nullIfEmpty(a.DOI),
		a.SubmitterID, string(a.Status),
		nullIfEmpty(a.ModerationNote), nullIfEmpty(a.ModeratedBy), nullTime(a.ModeratedAt),
		an[0], an[1], an[2], an[3], an[4], an[5],
		nullIfEmpty(a.AnalystID), nullTime(a.AnalysisCompletedAt), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return fmt.Errorf("%w: article %s already exists", apperr.ErrConflict, a.ID)
			case pgErrForeignKeyViolation:
				return fmt.Errorf("%w: submitter %s", apperr.ErrNotFound, a.SubmitterID)
			}
		}
		return err
	}
	return nil
}

func (s *Articles) FindByID(ctx context.Context, id string) (article.Article, error) {
	if s.db == nil {
		return article.Article{}, errNoDB
	}
	row := s.db.QueryRowContext(ctx, `select `+articleColumns+` from articles where id = $1`, id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return article.Article{}, fmt.Errorf("%w: article %s", apperr.ErrNotFound, id)
	}
	return a, err
}

func (s *Articles) FindMany(ctx context.Context, f article.Filter, order article.Sort) ([]article.Article, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	where, args := compileFilter(f)
	rows, err := s.db.QueryContext(ctx, `select `+articleColumns+` from articles`+where+orderBy(order), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]article.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Articles) Count(ctx context.Context, f article.Filter) (int, error) {
	if s.db == nil {
		return 0, errNoDB
	}
	where, args := compileFilter(f)
	var n int
	if err := s.db.QueryRowContext(ctx, `select count(*) from articles`+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Articles) UpdateByID(ctx context.Context, id string, mutate func(*article.Article) error) (article.Article, error) {
	if s.db == nil {
		return article.Article{}, errNoDB
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return article.Article{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := lockArticle(ctx, tx, id)
	if err != nil {
		return article.Article{}, err
	}
	next := cur
	next.Authors = append([]string(nil), cur.Authors...)
	if err := mutate(&next); err != nil {
		return article.Article{}, err
	}
	next.ID = cur.ID
	next.SubmitterID = cur.SubmitterID
	next.CreatedAt = cur.CreatedAt

	authors, err := json.Marshal(next.Authors)
	if err != nil {
		return article.Article{}, fmt.Errorf("encode authors: %w", err)
	}
	an := analysisColumns(next.Analysis)
	if _, err := tx.ExecContext(ctx, `
		update articles set
			title = $2, authors = $3, journal_or_conference = $4, publication_year = $5,
			volume = $6, issue = $7, pages = $8, doi = $9, status = $10,
			moderation_note = $11, moderated_by = $12, moderated_at = $13,
			analysis_practice = $14, analysis_claim = $15, analysis_outcome = $16,
			analysis_research_method = $17, analysis_participant_type = $18, analysis_summary = $19,
			analyst_id = $20, analysis_completed_at = $21, updated_at = $22
		where id = $1
	`, id, next.Title, authors, nullIfEmpty(next.JournalOrConference), nullYear(next.PublicationYear),
		nullIfEmpty(next.Volume), nullIfEmpty(next.Issue), nullIfEmpty(next.Pages), nullIfEmpty(next.DOI),
		string(next.Status),
		nullIfEmpty(next.ModerationNote), nullIfEmpty(next.ModeratedBy), nullTime(next.ModeratedAt),
		an[0], an[1], an[2], an[3], an[4], an[5],
		nullIfEmpty(next.AnalystID), nullTime(next.AnalysisCompletedAt), next.UpdatedAt); err != nil {
		return article.Article{}, err
	}
	if err := tx.Commit(); err != nil {
		return article.Article{}, err
	}
	return next, nil
}

func (s *Articles) DeleteByID(ctx context.Context, id string, guard func(article.Article) error) error {
	if s.db == nil {
		return errNoDB
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := lockArticle(ctx, tx, id)
	if err != nil {
		return err
	}
	if guard != nil {
		if err := guard(cur); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `delete from articles where id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func lockArticle(ctx context.Context, tx *sql.Tx, id string) (article.Article, error) {
	row := tx.QueryRowContext(ctx, `select `+articleColumns+` from articles where id = $1 for update`, id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return article.Article{}, fmt.Errorf("%w: article %s", apperr.ErrNotFound, id)
	}
	return a, err
}

func scanArticle(row scanner) (article.Article, error) {
	var (
		a                                  article.Article
		authors                            []byte
		status                             string
		journal, volume, issue, pages, doi sql.NullString
		note, moderatedBy, analystID       sql.NullString
		practice, claim, outcome           sql.NullString
		method, participants, summary      sql.NullString
		year                               sql.NullInt64
		moderatedAt, completedAt           sql.NullTime
	)
	if err := row.Scan(
		&a.ID, &a.Title, &authors, &journal, &year,
		&volume, &issue, &pages, &doi, &a.SubmitterID, &status,
		&note, &moderatedBy, &moderatedAt,
		&practice, &claim, &outcome,
		&method, &participants, &summary,
		&analystID, &completedAt, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return article.Article{}, err
	}
	if err := json.Unmarshal(authors, &a.Authors); err != nil {
		return article.Article{}, fmt.Errorf("decode authors: %w", err)
	}
	a.Status = article.Status(status)
	a.JournalOrConference = journal.String
	if year.Valid {
		y := int(year.Int64)
		a.PublicationYear = &y
	}
	a.Volume = volume.String
	a.Issue = issue.String
	a.Pages = pages.String
	a.DOI = doi.String
	a.ModerationNote = note.String
	a.ModeratedBy = moderatedBy.String
	a.ModeratedAt = timePtr(moderatedAt)
	if practice.Valid {
		a.Analysis = &article.Analysis{
			Practice:        practice.String,
			Claim:           claim.String,
			Outcome:         article.Outcome(outcome.String),
			ResearchMethod:  article.ResearchMethod(method.String),
			ParticipantType: article.ParticipantType(participants.String),
			Summary:         summary.String,
		}
	}
	a.AnalystID = analystID.String
	a.AnalysisCompletedAt = timePtr(completedAt)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

// analysisColumns flattens an analysis into its six nullable columns.
func analysisColumns(an *article.Analysis) [6]sql.NullString {
	if an == nil {
		return [6]sql.NullString{}
	}
	return [6]sql.NullString{
		{String: an.Practice, Valid: true},
		nullIfEmpty(an.Claim),
		nullIfEmpty(string(an.Outcome)),
		nullIfEmpty(string(an.ResearchMethod)),
		nullIfEmpty(string(an.ParticipantType)),
		nullIfEmpty(an.Summary),
	}
}

func nullYear(y *int) sql.NullInt64 {
	if y == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*y), Valid: true}
}

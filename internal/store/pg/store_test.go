package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/XiaoHuahai/group3/internal/apperr"
	"github.com/XiaoHuahai/group3/internal/article"
	"github.com/XiaoHuahai/group3/internal/auth"
)

var (
	userCols    = []string{"id", "email", "password_hash", "name", "roles", "created_at", "updated_at"}
	articleCols = []string{
		"id", "title", "authors", "journal_or_conference", "publication_year",
		"volume", "issue", "pages", "doi", "submitter_id", "status",
		"moderation_note", "moderated_by", "moderated_at",
		"analysis_practice", "analysis_claim", "analysis_outcome",
		"analysis_research_method", "analysis_participant_type", "analysis_summary",
		"analyst_id", "analysis_completed_at", "created_at", "updated_at",
	}
	created = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func submittedRow() *sqlmock.Rows {
	return sqlmock.NewRows(articleCols).AddRow(
		"a1", "A", []byte(`["X","Y"]`), nil, int64(2021),
		nil, nil, nil, nil, "u1", "Submitted",
		nil, nil, nil,
		nil, nil, nil,
		nil, nil, nil,
		nil, nil, created, created,
	)
}

func TestUsersCreateMapsUniqueViolation(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec("insert into users").
		WithArgs("u1", "a@x.com", "hash", sqlmock.AnyArg(), []byte(`["Submitter"]`), created, created).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	err := store.Users().Create(context.Background(), &auth.User{
		ID: "u1", Email: "a@x.com", PasswordHash: "hash",
		Roles: []auth.Role{auth.RoleSubmitter}, CreatedAt: created, UpdatedAt: created,
	})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUsersFindByEmail(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("select id, email.*from users where email = \\$1").
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "a@x.com", "hash", "Ada", []byte(`["Submitter","Analyst"]`), created, created))
	mock.ExpectQuery("select id, email.*from users where email = \\$1").
		WithArgs("nobody@x.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	users := store.Users()
	u, err := users.FindByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if u.ID != "u1" || u.Name != "Ada" || !u.HasRole(auth.RoleAnalyst) || u.PasswordHash != "hash" {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := users.FindByEmail(context.Background(), "nobody@x.com"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUsersUpdateRoles(t *testing.T) {
	store, mock := newMock(t)
	at := created.Add(time.Hour)
	mock.ExpectQuery("update users set roles = \\$2, updated_at = \\$3 where id = \\$1 returning").
		WithArgs("u1", []byte(`["Moderator"]`), at).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "a@x.com", "hash", nil, []byte(`["Moderator"]`), created, at))
	mock.ExpectQuery("update users set roles").
		WithArgs("missing", sqlmock.AnyArg(), at).
		WillReturnRows(sqlmock.NewRows(userCols))

	users := store.Users()
	u, err := users.UpdateRoles(context.Background(), "u1", []auth.Role{auth.RoleModerator}, at)
	if err != nil {
		t.Fatalf("UpdateRoles: %v", err)
	}
	if len(u.Roles) != 1 || u.Roles[0] != auth.RoleModerator || !u.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := users.UpdateRoles(context.Background(), "missing", []auth.Role{auth.RoleAdmin}, at); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestArticlesUpdateByIDLocksAndWrites(t *testing.T) {
	store, mock := newMock(t)
	moderatedAt := created.Add(time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery("from articles where id = \\$1 for update").WithArgs("a1").WillReturnRows(submittedRow())
	mock.ExpectExec("update articles set").
		WithArgs("a1", "A", []byte(`["X","Y"]`), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"ApprovedForAnalysis",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), moderatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := store.Articles().UpdateByID(context.Background(), "a1", func(a *article.Article) error {
		a.SubmitterID = "someone-else"
		a.Status = article.StatusApprovedForAnalysis
		a.ModeratedBy = "m1"
		a.ModeratedAt = &moderatedAt
		a.UpdatedAt = moderatedAt
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateByID: %v", err)
	}
	if got.Status != article.StatusApprovedForAnalysis || got.SubmitterID != "u1" || *got.PublicationYear != 2021 {
		t.Fatalf("unexpected article %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestArticlesUpdateByIDRollsBackOnMutatorError(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("for update").WithArgs("a1").WillReturnRows(submittedRow())
	mock.ExpectRollback()

	_, err := store.Articles().UpdateByID(context.Background(), "a1", func(a *article.Article) error {
		return apperr.ErrInvalidState
	})
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestArticlesDeleteByID(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("for update").WithArgs("a1").WillReturnRows(submittedRow())
	mock.ExpectExec("delete from articles where id = \\$1").WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectQuery("for update").WithArgs("gone").WillReturnRows(sqlmock.NewRows(articleCols))
	mock.ExpectRollback()

	articles := store.Articles()
	var seen article.Article
	if err := articles.DeleteByID(context.Background(), "a1", func(a article.Article) error {
		seen = a
		return nil
	}); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if seen.ID != "a1" || len(seen.Authors) != 2 {
		t.Fatalf("guard saw %+v", seen)
	}
	if err := articles.DeleteByID(context.Background(), "gone", nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestArticlesFindManyScansAnalysis(t *testing.T) {
	store, mock := newMock(t)
	done := created.Add(2 * time.Hour)
	rows := sqlmock.NewRows(articleCols).AddRow(
		"a2", "TDD study", []byte(`["Beck"]`), "ICSE", nil,
		"1", "2", "10-20", "10.1/x", "u1", "Published",
		"ok", "m1", created.Add(time.Hour),
		"TDD", "improves quality", "Supports",
		"Experiment", nil, nil,
		"an1", done, created, done,
	)
	mock.ExpectQuery("from articles where status in \\(\\$1, \\$2\\) and analysis_practice = \\$3 order by publication_year desc nulls last").
		WithArgs("ApprovedForAnalysis", "Published", "TDD").
		WillReturnRows(rows)

	f, err := article.BuildFilter(article.Criteria{Practice: "TDD"})
	if err != nil {
		t.Fatalf("BuildFilter: %v", err)
	}
	list, err := store.Articles().FindMany(context.Background(), f, article.SortPublicationDesc)
	if err != nil {
		t.Fatalf("FindMany: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 article, got %d", len(list))
	}
	a := list[0]
	if a.PublicationYear != nil || a.Analysis == nil || a.Analysis.Outcome != article.OutcomeSupports || a.Analysis.ResearchMethod != article.MethodExperiment {
		t.Fatalf("unexpected article %+v", a)
	}
	if a.AnalysisCompletedAt == nil || !a.AnalysisCompletedAt.Equal(done) || a.AnalystID != "an1" {
		t.Fatalf("unexpected analysis bookkeeping %+v", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestArticlesCount(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("select count\\(\\*\\) from articles where status in \\(\\$1\\)").
		WithArgs("Rejected").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := store.Articles().Count(context.Background(), article.Filter{Statuses: []article.Status{article.StatusRejected}})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCompileFilter(t *testing.T) {
	from, to := 2020, 2022
	where, args := compileFilter(article.Filter{
		Statuses:       []article.Status{article.StatusPublished},
		YearFrom:       &from,
		YearTo:         &to,
		AuthorContains: "o'neil_50%",
		AnyText:        "agile",
	})
	for _, part := range []string{
		"status in ($1)",
		"publication_year >= $2",
		"publication_year <= $3",
		"jsonb_array_elements_text(authors) as au(name) where au.name ilike $4",
		"(title ilike $5 or exists",
		"journal_or_conference ilike $5)",
	} {
		if !strings.Contains(where, part) {
			t.Fatalf("where clause %q missing %q", where, part)
		}
	}
	if len(args) != 5 || args[3] != `%o'neil\_50\%%` || args[4] != "%agile%" {
		t.Fatalf("unexpected args %#v", args)
	}

	where, args = compileFilter(article.Filter{TitleContains: "Über", AuthorContains: "Åström"})
	if !strings.Contains(where, "title ilike $1") || !strings.Contains(where, "au.name ilike $2") {
		t.Fatalf("unexpected where clause %q", where)
	}
	if len(args) != 2 || args[0] != "%Über%" || args[1] != "%Åström%" {
		t.Fatalf("non-ASCII patterns must reach the database unchanged, got %#v", args)
	}

	if where, args := compileFilter(article.Filter{}); where != "" || args != nil {
		t.Fatalf("empty filter must not constrain, got %q %v", where, args)
	}
}

func TestNilDB(t *testing.T) {
	store := New(nil)
	if err := store.Ping(context.Background()); err == nil {
		t.Fatal("expected error without database")
	}
	if _, err := store.Articles().FindByID(context.Background(), "a1"); err == nil || errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

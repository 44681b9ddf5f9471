package migrate

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/XiaoHuahai/group3/migrations"
)

var fixedNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"0001_users.up.sql":      {Data: []byte("create table users (id text);\ncreate index users_idx on users (id);")},
		"0001_users.down.sql":    {Data: []byte("drop table users;")},
		"0002_articles.up.sql":   {Data: []byte("create table articles (id text, note text default 'a;b');")},
		"0002_articles.down.sql": {Data: []byte("drop table articles;")},
		"README.md":              {Data: []byte("not sql")},
	}
}

func TestUpAppliesPendingInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_users.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("create table articles (id text, note text default 'a;b')")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("insert into schema_migrations").WithArgs("0002_articles.up.sql", fixedNow).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mgr := NewManager(db, testFS(), WithClock(func() time.Time { return fixedNow }))
	applied, err := mgr.Up(context.Background())
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if len(applied) != 1 || applied[0] != "0002_articles.up.sql" {
		t.Fatalf("unexpected applied list %v", applied)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpRollsBackFailedMigration(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	boom := errors.New("syntax error")
	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_migrations").WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec("create table users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create index users_idx").WillReturnError(boom)
	mock.ExpectRollback()

	applied, err := NewManager(db, testFS()).Up(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected migration error, got %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("nothing should be reported as applied, got %v", applied)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDownRollsBackLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_migrations order by applied_at").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_users.up.sql").AddRow("0002_articles.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec("drop table articles").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("delete from schema_migrations where name").WithArgs("0002_articles.up.sql").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	name, err := NewManager(db, testFS()).Down(context.Background())
	if err != nil {
		t.Fatalf("Down: %v", err)
	}
	if name != "0002_articles.up.sql" {
		t.Fatalf("unexpected rolled back migration %q", name)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDownWithNothingApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_migrations").WillReturnRows(sqlmock.NewRows([]string{"name"}))

	if _, err := NewManager(db, testFS()).Down(context.Background()); !errors.Is(err, ErrNothingApplied) {
		t.Fatalf("expected ErrNothingApplied, got %v", err)
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("create table a (x text default ';');\n\n  ;insert into a values ('it''s');")
	want := []string{"create table a (x text default ';')", "insert into a values ('it''s')"}
	if len(got) != len(want) {
		t.Fatalf("expected %d statements, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("statement %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	files := migrations.FS()
	ups, err := collectSQL(files, ".up.sql")
	if err != nil {
		t.Fatalf("collectSQL: %v", err)
	}
	if len(ups) < 2 {
		t.Fatalf("expected users and articles migrations, got %v", ups)
	}
	downs, err := collectSQL(files, ".down.sql")
	if err != nil {
		t.Fatalf("collectSQL: %v", err)
	}
	if len(downs) != len(ups) {
		t.Fatalf("every up migration needs a down migration: %v vs %v", ups, downs)
	}
}

package article

import (
	"errors"
	"testing"
	"time"

	"github.com/XiaoHuahai/group3/internal/apperr"
)

func TestBuildFilterSearchTermOnlyWithoutTitleOrAuthor(t *testing.T) {
	f, err := BuildFilter(Criteria{SearchTerm: " agile "})
	if err != nil {
		t.Fatalf("BuildFilter: %v", err)
	}
	if f.AnyText != "agile" {
		t.Fatalf("expected AnyText to be set, got %q", f.AnyText)
	}
	if len(f.Statuses) != 2 || f.Statuses[0] != StatusApprovedForAnalysis || f.Statuses[1] != StatusPublished {
		t.Fatalf("unexpected statuses %v", f.Statuses)
	}

	f, err = BuildFilter(Criteria{SearchTerm: "agile", Author: "beck"})
	if err != nil {
		t.Fatalf("BuildFilter: %v", err)
	}
	if f.AnyText != "" || f.AuthorContains != "beck" {
		t.Fatalf("searchTerm must be ignored when author is given: %+v", f)
	}
}

func TestBuildFilterParsesEnums(t *testing.T) {
	f, err := BuildFilter(Criteria{Outcome: "Mixed", ResearchMethod: "CaseStudy", ParticipantType: "Practitioners"})
	if err != nil {
		t.Fatalf("BuildFilter: %v", err)
	}
	if f.Outcome != OutcomeMixed || f.ResearchMethod != MethodCaseStudy || f.ParticipantType != ParticipantsPractitioners {
		t.Fatalf("unexpected filter %+v", f)
	}
	for _, c := range []Criteria{{ResearchMethod: "casestudy"}, {ParticipantType: "Aliens"}} {
		if _, err := BuildFilter(c); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Fatalf("BuildFilter(%+v): expected ErrInvalidArgument, got %v", c, err)
		}
	}
}

func TestFilterMatch(t *testing.T) {
	published := Article{
		ID:                  "a1",
		Title:               "Test-Driven Development in Practice",
		Authors:             []string{"Kent Beck", "Erich Gamma"},
		JournalOrConference: "ICSE",
		PublicationYear:     year(2021),
		Status:              StatusPublished,
		Analysis:            &Analysis{Practice: "TDD", Claim: "improves quality", Outcome: OutcomeSupports, ResearchMethod: MethodExperiment},
	}
	approved := Article{
		ID:      "a2",
		Title:   "Pair programming",
		Authors: []string{"Laurie Williams"},
		Status:  StatusApprovedForAnalysis,
	}

	accented := Article{
		ID:      "a3",
		Title:   "Über agile Teams",
		Authors: []string{"Jürgen Åström"},
		Status:  StatusPublished,
	}

	cases := []struct {
		name    string
		c       Criteria
		article Article
		want    bool
	}{
		{"base published", Criteria{}, published, true},
		{"base approved", Criteria{}, approved, true},
		{"submitted excluded", Criteria{}, Article{Status: StatusSubmitted}, false},
		{"rejected excluded", Criteria{}, Article{Status: StatusRejected}, false},
		{"practice exact", Criteria{Practice: "TDD"}, published, true},
		{"practice is not substring", Criteria{Practice: "TD"}, published, false},
		{"practice needs analysis", Criteria{Practice: "TDD"}, approved, false},
		{"outcome", Criteria{Outcome: "Contradicts"}, published, false},
		{"method", Criteria{ResearchMethod: "Experiment"}, published, true},
		{"year inside", Criteria{YearFrom: year(2021), YearTo: year(2021)}, published, true},
		{"year below", Criteria{YearFrom: year(2022)}, published, false},
		{"year missing", Criteria{YearTo: year(2030)}, approved, false},
		{"title fold", Criteria{Title: "driven DEV"}, published, true},
		{"author fold", Criteria{Author: "GAMMA"}, published, true},
		{"author miss", Criteria{Author: "fowler"}, published, false},
		{"term journal", Criteria{SearchTerm: "icse"}, published, true},
		{"term author", Criteria{SearchTerm: "williams"}, approved, true},
		{"term miss", Criteria{SearchTerm: "kanban"}, published, false},
		{"term ignored with title", Criteria{Title: "pair", SearchTerm: "kanban"}, approved, true},
		{"title unicode fold", Criteria{Title: "über AGILE"}, accented, true},
		{"author unicode fold", Criteria{Author: "ÅSTRÖM"}, accented, true},
		{"term unicode fold", Criteria{SearchTerm: "jürgen"}, accented, true},
		{"unicode is not ascii folded", Criteria{Title: "uber"}, accented, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := BuildFilter(tc.c)
			if err != nil {
				t.Fatalf("BuildFilter: %v", err)
			}
			if got := f.Match(tc.article); got != tc.want {
				t.Fatalf("Match=%v, want %v", got, tc.want)
			}
		})
	}
}

func TestSortArticlesPublicationDesc(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	list := []Article{
		{ID: "no-year-old", CreatedAt: base},
		{ID: "2020", PublicationYear: year(2020), CreatedAt: base},
		{ID: "2022-old", PublicationYear: year(2022), CreatedAt: base},
		{ID: "no-year-new", CreatedAt: base.Add(time.Hour)},
		{ID: "2022-new", PublicationYear: year(2022), CreatedAt: base.Add(time.Hour)},
	}
	SortArticles(list, SortPublicationDesc)
	want := []string{"2022-new", "2022-old", "2020", "no-year-new", "no-year-old"}
	for i, a := range list {
		if a.ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], a.ID)
		}
	}
}

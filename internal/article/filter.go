package article

import (
	"fmt"
	"sort"
	"strings"

	"github.com/XiaoHuahai/group3/internal/apperr"
)

// Criteria are the optional narrowing terms of a public search. Zero values
// mean "not given".
type Criteria struct {
	Practice        string
	Claim           string
	ResearchMethod  string
	ParticipantType string
	Outcome         string
	YearFrom        *int
	YearTo          *int
	Title           string
	Author          string
	// SearchTerm is only honoured when neither Title nor Author is set.
	SearchTerm string
}

// Filter is a store-agnostic predicate over articles. Every non-zero field
// narrows the result; the fields are combined with AND.
type Filter struct {
	Statuses    []Status
	SubmitterID string

	Practice        string
	Claim           string
	Outcome         Outcome
	ResearchMethod  ResearchMethod
	ParticipantType ParticipantType

	YearFrom *int
	YearTo   *int

	TitleContains  string
	AuthorContains string
	// AnyText matches title, any author or journalOrConference.
	AnyText string
}

// Sort selects the result ordering of FindMany.
type Sort int

const (
	// SortPublicationDesc orders by publicationYear descending with missing
	// years last, then createdAt descending.
	SortPublicationDesc Sort = iota
	SortCreatedDesc
	SortCreatedAsc
	SortModeratedAsc
)

// BuildFilter turns search criteria into a Filter restricted to the
// searchable statuses. It never touches storage.
func BuildFilter(c Criteria) (Filter, error) {
	f := Filter{
		Statuses: append([]Status(nil), SearchableStatuses...),
		Practice: strings.TrimSpace(c.Practice),
		Claim:    strings.TrimSpace(c.Claim),
	}
	var err error
	if strings.TrimSpace(c.Outcome) != "" {
		if f.Outcome, err = ParseOutcome(c.Outcome); err != nil {
			return Filter{}, err
		}
	}
	if strings.TrimSpace(c.ResearchMethod) != "" {
		if f.ResearchMethod, err = ParseResearchMethod(c.ResearchMethod); err != nil {
			return Filter{}, err
		}
	}
	if strings.TrimSpace(c.ParticipantType) != "" {
		if f.ParticipantType, err = ParseParticipantType(c.ParticipantType); err != nil {
			return Filter{}, err
		}
	}
	if c.YearFrom != nil {
		if err := checkYear("yearFrom", *c.YearFrom); err != nil {
			return Filter{}, err
		}
		f.YearFrom = cloneInt(c.YearFrom)
	}
	if c.YearTo != nil {
		if err := checkYear("yearTo", *c.YearTo); err != nil {
			return Filter{}, err
		}
		f.YearTo = cloneInt(c.YearTo)
	}
	if f.YearFrom != nil && f.YearTo != nil && *f.YearFrom > *f.YearTo {
		return Filter{}, fmt.Errorf("%w: yearFrom must not be after yearTo", apperr.ErrInvalidArgument)
	}
	f.TitleContains = strings.TrimSpace(c.Title)
	f.AuthorContains = strings.TrimSpace(c.Author)
	if f.TitleContains == "" && f.AuthorContains == "" {
		f.AnyText = strings.TrimSpace(c.SearchTerm)
	}
	return f, nil
}

// Match reports whether a satisfies every term of f.
func (f Filter) Match(a Article) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, a.Status) {
		return false
	}
	if f.SubmitterID != "" && a.SubmitterID != f.SubmitterID {
		return false
	}
	if f.Practice != "" || f.Claim != "" || f.Outcome != "" || f.ResearchMethod != "" || f.ParticipantType != "" {
		an := a.Analysis
		if an == nil {
			return false
		}
		if f.Practice != "" && an.Practice != f.Practice {
			return false
		}
		if f.Claim != "" && an.Claim != f.Claim {
			return false
		}
		if f.Outcome != "" && an.Outcome != f.Outcome {
			return false
		}
		if f.ResearchMethod != "" && an.ResearchMethod != f.ResearchMethod {
			return false
		}
		if f.ParticipantType != "" && an.ParticipantType != f.ParticipantType {
			return false
		}
	}
	if f.YearFrom != nil && (a.PublicationYear == nil || *a.PublicationYear < *f.YearFrom) {
		return false
	}
	if f.YearTo != nil && (a.PublicationYear == nil || *a.PublicationYear > *f.YearTo) {
		return false
	}
	if f.TitleContains != "" && !containsFold(a.Title, f.TitleContains) {
		return false
	}
	if f.AuthorContains != "" && !anyContainsFold(a.Authors, f.AuthorContains) {
		return false
	}
	if f.AnyText != "" &&
		!containsFold(a.Title, f.AnyText) &&
		!anyContainsFold(a.Authors, f.AnyText) &&
		!containsFold(a.JournalOrConference, f.AnyText) {
		return false
	}
	return true
}

// SortArticles orders list in place.
func SortArticles(list []Article, s Sort) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch s {
		case SortCreatedDesc:
			return newerFirst(a, b)
		case SortCreatedAsc:
			return newerFirst(b, a)
		case SortModeratedAsc:
			switch {
			case a.ModeratedAt == nil && b.ModeratedAt == nil:
				return newerFirst(b, a)
			case a.ModeratedAt == nil:
				return false
			case b.ModeratedAt == nil:
				return true
			case !a.ModeratedAt.Equal(*b.ModeratedAt):
				return a.ModeratedAt.Before(*b.ModeratedAt)
			}
			return newerFirst(b, a)
		default:
			switch {
			case a.PublicationYear == nil && b.PublicationYear == nil:
				return newerFirst(a, b)
			case a.PublicationYear == nil:
				return false
			case b.PublicationYear == nil:
				return true
			case *a.PublicationYear != *b.PublicationYear:
				return *a.PublicationYear > *b.PublicationYear
			}
			return newerFirst(a, b)
		}
	})
}

// newerFirst orders by createdAt descending, id descending on ties.
func newerFirst(a, b Article) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// containsFold folds with Unicode case rules. The PostgreSQL store uses
// ilike, which only agrees for non-ASCII text when the database ctype is a
// UTF-8 locale rather than C.
func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func anyContainsFold(list []string, sub string) bool {
	for _, s := range list {
		if containsFold(s, sub) {
			return true
		}
	}
	return false
}

package pg

import (
	"fmt"
	"strings"

	"github.com/XiaoHuahai/group3/internal/article"
)

// compileFilter renders f as a where clause with positional arguments.
func compileFilter(f article.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.Statuses) > 0 {
		marks := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			marks = append(marks, arg(string(st)))
		}
		conds = append(conds, "status in ("+strings.Join(marks, ", ")+")")
	}
	if f.SubmitterID != "" {
		conds = append(conds, "submitter_id = "+arg(f.SubmitterID))
	}
	for _, eq := range []struct {
		column string
		value  string
	}{
		{"analysis_practice", f.Practice},
		{"analysis_claim", f.Claim},
		{"analysis_outcome", string(f.Outcome)},
		{"analysis_research_method", string(f.ResearchMethod)},
		{"analysis_participant_type", string(f.ParticipantType)},
	} {
		if eq.value != "" {
			conds = append(conds, eq.column+" = "+arg(eq.value))
		}
	}
	if f.YearFrom != nil {
		conds = append(conds, "publication_year >= "+arg(*f.YearFrom))
	}
	if f.YearTo != nil {
		conds = append(conds, "publication_year <= "+arg(*f.YearTo))
	}
	if f.TitleContains != "" {
		conds = append(conds, "title ilike "+arg(likePattern(f.TitleContains)))
	}
	if f.AuthorContains != "" {
		conds = append(conds, authorMatches(arg(likePattern(f.AuthorContains))))
	}
	if f.AnyText != "" {
		p := arg(likePattern(f.AnyText))
		conds = append(conds, "(title ilike "+p+" or "+authorMatches(p)+" or journal_or_conference ilike "+p+")")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " where " + strings.Join(conds, " and "), args
}

// authorMatches, like the title and journal conditions, relies on ilike.
// Non-ASCII folding follows the database LC_CTYPE; create the database with
// a UTF-8 locale to match the in-memory store.
func authorMatches(placeholder string) string {
	return "exists (select 1 from jsonb_array_elements_text(authors) as au(name) where au.name ilike " + placeholder + ")"
}

func orderBy(s article.Sort) string {
	switch s {
	case article.SortCreatedDesc:
		return " order by created_at desc, id desc"
	case article.SortCreatedAsc:
		return " order by created_at asc, id asc"
	case article.SortModeratedAsc:
		return " order by moderated_at asc nulls last, created_at asc, id asc"
	default:
		return " order by publication_year desc nulls last, created_at desc, id desc"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a substring pattern with LIKE metacharacters escaped.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

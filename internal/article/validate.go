package article

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/XiaoHuahai/group3/internal/apperr"
)

const (
	MinPublicationYear = 1900
	MaxPublicationYear = 2100
	maxSummaryLength   = 2000
)

// Fields are the bibliographic attributes a submitter controls.
type Fields struct {
	Title               string   `json:"title"`
	Authors             []string `json:"authors"`
	JournalOrConference string   `json:"journalOrConference,omitempty"`
	PublicationYear     *int     `json:"publicationYear,omitempty"`
	Volume              string   `json:"volume,omitempty"`
	Issue               string   `json:"issue,omitempty"`
	Pages               string   `json:"pages,omitempty"`
	DOI                 string   `json:"doi,omitempty"`
}

// Normalize trims every field and checks required values and ranges.
func (f Fields) Normalize() (Fields, error) {
	out := Fields{
		Title:               strings.TrimSpace(f.Title),
		JournalOrConference: strings.TrimSpace(f.JournalOrConference),
		PublicationYear:     cloneInt(f.PublicationYear),
		Volume:              strings.TrimSpace(f.Volume),
		Issue:               strings.TrimSpace(f.Issue),
		Pages:               strings.TrimSpace(f.Pages),
		DOI:                 strings.TrimSpace(f.DOI),
	}
	if out.Title == "" {
		return Fields{}, fmt.Errorf("%w: title is required", apperr.ErrInvalidArgument)
	}
	if len(f.Authors) == 0 {
		return Fields{}, fmt.Errorf("%w: at least one author is required", apperr.ErrInvalidArgument)
	}
	out.Authors = make([]string, 0, len(f.Authors))
	for i, name := range f.Authors {
		name = strings.TrimSpace(name)
		if name == "" {
			return Fields{}, fmt.Errorf("%w: author %d is empty", apperr.ErrInvalidArgument, i+1)
		}
		out.Authors = append(out.Authors, name)
	}
	if out.PublicationYear != nil {
		if err := checkYear("publicationYear", *out.PublicationYear); err != nil {
			return Fields{}, err
		}
	}
	return out, nil
}

// AnalysisFields is the analyst's input, with enumerations still unparsed.
type AnalysisFields struct {
	Practice        string `json:"practice"`
	Claim           string `json:"claim"`
	Outcome         string `json:"outcome"`
	ResearchMethod  string `json:"researchMethod,omitempty"`
	ParticipantType string `json:"participantType,omitempty"`
	Summary         string `json:"summary,omitempty"`
}

// Analysis validates f and converts it into a stored Analysis.
func (f AnalysisFields) Analysis() (Analysis, error) {
	an := Analysis{
		Practice: strings.TrimSpace(f.Practice),
		Claim:    strings.TrimSpace(f.Claim),
		Summary:  strings.TrimSpace(f.Summary),
	}
	if an.Practice == "" {
		return Analysis{}, fmt.Errorf("%w: practice is required", apperr.ErrInvalidArgument)
	}
	if an.Claim == "" {
		return Analysis{}, fmt.Errorf("%w: claim is required", apperr.ErrInvalidArgument)
	}
	if strings.TrimSpace(f.Outcome) == "" {
		return Analysis{}, fmt.Errorf("%w: outcome is required", apperr.ErrInvalidArgument)
	}
	var err error
	if an.Outcome, err = ParseOutcome(f.Outcome); err != nil {
		return Analysis{}, err
	}
	if strings.TrimSpace(f.ResearchMethod) != "" {
		if an.ResearchMethod, err = ParseResearchMethod(f.ResearchMethod); err != nil {
			return Analysis{}, err
		}
	}
	if strings.TrimSpace(f.ParticipantType) != "" {
		if an.ParticipantType, err = ParseParticipantType(f.ParticipantType); err != nil {
			return Analysis{}, err
		}
	}
	if utf8.RuneCountInString(an.Summary) > maxSummaryLength {
		return Analysis{}, fmt.Errorf("%w: summary exceeds %d characters", apperr.ErrInvalidArgument, maxSummaryLength)
	}
	return an, nil
}

// ParseDecision accepts exactly "approve" or "reject".
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.TrimSpace(s)); d {
	case DecisionApprove, DecisionReject:
		return d, nil
	default:
		return "", fmt.Errorf("%w: decision must be %q or %q", apperr.ErrInvalidArgument, DecisionApprove, DecisionReject)
	}
}

func ParseOutcome(s string) (Outcome, error) {
	return parseEnum(s, "outcome", outcomes)
}

func ParseResearchMethod(s string) (ResearchMethod, error) {
	return parseEnum(s, "researchMethod", researchMethods)
}

func ParseParticipantType(s string) (ParticipantType, error) {
	return parseEnum(s, "participantType", participantTypes)
}

func parseEnum[T ~string](s, field string, known []T) (T, error) {
	s = strings.TrimSpace(s)
	for _, v := range known {
		if string(v) == s {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: unknown %s %q", apperr.ErrInvalidArgument, field, s)
}

func checkYear(field string, year int) error {
	if year < MinPublicationYear || year > MaxPublicationYear {
		return fmt.Errorf("%w: %s must be between %d and %d", apperr.ErrInvalidArgument, field, MinPublicationYear, MaxPublicationYear)
	}
	return nil
}

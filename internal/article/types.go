package article

import "time"

// Status is the lifecycle state of an article.
type Status string

const (
	StatusSubmitted           Status = "Submitted"
	StatusRejected            Status = "Rejected"
	StatusApprovedForAnalysis Status = "ApprovedForAnalysis"
	StatusPublished           Status = "Published"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{StatusSubmitted, StatusRejected, StatusApprovedForAnalysis, StatusPublished}

// SearchableStatuses are the only statuses public search may return.
var SearchableStatuses = []Status{StatusApprovedForAnalysis, StatusPublished}

// Outcome is the verdict an analysis reaches about a claim.
type Outcome string

const (
	OutcomeSupports     Outcome = "Supports"
	OutcomeContradicts  Outcome = "Contradicts"
	OutcomeMixed        Outcome = "Mixed"
	OutcomeInconclusive Outcome = "Inconclusive"
)

var outcomes = []Outcome{OutcomeSupports, OutcomeContradicts, OutcomeMixed, OutcomeInconclusive}

// ResearchMethod describes how the study was conducted.
type ResearchMethod string

const (
	MethodExperiment   ResearchMethod = "Experiment"
	MethodCaseStudy    ResearchMethod = "CaseStudy"
	MethodSurvey       ResearchMethod = "Survey"
	MethodMixedMethods ResearchMethod = "MixedMethods"
	MethodMetaAnalysis ResearchMethod = "MetaAnalysis"
	MethodOther        ResearchMethod = "Other"
)

var researchMethods = []ResearchMethod{
	MethodExperiment, MethodCaseStudy, MethodSurvey,
	MethodMixedMethods, MethodMetaAnalysis, MethodOther,
}

// ParticipantType describes who took part in the study.
type ParticipantType string

const (
	ParticipantsStudents      ParticipantType = "Students"
	ParticipantsPractitioners ParticipantType = "Practitioners"
	ParticipantsMixed         ParticipantType = "Mixed"
	ParticipantsNotReported   ParticipantType = "NotReported"
)

var participantTypes = []ParticipantType{
	ParticipantsStudents, ParticipantsPractitioners, ParticipantsMixed, ParticipantsNotReported,
}

// Decision is the result of moderating a submitted article.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Analysis is the structured finding extracted from a published article.
type Analysis struct {
	Practice        string          `json:"practice"`
	Claim           string          `json:"claim"`
	Outcome         Outcome         `json:"outcome"`
	ResearchMethod  ResearchMethod  `json:"researchMethod,omitempty"`
	ParticipantType ParticipantType `json:"participantType,omitempty"`
	Summary         string          `json:"summary,omitempty"`
}

// Article is a bibliographic record moving through moderation and analysis.
type Article struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Authors             []string   `json:"authors"`
	JournalOrConference string     `json:"journalOrConference,omitempty"`
	PublicationYear     *int       `json:"publicationYear,omitempty"`
	Volume              string     `json:"volume,omitempty"`
	Issue               string     `json:"issue,omitempty"`
	Pages               string     `json:"pages,omitempty"`
	DOI                 string     `json:"doi,omitempty"`
	SubmitterID         string     `json:"submitter"`
	Status              Status     `json:"status"`
	ModerationNote      string     `json:"moderationNote,omitempty"`
	ModeratedBy         string     `json:"moderatedBy,omitempty"`
	ModeratedAt         *time.Time `json:"moderatedAt,omitempty"`
	Analysis            *Analysis  `json:"analysis,omitempty"`
	AnalystID           string     `json:"analyst,omitempty"`
	AnalysisCompletedAt *time.Time `json:"analysisCompletedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// Stats counts articles in total and per status.
type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"byStatus"`
}

func (a *Article) applyFields(f Fields) {
	a.Title = f.Title
	a.Authors = append([]string(nil), f.Authors...)
	a.JournalOrConference = f.JournalOrConference
	a.PublicationYear = cloneInt(f.PublicationYear)
	a.Volume = f.Volume
	a.Issue = f.Issue
	a.Pages = f.Pages
	a.DOI = f.DOI
}

func (a *Article) clearAnalysis() {
	a.Analysis = nil
	a.AnalystID = ""
	a.AnalysisCompletedAt = nil
}

func cloneArticle(a Article) Article {
	a.Authors = append([]string(nil), a.Authors...)
	a.PublicationYear = cloneInt(a.PublicationYear)
	a.ModeratedAt = cloneTime(a.ModeratedAt)
	a.AnalysisCompletedAt = cloneTime(a.AnalysisCompletedAt)
	if a.Analysis != nil {
		an := *a.Analysis
		a.Analysis = &an
	}
	return a
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

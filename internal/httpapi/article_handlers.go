package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/XiaoHuahai/group3/internal/apperr"
	"github.com/XiaoHuahai/group3/internal/article"
	"github.com/XiaoHuahai/group3/internal/auth"
)

type moderateRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note,omitempty"`
}

type searchDebugResponse struct {
	Results []article.Article `json:"results"`
	Count   int               `json:"count"`
	Stats   article.Stats     `json:"stats"`
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req article.Fields
	if err := decodeJSON(r, &req); err != nil {
		a.handleError(w, r, err)
		return
	}
	created, err := a.articles.Submit(r.Context(), auth.PrincipalFromContext(r.Context()), req)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	w.Header().Set("Location", "/articles/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleMine(w http.ResponseWriter, r *http.Request) {
	list, err := a.articles.ListMine(r.Context(), auth.PrincipalFromContext(r.Context()))
	a.writeList(w, r, list, err)
}

func (a *API) handlePendingModeration(w http.ResponseWriter, r *http.Request) {
	list, err := a.articles.PendingModeration(r.Context(), auth.PrincipalFromContext(r.Context()))
	a.writeList(w, r, list, err)
}

func (a *API) handlePendingAnalysis(w http.ResponseWriter, r *http.Request) {
	list, err := a.articles.PendingAnalysis(r.Context(), auth.PrincipalFromContext(r.Context()))
	a.writeList(w, r, list, err)
}

func (a *API) handleModerate(w http.ResponseWriter, r *http.Request) {
	var req moderateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.handleError(w, r, err)
		return
	}
	p := auth.PrincipalFromContext(r.Context())
	updated, err := a.articles.Moderate(r.Context(), p, r.PathValue("id"), article.Decision(req.Decision), req.Note)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleRecordAnalysis(w http.ResponseWriter, r *http.Request) {
	var req article.AnalysisFields
	if err := decodeJSON(r, &req); err != nil {
		a.handleError(w, r, err)
		return
	}
	p := auth.PrincipalFromContext(r.Context())
	updated, err := a.articles.RecordAnalysis(r.Context(), p, r.PathValue("id"), req)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r.URL.Query())
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	list, err := a.articles.Search(r.Context(), criteria)
	a.writeList(w, r, list, err)
}

func (a *API) handleSearchDebug(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r.URL.Query())
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	list, err := a.articles.Search(r.Context(), criteria)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	stats, err := a.articles.Stats(r.Context())
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchDebugResponse{Results: list, Count: len(list), Stats: stats})
}

func (a *API) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	found, err := a.articles.FindByIDVisibleTo(r.Context(), auth.PrincipalFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (a *API) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	var req article.Fields
	if err := decodeJSON(r, &req); err != nil {
		a.handleError(w, r, err)
		return
	}
	p := auth.PrincipalFromContext(r.Context())
	updated, err := a.articles.Update(r.Context(), p, r.PathValue("id"), req)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := a.articles.Delete(r.Context(), auth.PrincipalFromContext(r.Context()), r.PathValue("id")); err != nil {
		a.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) writeList(w http.ResponseWriter, r *http.Request, list []article.Article, err error) {
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	if list == nil {
		list = []article.Article{}
	}
	writeJSON(w, http.StatusOK, list)
}

func parseCriteria(q url.Values) (article.Criteria, error) {
	c := article.Criteria{
		Practice:        q.Get("practice"),
		Claim:           q.Get("claim"),
		ResearchMethod:  q.Get("researchMethod"),
		ParticipantType: q.Get("participantType"),
		Outcome:         q.Get("outcome"),
		Title:           q.Get("title"),
		Author:          q.Get("author"),
		SearchTerm:      q.Get("searchTerm"),
	}
	var err error
	if c.YearFrom, err = parseYear(q, "yearFrom"); err != nil {
		return article.Criteria{}, err
	}
	if c.YearTo, err = parseYear(q, "yearTo"); err != nil {
		return article.Criteria{}, err
	}
	return c, nil
}

func parseYear(q url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a whole number", apperr.ErrInvalidArgument, key)
	}
	return &v, nil
}

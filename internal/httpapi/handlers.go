package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/pubtrend/pubtrend/internal/trends"
)

// Service is the set of operations the HTTP layer exposes.
type Service interface {
	Trend(ctx context.Context, disease string, minYear, maxYear int) ([]trends.PublicationYearCount, error)
	LatestPublications(ctx context.Context, disease string) (*trends.SearchHistoryHandle, error)
	Institutions(ctx context.Context, webEnv, queryKey string, start, maxRecords int) ([]string, error)
}

// Handler serves the API endpoints.
type Handler struct {
	svc Service
	log *zap.Logger
}

// Trend serves GET /trend?disease=&min_yr=&max_yr=.
func (h *Handler) Trend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	disease, err := requiredString(q, "disease")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	minYear, err := requiredInt(q, "min_yr")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	maxYear, err := requiredInt(q, "max_yr")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	counts, err := h.svc.Trend(r.Context(), disease, minYear, maxYear)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// LatestPubs serves GET /latest_pubs?disease=.
func (h *Handler) LatestPubs(w http.ResponseWriter, r *http.Request) {
	disease, err := requiredString(r.URL.Query(), "disease")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	handle, err := h.svc.LatestPublications(r.Context(), disease)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, handle)
}

// Institutions serves GET /institutions?env=&qid=&idx=&retmax=.
func (h *Handler) Institutions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	env, err := requiredString(q, "env")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	qid, err := requiredInt(q, "qid")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	idx, err := requiredInt(q, "idx")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	retmax, err := optionalInt(q, "retmax", trends.DefaultPageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	institutions, err := h.svc.Institutions(r.Context(), env, strconv.Itoa(qid), idx, retmax)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, institutions)
}

func requiredString(q url.Values, name string) (string, error) {
	if !q.Has(name) {
		return "", &paramError{Name: name, Reason: "is required"}
	}
	return q.Get(name), nil
}

func requiredInt(q url.Values, name string) (int, error) {
	if !q.Has(name) {
		return 0, &paramError{Name: name, Reason: "is required"}
	}
	n, err := strconv.Atoi(q.Get(name))
	if err != nil {
		return 0, &paramError{Name: name, Reason: "must be an integer"}
	}
	return n, nil
}

func optionalInt(q url.Values, name string, def int) (int, error) {
	if !q.Has(name) {
		return def, nil
	}
	return requiredInt(q, name)
}

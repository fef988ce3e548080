package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pubtrend/pubtrend/internal/eutils"
	"github.com/pubtrend/pubtrend/internal/trends"
)

type fakeService struct {
	trend        func(disease string, minYear, maxYear int) ([]trends.PublicationYearCount, error)
	latest       func(disease string) (*trends.SearchHistoryHandle, error)
	institutions func(webEnv, queryKey string, start, maxRecords int) ([]string, error)
}

func (f *fakeService) Trend(_ context.Context, disease string, minYear, maxYear int) ([]trends.PublicationYearCount, error) {
	return f.trend(disease, minYear, maxYear)
}

func (f *fakeService) LatestPublications(_ context.Context, disease string) (*trends.SearchHistoryHandle, error) {
	return f.latest(disease)
}

func (f *fakeService) Institutions(_ context.Context, webEnv, queryKey string, start, maxRecords int) ([]string, error) {
	return f.institutions(webEnv, queryKey, start, maxRecords)
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := NewRouter(&fakeService{}, nil)
	rec := do(t, h, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body=%q, want ok", rec.Body.String())
	}
}

func TestTrend_OK(t *testing.T) {
	svc := &fakeService{trend: func(disease string, minYear, maxYear int) ([]trends.PublicationYearCount, error) {
		if disease != "flu" || minYear != 2020 || maxYear != 2022 {
			t.Errorf("unexpected args %q %d %d", disease, minYear, maxYear)
		}
		return []trends.PublicationYearCount{
			{PublicationCount: 10, Year: 2020},
			{PublicationCount: 20, Year: 2021},
			{PublicationCount: 30, Year: 2022},
		}, nil
	}}
	rec := do(t, NewRouter(svc, nil), "/trend?disease=flu&min_yr=2020&max_yr=2022")

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type=%q", ct)
	}
	var got []map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, yr := range []int{2020, 2021, 2022} {
		if got[i]["year"] != yr {
			t.Errorf("entry %d: year=%d, want %d", i, got[i]["year"], yr)
		}
		if _, ok := got[i]["nPub"]; !ok {
			t.Errorf("entry %d: missing nPub", i)
		}
	}
}

func TestTrend_ParamErrors(t *testing.T) {
	svc := &fakeService{trend: func(string, int, int) ([]trends.PublicationYearCount, error) {
		t.Error("service must not be called on bad params")
		return nil, nil
	}}
	h := NewRouter(svc, nil)

	for _, target := range []string{
		"/trend?min_yr=2020&max_yr=2022",
		"/trend?disease=flu&max_yr=2022",
		"/trend?disease=flu&min_yr=abc&max_yr=2022",
		"/trend?disease=flu&min_yr=2020&max_yr=",
	} {
		rec := do(t, h, target)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status=%d, want 422", target, rec.Code)
			continue
		}
		var body errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Detail == "" {
			t.Errorf("%s: expected detail, got %q", target, rec.Body.String())
		}
	}
}

func TestTrend_InvalidRange(t *testing.T) {
	svc := &fakeService{trend: func(_ string, minYear, maxYear int) ([]trends.PublicationYearCount, error) {
		return nil, fmt.Errorf("%w: %d > %d", trends.ErrInvalidYearRange, minYear, maxYear)
	}}
	rec := do(t, NewRouter(svc, nil), "/trend?disease=flu&min_yr=2023&max_yr=2020")

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "2023 > 2020") {
		t.Errorf("expected range detail in body, got %q", rec.Body.String())
	}
}

// unreachableUpstream fails the test if the service reaches NCBI.
type unreachableUpstream struct{ t *testing.T }

func (u unreachableUpstream) Search(context.Context, string, *eutils.SearchOptions) (*eutils.SearchResult, error) {
	u.t.Error("unexpected upstream search")
	return &eutils.SearchResult{}, nil
}

func (u unreachableUpstream) FetchHistory(context.Context, eutils.HistoryPage) ([]eutils.Article, error) {
	u.t.Error("unexpected upstream fetch")
	return nil, nil
}

func TestTrend_YearBoundsRejected(t *testing.T) {
	svc := trends.NewService(unreachableUpstream{t: t})
	h := NewRouter(svc, nil)

	targets := []string{
		fmt.Sprintf("/trend?disease=flu&min_yr=0&max_yr=%d", math.MaxInt),
		fmt.Sprintf("/trend?disease=flu&min_yr=%d&max_yr=%d", math.MinInt, math.MaxInt),
		"/trend?disease=flu&min_yr=1000&max_yr=9999",
	}
	for _, target := range targets {
		rec := do(t, h, target)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status=%d, want 422; body=%s", target, rec.Code, rec.Body.String())
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["detail"] == "" {
			t.Errorf("%s: expected detail body, got %q", target, rec.Body.String())
		}
	}
}

func TestTrend_UpstreamErrorMasked(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	svc := &fakeService{trend: func(string, int, int) ([]trends.PublicationYearCount, error) {
		return nil, fmt.Errorf("downloading trend: %w", trends.ErrMalformedResponse)
	}}
	rec := do(t, NewRouter(svc, zap.New(core)), "/trend?disease=flu&min_yr=2020&max_yr=2022")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rec.Code)
	}
	var body string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body != "Unknown Error" {
		t.Errorf("body=%q, want Unknown Error", body)
	}
	if strings.Contains(rec.Body.String(), "malformed") {
		t.Error("upstream error details leaked to client")
	}
	if logs.FilterMessage("request failed").Len() != 1 {
		t.Errorf("expected the failure to be logged")
	}
}

func TestPanicMasked(t *testing.T) {
	svc := &fakeService{latest: func(string) (*trends.SearchHistoryHandle, error) {
		panic("nil map write")
	}}
	rec := do(t, NewRouter(svc, nil), "/latest_pubs?disease=flu")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `"Unknown Error"` {
		t.Errorf("body=%q", rec.Body.String())
	}
}

func TestLatestPubs_OK(t *testing.T) {
	svc := &fakeService{latest: func(disease string) (*trends.SearchHistoryHandle, error) {
		if disease != "lung cancer" {
			t.Errorf("disease=%q", disease)
		}
		return &trends.SearchHistoryHandle{SearchEnvironment: "MCID_abc", QueryKey: "1", TotalCount: "1532"}, nil
	}}
	rec := do(t, NewRouter(svc, nil), "/latest_pubs?disease=lung+cancer")

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	want := map[string]string{"webEnv": "MCID_abc", "queryKey": "1", "count": "1532"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s=%q, want %q", k, got[k], v)
		}
	}
}

func TestLatestPubs_MissingDisease(t *testing.T) {
	rec := do(t, NewRouter(&fakeService{}, nil), "/latest_pubs")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", rec.Code)
	}
}

func TestInstitutions_DefaultRetmax(t *testing.T) {
	svc := &fakeService{institutions: func(webEnv, queryKey string, start, maxRecords int) ([]string, error) {
		if webEnv != "MCID_abc" || queryKey != "1" || start != 0 {
			t.Errorf("unexpected args %q %q %d", webEnv, queryKey, start)
		}
		if maxRecords != trends.DefaultPageSize {
			t.Errorf("maxRecords=%d, want %d", maxRecords, trends.DefaultPageSize)
		}
		return []string{"MIT", "Harvard"}, nil
	}}
	rec := do(t, NewRouter(svc, nil), "/institutions?env=MCID_abc&qid=1&idx=0")

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
	var got []string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 institutions, got %v", got)
	}
}

func TestInstitutions_EmptyIsArray(t *testing.T) {
	svc := &fakeService{institutions: func(_, _ string, _, maxRecords int) ([]string, error) {
		if maxRecords != 50 {
			t.Errorf("maxRecords=%d, want 50", maxRecords)
		}
		return []string{}, nil
	}}
	rec := do(t, NewRouter(svc, nil), "/institutions?env=MCID_abc&qid=1&idx=0&retmax=50")

	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body=%q, want []", rec.Body.String())
	}
}

func TestInstitutions_BadParams(t *testing.T) {
	h := NewRouter(&fakeService{}, nil)
	for _, target := range []string{
		"/institutions?qid=1&idx=0",
		"/institutions?env=E&qid=x&idx=0",
		"/institutions?env=E&qid=1",
		"/institutions?env=E&qid=1&idx=0&retmax=many",
	} {
		if rec := do(t, h, target); rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status=%d, want 422", target, rec.Code)
		}
	}
}

func TestInstitutions_ServiceValidation(t *testing.T) {
	svc := &fakeService{institutions: func(string, string, int, int) ([]string, error) {
		return nil, errors.Join(trends.ErrInvalidInput, errors.New("start offset cannot be negative"))
	}}
	rec := do(t, NewRouter(svc, nil), "/institutions?env=E&qid=1&idx=-5")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status=%d, want 422", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	svc := &fakeService{latest: func(string) (*trends.SearchHistoryHandle, error) {
		return &trends.SearchHistoryHandle{}, nil
	}}
	req := httptest.NewRequest(http.MethodGet, "/latest_pubs?disease=flu", nil)
	req.Header.Set("Origin", "http://example.org")
	rec := httptest.NewRecorder()
	NewRouter(svc, nil).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("expected Access-Control-Allow-Origin header")
	}
}

func TestCORS_PreflightAllowsAnyMethod(t *testing.T) {
	h := NewRouter(&fakeService{}, nil)
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		req := httptest.NewRequest(http.MethodOptions, "/trend", nil)
		req.Header.Set("Origin", "http://example.org")
		req.Header.Set("Access-Control-Request-Method", method)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Methods"); got != method {
			t.Errorf("preflight for %s: Access-Control-Allow-Methods=%q", method, got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("preflight for %s: Access-Control-Allow-Credentials=%q", method, got)
		}
	}
}

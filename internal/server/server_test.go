package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/memohq/memomirror/internal/cache"
	"github.com/memohq/memomirror/internal/model"
	"github.com/memohq/memomirror/internal/reconcile"
	"github.com/memohq/memomirror/internal/secret"
)

type stubService struct {
	issuesResult reconcile.IssuesResult
	issue        model.Issue
	labels       []model.Label
	config       model.RepoConfig
	records      []model.SyncRecord
	err          error

	createdTitle string
	cleared      bool
}

func (s *stubService) GetIssues(_ context.Context, _ int, _ []string, _ bool) (reconcile.IssuesResult, error) {
	return s.issuesResult, s.err
}

func (s *stubService) GetIssue(_ context.Context, _ int) (model.Issue, error) {
	return s.issue, s.err
}

func (s *stubService) CreateIssue(_ context.Context, title string, _ *string, _ []string) (model.Issue, error) {
	s.createdTitle = title
	return s.issue, s.err
}

func (s *stubService) UpdateIssue(_ context.Context, _ int, _, _, _ *string, _ []string) (model.Issue, error) {
	return s.issue, s.err
}

func (s *stubService) GetLabels(_ context.Context) ([]model.Label, error) {
	return s.labels, s.err
}

func (s *stubService) CreateLabel(_ context.Context, name, color string, description *string) (model.Label, error) {
	return model.Label{Name: name, Color: color, Description: description}, s.err
}

func (s *stubService) Config(_ context.Context, includeToken bool) (model.RepoConfig, error) {
	if s.err != nil {
		return model.RepoConfig{}, s.err
	}
	if !includeToken {
		return s.config.ClientView(), nil
	}
	return s.config, nil
}

func (s *stubService) SyncStatus(_ context.Context) (model.SyncStatus, error) {
	return model.SyncStatus{}, s.err
}

func (s *stubService) SyncHistory(_ context.Context, _ int) ([]model.SyncRecord, error) {
	return s.records, s.err
}

func (s *stubService) CacheStats() cache.Stats {
	return cache.Stats{Size: 2, Keys: []string{"a", "b"}}
}

func (s *stubService) ClearCache() { s.cleared = true }

func newTestServer(t *testing.T, svc Service) *Server {
	t.Helper()
	keeper, err := secret.NewKeeper("test-key")
	if err != nil {
		t.Fatal(err)
	}
	return New(Config{Addr: ":0", AdminPassword: "hunter2"}, svc, keeper)
}

func doRequest(t *testing.T, srv *Server, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGetIssuesEndpoint(t *testing.T) {
	svc := &stubService{issuesResult: reconcile.IssuesResult{
		Issues: []model.Issue{{Number: 1, Title: "one"}},
		Total:  1,
	}}
	srv := newTestServer(t, svc)

	rec := doRequest(t, srv, http.MethodGet, "/api/issues?page=1&labels=bug,ui", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result reconcile.IssuesResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Total != 1 || len(result.Issues) != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestGetIssuesRejectsBadPage(t *testing.T) {
	srv := newTestServer(t, &stubService{})
	rec := doRequest(t, srv, http.MethodGet, "/api/issues?page=zero", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGetIssueRejectsBadNumber(t *testing.T) {
	srv := newTestServer(t, &stubService{})
	rec := doRequest(t, srv, http.MethodGet, "/api/issues/abc", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestConfigMissingMapsToBadRequest(t *testing.T) {
	srv := newTestServer(t, &stubService{err: reconcile.ErrConfigMissing})
	rec := doRequest(t, srv, http.MethodGet, "/api/issues", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing config, got %d", rec.Code)
	}
}

func TestWriteRequiresCapability(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(t, svc)

	// No token at all.
	rec := doRequest(t, srv, http.MethodPost, "/api/issues", `{"title":"x"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// Garbage token.
	rec = doRequest(t, srv, http.MethodPost, "/api/issues", `{"title":"x"}`, "not-a-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}
	if svc.createdTitle != "" {
		t.Error("handler ran without a valid capability")
	}
}

func TestAuthVerifyMintsWorkingToken(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(t, svc)

	// Wrong password.
	rec := doRequest(t, srv, http.MethodPost, "/api/auth/verify", `{"password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}

	// Right password mints a token.
	rec = doRequest(t, srv, http.MethodPost, "/api/auth/verify", `{"password":"hunter2"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp authVerifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Fatal("expected non-empty token")
	}

	// The minted token authorizes a write.
	rec = doRequest(t, srv, http.MethodPost, "/api/issues", `{"title":"hello"}`, resp.Token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 with valid token, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.createdTitle != "hello" {
		t.Errorf("expected create to reach service, got %q", svc.createdTitle)
	}
}

func TestAuthVerifyDisabledWithoutPassword(t *testing.T) {
	keeper, _ := secret.NewKeeper("test-key")
	srv := New(Config{Addr: ":0"}, &stubService{}, keeper)

	rec := doRequest(t, srv, http.MethodPost, "/api/auth/verify", `{"password":""}`, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 when writes are disabled, got %d", rec.Code)
	}
}

func TestCreateIssueRequiresTitle(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(t, svc)
	token := mintToken(t, srv)

	rec := doRequest(t, srv, http.MethodPost, "/api/issues", `{"title":"  "}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank title, got %d", rec.Code)
	}
}

func TestConfigEndpointStripsToken(t *testing.T) {
	svc := &stubService{config: model.RepoConfig{Owner: "octo", Repo: "memos", Token: "ciphertext"}}
	srv := newTestServer(t, svc)

	rec := doRequest(t, srv, http.MethodGet, "/api/config", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "ciphertext") {
		t.Error("token leaked through config endpoint")
	}
}

func TestCacheEndpoints(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(t, svc)

	rec := doRequest(t, srv, http.MethodGet, "/api/cache/stats", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stats cache.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Size != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	// Clearing is a write.
	rec = doRequest(t, srv, http.MethodDelete, "/api/cache", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodDelete, "/api/cache", "", mintToken(t, srv))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !svc.cleared {
		t.Error("expected cache cleared")
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubService{})
	rec := doRequest(t, srv, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" {
		t.Errorf("unexpected health response: %+v", resp)
	}
}

func mintToken(t *testing.T, srv *Server) string {
	t.Helper()
	rec := doRequest(t, srv, http.MethodPost, "/api/auth/verify", `{"password":"hunter2"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("failed to mint token: %d %s", rec.Code, rec.Body.String())
	}
	var resp authVerifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Token
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"draftd/internal/domain"
	"draftd/internal/infra/auditmem"
	"draftd/internal/infra/auth/rbac"
	"draftd/internal/infra/ratelimit"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticAuthenticator struct {
	principals map[string]domain.Principal
}

func (a *staticAuthenticator) Authenticate(_ context.Context, bearerToken string) (domain.Principal, error) {
	principal, ok := a.principals[bearerToken]
	if !ok {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return principal, nil
}

type fakeProjects struct {
	mu       sync.Mutex
	projects map[string]domain.Project
	getCalls int
	delCalls int
	err      error
}

func (f *fakeProjects) GetByID(_ context.Context, id string) (domain.Project, error) {
	f.mu.Lock()
	f.getCalls++
	f.mu.Unlock()
	if f.err != nil {
		return domain.Project{}, f.err
	}
	project, ok := f.projects[id]
	if !ok {
		return domain.Project{}, domain.ErrNotFound
	}
	return project, nil
}

func (f *fakeProjects) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	f.delCalls++
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.projects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.projects, id)
	return nil
}

func (f *fakeProjects) resolver() domain.TenantResolver {
	return domain.TenantResolverFunc(func(_ context.Context, resourceID string) (string, error) {
		if f.err != nil {
			return "", f.err
		}
		project, ok := f.projects[resourceID]
		if !ok {
			return "", nil
		}
		return project.TenantID, nil
	})
}

type fakeOfficeActions struct {
	mu      sync.Mutex
	actions map[string]domain.OfficeAction
	created []domain.OfficeAction
}

func (f *fakeOfficeActions) GetByID(_ context.Context, id string) (domain.OfficeAction, error) {
	action, ok := f.actions[id]
	if !ok {
		return domain.OfficeAction{}, domain.ErrNotFound
	}
	return action, nil
}

func (f *fakeOfficeActions) ListByProject(_ context.Context, projectID string, _, _ int) ([]domain.OfficeAction, error) {
	var out []domain.OfficeAction
	for _, action := range f.actions {
		if action.ProjectID == projectID {
			out = append(out, action)
		}
	}
	return out, nil
}

func (f *fakeOfficeActions) Create(_ context.Context, action domain.OfficeAction) (domain.OfficeAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	action.ID = "oa-created"
	action.CreatedAt = time.Now().UTC()
	f.created = append(f.created, action)
	return action, nil
}

func (f *fakeOfficeActions) resolver() domain.TenantResolver {
	return domain.TenantResolverFunc(func(_ context.Context, resourceID string) (string, error) {
		action, ok := f.actions[resourceID]
		if !ok {
			return "", nil
		}
		return action.TenantID, nil
	})
}

type fakeTenants struct {
	created []domain.Tenant
}

func (f *fakeTenants) Create(_ context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	tenant.ID = "tenant-created"
	f.created = append(f.created, tenant)
	return tenant, nil
}

// syncRecorder appends inline so tests never race the async recorder.
type syncRecorder struct {
	store *auditmem.Store
}

func (r *syncRecorder) Record(entry domain.AuditEntry) {
	_ = r.store.Append(context.Background(), entry)
}

type fixture struct {
	server        *Server
	projects      *fakeProjects
	officeActions *fakeOfficeActions
	tenants       *fakeTenants
	auditStore    *auditmem.Store
	now           *time.Time
}

const (
	tokenUserA  = "token-user-a"
	tokenAdminA = "token-admin-a"
	tokenUserB  = "token-user-b"
)

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	f := &fixture{now: &now}

	f.projects = &fakeProjects{projects: map[string]domain.Project{
		"proj-a": {ID: "proj-a", TenantID: "tenant-a", Name: "Widget claims", Status: "DRAFT"},
		"proj-b": {ID: "proj-b", TenantID: "tenant-b", Name: "Gadget claims", Status: "DRAFT"},
	}}
	f.officeActions = &fakeOfficeActions{actions: map[string]domain.OfficeAction{
		"oa-1": {ID: "oa-1", ProjectID: "proj-a", TenantID: "tenant-a", Title: "Non-final rejection", OANumber: "OA-001"},
	}}
	f.tenants = &fakeTenants{}
	f.auditStore = auditmem.New()

	cfg := Config{
		Environment: "development",
		AdminAPIKey: "seed-key",
	}
	for _, fn := range mutate {
		fn(&cfg)
	}

	f.server = NewServer(cfg, Deps{
		Authenticator: &staticAuthenticator{principals: map[string]domain.Principal{
			tokenUserA:  {Subject: "user-a", Email: "a@acme.test", Role: domain.RoleUser, TenantID: "tenant-a"},
			tokenAdminA: {Subject: "admin-a", Email: "admin@acme.test", Role: domain.RoleAdmin, TenantID: "tenant-a"},
			tokenUserB:  {Subject: "user-b", Email: "b@rival.test", Role: domain.RoleUser, TenantID: "tenant-b"},
		}},
		Authorizer: rbac.NewAuthorizer(),
		RateLimiter: ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
			Now: func() time.Time { return *f.now },
		}),
		Audit:                &syncRecorder{store: f.auditStore},
		AuditLogs:            f.auditStore,
		Projects:             f.projects,
		OfficeActions:        f.officeActions,
		Tenants:              f.tenants,
		ProjectResolver:      f.projects.resolver(),
		OfficeActionResolver: f.officeActions.resolver(),
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return payload
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	payload := decodeEnvelope(t, rec)
	if payload["success"] != true {
		t.Fatalf("expected success envelope, got %v", payload)
	}
}

func TestGetProject_SameTenant(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/projects/proj-a", tokenUserA, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeEnvelope(t, rec)
	data := payload["data"].(map[string]any)
	if data["id"] != "proj-a" {
		t.Fatalf("unexpected project: %v", data)
	}
}

func TestMethodNotAllowed_SetsAllowHeader(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPut, "/v1/projects/proj-a", tokenUserA, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	allow := rec.Header().Get("Allow")
	if allow == "" {
		t.Fatal("expected Allow header")
	}
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if !containsMethod(allow, method) {
			t.Fatalf("Allow %q missing %s", allow, method)
		}
	}
}

func containsMethod(allow, method string) bool {
	for _, part := range bytes.Split([]byte(allow), []byte(",")) {
		if string(bytes.TrimSpace(part)) == method {
			return true
		}
	}
	return false
}

func TestUnknownRoute_NotFoundEnvelope(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/nope", tokenUserA, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	payload := decodeEnvelope(t, rec)
	if payload["error"] != domain.CodeNotFound {
		t.Fatalf("unexpected error code: %v", payload)
	}
}

func TestCreateTenant_AdminKey(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/tenants", bytes.NewReader([]byte(`{"name":"Acme IP"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-API-Key", "seed-key")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.tenants.created) != 1 || f.tenants.created[0].Name != "Acme IP" {
		t.Fatalf("unexpected created tenants: %+v", f.tenants.created)
	}
}

func TestCreateTenant_WrongKey(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/tenants", bytes.NewReader([]byte(`{"name":"Acme IP"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-API-Key", "wrong")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(f.tenants.created) != 0 {
		t.Fatal("tenant must not be created with a bad key")
	}
}

func TestDebugEndpoint_HiddenOutsideDevelopment(t *testing.T) {
	f := newFixture(t, func(cfg *Config) {
		cfg.Environment = "production"
	})
	rec := f.do(t, http.MethodGet, "/v1/debug/rate-limit-test", tokenUserA, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 outside development, got %d", rec.Code)
	}
}

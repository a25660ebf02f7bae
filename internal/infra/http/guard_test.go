package http

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"draftd/internal/domain"
)

func TestTenantGate_CrossTenantIs403(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/projects/proj-b", tokenUserA, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.projects.getCalls != 0 {
		t.Fatalf("handler must not run on tenant mismatch, got %d store reads", f.projects.getCalls)
	}
	payload := decodeEnvelope(t, rec)
	if payload["message"] != "access denied" {
		t.Fatalf("denial must be generic, got %v", payload["message"])
	}
}

func TestTenantGate_MissingResourceIs404(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/projects/ghost", tokenUserA, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unresolvable resource, got %d", rec.Code)
	}
	if f.projects.getCalls != 0 {
		t.Fatal("handler must not run when resolution fails")
	}
}

func TestTenantGate_NoTokenIs401(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/projects/proj-a", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestTenantGate_UnknownTokenIs401(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/projects/proj-a", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestTenantGate_ResolverInfrastructureFailureIs500(t *testing.T) {
	f := newFixture(t)
	f.projects.err = errors.New("connection refused")

	rec := f.do(t, http.MethodGet, "/v1/projects/proj-a", tokenUserA, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	payload := decodeEnvelope(t, rec)
	if payload["message"] != "internal error" {
		t.Fatalf("500 must not leak detail, got %v", payload["message"])
	}
}

func TestDeleteProject_RequiresAdmin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodDelete, "/v1/projects/proj-a", tokenUserA, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for USER delete, got %d", rec.Code)
	}
	if f.projects.delCalls != 0 {
		t.Fatal("delete handler must not run for USER")
	}

	rec = f.do(t, http.MethodDelete, "/v1/projects/proj-a", tokenAdminA, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for ADMIN delete, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.projects.delCalls != 1 {
		t.Fatalf("expected one delete call, got %d", f.projects.delCalls)
	}
}

func TestAdminRoute_RoleGate(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/admin/audit-logs", tokenUserA, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for USER, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/v1/admin/audit-logs", tokenAdminA, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for ADMIN, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestOfficeActionResolver_GateApplies(t *testing.T) {
	f := newFixture(t)

	// tenant-b principal cannot read tenant-a's office action.
	rec := f.do(t, http.MethodGet, "/v1/office-actions/oa-1", tokenUserB, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/v1/office-actions/oa-1", tokenUserA, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/v1/office-actions/ghost", tokenUserA, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTenantGate_DenialIsAudited(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/projects/proj-b", tokenUserA, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	entries, err := f.auditStore.Find(context.Background(), domain.AuditQuery{
		Action: domain.AuditActionAccessDenied,
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 denial entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Success {
		t.Fatal("denial entry must have success=false")
	}
	if entry.UserID != "user-a" {
		t.Fatalf("unexpected actor: %s", entry.UserID)
	}
	if entry.StatusCode != http.StatusForbidden {
		t.Fatalf("unexpected status in audit: %d", entry.StatusCode)
	}
	if entry.ErrorMessage != domain.CodeTenantMismatch {
		t.Fatalf("expected %s, got %s", domain.CodeTenantMismatch, entry.ErrorMessage)
	}
}

func TestTenantGate_SuccessIsAudited(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/projects/proj-a", tokenUserA, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	entries, err := f.auditStore.Find(context.Background(), domain.AuditQuery{
		Action: domain.AuditActionProjectRead,
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if !entry.Success || entry.StatusCode != http.StatusOK {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.TenantID != "tenant-a" || entry.ResourceID != "proj-a" {
		t.Fatalf("unexpected scoping: %+v", entry)
	}
}

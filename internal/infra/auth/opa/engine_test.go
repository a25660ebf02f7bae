package opa

import (
	"context"
	"testing"

	"draftd/internal/domain"
	"draftd/internal/infra/auth/rbac"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(context.Background())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_AgreesWithStaticAuthorizer(t *testing.T) {
	engine := newTestEngine(t)
	static := rbac.NewAuthorizer()

	cases := []struct {
		name      string
		principal domain.Principal
		tenantID  string
		roles     []domain.Role
	}{
		{
			name:      "tenant match no role restriction",
			principal: domain.Principal{Subject: "u1", Role: domain.RoleUser, TenantID: "t1"},
			tenantID:  "t1",
		},
		{
			name:      "tenant mismatch",
			principal: domain.Principal{Subject: "u1", Role: domain.RoleUser, TenantID: "t1"},
			tenantID:  "t2",
		},
		{
			name:      "admin cannot cross tenants",
			principal: domain.Principal{Subject: "a1", Role: domain.RoleAdmin, TenantID: "t1"},
			tenantID:  "t2",
			roles:     []domain.Role{domain.RoleAdmin},
		},
		{
			name:      "user lacks admin role",
			principal: domain.Principal{Subject: "u1", Role: domain.RoleUser, TenantID: "t1"},
			tenantID:  "t1",
			roles:     []domain.Role{domain.RoleAdmin},
		},
		{
			name:      "admin with admin role",
			principal: domain.Principal{Subject: "a1", Role: domain.RoleAdmin, TenantID: "t1"},
			tenantID:  "t1",
			roles:     []domain.Role{domain.RoleAdmin},
		},
		{
			name:     "missing principal",
			tenantID: "t1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			policyErr := engine.Require(tc.principal, tc.tenantID, tc.roles...)
			staticErr := static.Require(tc.principal, tc.tenantID, tc.roles...)

			if (policyErr == nil) != (staticErr == nil) {
				t.Fatalf("engines disagree: policy=%v static=%v", policyErr, staticErr)
			}
			if policyErr == nil {
				return
			}
			policyCode, ok := rbac.IsAuthzError(policyErr)
			if !ok {
				t.Fatalf("expected authz error from policy, got %v", policyErr)
			}
			staticCode, ok := rbac.IsAuthzError(staticErr)
			if !ok {
				t.Fatalf("expected authz error from static, got %v", staticErr)
			}
			if policyCode.Code != staticCode.Code {
				t.Fatalf("codes disagree: policy=%s static=%s", policyCode.Code, staticCode.Code)
			}
		})
	}
}

func TestEngine_GlobalOperationSkipsTenantCheck(t *testing.T) {
	engine := newTestEngine(t)
	principal := domain.Principal{Subject: "a1", Role: domain.RoleAdmin, TenantID: "t1"}

	// An empty resource tenant means the operation is not tenant-scoped.
	if err := engine.Require(principal, "", domain.RoleAdmin); err != nil {
		t.Fatalf("expected allow for global operation, got %v", err)
	}
}

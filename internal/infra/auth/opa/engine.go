package opa

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"draftd/internal/domain"
	"draftd/internal/infra/auth/rbac"

	"github.com/open-policy-agent/opa/rego"
)

const defaultQuery = "data.draftd.authz.decision"

// defaultModule encodes the built-in gate policy: tenant isolation is
// absolute and role restrictions apply only when the route names them.
// Deployments can override it with OPA_POLICY_PATH.
const defaultModule = `package draftd.authz

import rego.v1

decision := {"allow": false, "code": "UNAUTHORIZED"} if {
	not authenticated
}

decision := {"allow": false, "code": "TENANT_MISMATCH"} if {
	authenticated
	not tenant_ok
}

decision := {"allow": false, "code": "MISSING_ROLE"} if {
	authenticated
	tenant_ok
	not role_ok
}

decision := {"allow": true, "code": ""} if {
	authenticated
	tenant_ok
	role_ok
}

authenticated if input.subject != ""

tenant_ok if input.resource_tenant_id == ""

tenant_ok if input.tenant_id == input.resource_tenant_id

role_ok if count(input.allowed_roles) == 0

role_ok if input.role in input.allowed_roles
`

// Engine evaluates the gate decision through Rego, interchangeable with the
// static rbac.Authorizer.
type Engine struct {
	query rego.PreparedEvalQuery
}

type gateInput struct {
	Subject          string   `json:"subject"`
	Role             string   `json:"role"`
	TenantID         string   `json:"tenant_id"`
	ResourceTenantID string   `json:"resource_tenant_id"`
	AllowedRoles     []string `json:"allowed_roles"`
}

type gateDecision struct {
	Allow bool   `json:"allow"`
	Code  string `json:"code"`
}

func NewEngine(ctx context.Context) (*Engine, error) {
	return newEngineFromModule(ctx, defaultModule)
}

// NewEngineFromPath compiles a policy file replacing the built-in module.
// The policy must define data.draftd.authz.decision.
func NewEngineFromPath(ctx context.Context, policyPath string) (*Engine, error) {
	module, err := os.ReadFile(policyPath)
	if err != nil {
		return nil, err
	}
	return newEngineFromModule(ctx, string(module))
}

func newEngineFromModule(ctx context.Context, module string) (*Engine, error) {
	prepared, err := rego.New(
		rego.Query(defaultQuery),
		rego.Module("draftd_authz.rego", module),
		rego.StrictBuiltinErrors(true),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	return &Engine{query: prepared}, nil
}

func (e *Engine) Require(principal domain.Principal, tenantID string, allowedRoles ...domain.Role) error {
	if e == nil {
		return errors.New("policy engine is nil")
	}
	roles := make([]string, 0, len(allowedRoles))
	for _, role := range allowedRoles {
		roles = append(roles, string(role))
	}
	input := gateInput{
		Subject:          principal.Subject,
		Role:             string(principal.Role),
		TenantID:         principal.TenantID,
		ResourceTenantID: tenantID,
		AllowedRoles:     roles,
	}

	results, err := e.query.Eval(context.Background(), rego.EvalInput(input))
	if err != nil {
		return err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return errors.New("empty policy result")
	}
	decision, err := decodeDecision(results[0].Expressions[0].Value)
	if err != nil {
		return err
	}
	if decision.Allow {
		return nil
	}
	code := decision.Code
	if code == "" {
		code = domain.CodeForbidden
	}
	return &rbac.AuthzError{Code: code, Message: "denied by policy"}
}

func decodeDecision(value any) (gateDecision, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return gateDecision{}, err
	}
	var decision gateDecision
	if err := json.Unmarshal(payload, &decision); err != nil {
		return gateDecision{}, err
	}
	return decision, nil
}

var _ domain.Authorizer = (*Engine)(nil)

package domain

import (
	"context"
	"time"
)

type AuditAction string

const (
	AuditActionProjectRead        AuditAction = "project_read"
	AuditActionProjectDeleted     AuditAction = "project_deleted"
	AuditActionOfficeActionListed AuditAction = "office_action_listed"
	AuditActionOfficeActionFiled  AuditAction = "office_action_filed"
	AuditActionTenantCreated      AuditAction = "tenant_created"
	AuditActionAccessDenied       AuditAction = "access_denied"
	AuditActionAuditLogRead       AuditAction = "audit_log_read"
)

type AuditResourceType string

const (
	AuditResourceProject      AuditResourceType = "project"
	AuditResourceOfficeAction AuditResourceType = "office_action"
	AuditResourceTenant       AuditResourceType = "tenant"
	AuditResourceAuditLog     AuditResourceType = "audit_log"
)

// AuditEntry is one append-only record per guarded request, including
// denials. Entries are never updated or deleted by this layer.
type AuditEntry struct {
	ID           string
	UserID       string
	TenantID     string
	Action       AuditAction
	ResourceType AuditResourceType
	ResourceID   string
	Method       string
	Path         string
	StatusCode   int
	DurationMS   int64
	IPAddress    string
	UserAgent    string
	Metadata     map[string]any
	Success      bool
	ErrorMessage string
	CreatedAt    time.Time
}

// AuditQuery filters the audit read path. Zero values mean "no filter".
// Limit is capped by the store; DefaultAuditQueryLimit applies when unset.
type AuditQuery struct {
	TenantID string
	UserID   string
	Action   AuditAction
	From     time.Time
	To       time.Time
	Limit    int
}

const (
	DefaultAuditQueryLimit = 100
	MaxAuditQueryLimit     = 1000
)

// AuditStore is the append-only persistence boundary for audit entries.
// Reads return newest-first, never more than the (capped) query limit.
type AuditStore interface {
	Append(ctx context.Context, entry AuditEntry) error
	Find(ctx context.Context, query AuditQuery) ([]AuditEntry, error)
}

package domain

import (
	"context"
	"time"
)

type Tenant struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
}

// Project is a patent-drafting matter owned by exactly one tenant.
type Project struct {
	ID        string
	TenantID  string
	Name      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OfficeAction is an examiner communication filed under a project. It
// inherits its tenant through the project.
type OfficeAction struct {
	ID          string
	ProjectID   string
	TenantID    string
	Title       string
	OANumber    string
	MailingDate *time.Time
	CreatedAt   time.Time
}

// TenantResolver resolves the owning tenant of a resource with a single
// lookup. An unresolvable resource yields ("", nil); a non-nil error means
// infrastructure failure, never not-found.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, resourceID string) (string, error)
}

// TenantResolverFunc adapts a function to the TenantResolver interface.
type TenantResolverFunc func(ctx context.Context, resourceID string) (string, error)

func (f TenantResolverFunc) ResolveTenant(ctx context.Context, resourceID string) (string, error) {
	return f(ctx, resourceID)
}

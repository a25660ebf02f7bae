package usecase

import (
	"context"

	"draftd/internal/domain"
)

// ProjectTenantLookup is the single-lookup boundary the project resolver
// needs from the persistence layer.
type ProjectTenantLookup interface {
	TenantIDByProject(ctx context.Context, projectID string) (string, error)
}

type OfficeActionTenantLookup interface {
	TenantIDByOfficeAction(ctx context.Context, officeActionID string) (string, error)
}

// ProjectTenantResolver resolves a project's owning tenant. A missing
// project resolves to ("", nil); errors are infrastructure failures only.
type ProjectTenantResolver struct {
	Projects ProjectTenantLookup
}

func (r *ProjectTenantResolver) ResolveTenant(ctx context.Context, projectID string) (string, error) {
	if projectID == "" {
		return "", nil
	}
	return r.Projects.TenantIDByProject(ctx, projectID)
}

type OfficeActionTenantResolver struct {
	OfficeActions OfficeActionTenantLookup
}

func (r *OfficeActionTenantResolver) ResolveTenant(ctx context.Context, officeActionID string) (string, error) {
	if officeActionID == "" {
		return "", nil
	}
	return r.OfficeActions.TenantIDByOfficeAction(ctx, officeActionID)
}

var (
	_ domain.TenantResolver = (*ProjectTenantResolver)(nil)
	_ domain.TenantResolver = (*OfficeActionTenantResolver)(nil)
)

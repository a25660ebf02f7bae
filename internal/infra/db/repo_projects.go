package db

import (
	"context"
	"errors"

	"draftd/internal/domain"

	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (domain.Project, error) {
	if r.db == nil {
		return domain.Project{}, errDBUnavailable
	}
	var model ProjectModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Project{}, domain.ErrNotFound
		}
		return domain.Project{}, err
	}
	return projectFromModel(model), nil
}

// TenantIDByProject is the single lookup behind the project tenant resolver.
// A missing project yields ("", nil); only infrastructure failures error.
func (r *ProjectRepository) TenantIDByProject(ctx context.Context, projectID string) (string, error) {
	if r.db == nil {
		return "", errDBUnavailable
	}
	var model ProjectModel
	err := r.db.WithContext(ctx).
		Select("tenant_id").
		First(&model, "id = ?", projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return model.TenantID, nil
}

func (r *ProjectRepository) Create(ctx context.Context, project domain.Project) (domain.Project, error) {
	if r.db == nil {
		return domain.Project{}, errDBUnavailable
	}
	if project.TenantID == "" {
		return domain.Project{}, errors.New("tenant_id is required")
	}
	if project.ID == "" {
		id, err := newUUID()
		if err != nil {
			return domain.Project{}, err
		}
		project.ID = id
	}
	if project.Status == "" {
		project.Status = "DRAFT"
	}
	model := ProjectModel{
		ID:        project.ID,
		TenantID:  project.TenantID,
		Name:      project.Name,
		Status:    project.Status,
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Project{}, err
	}
	return projectFromModel(model), nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	result := r.db.WithContext(ctx).Delete(&ProjectModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func projectFromModel(model ProjectModel) domain.Project {
	return domain.Project{
		ID:        model.ID,
		TenantID:  model.TenantID,
		Name:      model.Name,
		Status:    model.Status,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

package db

import (
	"context"
	"errors"
	"time"

	"draftd/internal/domain"

	"gorm.io/gorm"
)

const maxOfficeActionPageSize = 200

type OfficeActionRepository struct {
	db *gorm.DB
}

func NewOfficeActionRepository(db *gorm.DB) *OfficeActionRepository {
	return &OfficeActionRepository{db: db}
}

// TenantIDByOfficeAction resolves the owning tenant of an office action.
// Missing rows yield ("", nil).
func (r *OfficeActionRepository) TenantIDByOfficeAction(ctx context.Context, officeActionID string) (string, error) {
	if r.db == nil {
		return "", errDBUnavailable
	}
	var model OfficeActionModel
	err := r.db.WithContext(ctx).
		Select("tenant_id").
		First(&model, "id = ?", officeActionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return model.TenantID, nil
}

func (r *OfficeActionRepository) GetByID(ctx context.Context, id string) (domain.OfficeAction, error) {
	if r.db == nil {
		return domain.OfficeAction{}, errDBUnavailable
	}
	var model OfficeActionModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.OfficeAction{}, domain.ErrNotFound
		}
		return domain.OfficeAction{}, err
	}
	return officeActionFromModel(model), nil
}

func (r *OfficeActionRepository) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]domain.OfficeAction, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	if limit <= 0 || limit > maxOfficeActionPageSize {
		limit = maxOfficeActionPageSize
	}
	if offset < 0 {
		offset = 0
	}
	var models []OfficeActionModel
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	actions := make([]domain.OfficeAction, 0, len(models))
	for _, model := range models {
		actions = append(actions, officeActionFromModel(model))
	}
	return actions, nil
}

func (r *OfficeActionRepository) Create(ctx context.Context, action domain.OfficeAction) (domain.OfficeAction, error) {
	if r.db == nil {
		return domain.OfficeAction{}, errDBUnavailable
	}
	if action.ProjectID == "" {
		return domain.OfficeAction{}, errors.New("project_id is required")
	}
	if action.TenantID == "" {
		return domain.OfficeAction{}, errors.New("tenant_id is required")
	}
	if action.ID == "" {
		id, err := newUUID()
		if err != nil {
			return domain.OfficeAction{}, err
		}
		action.ID = id
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now().UTC()
	}
	model := OfficeActionModel{
		ID:          action.ID,
		ProjectID:   action.ProjectID,
		TenantID:    action.TenantID,
		Title:       action.Title,
		OANumber:    action.OANumber,
		MailingDate: action.MailingDate,
		CreatedAt:   action.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.OfficeAction{}, err
	}
	return officeActionFromModel(model), nil
}

func officeActionFromModel(model OfficeActionModel) domain.OfficeAction {
	return domain.OfficeAction{
		ID:          model.ID,
		ProjectID:   model.ProjectID,
		TenantID:    model.TenantID,
		Title:       model.Title,
		OANumber:    model.OANumber,
		MailingDate: model.MailingDate,
		CreatedAt:   model.CreatedAt,
	}
}

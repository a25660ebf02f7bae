package db

import (
	"context"
	"errors"
	"time"

	"draftd/internal/domain"

	"gorm.io/gorm"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	if r.db == nil {
		return domain.Tenant{}, errDBUnavailable
	}
	if tenant.Name == "" {
		return domain.Tenant{}, errors.New("tenant name is required")
	}
	if tenant.ID == "" {
		id, err := newUUID()
		if err != nil {
			return domain.Tenant{}, err
		}
		tenant.ID = id
	}
	if tenant.Slug == "" {
		tenant.Slug = tenant.ID
	}
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = time.Now().UTC()
	}
	model := TenantModel{
		ID:        tenant.ID,
		Name:      tenant.Name,
		Slug:      tenant.Slug,
		CreatedAt: tenant.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Tenant{}, err
	}
	return tenant, nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	if r.db == nil {
		return domain.Tenant{}, errDBUnavailable
	}
	var model TenantModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Tenant{}, domain.ErrNotFound
		}
		return domain.Tenant{}, err
	}
	return domain.Tenant{
		ID:        model.ID,
		Name:      model.Name,
		Slug:      model.Slug,
		CreatedAt: model.CreatedAt,
	}, nil
}

package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"draftd/internal/domain"

	"gorm.io/gorm"
)

// AuditLogRepository is the append-only Postgres backend for audit entries.
// It exposes no update or delete operations.
type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if entry.Action == "" {
		return errors.New("audit action is required")
	}
	if entry.ID == "" {
		id, err := newUUID()
		if err != nil {
			return err
		}
		entry.ID = id
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var metadataJSON []byte
	if len(entry.Metadata) > 0 {
		payload, err := json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
		metadataJSON = payload
	}

	model := AuditLogModel{
		ID:           entry.ID,
		UserID:       optional(entry.UserID),
		TenantID:     optional(entry.TenantID),
		Action:       string(entry.Action),
		ResourceType: optional(string(entry.ResourceType)),
		ResourceID:   optional(entry.ResourceID),
		Method:       optional(entry.Method),
		Path:         optional(entry.Path),
		StatusCode:   optionalInt(entry.StatusCode),
		DurationMS:   optionalInt64(entry.DurationMS),
		IPAddress:    optional(entry.IPAddress),
		UserAgent:    optional(entry.UserAgent),
		MetadataJSON: metadataJSON,
		Success:      entry.Success,
		ErrorMessage: optional(entry.ErrorMessage),
		CreatedAt:    entry.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *AuditLogRepository) Find(ctx context.Context, query domain.AuditQuery) ([]domain.AuditEntry, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	limit := query.Limit
	if limit <= 0 {
		limit = domain.DefaultAuditQueryLimit
	}
	if limit > domain.MaxAuditQueryLimit {
		limit = domain.MaxAuditQueryLimit
	}

	tx := r.db.WithContext(ctx).Model(&AuditLogModel{})
	if query.TenantID != "" {
		tx = tx.Where("tenant_id = ?", query.TenantID)
	}
	if query.UserID != "" {
		tx = tx.Where("user_id = ?", query.UserID)
	}
	if query.Action != "" {
		tx = tx.Where("action = ?", string(query.Action))
	}
	if !query.From.IsZero() {
		tx = tx.Where("created_at >= ?", query.From)
	}
	if !query.To.IsZero() {
		tx = tx.Where("created_at <= ?", query.To)
	}

	var models []AuditLogModel
	err := tx.Order("created_at DESC").Limit(limit).Find(&models).Error
	if err != nil {
		return nil, err
	}

	entries := make([]domain.AuditEntry, 0, len(models))
	for _, model := range models {
		entry, err := auditEntryFromModel(model)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

var _ domain.AuditStore = (*AuditLogRepository)(nil)

func auditEntryFromModel(model AuditLogModel) (domain.AuditEntry, error) {
	entry := domain.AuditEntry{
		ID:           model.ID,
		UserID:       deref(model.UserID),
		TenantID:     deref(model.TenantID),
		Action:       domain.AuditAction(model.Action),
		ResourceType: domain.AuditResourceType(deref(model.ResourceType)),
		ResourceID:   deref(model.ResourceID),
		Method:       deref(model.Method),
		Path:         deref(model.Path),
		IPAddress:    deref(model.IPAddress),
		UserAgent:    deref(model.UserAgent),
		Success:      model.Success,
		ErrorMessage: deref(model.ErrorMessage),
		CreatedAt:    model.CreatedAt,
	}
	if model.StatusCode != nil {
		entry.StatusCode = *model.StatusCode
	}
	if model.DurationMS != nil {
		entry.DurationMS = *model.DurationMS
	}
	if len(model.MetadataJSON) > 0 {
		if err := json.Unmarshal(model.MetadataJSON, &entry.Metadata); err != nil {
			return domain.AuditEntry{}, err
		}
	}
	return entry, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func optionalInt(value int) *int {
	if value == 0 {
		return nil
	}
	return &value
}

func optionalInt64(value int64) *int64 {
	if value == 0 {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

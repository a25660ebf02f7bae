package db

import "time"

type TenantModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Slug      string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (TenantModel) TableName() string {
	return "tenants"
}

type ProjectModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	TenantID  string    `gorm:"type:uuid;index;not null"`
	Name      string    `gorm:"not null"`
	Status    string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (ProjectModel) TableName() string {
	return "projects"
}

type OfficeActionModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	ProjectID   string `gorm:"type:uuid;index;not null"`
	TenantID    string `gorm:"type:uuid;index;not null"`
	Title       string `gorm:"not null"`
	OANumber    string `gorm:"column:oa_number;not null"`
	MailingDate *time.Time
	CreatedAt   time.Time `gorm:"not null"`
}

func (OfficeActionModel) TableName() string {
	return "office_actions"
}

type AuditLogModel struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	UserID       *string   `gorm:"index"`
	TenantID     *string   `gorm:"type:uuid;index"`
	Action       string    `gorm:"index;not null"`
	ResourceType *string
	ResourceID   *string
	Method       *string
	Path         *string
	StatusCode   *int
	DurationMS   *int64
	IPAddress    *string
	UserAgent    *string
	MetadataJSON []byte    `gorm:"type:jsonb"`
	Success      bool      `gorm:"not null"`
	ErrorMessage *string
	CreatedAt    time.Time `gorm:"index;not null"`
}

func (AuditLogModel) TableName() string {
	return "audit_logs"
}

package http

import (
	"net/http"
	"time"

	"draftd/internal/domain"

	"github.com/gin-gonic/gin"
)

type projectResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type officeActionResponse struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	OANumber    string     `json:"oa_number"`
	MailingDate *time.Time `json:"mailing_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type auditLogResponse struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id,omitempty"`
	TenantID     string         `json:"tenant_id,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Method       string         `json:"method,omitempty"`
	Path         string         `json:"path,omitempty"`
	StatusCode   int            `json:"status_code,omitempty"`
	DurationMS   int64          `json:"duration_ms,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (s *Server) handleGetProject(c *gin.Context, req *Request) error {
	project, err := s.projects.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	writeSuccess(c, http.StatusOK, projectResponse{
		ID:        project.ID,
		TenantID:  project.TenantID,
		Name:      project.Name,
		Status:    project.Status,
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
	})
	return nil
}

func (s *Server) handleDeleteProject(c *gin.Context, req *Request) error {
	if err := s.projects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}

type listOfficeActionsQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

func (s *Server) handleListOfficeActions(c *gin.Context, req *Request) error {
	query := req.Query.(*listOfficeActionsQuery)
	actions, err := s.officeActions.ListByProject(c.Request.Context(), c.Param("id"), query.Limit, query.Offset)
	if err != nil {
		return err
	}
	payload := make([]officeActionResponse, 0, len(actions))
	for _, action := range actions {
		payload = append(payload, officeActionResponseFrom(action))
	}
	writeSuccess(c, http.StatusOK, payload)
	return nil
}

type createOfficeActionRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	OANumber    string `json:"oa_number" binding:"required,min=1,max=64"`
	MailingDate string `json:"mailing_date" binding:"omitempty,datetime=2006-01-02"`
}

func (s *Server) handleCreateOfficeAction(c *gin.Context, req *Request) error {
	body := req.Body.(*createOfficeActionRequest)

	var mailingDate *time.Time
	if body.MailingDate != "" {
		parsed, err := time.Parse("2006-01-02", body.MailingDate)
		if err != nil {
			return domain.NewAppError(domain.CodeValidation, "invalid mailing_date")
		}
		mailingDate = &parsed
	}

	action, err := s.officeActions.Create(c.Request.Context(), domain.OfficeAction{
		ProjectID:   c.Param("id"),
		TenantID:    req.TenantID,
		Title:       body.Title,
		OANumber:    body.OANumber,
		MailingDate: mailingDate,
	})
	if err != nil {
		return err
	}
	writeSuccess(c, http.StatusCreated, officeActionResponseFrom(action))
	return nil
}

func (s *Server) handleGetOfficeAction(c *gin.Context, req *Request) error {
	action, err := s.officeActions.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	writeSuccess(c, http.StatusOK, officeActionResponseFrom(action))
	return nil
}

type auditLogQuery struct {
	UserID string `form:"user_id" binding:"omitempty,max=128"`
	Action string `form:"action" binding:"omitempty,max=64"`
	From   string `form:"from" binding:"omitempty"`
	To     string `form:"to" binding:"omitempty"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// handleReadAuditLogs serves the tenant-scoped audit read path. The tenant
// filter always comes from the principal, never from the query.
func (s *Server) handleReadAuditLogs(c *gin.Context, req *Request) error {
	query := req.Query.(*auditLogQuery)

	storeQuery := domain.AuditQuery{
		TenantID: req.Principal.TenantID,
		UserID:   query.UserID,
		Action:   domain.AuditAction(query.Action),
		Limit:    query.Limit,
	}
	if query.From != "" {
		from, err := time.Parse(time.RFC3339, query.From)
		if err != nil {
			return domain.NewAppError(domain.CodeValidation, "invalid from timestamp")
		}
		storeQuery.From = from
	}
	if query.To != "" {
		to, err := time.Parse(time.RFC3339, query.To)
		if err != nil {
			return domain.NewAppError(domain.CodeValidation, "invalid to timestamp")
		}
		storeQuery.To = to
	}

	entries, err := s.auditLogs.Find(c.Request.Context(), storeQuery)
	if err != nil {
		return err
	}
	payload := make([]auditLogResponse, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, auditLogResponse{
			ID:           entry.ID,
			UserID:       entry.UserID,
			TenantID:     entry.TenantID,
			Action:       string(entry.Action),
			ResourceType: string(entry.ResourceType),
			ResourceID:   entry.ResourceID,
			Method:       entry.Method,
			Path:         entry.Path,
			StatusCode:   entry.StatusCode,
			DurationMS:   entry.DurationMS,
			IPAddress:    entry.IPAddress,
			UserAgent:    entry.UserAgent,
			Metadata:     entry.Metadata,
			Success:      entry.Success,
			ErrorMessage: entry.ErrorMessage,
			CreatedAt:    entry.CreatedAt,
		})
	}
	writeSuccess(c, http.StatusOK, payload)
	return nil
}

type createTenantRequest struct {
	Name string `json:"name" binding:"required,min=1,max=120"`
	Slug string `json:"slug" binding:"omitempty,min=1,max=64"`
}

func (s *Server) handleCreateTenant(c *gin.Context) {
	var body createTenantRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeValidationError(c, fieldErrors(err))
		return
	}
	tenant, err := s.tenants.Create(c.Request.Context(), domain.Tenant{
		Name: body.Name,
		Slug: body.Slug,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}
	if s.audit != nil {
		s.audit.Record(domain.AuditEntry{
			TenantID:     tenant.ID,
			Action:       domain.AuditActionTenantCreated,
			ResourceType: domain.AuditResourceTenant,
			ResourceID:   tenant.ID,
			Method:       c.Request.Method,
			Path:         c.Request.URL.Path,
			StatusCode:   http.StatusCreated,
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
			Success:      true,
		})
	}
	writeSuccess(c, http.StatusCreated, gin.H{
		"id":   tenant.ID,
		"name": tenant.Name,
		"slug": tenant.Slug,
	})
}

func officeActionResponseFrom(action domain.OfficeAction) officeActionResponse {
	return officeActionResponse{
		ID:          action.ID,
		ProjectID:   action.ProjectID,
		Title:       action.Title,
		OANumber:    action.OANumber,
		MailingDate: action.MailingDate,
		CreatedAt:   action.CreatedAt,
	}
}

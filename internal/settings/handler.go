package settings

import (
	"net/http"

	"evalnotify_backend/internal/notify"
	"evalnotify_backend/platform/httpkit"
	"evalnotify_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler exposes the admin CRUD surface for notification settings.
type Handler struct {
	repo *Repository
	val  *validator.Validator
}

// NewHandler creates a new settings handler.
func NewHandler(repo *Repository, val *validator.Validator) *Handler {
	return &Handler{repo: repo, val: val}
}

// HandleGetColumns returns the configured column mappings keyed by field name.
// GET /api/v1/admin/settings/columns
func (h *Handler) HandleGetColumns(c *gin.Context) {
	columns, err := h.repo.Columns(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	result := map[string]int64{}
	for _, fc := range columns.FieldColumns() {
		result[fc.Field] = fc.ColumnID
	}
	if columns.TriggerCheckbox != 0 {
		result[notify.FieldTrigger] = columns.TriggerCheckbox
	}

	httpkit.OK(c, result)
}

// UpdateColumnsRequest maps field names to column ids. Zero clears a mapping.
type UpdateColumnsRequest map[string]int64

// HandleUpdateColumns upserts column mappings.
// PUT /api/v1/admin/settings/columns
func (h *Handler) HandleUpdateColumns(c *gin.Context) {
	var req UpdateColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ctx := c.Request.Context()
	for field, columnID := range req {
		if err := h.repo.SetColumn(ctx, field, columnID); err != nil {
			httpkit.HandleError(c, err)
			return
		}
	}

	c.Status(http.StatusNoContent)
}

// EmailRuleResponse is one slot of the rule grid.
type EmailRuleResponse struct {
	Service string `json:"service"`
	Kind    string `json:"kind"`
	Enabled bool   `json:"enabled"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// HandleListEmailRules lists every configured rule slot.
// GET /api/v1/admin/settings/email-rules
func (h *Handler) HandleListEmailRules(c *gin.Context) {
	rules, err := h.repo.ListRules(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]EmailRuleResponse, len(rules))
	for i, row := range rules {
		result[i] = EmailRuleResponse{
			Service: string(row.Service),
			Kind:    string(row.Kind),
			Enabled: row.Rule.Enabled,
			Subject: row.Rule.Subject,
			Body:    row.Rule.Body,
		}
	}

	httpkit.OK(c, result)
}

// UpdateEmailRuleRequest is the body for writing one rule slot.
type UpdateEmailRuleRequest struct {
	Enabled bool   `json:"enabled"`
	Subject string `json:"subject" validate:"max=500"`
	Body    string `json:"body" validate:"max=50000"`
}

// HandleUpdateEmailRule writes one slot of the rule grid.
// PUT /api/v1/admin/settings/email-rules/:service/:kind
func (h *Handler) HandleUpdateEmailRule(c *gin.Context) {
	service, ok := notify.Classify(c.Param("service"))
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, "unknown service", nil)
		return
	}

	kind := notify.EmailKind(c.Param("kind"))
	if !kind.Valid() {
		httpkit.Error(c, http.StatusBadRequest, "unknown email kind", nil)
		return
	}

	var req UpdateEmailRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	rule := notify.EmailRule{Enabled: req.Enabled, Subject: req.Subject, Body: req.Body}
	if err := h.repo.UpsertRule(c.Request.Context(), service, kind, rule); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

package notify

import (
	"context"
	"net/http"

	"evalnotify_backend/internal/smartsheet"
	"evalnotify_backend/platform/httpkit"
	"evalnotify_backend/platform/logger"
	"evalnotify_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	challengeHeader = "Smartsheet-Hook-Challenge"

	eventCellModified = "cellModified"
	eventUpdated      = "updated"

	errInvalidRequest = "invalid request body"
	errValidation     = "validation error"
)

// FlowStarter is the orchestration entry point the ingress invokes per
// qualifying event.
type FlowStarter interface {
	StartFlow(ctx context.Context, rowID int64) error
}

// WebhookManager is the slice of the Smartsheet client used by the
// management surface.
type WebhookManager interface {
	CreateWebhook(ctx context.Context, name string, callbackURL string) (smartsheet.Webhook, error)
	SetWebhookEnabled(ctx context.Context, webhookID int64, enabled bool) (smartsheet.Webhook, error)
	DeleteWebhook(ctx context.Context, webhookID int64) error
	GetCurrentUser(ctx context.Context) (smartsheet.User, error)
}

// WebhookIDStore persists the registered webhook id between restarts.
type WebhookIDStore interface {
	WebhookID(ctx context.Context) (int64, error)
	SetWebhookID(ctx context.Context, id int64) error
	ClearWebhookID(ctx context.Context) error
}

// Handler handles webhook ingress and the notification management surface.
type Handler struct {
	flow        FlowStarter
	settings    SettingsProvider
	webhooks    WebhookManager
	store       WebhookIDStore
	callbackURL string
	val         *validator.Validator
	log         *logger.Logger
}

// NewHandler creates a new notification handler.
func NewHandler(flow FlowStarter, settings SettingsProvider, webhooks WebhookManager, store WebhookIDStore, callbackURL string, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{
		flow:        flow,
		settings:    settings,
		webhooks:    webhooks,
		store:       store,
		callbackURL: callbackURL,
		val:         val,
		log:         log,
	}
}

// webhookEvent is one unit of an inbound Smartsheet event batch.
type webhookEvent struct {
	ObjectType string `json:"objectType"`
	EventType  string `json:"eventType"`
	RowID      int64  `json:"rowId"`
	ColumnID   int64  `json:"columnId"`
}

type webhookBatch struct {
	Nonce  string         `json:"nonce"`
	Events []webhookEvent `json:"events"`
}

// EventsResponse reports overall success plus the count of events whose flow
// fully succeeded. Per-event detail is intentionally not reported.
type EventsResponse struct {
	Success   bool `json:"success"`
	Processed int  `json:"processed"`
}

// HandleProbe answers the external service's GET verification probe.
// GET /api/v1/webhook/smartsheet
func (h *Handler) HandleProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "active"})
}

// HandleEvents processes an inbound event batch or challenge handshake.
// POST /api/v1/webhook/smartsheet
func (h *Handler) HandleEvents(c *gin.Context) {
	// Registration handshake: echo the challenge verbatim, skip everything else.
	if challenge := c.GetHeader(challengeHeader); challenge != "" {
		c.JSON(http.StatusOK, gin.H{"smartsheetHookResponse": challenge})
		return
	}

	var batch webhookBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}
	if batch.Events == nil {
		httpkit.Error(c, http.StatusBadRequest, "missing events list", nil)
		return
	}

	columns, err := h.settings.Columns(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	if columns.TriggerCheckbox == 0 {
		httpkit.Error(c, http.StatusBadRequest, "trigger checkbox column not configured", nil)
		return
	}

	processed := 0
	for _, event := range batch.Events {
		if !qualifies(event, columns.TriggerCheckbox) {
			continue
		}

		// One event's failure never aborts the rest of the batch.
		if err := h.flow.StartFlow(c.Request.Context(), event.RowID); err != nil {
			h.log.Warn("event flow failed", "row_id", event.RowID, "error", err.Error())
			continue
		}
		processed++
	}

	httpkit.OK(c, EventsResponse{Success: true, Processed: processed})
}

// qualifies reports whether an event denotes a cell modification on the
// configured trigger checkbox column.
func qualifies(event webhookEvent, checkboxColumn int64) bool {
	if event.EventType != eventCellModified && event.EventType != eventUpdated {
		return false
	}
	return event.ColumnID == checkboxColumn
}

// TriggerRequest is the manual trigger request body.
type TriggerRequest struct {
	RowID int64 `json:"rowId" validate:"required,gt=0"`
}

// HandleManualTrigger runs the flow for one row synchronously.
// POST /api/v1/admin/notifications/trigger
func (h *Handler) HandleManualTrigger(c *gin.Context) {
	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return
	}

	if err := h.flow.StartFlow(c.Request.Context(), req.RowID); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"success": true})
}

// WebhookResponse describes the registered webhook for the management surface.
type WebhookResponse struct {
	ID      int64  `json:"id"`
	Enabled bool   `json:"enabled"`
	Status  string `json:"status,omitempty"`
}

// HandleCreateWebhook registers the callback with Smartsheet, persists the
// webhook id, and enables the hook (which starts the challenge handshake).
// POST /api/v1/admin/smartsheet/webhook
func (h *Handler) HandleCreateWebhook(c *gin.Context) {
	if h.callbackURL == "" {
		httpkit.Error(c, http.StatusBadRequest, "WEBHOOK_CALLBACK_URL not configured", nil)
		return
	}

	ctx := c.Request.Context()

	hook, err := h.webhooks.CreateWebhook(ctx, "evaluation-notifications", h.callbackURL)
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "webhook creation failed", err.Error())
		return
	}

	if err := h.store.SetWebhookID(ctx, hook.ID); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	enabled, err := h.webhooks.SetWebhookEnabled(ctx, hook.ID, true)
	if err != nil {
		// Created but not enabled; the id is stored so enabling can be retried.
		httpkit.Error(c, http.StatusBadGateway, "webhook created but enabling failed", err.Error())
		return
	}

	c.JSON(http.StatusCreated, WebhookResponse{ID: enabled.ID, Enabled: enabled.Enabled, Status: enabled.Status})
}

// HandleDeleteWebhook removes the registered webhook and clears the stored id.
// DELETE /api/v1/admin/smartsheet/webhook
func (h *Handler) HandleDeleteWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := h.store.WebhookID(ctx)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	if id == 0 {
		httpkit.Error(c, http.StatusNotFound, "no webhook registered", nil)
		return
	}

	if err := h.webhooks.DeleteWebhook(ctx, id); err != nil {
		httpkit.Error(c, http.StatusBadGateway, "webhook deletion failed", err.Error())
		return
	}

	if err := h.store.ClearWebhookID(ctx); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleConnectivity probes the Smartsheet API with the configured token.
// GET /api/v1/admin/smartsheet/status
func (h *Handler) HandleConnectivity(c *gin.Context) {
	user, err := h.webhooks.GetCurrentUser(c.Request.Context())
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "smartsheet connectivity check failed", err.Error())
		return
	}

	httpkit.OK(c, gin.H{"connected": true, "account": user.Email})
}

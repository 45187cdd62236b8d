// Package notify provides the evaluation notification bounded context module.
// This file defines the module that encapsulates route registration.
package notify

import (
	apphttp "evalnotify_backend/internal/http"
)

// Module is the notification bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule wraps the handler for route registration.
func NewModule(handler *Handler) *Module {
	return &Module{handler: handler}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notify"
}

// RegisterRoutes mounts notification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public Smartsheet webhook endpoint (challenge handshake + event batches)
	ctx.V1.GET("/webhook/smartsheet", ctx.IngressLimiter, m.handler.HandleProbe)
	ctx.V1.POST("/webhook/smartsheet", ctx.IngressLimiter, m.handler.HandleEvents)

	// Management surface (admin API key)
	ctx.Admin.POST("/notifications/trigger", m.handler.HandleManualTrigger)
	ctx.Admin.POST("/smartsheet/webhook", m.handler.HandleCreateWebhook)
	ctx.Admin.DELETE("/smartsheet/webhook", m.handler.HandleDeleteWebhook)
	ctx.Admin.GET("/smartsheet/status", m.handler.HandleConnectivity)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

package settings

import (
	apphttp "evalnotify_backend/internal/http"
	"evalnotify_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the settings bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
}

// NewModule creates and initializes the settings module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := NewRepository(pool)
	return &Module{
		handler: NewHandler(repo, val),
		repo:    repo,
	}
}

// Repository exposes the store for wiring into the notification flow.
func (m *Module) Repository() *Repository {
	return m.repo
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "settings"
}

// RegisterRoutes mounts settings routes on the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Admin.Group("/settings")
	group.GET("/columns", m.handler.HandleGetColumns)
	group.PUT("/columns", m.handler.HandleUpdateColumns)
	group.GET("/email-rules", m.handler.HandleListEmailRules)
	group.PUT("/email-rules/:service/:kind", m.handler.HandleUpdateEmailRule)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

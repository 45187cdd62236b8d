package router

import (
	"net/http"
	"strings"

	apphttp "evalnotify_backend/internal/http"
	"evalnotify_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// New builds the gin engine, mounts platform middleware, and lets every
// registered module attach its routes.
func New(app *apphttp.App) *gin.Engine {
	if !strings.EqualFold(app.Config.Env, "development") {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.Default())

	engine.GET("/api/health", func(c *gin.Context) {
		if app.Health != nil {
			if err := app.Health.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	admin := v1.Group("/admin")
	admin.Use(httpkit.AdminKeyRequired(app.Config.AdminAPIKey))

	// Webhook deliveries arrive in bursts; allow short spikes, cap sustained rate.
	ingressLimiter := httpkit.NewIPRateLimiter(rate.Limit(10), 30, app.Logger)

	ctx := &apphttp.RouterContext{
		Engine:         engine,
		V1:             v1,
		Admin:          admin,
		IngressLimiter: ingressLimiter.RateLimit(),
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Info("module routes registered", "module", module.Name())
	}

	return engine
}

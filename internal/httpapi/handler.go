package httpapi

import (
	"smallbiznis-backoffice/pkg/config"
	"smallbiznis-backoffice/pkg/health"
	"smallbiznis-backoffice/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Provide(ProvideRouter),
	fx.Invoke(registerHealth),
)

// ProvideRouter builds the gin engine shared by every service's routes.
func ProvideRouter(cfg *config.Config) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.Error(),
	)
	return r
}

func registerHealth(r *gin.Engine, h health.HealthService) {
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
}

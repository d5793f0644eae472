package activity

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("activity.module",
	fx.Provide(
		NewService,
		func(s *Service) Recorder { return s },
	),
)

var Server = fx.Module("activity.server",
	Module,
	fx.Provide(NewHandler),
	fx.Invoke(registerRoutes),
)

func registerRoutes(r *gin.Engine, h *Handler) {
	h.Register(r)
}

package activity

import (
	"smallbiznis-backoffice/internal/guard"
	"smallbiznis-backoffice/internal/httpapi"
	"smallbiznis-backoffice/pkg/db/pagination"
	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/permission"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc   *Service
	guard *guard.Guard
}

func NewHandler(svc *Service, g *guard.Guard) *Handler {
	return &Handler{svc: svc, guard: g}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/api/accounts/:slug/activity", h.guard.Require(permission.MembersRead), h.list)
}

func (h *Handler) list(c *gin.Context) {
	var p pagination.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		_ = c.Error(errutil.BadRequest("invalid query", err))
		return
	}
	logs, err := h.svc.List(c.Request.Context(), guard.ScopeOf(c).AccountID, p)
	httpapi.Load(c, logs, err)
}

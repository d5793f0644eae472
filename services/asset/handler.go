package asset

import (
	"smallbiznis-backoffice/internal/guard"
	"smallbiznis-backoffice/internal/httpapi"
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
	r.GET("/api/accounts/:slug/assets", h.guard.Require(permission.AssetsRead), h.list)

	actions := r.Group("/api/actions")
	actions.POST("/assign-assets", h.assign)
	actions.POST("/unassign-asset", h.unassign)
}

func (h *Handler) list(c *gin.Context) {
	var in FilterInput
	if err := c.ShouldBindQuery(&in); err != nil {
		_ = c.Error(errutil.BadRequest("invalid query", err))
		return
	}
	assets, err := h.svc.LoadAssets(c.Request.Context(), c.Param("slug"), in.Available)
	httpapi.Load(c, assets, err)
}

func (h *Handler) assign(c *gin.Context) {
	var in AssignAssetsInput
	if !httpapi.Bind(c, &in) {
		return
	}
	res, err := h.svc.AssignAssetsToUser(c.Request.Context(), httpapi.Session(c), in)
	httpapi.Action(c, res, err)
}

func (h *Handler) unassign(c *gin.Context) {
	var in UnassignAssetInput
	if !httpapi.Bind(c, &in) {
		return
	}
	res, err := h.svc.UnassignAsset(c.Request.Context(), httpapi.Session(c), in)
	httpapi.Action(c, res, err)
}

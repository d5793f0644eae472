package license

import (
	"net/http"

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
	reads := r.Group("/api/accounts/:slug/licenses", h.guard.Require(permission.LicensesRead))
	reads.GET("", h.list)
	reads.GET("/stats", h.stats)
	reads.GET("/vendors", h.vendors)
	reads.GET("/export", h.export)
	reads.GET("/:id", h.detail)
	reads.GET("/:id/assignments", h.assignments)
	reads.GET("/:id/alerts", h.alerts)

	actions := r.Group("/api/actions")
	actions.POST("/create-license", h.create)
	actions.POST("/update-license", h.update)
	actions.POST("/delete-license", h.delete)
	actions.POST("/assign-license", h.assign)
	actions.POST("/unassign-license", h.unassign)
	actions.POST("/bulk-delete-licenses", h.bulkDelete)
	actions.POST("/bulk-renew-licenses", h.bulkRenew)
}

func (h *Handler) list(c *gin.Context) {
	var in FilterInput
	if err := c.ShouldBindQuery(&in); err != nil {
		_ = c.Error(errutil.BadRequest("invalid query", err))
		return
	}
	parsed := ParseLicenseFilters(in)
	if !parsed.OK() {
		_ = c.Error(errutil.ValidationFailed("Invalid input", nil, errutil.WithDetails(parsed.Errors...)))
		return
	}
	page, err := h.svc.LoadLicensesPaginated(c.Request.Context(), c.Param("slug"), parsed.Value)
	httpapi.Load(c, page, err)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.svc.LoadLicenseStats(c.Request.Context(), c.Param("slug"))
	httpapi.Load(c, stats, err)
}

func (h *Handler) vendors(c *gin.Context) {
	vendors, err := h.svc.LoadVendors(c.Request.Context(), c.Param("slug"))
	httpapi.Load(c, vendors, err)
}

func (h *Handler) detail(c *gin.Context) {
	d, err := h.svc.LoadLicenseDetail(c.Request.Context(), c.Param("slug"), c.Param("id"))
	httpapi.Load(c, d, err)
}

func (h *Handler) assignments(c *gin.Context) {
	views, err := h.svc.LoadLicenseAssignments(c.Request.Context(), c.Param("slug"), c.Param("id"))
	httpapi.Load(c, views, err)
}

func (h *Handler) alerts(c *gin.Context) {
	alerts, err := h.svc.LoadRenewalAlerts(c.Request.Context(), c.Param("slug"), c.Param("id"))
	httpapi.Load(c, alerts, err)
}

func (h *Handler) export(c *gin.Context) {
	var in FilterInput
	if err := c.ShouldBindQuery(&in); err != nil {
		_ = c.Error(errutil.BadRequest("invalid query", err))
		return
	}

	res, err := h.svc.ExportLicenses(c.Request.Context(), httpapi.Session(c), c.Param("slug"), in, Format(c.DefaultQuery("format", string(FormatCSV))))
	if err != nil || !res.Success {
		httpapi.Action(c, res, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+res.Data.Filename+`"`)
	c.Data(http.StatusOK, res.Data.ContentType, res.Data.Body)
}

func (h *Handler) create(c *gin.Context) {
	var in CreateLicenseInput
	if !httpapi.Bind(c, &in) {
		return
	}
	res, err := h.svc.CreateLicense(c.Request.Context(), httpapi.Session(c), in)
	httpapi.Action(c, res, err)
}

func (h *Handler) update(c *gin.Context) {
	var in UpdateLicenseInput
	if !httpapi.Bind(c, &in) {
		return
	}
	res, err := h.svc.UpdateLicense(c.Request.Context(), httpapi.Session(c), in)
	httpapi.Action(c, res, err)
}

func (h *Handler) delete(c *gin.Context) {
	var in DeleteLicenseInput
	if !httpapi.Bind(c, &in) {
		return
	}
	res, err := h.svc.DeleteLicense(c.Request.Context(), httpapi.Session(c), in)
	httpapi.Action(c, res, err)
}

func (h *Handler) assign(c *gin.Context) {
	var in AssignLicenseInput
	if !httpapi.Bind(c, &in) {
		return
	}
	res, err := h.svc.AssignLicense(c.Request.Context(), httpapi.Session(c), in)
	httpapi.Action(c, res, err)
}

func (h *Handler) unassign(c *gin.Context) {
	var in UnassignLicenseInput
	if !httpapi.Bind(c, &in) {
		return
	}
	res, err := h.svc.UnassignLicense(c.Request.Context(), httpapi.Session(c), in)
	httpapi.Action(c, res, err)
}

func (h *Handler) bulkDelete(c *gin.Context) {
	var in BulkIDsInput
	if !httpapi.Bind(c, &in) {
		return
	}
	res, err := h.svc.BulkDeleteLicenses(c.Request.Context(), httpapi.Session(c), in)
	httpapi.Action(c, res, err)
}

func (h *Handler) bulkRenew(c *gin.Context) {
	var in BulkRenewInput
	if !httpapi.Bind(c, &in) {
		return
	}
	res, err := h.svc.BulkRenewLicenses(c.Request.Context(), httpapi.Session(c), in)
	httpapi.Action(c, res, err)
}

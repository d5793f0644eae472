package member

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
	r.GET("/api/permissions", h.catalog)

	reads := r.Group("/api/accounts/:slug", h.guard.Require(permission.MembersRead))
	reads.GET("/members", h.list)
	reads.GET("/members/:userID", h.detail)
	reads.GET("/invitations", h.invitations)

	actions := r.Group("/api/actions")
	actions.POST("/invite-member", h.invite)
	actions.POST("/accept-invitation", h.accept)
	actions.POST("/revoke-invitation", h.revoke)
	actions.POST("/update-member-role", h.updateRole)
	actions.POST("/update-member-status", h.updateStatus)
	actions.POST("/update-profile", h.updateProfile)
	actions.POST("/upload-avatar", h.uploadAvatar)
}

func (h *Handler) catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.svc.LoadPermissionCatalog()})
}

func (h *Handler) list(c *gin.Context) {
	members, err := h.svc.LoadMembers(c.Request.Context(), c.Param("slug"))
	httpapi.Load(c, members, err)
}

func (h *Handler) detail(c *gin.Context) {
	d, err := h.svc.LoadMemberDetail(c.Request.Context(), c.Param("slug"), c.Param("userID"))
	httpapi.Load(c, d, err)
}

func (h *Handler) invitations(c *gin.Context) {
	invites, err := h.svc.LoadPendingInvitations(c.Request.Context(), c.Param("slug"))
	httpapi.Load(c, invites, err)
}

func (h *Handler) invite(c *gin.Context) {
	var in InviteMemberInput
	if !httpapi.Bind(c, &in) {
		return
	}
	res, err := h.svc.InviteMember(c.Request.Context(), httpapi.Session(c), in)
	httpapi.Action(c, res, err)
}

func (h *Handler) accept(c *gin.Context) {
	var in AcceptInvitationInput
	if !httpapi.Bind(c, &in) {
		return
	}
	res, err := h.svc.AcceptInvitation(c.Request.Context(), httpapi.Session(c), in)
	httpapi.Action(c, res, err)
}

func (h *Handler) revoke(c *gin.Context) {
	var in RevokeInvitationInput
	if !httpapi.Bind(c, &in) {
		return
	}
	res, err := h.svc.RevokeInvitation(c.Request.Context(), httpapi.Session(c), in)
	httpapi.Action(c, res, err)
}

func (h *Handler) updateRole(c *gin.Context) {
	var in UpdateRoleInput
	if !httpapi.Bind(c, &in) {
		return
	}
	res, err := h.svc.UpdateMemberRole(c.Request.Context(), httpapi.Session(c), in)
	httpapi.Action(c, res, err)
}

func (h *Handler) updateStatus(c *gin.Context) {
	var in UpdateStatusInput
	if !httpapi.Bind(c, &in) {
		return
	}
	res, err := h.svc.UpdateMemberStatus(c.Request.Context(), httpapi.Session(c), in)
	httpapi.Action(c, res, err)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var in UpdateProfileInput
	if !httpapi.Bind(c, &in) {
		return
	}
	res, err := h.svc.UpdateProfile(c.Request.Context(), httpapi.Session(c), in)
	httpapi.Action(c, res, err)
}

func (h *Handler) uploadAvatar(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(errutil.BadRequest("file is required", err))
		return
	}
	f, err := header.Open()
	if err != nil {
		_ = c.Error(errutil.BadRequest("unreadable file", err))
		return
	}
	defer f.Close()

	in := UploadAvatarInput{
		AccountSlug: c.PostForm("account_slug"),
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	res, err := h.svc.UploadAvatar(c.Request.Context(), httpapi.Session(c), in, f)
	httpapi.Action(c, res, err)
}

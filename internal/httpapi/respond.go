package httpapi

import (
	"net/http"

	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/identity"
	"smallbiznis-backoffice/pkg/result"

	"github.com/gin-gonic/gin"
)

// Session copies the caller's credentials out of the request.
func Session(c *gin.Context) identity.Session {
	return identity.SessionFromHeader(c.GetHeader("Authorization"))
}

// Bind decodes the JSON body into v and reports a bad request on failure.
func Bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return false
	}
	return true
}

// Redirect answers a redirect signal with 303 See Other.
func Redirect(c *gin.Context, err error) bool {
	r, ok := result.AsRedirect(err)
	if !ok {
		return false
	}
	c.Redirect(http.StatusSeeOther, r.Location)
	return true
}

// Action writes the envelope of a mutating action.
func Action[T any](c *gin.Context, res result.Result[T], err error) {
	if err != nil {
		if !Redirect(c, err) {
			_ = c.Error(err)
		}
		return
	}
	c.JSON(http.StatusOK, res)
}

// Load writes the value of a loader or its error.
func Load[T any](c *gin.Context, v T, err error) {
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": v})
}

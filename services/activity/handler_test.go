package activity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"smallbiznis-backoffice/internal/guard"
	"smallbiznis-backoffice/internal/guard/guardtest"
	"smallbiznis-backoffice/pkg/identity"
	"smallbiznis-backoffice/pkg/middleware"
	"smallbiznis-backoffice/pkg/permission"
	"smallbiznis-backoffice/pkg/testutil"
	"smallbiznis-backoffice/services/account"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestHandlerListActivity(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t, &account.Account{}, &Log{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	accounts := account.NewService(account.ServiceParams{DB: db, Node: node})
	acme, err := accounts.CreateAccount(ctx, "Acme", "acme")
	require.NoError(t, err)
	globex, err := accounts.CreateAccount(ctx, "Globex", "globex")
	require.NoError(t, err)

	svc := NewService(ServiceParams{DB: db, Node: node})
	svc.Record(ctx, Entry{AccountID: acme.ID, ActorID: "u-1", Action: "license.created"})
	svc.Record(ctx, Entry{AccountID: globex.ID, ActorID: "u-2", Action: "license.deleted"})

	g := guard.New(guard.Params{
		Accounts: accounts,
		Identity: guardtest.Users(&identity.User{ID: "u-1", Email: "viewer@acme.test"}),
		Perms:    guardtest.NewChecker(t).Grant(acme.ID, "u-1", permission.RoleViewer),
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Error())
	NewHandler(svc, g).Register(r)

	get := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/api/accounts/acme/activity?page=1&page_size=10", "u-1")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []Log `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "license.created", body.Data[0].Action)

	require.Equal(t, http.StatusUnauthorized, get("/api/accounts/acme/activity", "").Code)
	require.Equal(t, http.StatusForbidden, get("/api/accounts/globex/activity", "u-1").Code)
}

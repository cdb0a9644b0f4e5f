package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/relaycrm/backend/internal/auth"
	"github.com/relaycrm/backend/internal/models"
)

func permissionRouter(key string, claims *auth.Claims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextClaims, claims)
		}
	}, RequirePermission(key), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRequirePermissionAllowsMatch(t *testing.T) {
	claims := &auth.Claims{Role: auth.RoleClaim{Name: "sales-rep", Permissions: []string{models.PermLeadRead}}}
	w := doRequest(permissionRouter(models.PermLeadRead, claims))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePermissionRejectsMissingClaims(t *testing.T) {
	w := doRequest(permissionRouter(models.PermLeadRead, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequirePermissionRejectsMissingKey(t *testing.T) {
	claims := &auth.Claims{Role: auth.RoleClaim{Name: "sales-rep", Permissions: []string{models.PermLeadRead}}}
	w := doRequest(permissionRouter(models.PermLeadDelete, claims))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequirePermissionRejectsEmptyPermissionList(t *testing.T) {
	claims := &auth.Claims{Role: auth.RoleClaim{Name: "sales-rep"}}
	w := doRequest(permissionRouter(models.PermLeadRead, claims))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequirePermissionEmptyKeyAllows(t *testing.T) {
	w := doRequest(permissionRouter("", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

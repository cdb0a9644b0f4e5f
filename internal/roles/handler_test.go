package roles

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
)

type fakeStore struct {
	updateErr error
	deleteErr error
}

func (f *fakeStore) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	return nil, nil
}

func (f *fakeStore) Create(ctx context.Context, scope tenant.Scope, name, description string, permissionIDs []uuid.UUID) (*models.RoleWithPermissions, error) {
	return &models.RoleWithPermissions{Role: models.Role{ID: uuid.New(), Name: name}}, nil
}

func (f *fakeStore) List(ctx context.Context, scope tenant.Scope) ([]models.RoleWithPermissions, error) {
	return nil, nil
}

func (f *fakeStore) Update(ctx context.Context, scope tenant.Scope, roleID uuid.UUID, name, description string, permissionIDs []uuid.UUID) (*models.RoleWithPermissions, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.RoleWithPermissions{Role: models.Role{ID: roleID, Name: name}}, nil
}

func (f *fakeStore) Delete(ctx context.Context, scope tenant.Scope, roleID uuid.UUID) error {
	return f.deleteErr
}

func rolesRouter(s Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		tenant.SetScope(c, tenant.Scope{OrganizationID: uuid.New(), UserID: uuid.New()})
	})
	r.PATCH("/roles/:id", h.Update)
	r.DELETE("/roles/:id", h.Delete)
	return r
}

func TestUpdateSystemRoleForbidden(t *testing.T) {
	r := rolesRouter(&fakeStore{updateErr: store.ErrSystemRole})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/roles/"+uuid.NewString(), strings.NewReader(`{"name":"renamed"}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteSystemRoleForbidden(t *testing.T) {
	r := rolesRouter(&fakeStore{deleteErr: store.ErrSystemRole})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/roles/"+uuid.NewString(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteRoleInUseForbidden(t *testing.T) {
	r := rolesRouter(&fakeStore{deleteErr: store.ErrRoleInUse})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/roles/"+uuid.NewString(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateMissingRoleNotFound(t *testing.T) {
	r := rolesRouter(&fakeStore{updateErr: store.ErrNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/roles/"+uuid.NewString(), strings.NewReader(`{"name":"renamed"}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateRenamesCustomRole(t *testing.T) {
	r := rolesRouter(&fakeStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/roles/"+uuid.NewString(), strings.NewReader(`{"name":"renamed"}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

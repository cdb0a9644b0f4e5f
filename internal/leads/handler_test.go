package leads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/store"
	"github.com/relaycrm/backend/internal/tenant"
)

type fakeCreator struct {
	createErr  error
	convertErr error
	created    *models.Lead
	oppID      uuid.UUID
}

func (f *fakeCreator) CreateLead(ctx context.Context, scope tenant.Scope, p CreateParams) (*models.Lead, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.created != nil {
		return f.created, nil
	}
	return &models.Lead{ID: uuid.New(), OrganizationID: scope.OrganizationID, Name: p.Name}, nil
}

func (f *fakeCreator) ConvertLead(ctx context.Context, scope tenant.Scope, leadID uuid.UUID, accountName, opportunityName string) (uuid.UUID, error) {
	if f.convertErr != nil {
		return uuid.Nil, f.convertErr
	}
	return f.oppID, nil
}

func leadRouter(creator Creator, scope tenant.Scope) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, creator)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		tenant.SetScope(c, scope)
	})
	r.POST("/leads", h.Create)
	r.POST("/leads/:id/convert", h.Convert)
	return r
}

func TestCreateLeadConflictReturns409(t *testing.T) {
	creator := &fakeCreator{createErr: store.ErrConflict}
	r := leadRouter(creator, testScope())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader(`{"name":"Jane Cooper"}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateLeadSuccess(t *testing.T) {
	creator := &fakeCreator{}
	r := leadRouter(creator, testScope())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader(`{"name":"Jane Cooper"}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestConvertLeadConflictReturns409(t *testing.T) {
	creator := &fakeCreator{convertErr: store.ErrConflict}
	r := leadRouter(creator, testScope())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leads/"+uuid.NewString()+"/convert",
		strings.NewReader(`{"account_name":"Globex","opportunity_name":"Globex deal"}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestConvertLeadMissingReturns404(t *testing.T) {
	creator := &fakeCreator{convertErr: store.ErrNotFound}
	r := leadRouter(creator, testScope())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leads/"+uuid.NewString()+"/convert",
		strings.NewReader(`{"account_name":"Globex","opportunity_name":"Globex deal"}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConvertLeadReturnsOpportunityID(t *testing.T) {
	oppID := uuid.New()
	creator := &fakeCreator{oppID: oppID}
	r := leadRouter(creator, testScope())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leads/"+uuid.NewString()+"/convert",
		strings.NewReader(`{"account_name":"Globex","opportunity_name":"Globex deal"}`))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data ConvertResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, oppID, body.Data.OpportunityID)
}

package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-analyzer-api/internal/middleware"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestContext(method, target string, body interface{}, principal *models.Principal) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	if principal != nil {
		c.Set(middleware.ContextPrincipalKey, principal)
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: principal.User.ID, Role: principal.User.Role})
	}
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func teacherPrincipal() *models.Principal {
	userID := int64(10)
	return &models.Principal{
		User:    models.User{ID: userID, Username: "t@example.com", Role: models.RoleTeacher},
		Teacher: &models.Teacher{ID: 3, UserID: &userID},
	}
}

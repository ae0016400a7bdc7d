package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

type stubResolver struct {
	principal *models.Principal
	err       error
}

func (s stubResolver) Resolve(ctx context.Context, userID int64) (*models.Principal, error) {
	return s.principal, s.err
}

type stubDetector struct {
	answer   bool
	err      error
	lastArgs []*int64
}

func (s *stubDetector) ShouldUseNewModel(ctx context.Context, teacherID *int64) (bool, error) {
	s.lastArgs = append(s.lastArgs, teacherID)
	return s.answer, s.err
}

type recordingAuditWriter struct {
	logs []*models.AuditLog
}

func (r *recordingAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func serve(router *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(stubValidator{claims: &models.JWTClaims{UserID: 1}}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if rec := serve(router, http.MethodGet, "/", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/", map[string]string{"Authorization": "Basic abc"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status for basic auth: %d", rec.Code)
	}
}

func TestJWTAttachesClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(stubValidator{claims: &models.JWTClaims{UserID: 42, Role: models.RoleTeacher}}))
	router.GET("/", func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil || claims.UserID != 42 {
			t.Fatalf("claims not attached: %+v", claims)
		}
		c.Status(http.StatusNoContent)
	})

	if rec := serve(router, http.MethodGet, "/", map[string]string{"Authorization": "Bearer token"}); rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestJWTPropagatesValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(stubValidator{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if rec := serve(router, http.MethodGet, "/", map[string]string{"Authorization": "Bearer bad"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestRBAC(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		claims *models.JWTClaims
		path   string
		status int
	}{
		{name: "allowed role", claims: &models.JWTClaims{UserID: 1, Role: models.RoleAdmin}, path: "/users/9", status: http.StatusNoContent},
		{name: "self", claims: &models.JWTClaims{UserID: 9, Role: models.RoleStudent}, path: "/users/9", status: http.StatusNoContent},
		{name: "other user", claims: &models.JWTClaims{UserID: 8, Role: models.RoleStudent}, path: "/users/9", status: http.StatusForbidden},
		{name: "anonymous", path: "/users/9", status: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(func(c *gin.Context) {
				if tc.claims != nil {
					c.Set(ContextUserKey, tc.claims)
				}
			})
			router.GET("/users/:id", RBAC(string(models.RoleAdmin), "SELF"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
			if rec := serve(router, http.MethodGet, tc.path, nil); rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestPrincipalResolvesOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)
	principal := &models.Principal{User: models.User{ID: 5, Role: models.RoleTeacher}, Teacher: &models.Teacher{ID: 11}}
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set(ContextUserKey, &models.JWTClaims{UserID: 5}) })
	router.Use(Principal(stubResolver{principal: principal}))
	router.GET("/", func(c *gin.Context) {
		if got := CurrentPrincipal(c); got != principal {
			t.Fatalf("principal not attached")
		}
		c.Status(http.StatusNoContent)
	})

	if rec := serve(router, http.MethodGet, "/", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestPrincipalResolveFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set(ContextUserKey, &models.JWTClaims{UserID: 5}) })
	router.Use(Principal(stubResolver{err: appErrors.ErrInactiveAccount}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if rec := serve(router, http.MethodGet, "/", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestAcademicModelHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name     string
		detector *stubDetector
		teacher  *models.Teacher
		want     string
	}{
		{name: "teacher with offerings", detector: &stubDetector{answer: true}, teacher: &models.Teacher{ID: 3}, want: "new"},
		{name: "no offerings", detector: &stubDetector{answer: false}, want: "legacy"},
		{name: "detector failure", detector: &stubDetector{err: errors.New("db down")}, teacher: &models.Teacher{ID: 3}, want: "legacy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(WithResponseMeta())
			router.Use(func(c *gin.Context) {
				c.Set(ContextPrincipalKey, &models.Principal{User: models.User{ID: 1}, Teacher: tc.teacher})
			})
			router.Use(AcademicModel(tc.detector, "X-Academic-Model", nil))
			router.GET("/", func(c *gin.Context) {
				if got := CurrentAcademicModel(c); got != tc.want {
					t.Fatalf("context model: want %s got %s", tc.want, got)
				}
				if meta := ExtractMeta(c); meta["academic_model"] != tc.want {
					t.Fatalf("meta model: %v", meta["academic_model"])
				}
				c.Status(http.StatusNoContent)
			})

			rec := serve(router, http.MethodGet, "/", nil)
			if got := rec.Header().Get("X-Academic-Model"); got != tc.want {
				t.Fatalf("header: want %s got %s", tc.want, got)
			}
			if tc.teacher != nil {
				if arg := tc.detector.lastArgs[0]; arg == nil || *arg != tc.teacher.ID {
					t.Fatalf("detector not scoped to teacher")
				}
			} else if tc.detector.lastArgs[0] != nil {
				t.Fatalf("detector should be global for non-teachers")
			}
		})
	}
}

func TestAuditSkipsFailedRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	writer := &recordingAuditWriter{}
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set(ContextUserKey, &models.JWTClaims{UserID: 4}) })
	router.POST("/ok/:id", Audit(writer, models.AuditActionAdminDemote, "admin", nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.POST("/fail", Audit(writer, models.AuditActionMarksUpload, "marks", nil), func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	serve(router, http.MethodPost, "/ok/12", nil)
	serve(router, http.MethodPost, "/fail", nil)

	if len(writer.logs) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(writer.logs))
	}
	entry := writer.logs[0]
	if entry.UserID == nil || *entry.UserID != 4 {
		t.Fatalf("unexpected user id: %v", entry.UserID)
	}
	if entry.ResourceID == nil || *entry.ResourceID != "12" {
		t.Fatalf("unexpected resource id: %v", entry.ResourceID)
	}
}

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/middleware"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	"github.com/noah-isme/performance-analyzer-api/pkg/config"
	"github.com/noah-isme/performance-analyzer-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/performance-analyzer-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/performance-analyzer-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, app *application, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedHeaders))
	r.Use(middleware.Metrics(app.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", app.metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := app.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", app.metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", app.authHandler.Login)
	authGroup.POST("/refresh", app.authHandler.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(app.auth))
	secured.Use(middleware.Principal(app.principals))
	secured.Use(middleware.AcademicModel(app.academic, cfg.AcademicModel.Header, logr))

	secured.POST("/auth/logout", app.authHandler.Logout)
	secured.GET("/auth/me", app.authHandler.Me)
	secured.POST("/auth/change-password", app.authHandler.ChangePassword)

	registerAdminRoutes(secured.Group("/admin", middleware.RequireRoles(models.RoleAdmin)), app, logr)
	registerTeacherRoutes(secured.Group("/teacher", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)), app, logr)
	registerStudentRoutes(secured.Group("/student", middleware.RequireRoles(models.RoleStudent)), app)

	return r
}

func registerAdminRoutes(admin *gin.RouterGroup, app *application, logr *zap.Logger) {
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(app.auditLog, action, resource, logr)
	}

	admin.GET("/stats", app.adminHandler.Stats)
	admin.GET("/model-status", app.adminHandler.ModelStatus)
	admin.GET("/settings", app.adminHandler.Settings)
	admin.PUT("/settings", audit("UPDATE", "settings"), app.adminHandler.UpdateSettings)

	admin.GET("/admins", app.adminHandler.List)
	admin.POST("/admins", audit("PROMOTE", "admins"), app.adminHandler.Promote)
	admin.DELETE("/admins/:id", audit("DEMOTE", "admins"), app.adminHandler.Demote)

	admin.GET("/users", app.userHandler.List)
	admin.GET("/users/:id/scope", app.adminHandler.UserScope)
	admin.PATCH("/users/:id/status", audit("UPDATE_STATUS", "users"), app.userHandler.SetStatus)

	admin.GET("/departments", app.catalogHandler.ListDepartments)
	admin.POST("/departments", audit("CREATE", "departments"), app.catalogHandler.CreateDepartment)
	admin.PUT("/departments/:id", audit("UPDATE", "departments"), app.catalogHandler.UpdateDepartment)
	admin.DELETE("/departments/:id", audit("DELETE", "departments"), app.catalogHandler.DeleteDepartment)
	admin.GET("/semesters", app.catalogHandler.ListSemesters)
	admin.POST("/semesters", audit("CREATE", "semesters"), app.catalogHandler.CreateSemester)
	admin.GET("/subjects", app.catalogHandler.ListSubjects)
	admin.POST("/subjects", audit("CREATE", "subjects"), app.catalogHandler.CreateSubject)
	admin.POST("/teacher-subjects", audit("ASSIGN", "subjects"), app.catalogHandler.AssignTeacher)
	admin.GET("/students", app.catalogHandler.ListStudents)
	admin.POST("/students", audit("CREATE", "students"), app.catalogHandler.CreateStudent)
	admin.GET("/teachers", app.catalogHandler.ListTeachers)
	admin.POST("/teachers", audit("CREATE", "teachers"), app.catalogHandler.CreateTeacher)

	admin.GET("/batches", app.structureHandler.ListBatches)
	admin.POST("/batches", audit("CREATE", "batches"), app.structureHandler.CreateBatch)
	admin.GET("/sections", app.structureHandler.ListSections)
	admin.POST("/sections", audit("CREATE", "sections"), app.structureHandler.CreateSection)
	admin.GET("/subject-offerings", app.structureHandler.ListOfferings)
	admin.POST("/subject-offerings", audit("CREATE", "subject_offerings"), app.structureHandler.CreateOffering)
	admin.GET("/exam-types", app.structureHandler.ListExamTypes)
	admin.GET("/exam-sessions", app.structureHandler.ListExamSessions)
	admin.POST("/exam-sessions", audit("CREATE", "exam_sessions"), app.structureHandler.CreateExamSession)

	admin.GET("/reports/export", app.reportHandler.ExportMarks)
}

func registerTeacherRoutes(teacher *gin.RouterGroup, app *application, logr *zap.Logger) {
	teacher.GET("/subjects", app.teacherHandler.Subjects)
	teacher.POST("/marks", middleware.Audit(app.auditLog, "UPLOAD", "marks", logr), app.teacherHandler.UploadMarks)
	teacher.POST("/marks/offerings", middleware.Audit(app.auditLog, "UPLOAD", "marks", logr), app.teacherHandler.UploadOfferingMarks)
	teacher.GET("/student/:roll", app.teacherHandler.StudentMarks)
	teacher.GET("/students/:department_id/:semester_id", app.teacherHandler.ClassStudents)
	teacher.GET("/sections/:id/students", app.teacherHandler.SectionStudents)
	teacher.GET("/analysis/:department_id/:semester_id", app.teacherHandler.ClassAnalysis)
	teacher.GET("/offerings/:id/insights", app.teacherHandler.OfferingInsights)
}

func registerStudentRoutes(student *gin.RouterGroup, app *application) {
	student.GET("/marks", app.studentHandler.Marks)
	student.GET("/analysis", app.studentHandler.Analysis)
	student.GET("/summary", app.studentHandler.Summary)
}

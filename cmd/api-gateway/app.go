package main

import (
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/handler"
	"github.com/noah-isme/performance-analyzer-api/internal/repository"
	"github.com/noah-isme/performance-analyzer-api/internal/service"
	"github.com/noah-isme/performance-analyzer-api/pkg/config"
	"github.com/noah-isme/performance-analyzer-api/pkg/export"
)

const tokenIssuer = "performance-analyzer-api"

// application holds the services the router needs directly and the handlers
// built on top of them.
type application struct {
	db         *sqlx.DB
	auth       *service.AuthService
	principals *service.PrincipalService
	academic   *service.AcademicModelService
	auditLog   *repository.UserRepository
	metrics    *service.MetricsService

	authHandler      *handler.AuthHandler
	userHandler      *handler.UserHandler
	adminHandler     *handler.AdminHandler
	catalogHandler   *handler.CatalogHandler
	structureHandler *handler.StructureHandler
	reportHandler    *handler.ReportHandler
	teacherHandler   *handler.TeacherHandler
	studentHandler   *handler.StudentHandler
	metricsHandler   *handler.MetricsHandler
}

func newApplication(cfg *config.Config, db *sqlx.DB, validate *validator.Validate, cacheSvc *service.CacheService, generator service.TextGenerator, metrics *service.MetricsService, logr *zap.Logger) *application {
	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	offeringRepo := repository.NewSubjectOfferingRepository(db)
	sessionRepo := repository.NewExamSessionRepository(db)
	marksRepo := repository.NewMarksRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	backfillRepo := repository.NewBackfillRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             tokenIssuer,
	})
	principals := service.NewPrincipalService(userRepo, teacherRepo, studentRepo, adminRepo, metrics, logr)
	academic := service.NewAcademicModelService(sessionRepo, offeringRepo, studentRepo, sectionRepo, subjectRepo, cacheSvc, cfg.AcademicModel.DetectionTTL, metrics, logr)
	settings := service.NewSettingsService(settingsRepo, cacheSvc, cfg.Cache.SettingsTTL, validate, logr)
	summaries := service.NewSummaryService(generator, cacheSvc, cfg.Cache.SummaryTTL, metrics, logr)
	backfill := service.NewBackfillService(backfillRepo, cfg.Backfill.BatchSize, metrics, logr)

	marks := service.NewMarksService(service.MarksServiceParams{
		Marks:     marksRepo,
		Subjects:  subjectRepo,
		Students:  studentRepo,
		Offerings: offeringRepo,
		Sessions:  sessionRepo,
		Sections:  sectionRepo,
		Semesters: semesterRepo,
		Academic:  academic,
		Settings:  settings,
		Summaries: summaries,
		Cache:     cacheSvc,
		CacheTTL:  cfg.Cache.PerformanceTTL,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
	})
	classes := service.NewClassService(academic, logr)

	admins := service.NewAdminService(service.AdminServiceParams{
		Admins:      adminRepo,
		Teachers:    teacherRepo,
		Departments: departmentRepo,
		Sections:    sectionRepo,
		Stats:       statsRepo,
		Principals:  principals,
		Academic:    academic,
		Backfill:    backfill,
		Validator:   validate,
		Logger:      logr,
	})
	structure := service.NewStructureService(service.StructureServiceParams{
		Sections:    sectionRepo,
		Offerings:   offeringRepo,
		Sessions:    sessionRepo,
		Departments: departmentRepo,
		Semesters:   semesterRepo,
		Subjects:    subjectRepo,
		Teachers:    teacherRepo,
		Validator:   validate,
		Logger:      logr,
	})

	departments := service.NewDepartmentService(departmentRepo, validate, logr)
	semesters := service.NewSemesterService(semesterRepo, validate, logr)
	subjects := service.NewSubjectService(subjectRepo, departmentRepo, semesterRepo, teacherRepo, validate, logr)
	students := service.NewStudentService(studentRepo, userRepo, departmentRepo, semesterRepo, sectionRepo, validate, logr)
	teachers := service.NewTeacherService(teacherRepo, departmentRepo, validate, logr)
	users := service.NewUserService(userRepo, logr)
	exports := service.NewExportService(marksRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	return &application{
		db:         db,
		auth:       authSvc,
		principals: principals,
		academic:   academic,
		auditLog:   userRepo,
		metrics:    metrics,

		authHandler:      handler.NewAuthHandler(authSvc),
		userHandler:      handler.NewUserHandler(users),
		adminHandler:     handler.NewAdminHandler(admins, settings),
		catalogHandler:   handler.NewCatalogHandler(departments, semesters, subjects, students, teachers),
		structureHandler: handler.NewStructureHandler(structure),
		reportHandler:    handler.NewReportHandler(exports),
		teacherHandler:   handler.NewTeacherHandler(marks, classes),
		studentHandler:   handler.NewStudentHandler(marks),
		metricsHandler:   handler.NewMetricsHandler(metrics),
	}
}

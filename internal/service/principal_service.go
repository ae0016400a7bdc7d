package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

type principalUserReader interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type principalTeacherReader interface {
	FindByUserID(ctx context.Context, userID int64) (*models.Teacher, error)
}

type principalStudentReader interface {
	FindByUserID(ctx context.Context, userID int64) (*models.Student, error)
}

type principalAdminReader interface {
	FindByTeacherID(ctx context.Context, teacherID int64) (*models.Admin, error)
}

// PrincipalService walks the User → Teacher/Student → Admin chain once and
// returns the resolved caller identity.
type PrincipalService struct {
	users    principalUserReader
	teachers principalTeacherReader
	students principalStudentReader
	admins   principalAdminReader
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewPrincipalService constructs the service.
func NewPrincipalService(users principalUserReader, teachers principalTeacherReader, students principalStudentReader, admins principalAdminReader, metrics *MetricsService, logger *zap.Logger) *PrincipalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrincipalService{users: users, teachers: teachers, students: students, admins: admins, metrics: metrics, logger: logger}
}

// Resolve loads the principal of an authenticated user. Missing capability
// records leave the matching field nil.
func (s *PrincipalService) Resolve(ctx context.Context, userID int64) (*models.Principal, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.IsActive {
		return nil, appErrors.ErrInactiveAccount
	}
	return s.resolveChain(ctx, user)
}

func (s *PrincipalService) resolveChain(ctx context.Context, user *models.User) (*models.Principal, error) {
	principal := &models.Principal{User: *user}

	switch user.Role {
	case models.RoleStudent:
		student, err := s.students.FindByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
		}
		principal.Student = student
	case models.RoleTeacher, models.RoleAdmin:
		teacher, err := s.teachers.FindByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher profile")
		}
		principal.Teacher = teacher
		if teacher != nil && user.Role == models.RoleAdmin {
			admin, err := s.admins.FindByTeacherID(ctx, teacher.ID)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin record")
			}
			principal.Admin = admin
		}
	}
	return principal, nil
}

// AdminScope returns the scope descriptor of a user, or nil when any link of
// the User → Teacher → Admin chain is missing. Only store failures are errors.
func (s *PrincipalService) AdminScope(ctx context.Context, userID int64) (*models.AdminScope, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordResolution(ResolutionAdminScope, OutcomeMiss)
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role != models.RoleAdmin {
		s.metrics.RecordResolution(ResolutionAdminScope, OutcomeMiss)
		return nil, nil
	}
	principal, err := s.resolveChain(ctx, user)
	if err != nil {
		return nil, err
	}
	scope := principal.Scope()
	if scope == nil {
		s.metrics.RecordResolution(ResolutionAdminScope, OutcomeMiss)
		s.logger.Debug("admin role without admin record", zap.Int64("user_id", userID))
		return nil, nil
	}
	s.metrics.RecordResolution(ResolutionAdminScope, OutcomeHit)
	return scope, nil
}

// IsAdmin reports whether the user resolves to an admin scope.
func (s *PrincipalService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	scope, err := s.AdminScope(ctx, userID)
	if err != nil {
		return false, err
	}
	return scope != nil, nil
}

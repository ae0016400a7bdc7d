package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	RevokeUserRefreshTokens(ctx context.Context, userID int64) error
}

// UserService lists login accounts and toggles their access.
type UserService struct {
	repo   userRepository
	logger *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	if users == nil {
		users = []models.User{}
	}
	return users, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// SetActive enables or disables a login. Disabling revokes every refresh
// token of the user; callers cannot disable themselves.
func (s *UserService) SetActive(ctx context.Context, callerID, userID int64, active bool) (*models.User, error) {
	if !active && callerID == userID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "you cannot deactivate your own account")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, requireFound(err, "user")
	}
	if user.IsActive == active {
		return user, nil
	}
	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	if !active {
		if err := s.repo.RevokeUserRefreshTokens(ctx, userID); err != nil {
			s.logger.Warn("failed to revoke refresh tokens of deactivated user", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	user.IsActive = active
	s.logger.Info("user access changed", zap.Int64("user_id", userID), zap.Bool("active", active))
	return user, nil
}

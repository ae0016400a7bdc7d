package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, settings models.Settings) error
}

var settingsCacheKey = CacheKey("settings")

// SettingsService loads grading thresholds as a value for the computation
// functions and keeps the cached copy in sync on update.
type SettingsService struct {
	repo      settingsRepository
	cache     *CacheService
	ttl       time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs the service.
func NewSettingsService(repo settingsRepository, cache *CacheService, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, cache: cache, ttl: ttl, validator: validate, logger: logger}
}

// Load returns the current settings. A missing row yields the defaults.
func (s *SettingsService) Load(ctx context.Context) (models.Settings, error) {
	var cached models.Settings
	if s.cache.Get(ctx, settingsCacheKey, &cached) {
		return cached, nil
	}

	settings, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("settings row missing, using defaults")
			return models.DefaultSettings, nil
		}
		return models.Settings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	s.cache.Set(ctx, settingsCacheKey, settings, s.ttl)
	return *settings, nil
}

// Update stores new thresholds. Cached performance reads depend on them, so
// they are dropped too.
func (s *SettingsService) Update(ctx context.Context, req dto.SettingsRequest) (models.Settings, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Settings{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	settings := models.Settings{PassPercentage: req.PassPercentage, WeakThreshold: req.WeakThreshold}
	if err := s.repo.Update(ctx, settings); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Settings{}, appErrors.Clone(appErrors.ErrNotFound, "settings row not found")
		}
		return models.Settings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update settings")
	}
	s.cache.Invalidate(ctx, settingsCacheKey)
	s.cache.InvalidatePattern(ctx, CacheKey("performance", "*"))
	s.logger.Info("settings updated", zap.Float64("pass_percentage", settings.PassPercentage), zap.Float64("weak_threshold", settings.WeakThreshold))
	return settings, nil
}

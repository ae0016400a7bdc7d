package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/pkg/logger"
)

const academicModelContextKey = "academic_model"

// ModelDetector decides whether the new academic model is populated.
type ModelDetector interface {
	ShouldUseNewModel(ctx context.Context, teacherID *int64) (bool, error)
}

// AcademicModel advertises which academic model serves the caller. Teachers
// are checked against their own offerings; everyone else gets the global
// answer. Detection failures fall back to the legacy model.
func AcademicModel(detector ModelDetector, header string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if detector == nil {
			c.Next()
			return
		}

		var teacherID *int64
		if id, ok := CurrentPrincipal(c).TeacherID(); ok {
			teacherID = &id
		}

		model := dto.ModelLegacy
		useNew, err := detector.ShouldUseNewModel(c.Request.Context(), teacherID)
		if err != nil {
			logger.WithRequest(log, c).Warn("academic model detection failed", zap.Error(err))
		} else if useNew {
			model = dto.ModelNew
		}

		c.Set(academicModelContextKey, model)
		SetMeta(c, "academic_model", model)
		if header != "" {
			c.Writer.Header().Set(header, model)
		}
		c.Next()
	}
}

// CurrentAcademicModel returns the model selected by AcademicModel.
func CurrentAcademicModel(c *gin.Context) string {
	if model := c.GetString(academicModelContextKey); model != "" {
		return model
	}
	return dto.ModelLegacy
}

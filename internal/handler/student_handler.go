package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
	"github.com/noah-isme/performance-analyzer-api/pkg/response"
)

type studentPerformanceService interface {
	StudentPerformance(ctx context.Context, studentID int64) ([]dto.SemesterPerformance, error)
	StudentAnalysis(ctx context.Context, studentID int64) (dto.StudentAnalysis, error)
	StudentSummary(ctx context.Context, student *models.Student) (dto.PerformanceSummary, error)
}

// StudentHandler exposes the student's own performance views.
type StudentHandler struct {
	marks studentPerformanceService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(marks studentPerformanceService) *StudentHandler {
	return &StudentHandler{marks: marks}
}

// Marks godoc
// @Summary Marks grouped by semester and subject
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/marks [get]
func (h *StudentHandler) Marks(c *gin.Context) {
	student, err := currentStudent(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	performance, err := h.marks.StudentPerformance(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, performance, nil)
}

// Analysis godoc
// @Summary Weak subjects and semester trend
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/analysis [get]
func (h *StudentHandler) Analysis(c *gin.Context) {
	student, err := currentStudent(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	analysis, err := h.marks.StudentAnalysis(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil)
}

// Summary godoc
// @Summary Natural-language performance summary
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/summary [get]
func (h *StudentHandler) Summary(c *gin.Context) {
	student, err := currentStudent(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.marks.StudentSummary(c.Request.Context(), student)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

func currentStudent(c *gin.Context) (*models.Student, error) {
	principal, err := principalFromContext(c)
	if err != nil {
		return nil, err
	}
	if principal.Student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
	}
	return principal.Student, nil
}

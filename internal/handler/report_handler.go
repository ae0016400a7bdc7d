package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	"github.com/noah-isme/performance-analyzer-api/internal/service"
	"github.com/noah-isme/performance-analyzer-api/pkg/response"
)

type marksReportService interface {
	MarksReport(ctx context.Context, scope *models.AdminScope, filter dto.MarksReportFilter, rawFormat string) (*service.ExportFile, error)
}

// ReportHandler streams downloadable reports.
type ReportHandler struct {
	reports marksReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports marksReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ExportMarks godoc
// @Summary Export marks report
// @Description Scoped admins only see their department or section
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param department_id query int false "Department ID"
// @Param semester_id query int false "Semester ID"
// @Param subject_id query int false "Subject ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /admin/reports/export [get]
func (h *ReportHandler) ExportMarks(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var filter dto.MarksReportFilter
	if filter.DepartmentID, err = optionalIDQuery(c, "department_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.SemesterID, err = optionalIDQuery(c, "semester_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.SubjectID, err = optionalIDQuery(c, "subject_id"); err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.reports.MarksReport(c.Request.Context(), principal.Scope(), filter, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	"github.com/noah-isme/performance-analyzer-api/internal/service"
	"github.com/noah-isme/performance-analyzer-api/pkg/response"
)

// StructureHandler exposes batches, sections, subject offerings and exam sessions.
type StructureHandler struct {
	structure *service.StructureService
}

// NewStructureHandler constructs StructureHandler.
func NewStructureHandler(structure *service.StructureService) *StructureHandler {
	return &StructureHandler{structure: structure}
}

// ListBatches godoc
// @Summary List batches
// @Tags Structure
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/batches [get]
func (h *StructureHandler) ListBatches(c *gin.Context) {
	items, err := h.structure.ListBatches(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateBatch godoc
// @Summary Create batch
// @Tags Structure
// @Accept json
// @Produce json
// @Param payload body dto.BatchRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Router /admin/batches [post]
func (h *StructureHandler) CreateBatch(c *gin.Context) {
	var req dto.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid batch payload"))
		return
	}
	batch, err := h.structure.CreateBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, batch)
}

// ListSections godoc
// @Summary List sections
// @Tags Structure
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/sections [get]
func (h *StructureHandler) ListSections(c *gin.Context) {
	items, err := h.structure.ListSections(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateSection godoc
// @Summary Create section
// @Tags Structure
// @Accept json
// @Produce json
// @Param payload body dto.SectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /admin/sections [post]
func (h *StructureHandler) CreateSection(c *gin.Context) {
	var req dto.SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid section payload"))
		return
	}
	section, err := h.structure.CreateSection(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// ListOfferings godoc
// @Summary List subject offerings
// @Tags Structure
// @Produce json
// @Param teacher_id query int false "Teacher ID"
// @Param section_id query int false "Section ID"
// @Param academic_year query string false "Academic year, e.g. 2024-25"
// @Success 200 {object} response.Envelope
// @Router /admin/subject-offerings [get]
func (h *StructureHandler) ListOfferings(c *gin.Context) {
	var (
		filter models.SubjectOfferingFilter
		err    error
	)
	if filter.TeacherID, err = optionalIDQuery(c, "teacher_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.SectionID, err = optionalIDQuery(c, "section_id"); err != nil {
		response.Error(c, err)
		return
	}
	filter.AcademicYear = strings.TrimSpace(c.Query("academic_year"))

	items, err := h.structure.ListOfferings(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateOffering godoc
// @Summary Create subject offering
// @Tags Structure
// @Accept json
// @Produce json
// @Param payload body dto.SubjectOfferingRequest true "Offering payload"
// @Success 201 {object} response.Envelope
// @Router /admin/subject-offerings [post]
func (h *StructureHandler) CreateOffering(c *gin.Context) {
	var req dto.SubjectOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid subject offering payload"))
		return
	}
	offering, err := h.structure.CreateOffering(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offering)
}

// ListExamTypes godoc
// @Summary List exam types
// @Tags Structure
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/exam-types [get]
func (h *StructureHandler) ListExamTypes(c *gin.Context) {
	items, err := h.structure.ListExamTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ListExamSessions godoc
// @Summary List exam sessions
// @Tags Structure
// @Produce json
// @Param exam_type_id query int false "Exam type ID"
// @Param semester_id query int false "Semester ID"
// @Param regulation_id query int false "Regulation ID"
// @Param academic_year query string false "Academic year"
// @Success 200 {object} response.Envelope
// @Router /admin/exam-sessions [get]
func (h *StructureHandler) ListExamSessions(c *gin.Context) {
	var (
		filter models.ExamSessionFilter
		err    error
	)
	if filter.ExamTypeID, err = optionalIDQuery(c, "exam_type_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.SemesterID, err = optionalIDQuery(c, "semester_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.RegulationID, err = optionalIDQuery(c, "regulation_id"); err != nil {
		response.Error(c, err)
		return
	}
	filter.AcademicYear = strings.TrimSpace(c.Query("academic_year"))

	items, err := h.structure.ListExamSessions(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateExamSession godoc
// @Summary Create exam session
// @Tags Structure
// @Accept json
// @Produce json
// @Param payload body dto.ExamSessionRequest true "Exam session payload"
// @Success 201 {object} response.Envelope
// @Router /admin/exam-sessions [post]
func (h *StructureHandler) CreateExamSession(c *gin.Context) {
	var req dto.ExamSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid exam session payload"))
		return
	}
	session, err := h.structure.CreateExamSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

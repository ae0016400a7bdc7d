package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/middleware"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
	"github.com/noah-isme/performance-analyzer-api/pkg/response"
)

type teacherMarksService interface {
	Upload(ctx context.Context, principal *models.Principal, req dto.UploadMarksRequest) (*models.Marks, error)
	UploadForOffering(ctx context.Context, principal *models.Principal, req dto.UploadOfferingMarksRequest) (*models.Marks, error)
	TeacherStudentMarks(ctx context.Context, principal *models.Principal, rollNumber string) (*dto.StudentMarksResponse, error)
	ClassAnalysis(ctx context.Context, departmentID, semesterID int64) (dto.ClassAnalysis, error)
	OfferingInsights(ctx context.Context, principal *models.Principal, offeringID int64) (dto.ClassInsights, error)
}

type teacherClassService interface {
	TeacherSubjects(ctx context.Context, principal *models.Principal) (*dto.TeacherSubjectsResponse, error)
	SectionStudents(ctx context.Context, principal *models.Principal, sectionID int64) ([]models.Student, error)
	ClassStudents(ctx context.Context, departmentID, semesterID int64) ([]models.Student, error)
}

// TeacherHandler exposes the teacher workspace: subjects, mark uploads and class views.
type TeacherHandler struct {
	marks   teacherMarksService
	classes teacherClassService
}

// NewTeacherHandler constructs TeacherHandler.
func NewTeacherHandler(marks teacherMarksService, classes teacherClassService) *TeacherHandler {
	return &TeacherHandler{marks: marks, classes: classes}
}

// Subjects godoc
// @Summary Subjects taught by the caller
// @Description Subject offerings when the teacher has any, legacy subject assignments otherwise
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/subjects [get]
func (h *TeacherHandler) Subjects(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.classes.TeacherSubjects(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil, middleware.ExtractMeta(c))
}

// UploadMarks godoc
// @Summary Upload marks (legacy payload)
// @Description Writes the legacy columns and fills subject offering, exam session, max marks and uploader when they resolve
// @Tags Teacher
// @Accept json
// @Produce json
// @Param payload body dto.UploadMarksRequest true "Marks payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/marks [post]
func (h *TeacherHandler) UploadMarks(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UploadMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid marks payload"))
		return
	}
	req.ExamType = strings.TrimSpace(req.ExamType)

	mark, err := h.marks.Upload(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mark)
}

// UploadOfferingMarks godoc
// @Summary Upload marks against a subject offering and exam session
// @Tags Teacher
// @Accept json
// @Produce json
// @Param payload body dto.UploadOfferingMarksRequest true "Marks payload"
// @Success 201 {object} response.Envelope
// @Router /teacher/marks/offerings [post]
func (h *TeacherHandler) UploadOfferingMarks(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UploadOfferingMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid marks payload"))
		return
	}
	mark, err := h.marks.UploadForOffering(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mark)
}

// StudentMarks godoc
// @Summary Marks of a student in the caller's subjects
// @Tags Teacher
// @Produce json
// @Param roll path string true "Roll number"
// @Success 200 {object} response.Envelope
// @Router /teacher/student/{roll} [get]
func (h *TeacherHandler) StudentMarks(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	roll := strings.TrimSpace(c.Param("roll"))
	if roll == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "roll number is required"))
		return
	}
	res, err := h.marks.TeacherStudentMarks(c.Request.Context(), principal, roll)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ClassStudents godoc
// @Summary Students of a department and semester
// @Tags Teacher
// @Produce json
// @Param department_id path int true "Department ID"
// @Param semester_id path int true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /teacher/students/{department_id}/{semester_id} [get]
func (h *TeacherHandler) ClassStudents(c *gin.Context) {
	departmentID, semesterID, err := classParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.classes.ClassStudents(c.Request.Context(), departmentID, semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// SectionStudents godoc
// @Summary Students of a section
// @Description Teachers need an offering in the section for the current academic year
// @Tags Teacher
// @Produce json
// @Param id path int true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/sections/{id}/students [get]
func (h *TeacherHandler) SectionStudents(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	sectionID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.classes.SectionStudents(c.Request.Context(), principal, sectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// ClassAnalysis godoc
// @Summary Subject averages of a class
// @Tags Teacher
// @Produce json
// @Param department_id path int true "Department ID"
// @Param semester_id path int true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /teacher/analysis/{department_id}/{semester_id} [get]
func (h *TeacherHandler) ClassAnalysis(c *gin.Context) {
	departmentID, semesterID, err := classParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	analysis, err := h.marks.ClassAnalysis(c.Request.Context(), departmentID, semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil)
}

// OfferingInsights godoc
// @Summary Class insights for a subject offering
// @Tags Teacher
// @Produce json
// @Param id path int true "Subject offering ID"
// @Success 200 {object} response.Envelope
// @Router /teacher/offerings/{id}/insights [get]
func (h *TeacherHandler) OfferingInsights(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	offeringID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	insights, err := h.marks.OfferingInsights(c.Request.Context(), principal, offeringID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, insights, nil)
}

func classParams(c *gin.Context) (int64, int64, error) {
	departmentID, err := idParam(c, "department_id")
	if err != nil {
		return 0, 0, err
	}
	semesterID, err := idParam(c, "semester_id")
	if err != nil {
		return 0, 0, err
	}
	return departmentID, semesterID, nil
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

type fakeTeacherMarks struct {
	uploaded    *dto.UploadMarksRequest
	uploadErr   error
	lastRoll    string
	lastClass   [2]int64
	lastOffered int64
}

func (f *fakeTeacherMarks) Upload(_ context.Context, principal *models.Principal, req dto.UploadMarksRequest) (*models.Marks, error) {
	f.uploaded = &req
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &models.Marks{ID: 1, StudentID: req.StudentID, SubjectID: req.SubjectID, ExamType: req.ExamType, MarksObtained: req.MarksObtained, TotalMarks: req.TotalMarks, UploadedBy: &principal.User.ID}, nil
}

func (f *fakeTeacherMarks) UploadForOffering(_ context.Context, _ *models.Principal, req dto.UploadOfferingMarksRequest) (*models.Marks, error) {
	return &models.Marks{ID: 2, StudentID: req.StudentID, SubjectOfferingID: &req.SubjectOfferingID, ExamSessionID: &req.ExamSessionID}, nil
}

func (f *fakeTeacherMarks) TeacherStudentMarks(_ context.Context, _ *models.Principal, rollNumber string) (*dto.StudentMarksResponse, error) {
	f.lastRoll = rollNumber
	return &dto.StudentMarksResponse{Student: models.Student{RollNumber: rollNumber}}, nil
}

func (f *fakeTeacherMarks) ClassAnalysis(_ context.Context, departmentID, semesterID int64) (dto.ClassAnalysis, error) {
	f.lastClass = [2]int64{departmentID, semesterID}
	return dto.ClassAnalysis{SubjectPerformance: map[string]float64{"Maths": 71.5}}, nil
}

func (f *fakeTeacherMarks) OfferingInsights(_ context.Context, _ *models.Principal, offeringID int64) (dto.ClassInsights, error) {
	f.lastOffered = offeringID
	return dto.ClassInsights{Insights: "ok", Source: dto.SummarySourceFallback}, nil
}

type fakeTeacherClasses struct {
	sectionErr error
}

func (f *fakeTeacherClasses) TeacherSubjects(context.Context, *models.Principal) (*dto.TeacherSubjectsResponse, error) {
	return &dto.TeacherSubjectsResponse{Model: dto.ModelNew, Subjects: []dto.TeacherSubjectItem{{ID: 4, Name: "Maths", Code: "MA101"}}}, nil
}

func (f *fakeTeacherClasses) SectionStudents(context.Context, *models.Principal, int64) ([]models.Student, error) {
	if f.sectionErr != nil {
		return nil, f.sectionErr
	}
	return []models.Student{}, nil
}

func (f *fakeTeacherClasses) ClassStudents(context.Context, int64, int64) ([]models.Student, error) {
	return []models.Student{{ID: 1, RollNumber: "23CSE0012"}}, nil
}

func TestTeacherHandlerUploadMarksCreated(t *testing.T) {
	marks := &fakeTeacherMarks{}
	h := NewTeacherHandler(marks, &fakeTeacherClasses{})

	c, rec := newTestContext(http.MethodPost, "/teacher/marks", map[string]interface{}{
		"student_id": 5, "subject_id": 4, "exam_type": " Mid-1 ", "marks_obtained": 85.5, "total_marks": 100,
	}, teacherPrincipal())
	h.UploadMarks(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, marks.uploaded)
	assert.Equal(t, "Mid-1", marks.uploaded.ExamType)

	var mark models.Marks
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &mark))
	assert.Equal(t, 85.5, mark.MarksObtained)
	assert.Nil(t, mark.ExamSessionID)
}

func TestTeacherHandlerUploadMarksForbidden(t *testing.T) {
	h := NewTeacherHandler(&fakeTeacherMarks{uploadErr: appErrors.ErrUniversityMarksLocked}, &fakeTeacherClasses{})

	c, rec := newTestContext(http.MethodPost, "/teacher/marks", map[string]interface{}{
		"student_id": 5, "subject_id": 4, "exam_type": "University", "marks_obtained": 60, "total_marks": 100,
	}, teacherPrincipal())
	h.UploadMarks(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrUniversityMarksLocked.Code, envelope.Error.Code)
}

func TestTeacherHandlerUploadMarksRequiresPrincipal(t *testing.T) {
	h := NewTeacherHandler(&fakeTeacherMarks{}, &fakeTeacherClasses{})

	c, rec := newTestContext(http.MethodPost, "/teacher/marks", map[string]interface{}{}, nil)
	h.UploadMarks(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTeacherHandlerSubjectsCarriesModel(t *testing.T) {
	h := NewTeacherHandler(&fakeTeacherMarks{}, &fakeTeacherClasses{})

	c, rec := newTestContext(http.MethodGet, "/teacher/subjects", nil, teacherPrincipal())
	h.Subjects(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var res dto.TeacherSubjectsResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &res))
	assert.Equal(t, dto.ModelNew, res.Model)
	assert.Len(t, res.Subjects, 1)
}

func TestTeacherHandlerClassAnalysisParams(t *testing.T) {
	marks := &fakeTeacherMarks{}
	h := NewTeacherHandler(marks, &fakeTeacherClasses{})

	c, rec := newTestContext(http.MethodGet, "/teacher/analysis/2/3", nil, teacherPrincipal())
	c.Params = gin.Params{{Key: "department_id", Value: "2"}, {Key: "semester_id", Value: "3"}}
	h.ClassAnalysis(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [2]int64{2, 3}, marks.lastClass)

	c, rec = newTestContext(http.MethodGet, "/teacher/analysis/x/3", nil, teacherPrincipal())
	c.Params = gin.Params{{Key: "department_id", Value: "x"}, {Key: "semester_id", Value: "3"}}
	h.ClassAnalysis(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeacherHandlerSectionStudentsForbidden(t *testing.T) {
	h := NewTeacherHandler(&fakeTeacherMarks{}, &fakeTeacherClasses{sectionErr: appErrors.Clone(appErrors.ErrForbidden, "you do not teach this section")})

	c, rec := newTestContext(http.MethodGet, "/teacher/sections/9/students", nil, teacherPrincipal())
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	h.SectionStudents(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTeacherHandlerStudentMarks(t *testing.T) {
	marks := &fakeTeacherMarks{}
	h := NewTeacherHandler(marks, &fakeTeacherClasses{})

	c, rec := newTestContext(http.MethodGet, "/teacher/student/23CSE0012", nil, teacherPrincipal())
	c.Params = gin.Params{{Key: "roll", Value: "23CSE0012"}}
	h.StudentMarks(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "23CSE0012", marks.lastRoll)
}

func TestTeacherHandlerOfferingInsights(t *testing.T) {
	marks := &fakeTeacherMarks{}
	h := NewTeacherHandler(marks, &fakeTeacherClasses{})

	c, rec := newTestContext(http.MethodGet, "/teacher/offerings/12/insights", nil, teacherPrincipal())
	c.Params = gin.Params{{Key: "id", Value: "12"}}
	h.OfferingInsights(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(12), marks.lastOffered)
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
	"github.com/noah-isme/performance-analyzer-api/pkg/export"
)

type reportRowsStub struct {
	rows   []dto.MarksReportRow
	filter dto.MarksReportFilter
	err    error
}

func (s *reportRowsStub) ListReportRows(ctx context.Context, filter dto.MarksReportFilter) ([]dto.MarksReportRow, error) {
	s.filter = filter
	return s.rows, s.err
}

func newTestExportService(rows *reportRowsStub) *ExportService {
	svc := NewExportService(rows, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 11, 5, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestBuildMarksDatasetPercentages(t *testing.T) {
	semester := "2-1"
	dataset := BuildMarksDataset([]dto.MarksReportRow{
		{StudentName: "Asha", RollNumber: "23CSE0012", Department: "CSE", Semester: &semester, SubjectCode: "MA201", SubjectName: "Maths", ExamType: "Internal-1", MarksObtained: 17, TotalMarks: 30},
		{StudentName: "Ravi", RollNumber: "23CSE0013", Department: "CSE", SubjectCode: "MA201", SubjectName: "Maths", ExamType: "Mid-1", MarksObtained: 5, TotalMarks: 0},
	})

	require.Len(t, dataset.Rows, 2)
	assert.Len(t, dataset.Headers, 10)
	assert.Equal(t, []string{"Asha", "23CSE0012", "CSE", "2-1", "MA201", "Maths", "Internal-1", "17", "30", "56.67"}, dataset.Rows[0])
	assert.Equal(t, "", dataset.Rows[1][3])
	assert.Equal(t, "0.00", dataset.Rows[1][9])
}

func TestExportMarksReportAppliesScope(t *testing.T) {
	rows := &reportRowsStub{rows: []dto.MarksReportRow{{StudentName: "Asha", MarksObtained: 10, TotalMarks: 20}}}
	svc := newTestExportService(rows)
	deptID, otherDept := int64(2), int64(5)
	scope := models.NewAdminScope(models.Admin{AdminType: models.AdminTypeHOD, DepartmentID: &deptID})

	file, err := svc.MarksReport(context.Background(), scope, dto.MarksReportFilter{DepartmentID: &otherDept}, "csv")
	require.NoError(t, err)
	assert.Equal(t, &deptID, rows.filter.DepartmentID)
	assert.Equal(t, "marks_report_20241105_093000.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "Student Name,Roll Number"))
}

func TestExportMarksReportMasterIsUnscoped(t *testing.T) {
	rows := &reportRowsStub{}
	svc := newTestExportService(rows)
	scope := models.NewAdminScope(models.Admin{AdminType: models.AdminTypeMaster})

	file, err := svc.MarksReport(context.Background(), scope, dto.MarksReportFilter{}, "pdf")
	require.NoError(t, err)
	assert.Nil(t, rows.filter.DepartmentID)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".pdf"))
}

func TestExportMarksReportErrors(t *testing.T) {
	svc := newTestExportService(&reportRowsStub{})
	_, err := svc.MarksReport(context.Background(), nil, dto.MarksReportFilter{}, "xml")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	svc = newTestExportService(&reportRowsStub{err: errors.New("db down")})
	_, err = svc.MarksReport(context.Background(), nil, dto.MarksReportFilter{}, "csv")
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}

var _ datasetRenderer = (*export.CSVExporter)(nil)

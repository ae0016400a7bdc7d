package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
	"github.com/noah-isme/performance-analyzer-api/pkg/export"
)

type reportRowReader interface {
	ListReportRows(ctx context.Context, filter dto.MarksReportFilter) ([]dto.MarksReportRow, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered report ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

var marksReportHeaders = []string{
	"Student Name", "Roll Number", "Department", "Semester", "Subject Code",
	"Subject Name", "Exam Type", "Marks Obtained", "Total Marks", "Percentage",
}

// ExportService renders the admin marks report.
type ExportService struct {
	rows   reportRowReader
	csv    datasetRenderer
	pdf    datasetRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers default to the
// CSV and PDF exporters.
func NewExportService(rows reportRowReader, csv, pdf datasetRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{rows: rows, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// MarksReport renders the marks visible to the caller in the requested format.
// Scoped admins always get their department or section filter applied.
func (s *ExportService) MarksReport(ctx context.Context, scope *models.AdminScope, filter dto.MarksReportFilter, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}
	if department := scope.DepartmentFilter(); department != nil {
		filter.DepartmentID = department
	}
	if section := scope.SectionFilter(); section != nil {
		filter.SectionID = section
	}

	rows, err := s.rows.ListReportRows(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report rows")
	}
	dataset := BuildMarksDataset(rows)

	renderer := s.csv
	if format == export.FormatPDF {
		renderer = s.pdf
	}
	data, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	s.logger.Info("marks report exported", zap.String("format", string(format)), zap.Int("rows", len(rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("marks_report_%s.%s", s.now().UTC().Format("20060102_150405"), format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// BuildMarksDataset converts report rows into a table. Percentage is rounded to
// two decimals and is zero when total marks are zero.
func BuildMarksDataset(rows []dto.MarksReportRow) export.Dataset {
	dataset := export.Dataset{Title: "Marks Report", Headers: marksReportHeaders, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		semester := ""
		if row.Semester != nil {
			semester = *row.Semester
		}
		pct := 0.0
		if row.TotalMarks > 0 {
			pct = row.MarksObtained / row.TotalMarks * 100
		}
		dataset.Rows = append(dataset.Rows, []string{
			row.StudentName,
			row.RollNumber,
			row.Department,
			semester,
			row.SubjectCode,
			row.SubjectName,
			row.ExamType,
			strconv.FormatFloat(row.MarksObtained, 'f', -1, 64),
			strconv.FormatFloat(row.TotalMarks, 'f', -1, 64),
			strconv.FormatFloat(pct, 'f', 2, 64),
		})
	}
	return dataset
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

const marksColumns = `m.id, m.student_id, m.subject_id, m.exam_type, m.marks_obtained, m.total_marks,
m.subject_offering_id, m.exam_session_id, m.max_marks, m.uploaded_by`

const markDetailSelect = `SELECT ` + marksColumns + `,
s.name AS subject_name, s.code AS subject_code, sem.name AS semester_name, et.name AS session_exam_type_name
FROM marks m
JOIN subjects s ON s.id = m.subject_id
LEFT JOIN semesters sem ON sem.id = s.semester_id
LEFT JOIN exam_sessions es ON es.id = m.exam_session_id
LEFT JOIN exam_types et ON et.id = es.exam_type_id`

// MarksRepository persists marks in both the legacy and new-model columns.
type MarksRepository struct {
	db *sqlx.DB
}

// NewMarksRepository constructs the repository.
func NewMarksRepository(db *sqlx.DB) *MarksRepository {
	return &MarksRepository{db: db}
}

// FindByStudentSubjectExam returns the mark identified by the legacy triple.
func (r *MarksRepository) FindByStudentSubjectExam(ctx context.Context, studentID, subjectID int64, examType string) (*models.Marks, error) {
	query := `SELECT ` + marksColumns + ` FROM marks m WHERE m.student_id = $1 AND m.subject_id = $2 AND m.exam_type = $3 ORDER BY m.id LIMIT 1`
	var mark models.Marks
	if err := r.db.GetContext(ctx, &mark, query, studentID, subjectID, examType); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find marks: %w", err)
	}
	return &mark, nil
}

// Create inserts a mark and assigns its id.
func (r *MarksRepository) Create(ctx context.Context, mark *models.Marks) error {
	const query = `INSERT INTO marks (student_id, subject_id, exam_type, marks_obtained, total_marks, subject_offering_id, exam_session_id, max_marks, uploaded_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		mark.StudentID, mark.SubjectID, mark.ExamType, mark.MarksObtained, mark.TotalMarks,
		mark.SubjectOfferingID, mark.ExamSessionID, mark.MaxMarks, mark.UploadedBy,
	).Scan(&mark.ID); err != nil {
		return fmt.Errorf("create marks: %w", err)
	}
	return nil
}

// Update overwrites the values and reconciliation fields of an existing mark.
func (r *MarksRepository) Update(ctx context.Context, mark *models.Marks) error {
	const query = `UPDATE marks SET marks_obtained = $2, total_marks = $3, subject_offering_id = $4, exam_session_id = $5, max_marks = $6, uploaded_by = $7 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		mark.ID, mark.MarksObtained, mark.TotalMarks, mark.SubjectOfferingID, mark.ExamSessionID, mark.MaxMarks, mark.UploadedBy,
	); err != nil {
		return fmt.Errorf("update marks: %w", err)
	}
	return nil
}

// ListDetailsByStudent returns every mark of a student with classification data.
func (r *MarksRepository) ListDetailsByStudent(ctx context.Context, studentID int64) ([]models.MarkDetail, error) {
	query := markDetailSelect + ` WHERE m.student_id = $1 ORDER BY m.id`
	var marks []models.MarkDetail
	if err := r.db.SelectContext(ctx, &marks, query, studentID); err != nil {
		return nil, fmt.Errorf("list student marks: %w", err)
	}
	return marks, nil
}

// ListDetailsByStudentSubjects restricts the student's marks to the given subjects.
func (r *MarksRepository) ListDetailsByStudentSubjects(ctx context.Context, studentID int64, subjectIDs []int64) ([]models.MarkDetail, error) {
	if len(subjectIDs) == 0 {
		return []models.MarkDetail{}, nil
	}
	query := markDetailSelect + ` WHERE m.student_id = $1 AND m.subject_id = ANY($2) ORDER BY m.id`
	var marks []models.MarkDetail
	if err := r.db.SelectContext(ctx, &marks, query, studentID, pq.Array(subjectIDs)); err != nil {
		return nil, fmt.Errorf("list student subject marks: %w", err)
	}
	return marks, nil
}

// ListClassMarks returns marks of students in a legacy class (department + current semester).
func (r *MarksRepository) ListClassMarks(ctx context.Context, departmentID, semesterID int64) ([]models.ClassMark, error) {
	const query = `SELECT m.student_id, st.name AS student_name, s.name AS subject_name, m.exam_type,
m.marks_obtained, m.total_marks, m.max_marks, m.exam_session_id, et.name AS session_label
FROM marks m
JOIN students st ON st.id = m.student_id
JOIN subjects s ON s.id = m.subject_id
LEFT JOIN exam_sessions es ON es.id = m.exam_session_id
LEFT JOIN exam_types et ON et.id = es.exam_type_id
WHERE st.department_id = $1 AND st.current_semester_id = $2
ORDER BY m.id`
	var marks []models.ClassMark
	if err := r.db.SelectContext(ctx, &marks, query, departmentID, semesterID); err != nil {
		return nil, fmt.Errorf("list class marks: %w", err)
	}
	return marks, nil
}

// ListOfferingMarks returns marks linked to a subject offering, falling back to
// legacy marks of the offering's subject for students in its section.
func (r *MarksRepository) ListOfferingMarks(ctx context.Context, offering models.SubjectOffering) ([]models.ClassMark, error) {
	const query = `SELECT m.student_id, st.name AS student_name, s.name AS subject_name, m.exam_type,
m.marks_obtained, m.total_marks, m.max_marks, m.exam_session_id, COALESCE(et.name, m.exam_type) AS session_label
FROM marks m
JOIN students st ON st.id = m.student_id
JOIN subjects s ON s.id = m.subject_id
LEFT JOIN exam_sessions es ON es.id = m.exam_session_id
LEFT JOIN exam_types et ON et.id = es.exam_type_id
WHERE m.subject_offering_id = $1
   OR (m.subject_offering_id IS NULL AND m.subject_id = $2 AND st.section_id = $3)
ORDER BY m.id`
	var marks []models.ClassMark
	if err := r.db.SelectContext(ctx, &marks, query, offering.ID, offering.SubjectID, offering.SectionID); err != nil {
		return nil, fmt.Errorf("list offering marks: %w", err)
	}
	return marks, nil
}

// ListReportRows returns export rows for the admin marks report.
func (r *MarksRepository) ListReportRows(ctx context.Context, filter dto.MarksReportFilter) ([]dto.MarksReportRow, error) {
	base := `SELECT st.name AS student_name, st.roll_number, d.code AS department_code, sem.name AS semester_name,
s.code AS subject_code, s.name AS subject_name, m.exam_type, m.marks_obtained, m.total_marks
FROM marks m
JOIN students st ON st.id = m.student_id
JOIN subjects s ON s.id = m.subject_id
JOIN departments d ON d.id = st.department_id
LEFT JOIN semesters sem ON sem.id = st.current_semester_id`

	var conditions []string
	var args []interface{}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("st.department_id = $%d", len(args)))
	}
	if filter.SemesterID != nil {
		args = append(args, *filter.SemesterID)
		conditions = append(conditions, fmt.Sprintf("st.current_semester_id = $%d", len(args)))
	}
	if filter.SubjectID != nil {
		args = append(args, *filter.SubjectID)
		conditions = append(conditions, fmt.Sprintf("m.subject_id = $%d", len(args)))
	}
	if filter.SectionID != nil {
		args = append(args, *filter.SectionID)
		conditions = append(conditions, fmt.Sprintf("st.section_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		base += " WHERE " + strings.Join(conditions, " AND ")
	}
	base += " ORDER BY st.roll_number, s.code, m.exam_type"

	var rows []dto.MarksReportRow
	if err := r.db.SelectContext(ctx, &rows, base, args...); err != nil {
		return nil, fmt.Errorf("list report rows: %w", err)
	}
	return rows, nil
}

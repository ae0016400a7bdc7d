package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

const subjectColumns = `s.id, s.name, s.code, s.department_id, s.semester_id, s.teacher_id, s.regulation_id`

// SubjectRepository persists subjects and their legacy teacher assignment.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns every subject.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects s ORDER BY s.code`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID returns a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects s WHERE s.id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return &subject, nil
}

// FindByCode returns a subject by code.
func (r *SubjectRepository) FindByCode(ctx context.Context, code string) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects s WHERE s.code = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject by code: %w", err)
	}
	return &subject, nil
}

// ListByTeacher returns the subjects assigned to a teacher in the legacy model.
func (r *SubjectRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]models.SubjectWithSemester, error) {
	query := `SELECT ` + subjectColumns + `, sem.name AS semester_name
FROM subjects s LEFT JOIN semesters sem ON sem.id = s.semester_id
WHERE s.teacher_id = $1 ORDER BY s.code`
	var subjects []models.SubjectWithSemester
	if err := r.db.SelectContext(ctx, &subjects, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	return subjects, nil
}

// Create inserts a subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	const query = `INSERT INTO subjects (name, code, department_id, semester_id, teacher_id, regulation_id)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, 1)) RETURNING id, regulation_id`
	if err := r.db.QueryRowxContext(ctx, query,
		subject.Name, subject.Code, subject.DepartmentID, subject.SemesterID, subject.TeacherID, subject.RegulationID,
	).Scan(&subject.ID, &subject.RegulationID); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// AssignTeacher sets the legacy teacher of a subject.
func (r *SubjectRepository) AssignTeacher(ctx context.Context, subjectID, teacherID int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE subjects SET teacher_id = $2 WHERE id = $1`, subjectID, teacherID); err != nil {
		return fmt.Errorf("assign subject teacher: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

const examSessionColumns = `id, exam_type_id, semester_id, regulation_id, academic_year, exam_date`

// ExamSessionRepository manages exam types and exam sessions.
type ExamSessionRepository struct {
	db *sqlx.DB
}

// NewExamSessionRepository constructs the repository.
func NewExamSessionRepository(db *sqlx.DB) *ExamSessionRepository {
	return &ExamSessionRepository{db: db}
}

// FindByKey returns the session identified by its natural key.
func (r *ExamSessionRepository) FindByKey(ctx context.Context, examTypeID models.ExamTypeID, semesterID, regulationID int64, academicYear string) (*models.ExamSession, error) {
	query := `SELECT ` + examSessionColumns + ` FROM exam_sessions
WHERE exam_type_id = $1 AND semester_id = $2 AND regulation_id = $3 AND academic_year = $4`
	var session models.ExamSession
	if err := r.db.GetContext(ctx, &session, query, examTypeID, semesterID, regulationID, academicYear); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find exam session: %w", err)
	}
	return &session, nil
}

// FindByID returns a session by id.
func (r *ExamSessionRepository) FindByID(ctx context.Context, id int64) (*models.ExamSession, error) {
	query := `SELECT ` + examSessionColumns + ` FROM exam_sessions WHERE id = $1`
	var session models.ExamSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find exam session by id: %w", err)
	}
	return &session, nil
}

// List returns sessions matching the filter.
func (r *ExamSessionRepository) List(ctx context.Context, filter models.ExamSessionFilter) ([]models.ExamSession, error) {
	query := `SELECT ` + examSessionColumns + ` FROM exam_sessions`
	var conditions []string
	var args []interface{}
	if filter.ExamTypeID != nil {
		args = append(args, *filter.ExamTypeID)
		conditions = append(conditions, fmt.Sprintf("exam_type_id = $%d", len(args)))
	}
	if filter.SemesterID != nil {
		args = append(args, *filter.SemesterID)
		conditions = append(conditions, fmt.Sprintf("semester_id = $%d", len(args)))
	}
	if filter.RegulationID != nil {
		args = append(args, *filter.RegulationID)
		conditions = append(conditions, fmt.Sprintf("regulation_id = $%d", len(args)))
	}
	if filter.AcademicYear != "" {
		args = append(args, filter.AcademicYear)
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY academic_year, semester_id, exam_type_id"

	var sessions []models.ExamSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list exam sessions: %w", err)
	}
	return sessions, nil
}

// Create inserts a session.
func (r *ExamSessionRepository) Create(ctx context.Context, session *models.ExamSession) error {
	const query = `INSERT INTO exam_sessions (exam_type_id, semester_id, regulation_id, academic_year, exam_date) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, session.ExamTypeID, session.SemesterID, session.RegulationID, session.AcademicYear, session.ExamDate).Scan(&session.ID); err != nil {
		return fmt.Errorf("create exam session: %w", err)
	}
	return nil
}

// ListExamTypes returns the exam type reference rows.
func (r *ExamSessionRepository) ListExamTypes(ctx context.Context) ([]models.ExamType, error) {
	const query = `SELECT id, name, conducted_by, is_internal, default_max_marks FROM exam_types ORDER BY id`
	var types []models.ExamType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list exam types: %w", err)
	}
	return types, nil
}

// FindExamType returns an exam type by id.
func (r *ExamSessionRepository) FindExamType(ctx context.Context, id models.ExamTypeID) (*models.ExamType, error) {
	const query = `SELECT id, name, conducted_by, is_internal, default_max_marks FROM exam_types WHERE id = $1`
	var examType models.ExamType
	if err := r.db.GetContext(ctx, &examType, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find exam type: %w", err)
	}
	return &examType, nil
}

// FindRegulation returns a regulation by id.
func (r *ExamSessionRepository) FindRegulation(ctx context.Context, id int64) (*models.Regulation, error) {
	const query = `SELECT id, name, start_year FROM regulations WHERE id = $1`
	var regulation models.Regulation
	if err := r.db.GetContext(ctx, &regulation, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find regulation: %w", err)
	}
	return &regulation, nil
}

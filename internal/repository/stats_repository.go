package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
)

// StatsRepository aggregates entity counts for the admin dashboard.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Counts returns entity totals. When departmentID is set, students, teachers
// and subjects are limited to that department.
func (r *StatsRepository) Counts(ctx context.Context, departmentID *int64) (*dto.AdminStats, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM students WHERE $1::BIGINT IS NULL OR department_id = $1) AS total_students,
(SELECT COUNT(*) FROM teachers WHERE $1::BIGINT IS NULL OR department_id = $1) AS total_teachers,
(SELECT COUNT(*) FROM departments WHERE $1::BIGINT IS NULL OR id = $1) AS total_departments,
(SELECT COUNT(*) FROM subjects WHERE $1::BIGINT IS NULL OR department_id = $1) AS total_subjects,
(SELECT COUNT(*) FROM batches) AS batches,
(SELECT COUNT(*) FROM sections WHERE $1::BIGINT IS NULL OR department_id = $1) AS sections,
(SELECT COUNT(*) FROM subject_offerings) AS subject_offerings,
(SELECT COUNT(*) FROM exam_sessions) AS exam_sessions`
	var stats dto.AdminStats
	if err := r.db.GetContext(ctx, &stats, query, departmentID); err != nil {
		return nil, fmt.Errorf("count entities: %w", err)
	}
	return &stats, nil
}

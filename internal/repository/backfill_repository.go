package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

// BackfillRepository runs the set-based statements that populate new-model
// columns from legacy data. Every statement commits in its own transaction.
type BackfillRepository struct {
	db *sqlx.DB
}

// NewBackfillRepository constructs the repository.
func NewBackfillRepository(db *sqlx.DB) *BackfillRepository {
	return &BackfillRepository{db: db}
}

var scannableTables = map[string]bool{
	"students": true,
	"subjects": true,
	"marks":    true,
}

// MaxID returns the highest id currently present in table.
func (r *BackfillRepository) MaxID(ctx context.Context, table string) (int64, error) {
	if !scannableTables[table] {
		return 0, fmt.Errorf("max id: table %q not scannable", table)
	}
	var maxID int64
	if err := r.db.GetContext(ctx, &maxID, `SELECT COALESCE(MAX(id), 0) FROM `+table); err != nil {
		return 0, fmt.Errorf("max id of %s: %w", table, err)
	}
	return maxID, nil
}

// GetCheckpoint returns the checkpoint of a phase or sql.ErrNoRows.
func (r *BackfillRepository) GetCheckpoint(ctx context.Context, phase models.BackfillPhase) (*models.BackfillCheckpoint, error) {
	const query = `SELECT phase, last_processed_id, rows_affected, completed_at, updated_at FROM backfill_checkpoints WHERE phase = $1`
	var checkpoint models.BackfillCheckpoint
	if err := r.db.GetContext(ctx, &checkpoint, query, phase); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get backfill checkpoint: %w", err)
	}
	return &checkpoint, nil
}

// ListCheckpoints returns every recorded checkpoint.
func (r *BackfillRepository) ListCheckpoints(ctx context.Context) ([]models.BackfillCheckpoint, error) {
	const query = `SELECT phase, last_processed_id, rows_affected, completed_at, updated_at FROM backfill_checkpoints ORDER BY phase`
	var checkpoints []models.BackfillCheckpoint
	if err := r.db.SelectContext(ctx, &checkpoints, query); err != nil {
		return nil, fmt.Errorf("list backfill checkpoints: %w", err)
	}
	return checkpoints, nil
}

// SaveCheckpoint upserts the checkpoint of a phase.
func (r *BackfillRepository) SaveCheckpoint(ctx context.Context, checkpoint *models.BackfillCheckpoint) error {
	checkpoint.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO backfill_checkpoints (phase, last_processed_id, rows_affected, completed_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (phase) DO UPDATE SET last_processed_id = EXCLUDED.last_processed_id, rows_affected = EXCLUDED.rows_affected,
completed_at = EXCLUDED.completed_at, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query,
		checkpoint.Phase, checkpoint.LastProcessedID, checkpoint.RowsAffected, checkpoint.CompletedAt, checkpoint.UpdatedAt,
	); err != nil {
		return fmt.Errorf("save backfill checkpoint: %w", err)
	}
	return nil
}

// ResetCheckpoint removes the checkpoint of a phase so the next run rescans from the start.
func (r *BackfillRepository) ResetCheckpoint(ctx context.Context, phase models.BackfillPhase) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM backfill_checkpoints WHERE phase = $1`, phase); err != nil {
		return fmt.Errorf("reset backfill checkpoint: %w", err)
	}
	return nil
}

// ListUnbatchedStudents returns up to limit students without a batch above afterID.
func (r *BackfillRepository) ListUnbatchedStudents(ctx context.Context, afterID int64, limit int) ([]models.StudentRoll, error) {
	const query = `SELECT id, roll_number FROM students WHERE batch_id IS NULL AND id > $1 ORDER BY id LIMIT $2`
	var students []models.StudentRoll
	if err := r.db.SelectContext(ctx, &students, query, afterID, limit); err != nil {
		return nil, fmt.Errorf("list unbatched students: %w", err)
	}
	return students, nil
}

// AssignBatch ensures the batch of an admission year exists and attaches the
// given students to it. Students that already have a batch are left alone.
func (r *BackfillRepository) AssignBatch(ctx context.Context, admissionYear int, regulationID, instituteID int64, studentIDs []int64) (int64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	var affected int64
	err := r.inTx(ctx, "assign batch", func(tx *sqlx.Tx) error {
		const insert = `INSERT INTO batches (admission_year, regulation_id, institute_id) VALUES ($1, $2, $3)
ON CONFLICT (admission_year, institute_id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, insert, admissionYear, regulationID, instituteID); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
		var batchID int64
		if err := tx.GetContext(ctx, &batchID, `SELECT id FROM batches WHERE admission_year = $1 AND institute_id = $2`, admissionYear, instituteID); err != nil {
			return fmt.Errorf("find batch: %w", err)
		}
		res, err := tx.ExecContext(ctx, `UPDATE students SET batch_id = $1 WHERE id = ANY($2) AND batch_id IS NULL`, batchID, pq.Array(studentIDs))
		if err != nil {
			return fmt.Errorf("update student batch: %w", err)
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

// CreateDefaultSections creates one "<short code>-a" section for every
// department and batch pair.
func (r *BackfillRepository) CreateDefaultSections(ctx context.Context) (int64, error) {
	const query = `INSERT INTO sections (name, department_id, batch_id)
SELECT LOWER(COALESCE(d.short_code, d.code)) || '-a', d.id, b.id
FROM departments d CROSS JOIN batches b
ORDER BY d.id, b.id
ON CONFLICT (department_id, batch_id, name) DO NOTHING`
	return r.execInTx(ctx, "create default sections", query)
}

// AssignDefaultSections attaches students in (afterID, upToID] to the default
// section of their department and batch.
func (r *BackfillRepository) AssignDefaultSections(ctx context.Context, afterID, upToID int64) (int64, error) {
	const query = `UPDATE students SET section_id = sec.id
FROM sections sec JOIN departments d ON d.id = sec.department_id
WHERE sec.department_id = students.department_id
AND sec.batch_id = students.batch_id
AND sec.name = LOWER(COALESCE(d.short_code, d.code)) || '-a'
AND students.section_id IS NULL
AND students.id > $1 AND students.id <= $2`
	return r.execInTx(ctx, "assign default sections", query, afterID, upToID)
}

// CreateSubjectOfferings creates, for subjects in (afterID, upToID] with a
// legacy teacher, one offering per section of the subject's department.
func (r *BackfillRepository) CreateSubjectOfferings(ctx context.Context, academicYear string, afterID, upToID int64) (int64, error) {
	const query = `INSERT INTO subject_offerings (subject_id, section_id, teacher_id, academic_year)
SELECT subj.id, sec.id, subj.teacher_id, $1
FROM subjects subj
JOIN sections sec ON sec.department_id = subj.department_id
WHERE subj.teacher_id IS NOT NULL
AND subj.id > $2 AND subj.id <= $3
ON CONFLICT (subject_id, section_id, academic_year) DO NOTHING`
	return r.execInTx(ctx, "create subject offerings", query, academicYear, afterID, upToID)
}

// CreateExamSessions materialises one session per distinct mapped exam type,
// semester and regulation observed in marks (afterID, upToID].
func (r *BackfillRepository) CreateExamSessions(ctx context.Context, academicYear string, afterID, upToID int64) (int64, error) {
	query := `INSERT INTO exam_sessions (exam_type_id, semester_id, regulation_id, academic_year)
SELECT DISTINCT mapped.exam_type_id, mapped.semester_id, mapped.regulation_id, $1
FROM (
	SELECT ` + legacyExamTypeCase("m.exam_type") + ` AS exam_type_id, subj.semester_id, subj.regulation_id
	FROM marks m
	JOIN subjects subj ON subj.id = m.subject_id
	WHERE m.id > $2 AND m.id <= $3
	AND subj.semester_id IS NOT NULL
	AND subj.regulation_id IS NOT NULL
) mapped
WHERE mapped.exam_type_id IS NOT NULL
ON CONFLICT (exam_type_id, semester_id, regulation_id, academic_year) DO NOTHING`
	return r.execInTx(ctx, "create exam sessions", query, academicYear, afterID, upToID)
}

// CopyMaxMarks sets max_marks from total_marks where it is missing.
func (r *BackfillRepository) CopyMaxMarks(ctx context.Context, afterID, upToID int64) (int64, error) {
	const query = `UPDATE marks SET max_marks = total_marks WHERE max_marks IS NULL AND id > $1 AND id <= $2`
	return r.execInTx(ctx, "copy max marks", query, afterID, upToID)
}

// LinkMarksToOfferings resolves subject_offering_id through the student's section.
func (r *BackfillRepository) LinkMarksToOfferings(ctx context.Context, afterID, upToID int64) (int64, error) {
	const query = `UPDATE marks SET subject_offering_id = (
	SELECT so.id FROM subject_offerings so
	JOIN students st ON st.id = marks.student_id
	WHERE so.subject_id = marks.subject_id AND so.section_id = st.section_id
	ORDER BY so.id LIMIT 1
)
WHERE subject_offering_id IS NULL AND id > $1 AND id <= $2`
	return r.execInTx(ctx, "link marks to offerings", query, afterID, upToID)
}

// LinkMarksToSessions resolves exam_session_id through the mapped exam type
// and the subject's semester and regulation.
func (r *BackfillRepository) LinkMarksToSessions(ctx context.Context, academicYear string, afterID, upToID int64) (int64, error) {
	query := `UPDATE marks SET exam_session_id = (
	SELECT es.id FROM exam_sessions es
	JOIN subjects subj ON subj.id = marks.subject_id
	WHERE es.exam_type_id = ` + legacyExamTypeCase("marks.exam_type") + `
	AND es.semester_id = subj.semester_id
	AND es.regulation_id = subj.regulation_id
	AND es.academic_year = $1
	ORDER BY es.id LIMIT 1
)
WHERE exam_session_id IS NULL AND id > $2 AND id <= $3`
	return r.execInTx(ctx, "link marks to sessions", query, academicYear, afterID, upToID)
}

// ValidateMarks counts reconciliation gaps across the marks table.
func (r *BackfillRepository) ValidateMarks(ctx context.Context) (*models.MarksValidationReport, error) {
	const query = `SELECT
COUNT(*) AS total,
COUNT(*) FILTER (WHERE subject_offering_id IS NULL) AS null_subject_offering_id,
COUNT(*) FILTER (WHERE exam_session_id IS NULL) AS null_exam_session_id,
COUNT(*) FILTER (WHERE max_marks IS NULL) AS null_max_marks,
COUNT(*) FILTER (WHERE uploaded_by IS NULL) AS null_uploaded_by,
COUNT(*) FILTER (WHERE subject_offering_id IS NOT NULL AND exam_session_id IS NOT NULL AND max_marks IS NOT NULL) AS fully_migrated
FROM marks`
	var report models.MarksValidationReport
	if err := r.db.GetContext(ctx, &report, query); err != nil {
		return nil, fmt.Errorf("validate marks: %w", err)
	}
	return &report, nil
}

// legacyExamTypeCase renders the legacy exam type table as a SQL CASE
// expression. Strings outside the table yield NULL.
func legacyExamTypeCase(column string) string {
	keys := make([]string, 0, len(models.LegacyExamTypeTable))
	for key := range models.LegacyExamTypeTable {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("CASE " + column)
	for _, key := range keys {
		fmt.Fprintf(&b, " WHEN %s THEN %d", pq.QuoteLiteral(key), models.LegacyExamTypeTable[key])
	}
	b.WriteString(" END")
	return b.String()
}

func (r *BackfillRepository) execInTx(ctx context.Context, name, query string, args ...interface{}) (int64, error) {
	var affected int64
	err := r.inTx(ctx, name, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

func (r *BackfillRepository) inTx(ctx context.Context, name string, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", name, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}

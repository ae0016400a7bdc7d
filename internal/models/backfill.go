package models

import "time"

// BackfillPhase names a versioned backfill step.
type BackfillPhase string

const (
	BackfillBatches          BackfillPhase = "batches"
	BackfillSections         BackfillPhase = "sections"
	BackfillSubjectOfferings BackfillPhase = "subject_offerings"
	BackfillExamSessions     BackfillPhase = "exam_sessions"
	BackfillMarks            BackfillPhase = "marks"
)

// BackfillPhases lists every phase in dependency order.
var BackfillPhases = []BackfillPhase{
	BackfillBatches,
	BackfillSections,
	BackfillSubjectOfferings,
	BackfillExamSessions,
	BackfillMarks,
}

// ParseBackfillPhase validates a phase name.
func ParseBackfillPhase(raw string) (BackfillPhase, bool) {
	for _, phase := range BackfillPhases {
		if string(phase) == raw {
			return phase, true
		}
	}
	return "", false
}

// BackfillCheckpoint is the recorded high-water mark of a phase.
type BackfillCheckpoint struct {
	Phase           BackfillPhase `db:"phase" json:"phase"`
	LastProcessedID int64         `db:"last_processed_id" json:"last_processed_id"`
	RowsAffected    int64         `db:"rows_affected" json:"rows_affected"`
	CompletedAt     *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// BackfillResult summarises one phase run.
type BackfillResult struct {
	Phase           BackfillPhase `json:"phase"`
	RowsAffected    int64         `json:"rows_affected"`
	Skipped         int64         `json:"skipped"`
	LastProcessedID int64         `json:"last_processed_id"`
	Duration        time.Duration `json:"duration"`
}

// MarksValidationReport counts reconciliation gaps in the marks table.
type MarksValidationReport struct {
	Total                 int64 `db:"total" json:"total"`
	NullSubjectOfferingID int64 `db:"null_subject_offering_id" json:"null_subject_offering_id"`
	NullExamSessionID     int64 `db:"null_exam_session_id" json:"null_exam_session_id"`
	NullMaxMarks          int64 `db:"null_max_marks" json:"null_max_marks"`
	NullUploadedBy        int64 `db:"null_uploaded_by" json:"null_uploaded_by"`
	FullyMigrated         int64 `db:"fully_migrated" json:"fully_migrated"`
}

// MigrationPercentage returns the share of fully migrated rows.
func (r MarksValidationReport) MigrationPercentage() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.FullyMigrated) / float64(r.Total) * 100
}

// StudentRoll is the slice of a student row the batch phase needs.
type StudentRoll struct {
	ID         int64  `db:"id"`
	RollNumber string `db:"roll_number"`
}

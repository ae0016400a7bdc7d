package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

type backfillStore interface {
	MaxID(ctx context.Context, table string) (int64, error)
	GetCheckpoint(ctx context.Context, phase models.BackfillPhase) (*models.BackfillCheckpoint, error)
	ListCheckpoints(ctx context.Context) ([]models.BackfillCheckpoint, error)
	SaveCheckpoint(ctx context.Context, checkpoint *models.BackfillCheckpoint) error
	ResetCheckpoint(ctx context.Context, phase models.BackfillPhase) error
	ListUnbatchedStudents(ctx context.Context, afterID int64, limit int) ([]models.StudentRoll, error)
	AssignBatch(ctx context.Context, admissionYear int, regulationID, instituteID int64, studentIDs []int64) (int64, error)
	CreateDefaultSections(ctx context.Context) (int64, error)
	AssignDefaultSections(ctx context.Context, afterID, upToID int64) (int64, error)
	CreateSubjectOfferings(ctx context.Context, academicYear string, afterID, upToID int64) (int64, error)
	CreateExamSessions(ctx context.Context, academicYear string, afterID, upToID int64) (int64, error)
	CopyMaxMarks(ctx context.Context, afterID, upToID int64) (int64, error)
	LinkMarksToOfferings(ctx context.Context, afterID, upToID int64) (int64, error)
	LinkMarksToSessions(ctx context.Context, academicYear string, afterID, upToID int64) (int64, error)
	ValidateMarks(ctx context.Context) (*models.MarksValidationReport, error)
}

// rangedStep is one statement of a ranged phase. A rescan step walks every id
// on each run instead of starting at the checkpoint, so rows that depend on
// data added after an earlier run are picked up again.
type rangedStep struct {
	name   string
	run    func(ctx context.Context, afterID, upToID int64) (int64, error)
	rescan bool
}

// BackfillService populates new-model rows and columns from legacy data in
// ordered, checkpointed phases. Each statement commits on its own; a failure
// stops the run and leaves the last saved checkpoint in place.
type BackfillService struct {
	store        backfillStore
	batchSize    int
	academicYear string
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
}

// NewBackfillService constructs the service.
func NewBackfillService(store backfillStore, batchSize int, metrics *MetricsService, logger *zap.Logger) *BackfillService {
	if batchSize <= 0 {
		batchSize = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackfillService{
		store:        store,
		batchSize:    batchSize,
		academicYear: models.DefaultAcademicYear,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// Run executes the requested phases in dependency order. An empty list runs every phase.
func (s *BackfillService) Run(ctx context.Context, phases []models.BackfillPhase) ([]models.BackfillResult, error) {
	ordered := orderPhases(phases)
	results := make([]models.BackfillResult, 0, len(ordered))
	for _, phase := range ordered {
		result, err := s.RunPhase(ctx, phase)
		if err != nil {
			return results, err
		}
		results = append(results, *result)
	}
	return results, nil
}

// RunPhase executes one phase from its recorded high-water mark.
func (s *BackfillService) RunPhase(ctx context.Context, phase models.BackfillPhase) (*models.BackfillResult, error) {
	checkpoint, err := s.loadCheckpoint(ctx, phase)
	if err != nil {
		return nil, err
	}
	start := s.now()
	s.logger.Info("backfill phase started", zap.String("phase", string(phase)), zap.Int64("after_id", checkpoint.LastProcessedID))

	result := &models.BackfillResult{Phase: phase}
	switch phase {
	case models.BackfillBatches:
		err = s.runBatches(ctx, checkpoint, result)
	case models.BackfillSections:
		err = s.runSections(ctx, checkpoint, result)
	case models.BackfillSubjectOfferings:
		err = s.runRanged(ctx, "subjects", checkpoint, result, rangedStep{
			name: "create_subject_offerings",
			run: func(ctx context.Context, after, upTo int64) (int64, error) {
				return s.store.CreateSubjectOfferings(ctx, s.academicYear, after, upTo)
			},
			rescan: true,
		})
	case models.BackfillExamSessions:
		err = s.runRanged(ctx, "marks", checkpoint, result, rangedStep{
			name: "create_exam_sessions",
			run: func(ctx context.Context, after, upTo int64) (int64, error) {
				return s.store.CreateExamSessions(ctx, s.academicYear, after, upTo)
			},
		})
	case models.BackfillMarks:
		err = s.runRanged(ctx, "marks", checkpoint, result,
			rangedStep{name: "copy_max_marks", run: s.store.CopyMaxMarks},
			rangedStep{name: "link_marks_to_offerings", run: s.store.LinkMarksToOfferings, rescan: true},
			rangedStep{
				name: "link_marks_to_sessions",
				run: func(ctx context.Context, after, upTo int64) (int64, error) {
					return s.store.LinkMarksToSessions(ctx, s.academicYear, after, upTo)
				},
				rescan: true,
			},
		)
	default:
		return nil, fmt.Errorf("unknown backfill phase %q", phase)
	}
	if err != nil {
		s.logger.Error("backfill phase failed", zap.String("phase", string(phase)), zap.Int64("last_processed_id", checkpoint.LastProcessedID), zap.Error(err))
		return nil, fmt.Errorf("backfill %s: %w", phase, err)
	}

	completed := s.now().UTC()
	checkpoint.CompletedAt = &completed
	if err := s.store.SaveCheckpoint(ctx, checkpoint); err != nil {
		return nil, err
	}

	result.LastProcessedID = checkpoint.LastProcessedID
	result.Duration = s.now().Sub(start)
	s.metrics.AddBackfillRows(string(phase), result.RowsAffected)
	s.logger.Info("backfill phase finished",
		zap.String("phase", string(phase)),
		zap.Int64("rows_affected", result.RowsAffected),
		zap.Int64("skipped", result.Skipped),
		zap.Int64("last_processed_id", result.LastProcessedID),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// Reset clears the checkpoints of the given phases so the next run rescans from id zero.
func (s *BackfillService) Reset(ctx context.Context, phases []models.BackfillPhase) error {
	for _, phase := range orderPhases(phases) {
		if err := s.store.ResetCheckpoint(ctx, phase); err != nil {
			return err
		}
		s.logger.Info("backfill checkpoint reset", zap.String("phase", string(phase)))
	}
	return nil
}

// Checkpoints lists recorded phase progress.
func (s *BackfillService) Checkpoints(ctx context.Context) ([]models.BackfillCheckpoint, error) {
	return s.store.ListCheckpoints(ctx)
}

// Validate reports how many marks rows still miss reconciliation fields. Gaps
// are reported, never treated as failures.
func (s *BackfillService) Validate(ctx context.Context) (*models.MarksValidationReport, error) {
	report, err := s.store.ValidateMarks(ctx)
	if err != nil {
		return nil, err
	}
	if report.NullSubjectOfferingID > 0 || report.NullExamSessionID > 0 || report.NullMaxMarks > 0 {
		s.logger.Warn("marks not fully reconciled",
			zap.Int64("total", report.Total),
			zap.Int64("null_subject_offering_id", report.NullSubjectOfferingID),
			zap.Int64("null_exam_session_id", report.NullExamSessionID),
			zap.Int64("null_max_marks", report.NullMaxMarks),
		)
	}
	return report, nil
}

func (s *BackfillService) loadCheckpoint(ctx context.Context, phase models.BackfillPhase) (*models.BackfillCheckpoint, error) {
	checkpoint, err := s.store.GetCheckpoint(ctx, phase)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.BackfillCheckpoint{Phase: phase}, nil
		}
		return nil, err
	}
	return checkpoint, nil
}

func (s *BackfillService) runBatches(ctx context.Context, checkpoint *models.BackfillCheckpoint, result *models.BackfillResult) error {
	for {
		students, err := s.store.ListUnbatchedStudents(ctx, checkpoint.LastProcessedID, s.batchSize)
		if err != nil {
			return err
		}
		if len(students) == 0 {
			return nil
		}

		byYear := make(map[int][]int64)
		for _, student := range students {
			year, err := ParseAdmissionYear(student.RollNumber)
			if err != nil {
				result.Skipped++
				s.logger.Warn("skipping student with malformed roll number",
					zap.Int64("student_id", student.ID),
					zap.String("roll_number", student.RollNumber),
				)
				continue
			}
			byYear[year] = append(byYear[year], student.ID)
		}

		years := make([]int, 0, len(byYear))
		for year := range byYear {
			years = append(years, year)
		}
		sort.Ints(years)
		for _, year := range years {
			affected, err := s.timed(ctx, "assign_batch", func(ctx context.Context) (int64, error) {
				return s.store.AssignBatch(ctx, year, RegulationForAdmissionYear(year), models.DefaultInstituteID, byYear[year])
			})
			if err != nil {
				return err
			}
			result.RowsAffected += affected
		}

		checkpoint.LastProcessedID = students[len(students)-1].ID
		checkpoint.RowsAffected = result.RowsAffected
		if err := s.store.SaveCheckpoint(ctx, checkpoint); err != nil {
			return err
		}
		if len(students) < s.batchSize {
			return nil
		}
	}
}

func (s *BackfillService) runSections(ctx context.Context, checkpoint *models.BackfillCheckpoint, result *models.BackfillResult) error {
	created, err := s.timed(ctx, "create_default_sections", s.store.CreateDefaultSections)
	if err != nil {
		return err
	}
	result.RowsAffected += created
	return s.runRanged(ctx, "students", checkpoint, result, rangedStep{name: "assign_default_sections", run: s.store.AssignDefaultSections})
}

// runRanged walks table ids in windows of batchSize, running every step on
// each window before advancing the checkpoint. Incremental steps only see ids
// above the checkpoint; rescan steps start from zero and rely on their
// IS NULL and ON CONFLICT guards to stay idempotent.
func (s *BackfillService) runRanged(ctx context.Context, table string, checkpoint *models.BackfillCheckpoint, result *models.BackfillResult, steps ...rangedStep) error {
	maxID, err := s.store.MaxID(ctx, table)
	if err != nil {
		return err
	}
	resumeFrom := checkpoint.LastProcessedID
	from := resumeFrom
	for _, step := range steps {
		if step.rescan {
			from = 0
			break
		}
	}
	for after := from; after < maxID; {
		upTo := after + int64(s.batchSize)
		if upTo > maxID {
			upTo = maxID
		}
		for _, step := range steps {
			step := step
			lower := after
			if !step.rescan {
				if upTo <= resumeFrom {
					continue
				}
				if lower < resumeFrom {
					lower = resumeFrom
				}
			}
			affected, err := s.timed(ctx, step.name, func(ctx context.Context) (int64, error) {
				return step.run(ctx, lower, upTo)
			})
			if err != nil {
				return err
			}
			result.RowsAffected += affected
		}
		after = upTo
		if upTo > checkpoint.LastProcessedID {
			checkpoint.LastProcessedID = upTo
		}
		checkpoint.RowsAffected = result.RowsAffected
		if err := s.store.SaveCheckpoint(ctx, checkpoint); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackfillService) timed(ctx context.Context, name string, fn func(ctx context.Context) (int64, error)) (int64, error) {
	start := s.now()
	affected, err := fn(ctx)
	s.metrics.ObserveDBQuery("backfill_"+name, s.now().Sub(start))
	return affected, err
}

func orderPhases(phases []models.BackfillPhase) []models.BackfillPhase {
	if len(phases) == 0 {
		return models.BackfillPhases
	}
	wanted := make(map[models.BackfillPhase]bool, len(phases))
	for _, phase := range phases {
		wanted[phase] = true
	}
	ordered := make([]models.BackfillPhase, 0, len(wanted))
	for _, phase := range models.BackfillPhases {
		if wanted[phase] {
			ordered = append(ordered, phase)
		}
	}
	return ordered
}

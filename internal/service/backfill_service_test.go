package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

type fakeBackfillStore struct {
	checkpoints map[models.BackfillPhase]*models.BackfillCheckpoint
	maxIDs      map[string]int64
	unbatched   []models.StudentRoll
	batches     map[int][]int64
	regulations map[int]int64
	calls       []string
	windows     [][2]int64
	failOn      string
	report      models.MarksValidationReport
}

func newFakeBackfillStore() *fakeBackfillStore {
	return &fakeBackfillStore{
		checkpoints: map[models.BackfillPhase]*models.BackfillCheckpoint{},
		maxIDs:      map[string]int64{},
		batches:     map[int][]int64{},
		regulations: map[int]int64{},
	}
}

func (f *fakeBackfillStore) step(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return errors.New("statement failed")
	}
	return nil
}

func (f *fakeBackfillStore) MaxID(ctx context.Context, table string) (int64, error) {
	return f.maxIDs[table], nil
}

func (f *fakeBackfillStore) GetCheckpoint(ctx context.Context, phase models.BackfillPhase) (*models.BackfillCheckpoint, error) {
	if checkpoint, ok := f.checkpoints[phase]; ok {
		copied := *checkpoint
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeBackfillStore) ListCheckpoints(ctx context.Context) ([]models.BackfillCheckpoint, error) {
	var out []models.BackfillCheckpoint
	for _, phase := range models.BackfillPhases {
		if checkpoint, ok := f.checkpoints[phase]; ok {
			out = append(out, *checkpoint)
		}
	}
	return out, nil
}

func (f *fakeBackfillStore) SaveCheckpoint(ctx context.Context, checkpoint *models.BackfillCheckpoint) error {
	copied := *checkpoint
	f.checkpoints[checkpoint.Phase] = &copied
	return nil
}

func (f *fakeBackfillStore) ResetCheckpoint(ctx context.Context, phase models.BackfillPhase) error {
	delete(f.checkpoints, phase)
	return nil
}

func (f *fakeBackfillStore) ListUnbatchedStudents(ctx context.Context, afterID int64, limit int) ([]models.StudentRoll, error) {
	var out []models.StudentRoll
	for _, student := range f.unbatched {
		if student.ID > afterID && len(out) < limit {
			out = append(out, student)
		}
	}
	return out, nil
}

func (f *fakeBackfillStore) AssignBatch(ctx context.Context, admissionYear int, regulationID, instituteID int64, studentIDs []int64) (int64, error) {
	if err := f.step("assign_batch"); err != nil {
		return 0, err
	}
	f.batches[admissionYear] = append(f.batches[admissionYear], studentIDs...)
	f.regulations[admissionYear] = regulationID
	return int64(len(studentIDs)), nil
}

func (f *fakeBackfillStore) CreateDefaultSections(ctx context.Context) (int64, error) {
	return 2, f.step("create_default_sections")
}

func (f *fakeBackfillStore) AssignDefaultSections(ctx context.Context, afterID, upToID int64) (int64, error) {
	return f.ranged("assign_default_sections", afterID, upToID)
}

func (f *fakeBackfillStore) CreateSubjectOfferings(ctx context.Context, academicYear string, afterID, upToID int64) (int64, error) {
	return f.ranged("create_subject_offerings", afterID, upToID)
}

func (f *fakeBackfillStore) CreateExamSessions(ctx context.Context, academicYear string, afterID, upToID int64) (int64, error) {
	return f.ranged("create_exam_sessions", afterID, upToID)
}

func (f *fakeBackfillStore) CopyMaxMarks(ctx context.Context, afterID, upToID int64) (int64, error) {
	return f.ranged("copy_max_marks", afterID, upToID)
}

func (f *fakeBackfillStore) LinkMarksToOfferings(ctx context.Context, afterID, upToID int64) (int64, error) {
	return f.ranged("link_marks_to_offerings", afterID, upToID)
}

func (f *fakeBackfillStore) LinkMarksToSessions(ctx context.Context, academicYear string, afterID, upToID int64) (int64, error) {
	return f.ranged("link_marks_to_sessions", afterID, upToID)
}

func (f *fakeBackfillStore) ValidateMarks(ctx context.Context) (*models.MarksValidationReport, error) {
	report := f.report
	return &report, nil
}

func (f *fakeBackfillStore) ranged(name string, afterID, upToID int64) (int64, error) {
	if err := f.step(name); err != nil {
		return 0, err
	}
	f.windows = append(f.windows, [2]int64{afterID, upToID})
	return upToID - afterID, nil
}

func TestBackfillRunsPhasesInDependencyOrder(t *testing.T) {
	store := newFakeBackfillStore()
	store.maxIDs = map[string]int64{"students": 1, "subjects": 1, "marks": 1}
	svc := NewBackfillService(store, 10, nil, nil)

	results, err := svc.Run(context.Background(), []models.BackfillPhase{models.BackfillMarks, models.BackfillBatches, models.BackfillSections})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, models.BackfillBatches, results[0].Phase)
	assert.Equal(t, models.BackfillSections, results[1].Phase)
	assert.Equal(t, models.BackfillMarks, results[2].Phase)
	assert.Equal(t, []string{
		"create_default_sections",
		"assign_default_sections",
		"copy_max_marks",
		"link_marks_to_offerings",
		"link_marks_to_sessions",
	}, store.calls)
}

func TestBackfillBatchesGroupsByAdmissionYear(t *testing.T) {
	store := newFakeBackfillStore()
	store.unbatched = []models.StudentRoll{
		{ID: 1, RollNumber: "23CSE0012"},
		{ID: 2, RollNumber: "21ECE0001"},
		{ID: 3, RollNumber: "XXCSE0003"},
		{ID: 4, RollNumber: "23CSE0044"},
	}
	svc := NewBackfillService(store, 2, nil, nil)

	result, err := svc.RunPhase(context.Background(), models.BackfillBatches)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, store.batches[2023])
	assert.Equal(t, []int64{2}, store.batches[2021])
	assert.Equal(t, models.RegulationR23, store.regulations[2023])
	assert.Equal(t, models.RegulationR20, store.regulations[2021])
	assert.Equal(t, int64(1), result.Skipped)
	assert.Equal(t, int64(3), result.RowsAffected)
	assert.Equal(t, int64(4), result.LastProcessedID)
	assert.NotNil(t, store.checkpoints[models.BackfillBatches].CompletedAt)
}

func TestBackfillRangedPhaseWalksWindowsAndResumes(t *testing.T) {
	store := newFakeBackfillStore()
	store.maxIDs["marks"] = 25
	svc := NewBackfillService(store, 10, nil, nil)

	_, err := svc.RunPhase(context.Background(), models.BackfillExamSessions)
	require.NoError(t, err)
	assert.Equal(t, [][2]int64{{0, 10}, {10, 20}, {20, 25}}, store.windows)
	assert.Equal(t, int64(25), store.checkpoints[models.BackfillExamSessions].LastProcessedID)

	store.windows = nil
	result, err := svc.RunPhase(context.Background(), models.BackfillExamSessions)
	require.NoError(t, err)
	assert.Empty(t, store.windows)
	assert.Zero(t, result.RowsAffected)
}

func TestBackfillFailureStopsRunAndKeepsCheckpoint(t *testing.T) {
	store := newFakeBackfillStore()
	store.maxIDs = map[string]int64{"students": 5, "subjects": 5, "marks": 5}
	store.failOn = "create_subject_offerings"
	svc := NewBackfillService(store, 10, nil, nil)

	results, err := svc.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subject_offerings")
	require.Len(t, results, 2)
	assert.NotContains(t, store.calls, "create_exam_sessions")
	_, saved := store.checkpoints[models.BackfillSubjectOfferings]
	assert.False(t, saved)
}

func TestBackfillResetClearsCheckpoints(t *testing.T) {
	store := newFakeBackfillStore()
	store.maxIDs["marks"] = 5
	svc := NewBackfillService(store, 10, nil, nil)

	_, err := svc.RunPhase(context.Background(), models.BackfillMarks)
	require.NoError(t, err)
	require.NoError(t, svc.Reset(context.Background(), []models.BackfillPhase{models.BackfillMarks}))

	checkpoints, err := svc.Checkpoints(context.Background())
	require.NoError(t, err)
	assert.Empty(t, checkpoints)
}

func TestBackfillValidateReportsGaps(t *testing.T) {
	store := newFakeBackfillStore()
	store.report = models.MarksValidationReport{Total: 4, NullExamSessionID: 1, FullyMigrated: 3}
	svc := NewBackfillService(store, 10, nil, nil)

	report, err := svc.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.NullExamSessionID)
	assert.InDelta(t, 75.0, report.MigrationPercentage(), 0.001)
}

func TestBackfillSubjectOfferingsRescanAfterNewSections(t *testing.T) {
	store := newFakeBackfillStore()
	store.maxIDs = map[string]int64{"students": 10, "subjects": 4, "marks": 0}
	svc := NewBackfillService(store, 10, nil, nil)

	_, err := svc.Run(context.Background(), nil)
	require.NoError(t, err)

	store.maxIDs["students"] = 20
	store.calls = nil
	store.windows = nil
	_, err = svc.Run(context.Background(), []models.BackfillPhase{models.BackfillSections, models.BackfillSubjectOfferings})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"create_default_sections",
		"assign_default_sections",
		"create_subject_offerings",
	}, store.calls)
	assert.Equal(t, [][2]int64{{10, 20}, {0, 4}}, store.windows)
	assert.Equal(t, int64(4), store.checkpoints[models.BackfillSubjectOfferings].LastProcessedID)
}

func TestBackfillMarksRelinksEarlierRows(t *testing.T) {
	store := newFakeBackfillStore()
	store.maxIDs["marks"] = 10
	svc := NewBackfillService(store, 10, nil, nil)

	_, err := svc.RunPhase(context.Background(), models.BackfillMarks)
	require.NoError(t, err)

	store.maxIDs["marks"] = 15
	store.calls = nil
	store.windows = nil
	result, err := svc.RunPhase(context.Background(), models.BackfillMarks)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"link_marks_to_offerings",
		"link_marks_to_sessions",
		"copy_max_marks",
		"link_marks_to_offerings",
		"link_marks_to_sessions",
	}, store.calls)
	assert.Equal(t, [][2]int64{{0, 10}, {0, 10}, {10, 15}, {10, 15}, {10, 15}}, store.windows)
	assert.Equal(t, int64(15), result.LastProcessedID)
}

package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

var marksRowColumns = []string{"id", "student_id", "subject_id", "exam_type", "marks_obtained", "total_marks", "subject_offering_id", "exam_session_id", "max_marks", "uploaded_by"}

func TestMarksRepositoryFindByStudentSubjectExam(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	repo := NewMarksRepository(db)
	rows := sqlmock.NewRows(marksRowColumns).AddRow(int64(1), int64(4), int64(9), "Internal-1", 85.5, 100.0, nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM marks m WHERE m.student_id = $1 AND m.subject_id = $2 AND m.exam_type = $3")).
		WithArgs(int64(4), int64(9), "Internal-1").
		WillReturnRows(rows)

	mark, err := repo.FindByStudentSubjectExam(context.Background(), 4, 9, "Internal-1")
	require.NoError(t, err)
	assert.Equal(t, 85.5, mark.MarksObtained)
	assert.Nil(t, mark.ExamSessionID)
	assert.Equal(t, 100.0, mark.EffectiveMax())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarksRepositoryFindReturnsNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	repo := NewMarksRepository(db)
	mock.ExpectQuery("FROM marks m WHERE").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByStudentSubjectExam(context.Background(), 4, 9, "Mid-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMarksRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	repo := NewMarksRepository(db)
	offeringID, maxMarks, uploader := int64(3), 100.0, int64(11)
	mark := &models.Marks{
		StudentID:         4,
		SubjectID:         9,
		ExamType:          "Internal-1",
		MarksObtained:     42,
		TotalMarks:        100,
		SubjectOfferingID: &offeringID,
		MaxMarks:          &maxMarks,
		UploadedBy:        &uploader,
	}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO marks")).
		WithArgs(int64(4), int64(9), "Internal-1", 42.0, 100.0, int64(3), nil, 100.0, int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(77)))

	require.NoError(t, repo.Create(context.Background(), mark))
	assert.Equal(t, int64(77), mark.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarksRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	repo := NewMarksRepository(db)
	mark := &models.Marks{ID: 77, MarksObtained: 50, TotalMarks: 100}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE marks SET marks_obtained = $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), mark))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarksRepositoryListDetailsBySubjectsSkipsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	repo := NewMarksRepository(db)
	marks, err := repo.ListDetailsByStudentSubjects(context.Background(), 4, nil)
	require.NoError(t, err)
	assert.Empty(t, marks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

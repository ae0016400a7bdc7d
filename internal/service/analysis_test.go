package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

func strPtr(v string) *string { return &v }

func detail(subject, semester, examType string, obtained, total float64) models.MarkDetail {
	d := models.MarkDetail{
		Marks:       models.Marks{ExamType: examType, MarksObtained: obtained, TotalMarks: total},
		SubjectName: subject,
		SubjectCode: subject,
	}
	if semester != "" {
		d.SemesterName = strPtr(semester)
	}
	return d
}

func TestBuildSemesterPerformanceMixesModelsPerRow(t *testing.T) {
	legacy := detail("Maths", "2-1", "Internal-1", 85.5, 100)
	reconciled := detail("Maths", "2-1", "Semester", 60, 100)
	reconciled.MaxMarks = float64Ptr(70)
	reconciled.SessionExamTypeName = strPtr("Semester")
	legacyUniversity := detail("Physics", "2-1", "University", 20, 100)

	semesters := BuildSemesterPerformance([]models.MarkDetail{legacy, reconciled, legacyUniversity}, models.DefaultSettings)
	require.Len(t, semesters, 1)
	require.Len(t, semesters[0].Subjects, 2)

	maths := semesters[0].Subjects[0]
	assert.Equal(t, 85.5, maths.InternalMarks)
	assert.Equal(t, 60.0, maths.UniversityMarks)
	assert.Equal(t, 145.5, maths.TotalMarks)
	assert.Equal(t, 170.0, maths.MaxTotalMarks)
	assert.True(t, maths.IsPassed)

	physics := semesters[0].Subjects[1]
	assert.Equal(t, 20.0, physics.UniversityMarks)
	assert.False(t, physics.IsPassed)
	assert.Equal(t, 1, semesters[0].Backlogs)
	assert.Nil(t, semesters[0].SemesterSGPA)
}

func TestBuildSemesterPerformanceSessionOverridesLegacyLabel(t *testing.T) {
	mark := detail("Maths", "1-1", "University", 30, 50)
	mark.SessionExamTypeName = strPtr("Mid-2")

	semesters := BuildSemesterPerformance([]models.MarkDetail{mark}, models.DefaultSettings)
	require.Len(t, semesters, 1)
	assert.Equal(t, 30.0, semesters[0].Subjects[0].InternalMarks)
	assert.Zero(t, semesters[0].Subjects[0].UniversityMarks)
}

func TestBuildSemesterPerformanceOrdersSemesters(t *testing.T) {
	marks := []models.MarkDetail{
		detail("A", "", "Internal-1", 10, 20),
		detail("B", "2-1", "Internal-1", 10, 20),
		detail("C", "1-2", "Internal-1", 10, 20),
	}
	semesters := BuildSemesterPerformance(marks, models.DefaultSettings)
	require.Len(t, semesters, 3)
	assert.Equal(t, "1-2", semesters[0].SemesterName)
	assert.Equal(t, "2-1", semesters[1].SemesterName)
	assert.Equal(t, "Unassigned", semesters[2].SemesterName)
}

func TestAnalyzePerformance(t *testing.T) {
	marks := []models.MarkDetail{
		detail("Maths", "1-1", "Internal-1", 30, 100),
		detail("Physics", "1-1", "Internal-1", 60, 100),
		detail("Maths", "1-2", "Internal-1", 80, 100),
	}
	analysis := AnalyzePerformance(marks, models.DefaultSettings)

	assert.Empty(t, analysis.WeakSubjects)
	assert.InDelta(t, 45.0, analysis.SemesterTrend["1-1"], 0.001)
	assert.InDelta(t, 80.0, analysis.SemesterTrend["1-2"], 0.001)
	assert.Equal(t, dto.TrendImproving, analysis.OverallTrend)
	require.NotNil(t, analysis.AveragePercentage)
	assert.InDelta(t, 56.666, *analysis.AveragePercentage, 0.01)

	analysis = AnalyzePerformance(marks[:1], models.DefaultSettings)
	assert.Equal(t, []string{"Maths"}, analysis.WeakSubjects)
	assert.Equal(t, dto.TrendStable, analysis.OverallTrend)
}

func TestAnalyzePerformanceFlatSemestersDecline(t *testing.T) {
	marks := []models.MarkDetail{
		detail("Maths", "1-1", "Internal-1", 70, 100),
		detail("Maths", "1-2", "Internal-1", 70, 100),
	}
	analysis := AnalyzePerformance(marks, models.DefaultSettings)
	assert.Equal(t, dto.TrendDeclining, analysis.OverallTrend)
}

func TestTrendOf(t *testing.T) {
	assert.Equal(t, dto.TrendStable, trendOf([]float64{60, 60}))
	assert.Equal(t, dto.TrendImproving, trendOf([]float64{50, 61}))
	assert.Equal(t, dto.TrendDeclining, trendOf([]float64{61, 50}))
	assert.Equal(t, dto.TrendDeclining, overallTrendOf([]float64{60, 60}))
	assert.Equal(t, dto.TrendStable, overallTrendOf([]float64{60}))
	assert.Equal(t, dto.TrendInsufficient, overallTrendOf(nil))
}

func TestAnalyzePerformanceWithoutMarks(t *testing.T) {
	analysis := AnalyzePerformance(nil, models.DefaultSettings)
	assert.Equal(t, dto.TrendInsufficient, analysis.OverallTrend)
	assert.Nil(t, analysis.AveragePercentage)
	assert.NotNil(t, analysis.WeakSubjects)
}

func TestAnalyzeClassPerformanceNamesWeakest(t *testing.T) {
	marks := []models.ClassMark{
		{SubjectName: "Maths", MarksObtained: 40, TotalMarks: 100},
		{SubjectName: "Physics", MarksObtained: 15, TotalMarks: 100, MaxMarks: float64Ptr(20)},
		{SubjectName: "Chemistry", MarksObtained: 10, TotalMarks: 0},
	}
	analysis := AnalyzeClassPerformance(marks)
	assert.InDelta(t, 75.0, analysis.SubjectPerformance["Physics"], 0.001)
	assert.NotContains(t, analysis.SubjectPerformance, "Chemistry")
	require.NotNil(t, analysis.WeakestSubject)
	assert.Equal(t, "Maths", *analysis.WeakestSubject)
}

func TestBuildClassInsightInputPrefersSessionLabel(t *testing.T) {
	marks := []models.ClassMark{
		{StudentID: 1, StudentName: "Asha", ExamType: "Internal-1", SessionLabel: strPtr("Mid-1"), MarksObtained: 18, TotalMarks: 20},
		{StudentID: 2, StudentName: "Ravi", ExamType: "Internal-1", SessionLabel: strPtr("Mid-1"), MarksObtained: 6, TotalMarks: 20},
		{StudentID: 1, StudentName: "Asha", ExamType: "Internal-2", MarksObtained: 19, TotalMarks: 20},
	}
	input := BuildClassInsightInput(dto.InsightScope{Subject: "Maths", Section: "cse-a", AcademicYear: "2024-25"}, 30, marks)

	assert.Equal(t, 30, input.TotalStudents)
	require.Len(t, input.ExamSessions, 2)
	assert.Equal(t, "Mid-1", input.ExamSessions[0].ExamType)
	assert.Equal(t, "Internal-2", input.ExamSessions[1].ExamType)
	assert.Equal(t, dto.TrendImproving, input.ImprovementTrend)
	assert.Equal(t, []string{"Asha"}, input.HighPerformers)
	assert.Equal(t, []string{"Ravi"}, input.LowPerformers)
}

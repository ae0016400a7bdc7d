package dto

import "time"

// SubjectPerformance aggregates every mark of one subject.
type SubjectPerformance struct {
	SubjectName     string  `json:"subject_name"`
	SubjectCode     string  `json:"subject_code"`
	InternalMarks   float64 `json:"internal_marks"`
	UniversityMarks float64 `json:"university_marks"`
	TotalMarks      float64 `json:"total_marks"`
	MaxTotalMarks   float64 `json:"max_total_marks"`
	IsPassed        bool    `json:"is_passed"`
}

// SemesterPerformance groups subject aggregates of one semester.
type SemesterPerformance struct {
	SemesterName string               `json:"semester_name"`
	Subjects     []SubjectPerformance `json:"subjects"`
	Backlogs     int                  `json:"backlogs"`
	SemesterSGPA *float64             `json:"semester_sgpa"`
}

// StudentAnalysis highlights weak subjects and the semester trend.
type StudentAnalysis struct {
	WeakSubjects      []string           `json:"weak_subjects"`
	SemesterTrend     map[string]float64 `json:"semester_trend"`
	OverallTrend      string             `json:"overall_trend"`
	AveragePercentage *float64           `json:"average_percentage"`
}

// Trend labels.
const (
	TrendImproving    = "improving"
	TrendDeclining    = "declining"
	TrendStable       = "stable"
	TrendInsufficient = "insufficient data"
)

// ClassAnalysis summarises subject averages for a class.
type ClassAnalysis struct {
	SubjectPerformance map[string]float64 `json:"subject_performance"`
	WeakestSubject     *string            `json:"weakest_subject"`
}

// Summary sources.
const (
	SummarySourceAI       = "ai"
	SummarySourceFallback = "fallback"
)

// PerformanceSummary is a natural-language student summary.
type PerformanceSummary struct {
	Summary     string    `json:"summary"`
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source"`
}

// InsightScope identifies the class an insight was computed for.
type InsightScope struct {
	Subject      string `json:"subject"`
	Section      string `json:"section"`
	AcademicYear string `json:"academic_year"`
}

// ClassInsights is a natural-language class insight for teachers.
type ClassInsights struct {
	Insights    string       `json:"insights"`
	GeneratedAt time.Time    `json:"generated_at"`
	Scope       InsightScope `json:"scope"`
	Source      string       `json:"source"`
}

package service

import (
	"sort"
	"strconv"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

const (
	strongSubjectPercentage = 75.0
	weakSubjectPercentage   = 50.0
	unassignedSemester      = "Unassigned"
)

// SubjectScore is a subject with its average percentage.
type SubjectScore struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

// SessionAverage is the class average of one exam.
type SessionAverage struct {
	ExamType string  `json:"exam_type"`
	Average  float64 `json:"avg_marks"`
}

// StudentSummaryInput feeds the student summary generators.
type StudentSummaryInput struct {
	StudentName       string         `json:"student_name"`
	TotalSubjects     int            `json:"total_subjects"`
	CurrentSemester   string         `json:"current_semester"`
	AveragePercentage float64        `json:"average_percentage"`
	StrongSubjects    []SubjectScore `json:"strong_subjects"`
	WeakSubjects      []SubjectScore `json:"weak_subjects"`
	ExamTrend         string         `json:"exam_trend"`
	Backlogs          int            `json:"backlogs"`
}

// ClassInsightInput feeds the class insight generators.
type ClassInsightInput struct {
	SubjectName      string           `json:"subject_name"`
	SectionName      string           `json:"section_name"`
	AcademicYear     string           `json:"academic_year"`
	TotalStudents    int              `json:"total_students"`
	ClassAverage     float64          `json:"class_average"`
	ExamSessions     []SessionAverage `json:"exam_sessions"`
	HighPerformers   []string         `json:"high_performers"`
	LowPerformers    []string         `json:"low_performers"`
	ImprovementTrend string           `json:"improvement_trend"`
}

func semesterOf(mark models.MarkDetail) string {
	if mark.SemesterName == nil || *mark.SemesterName == "" {
		return unassignedSemester
	}
	return *mark.SemesterName
}

func percentage(obtained, max float64) (float64, bool) {
	if max <= 0 {
		return 0, false
	}
	return obtained / max * 100, true
}

// BuildSemesterPerformance groups marks by semester and subject. Each row is
// classified and sized on its own: the linked exam session decides university
// versus internal, and max_marks is preferred over total_marks.
func BuildSemesterPerformance(marks []models.MarkDetail, settings models.Settings) []dto.SemesterPerformance {
	type subjectKey struct{ semester, code string }
	bySemester := make(map[string][]string)
	subjects := make(map[subjectKey]*dto.SubjectPerformance)

	for _, mark := range marks {
		semester := semesterOf(mark)
		key := subjectKey{semester: semester, code: mark.SubjectCode}
		perf, ok := subjects[key]
		if !ok {
			perf = &dto.SubjectPerformance{SubjectName: mark.SubjectName, SubjectCode: mark.SubjectCode}
			subjects[key] = perf
			bySemester[semester] = append(bySemester[semester], mark.SubjectCode)
		}
		if mark.IsUniversity() {
			perf.UniversityMarks += mark.MarksObtained
		} else {
			perf.InternalMarks += mark.MarksObtained
		}
		perf.TotalMarks += mark.MarksObtained
		perf.MaxTotalMarks += mark.EffectiveMax()
	}

	semesters := make([]string, 0, len(bySemester))
	for semester := range bySemester {
		semesters = append(semesters, semester)
	}
	sortSemesters(semesters)

	result := make([]dto.SemesterPerformance, 0, len(semesters))
	for _, semester := range semesters {
		entry := dto.SemesterPerformance{SemesterName: semester, Subjects: make([]dto.SubjectPerformance, 0, len(bySemester[semester]))}
		for _, code := range bySemester[semester] {
			perf := subjects[subjectKey{semester: semester, code: code}]
			threshold := 0.0
			if perf.MaxTotalMarks > 0 {
				threshold = settings.PassPercentage / 100 * perf.MaxTotalMarks
			}
			perf.IsPassed = perf.TotalMarks >= threshold
			if !perf.IsPassed {
				entry.Backlogs++
			}
			entry.Subjects = append(entry.Subjects, *perf)
		}
		result = append(result, entry)
	}
	return result
}

// AnalyzePerformance identifies subjects averaging below the weak threshold and
// the semester-wise trend.
func AnalyzePerformance(marks []models.MarkDetail, settings models.Settings) dto.StudentAnalysis {
	analysis := dto.StudentAnalysis{WeakSubjects: []string{}, SemesterTrend: map[string]float64{}, OverallTrend: dto.TrendInsufficient}

	subjectAvg := newAverager()
	semesterAvg := newAverager()
	overall := newAverager()
	for _, mark := range marks {
		pct, ok := percentage(mark.MarksObtained, mark.EffectiveMax())
		if !ok {
			continue
		}
		subjectAvg.add(mark.SubjectName, pct)
		semesterAvg.add(semesterOf(mark), pct)
		overall.add("", pct)
	}
	if overall.empty() {
		return analysis
	}

	for _, name := range subjectAvg.keys {
		if subjectAvg.mean(name) < settings.WeakThreshold {
			analysis.WeakSubjects = append(analysis.WeakSubjects, name)
		}
	}
	sort.Strings(analysis.WeakSubjects)

	semesters := append([]string(nil), semesterAvg.keys...)
	sortSemesters(semesters)
	values := make([]float64, 0, len(semesters))
	for _, semester := range semesters {
		avg := semesterAvg.mean(semester)
		analysis.SemesterTrend[semester] = avg
		values = append(values, avg)
	}
	analysis.OverallTrend = overallTrendOf(values)

	avg := overall.mean("")
	analysis.AveragePercentage = &avg
	return analysis
}

// AnalyzeClassPerformance averages percentages per subject and names the weakest.
func AnalyzeClassPerformance(marks []models.ClassMark) dto.ClassAnalysis {
	analysis := dto.ClassAnalysis{SubjectPerformance: map[string]float64{}}
	subjectAvg := newAverager()
	for _, mark := range marks {
		if pct, ok := percentage(mark.MarksObtained, mark.EffectiveMax()); ok {
			subjectAvg.add(mark.SubjectName, pct)
		}
	}
	var weakest string
	for _, name := range subjectAvg.keys {
		avg := subjectAvg.mean(name)
		analysis.SubjectPerformance[name] = avg
		if weakest == "" || avg < analysis.SubjectPerformance[weakest] {
			weakest = name
		}
	}
	if weakest != "" {
		analysis.WeakestSubject = &weakest
	}
	return analysis
}

// BuildStudentSummaryInput condenses a student's marks into generator input.
func BuildStudentSummaryInput(student models.Student, currentSemester string, marks []models.MarkDetail, semesters []dto.SemesterPerformance, analysis dto.StudentAnalysis) StudentSummaryInput {
	input := StudentSummaryInput{
		StudentName:     student.Name,
		CurrentSemester: currentSemester,
		ExamTrend:       analysis.OverallTrend,
	}
	if analysis.AveragePercentage != nil {
		input.AveragePercentage = *analysis.AveragePercentage
	}
	for _, semester := range semesters {
		input.Backlogs += semester.Backlogs
	}

	subjectAvg := newAverager()
	for _, mark := range marks {
		if pct, ok := percentage(mark.MarksObtained, mark.EffectiveMax()); ok {
			subjectAvg.add(mark.SubjectName, pct)
		}
	}
	input.TotalSubjects = len(subjectAvg.keys)
	for _, name := range subjectAvg.keys {
		score := SubjectScore{Name: name, Percentage: subjectAvg.mean(name)}
		switch {
		case score.Percentage >= strongSubjectPercentage:
			input.StrongSubjects = append(input.StrongSubjects, score)
		case score.Percentage < weakSubjectPercentage:
			input.WeakSubjects = append(input.WeakSubjects, score)
		}
	}
	sort.SliceStable(input.StrongSubjects, func(i, j int) bool { return input.StrongSubjects[i].Percentage > input.StrongSubjects[j].Percentage })
	sort.SliceStable(input.WeakSubjects, func(i, j int) bool { return input.WeakSubjects[i].Percentage < input.WeakSubjects[j].Percentage })
	return input
}

// BuildClassInsightInput condenses an offering's marks into generator input.
func BuildClassInsightInput(scope dto.InsightScope, totalStudents int, marks []models.ClassMark) ClassInsightInput {
	input := ClassInsightInput{
		SubjectName:      scope.Subject,
		SectionName:      scope.Section,
		AcademicYear:     scope.AcademicYear,
		TotalStudents:    totalStudents,
		ImprovementTrend: dto.TrendStable,
	}

	sessions := newAverager()
	students := newAverager()
	names := make(map[string]string)
	overall := newAverager()
	for _, mark := range marks {
		pct, ok := percentage(mark.MarksObtained, mark.EffectiveMax())
		if !ok {
			continue
		}
		label := mark.ExamType
		if mark.SessionLabel != nil && *mark.SessionLabel != "" {
			label = *mark.SessionLabel
		}
		sessions.add(label, pct)
		studentKey := strconv.FormatInt(mark.StudentID, 10)
		names[studentKey] = mark.StudentName
		students.add(studentKey, pct)
		overall.add("", pct)
	}
	if overall.empty() {
		return input
	}
	input.ClassAverage = overall.mean("")

	values := make([]float64, 0, len(sessions.keys))
	for _, label := range sessions.keys {
		avg := sessions.mean(label)
		input.ExamSessions = append(input.ExamSessions, SessionAverage{ExamType: label, Average: avg})
		values = append(values, avg)
	}
	if len(values) > 1 {
		input.ImprovementTrend = trendOf(values)
	}

	for _, key := range students.keys {
		avg := students.mean(key)
		switch {
		case avg >= strongSubjectPercentage:
			input.HighPerformers = append(input.HighPerformers, names[key])
		case avg < weakSubjectPercentage:
			input.LowPerformers = append(input.LowPerformers, names[key])
		}
	}
	return input
}

// overallTrendOf compares the last semester average with the first. A later
// average that is not higher counts as declining.
func overallTrendOf(values []float64) string {
	switch {
	case len(values) == 0:
		return dto.TrendInsufficient
	case len(values) == 1:
		return dto.TrendStable
	case values[len(values)-1] > values[0]:
		return dto.TrendImproving
	default:
		return dto.TrendDeclining
	}
}

// trendOf compares the last value with the first; equal values are stable.
func trendOf(values []float64) string {
	switch {
	case len(values) == 0:
		return dto.TrendInsufficient
	case len(values) == 1:
		return dto.TrendStable
	case values[len(values)-1] > values[0]:
		return dto.TrendImproving
	case values[len(values)-1] < values[0]:
		return dto.TrendDeclining
	default:
		return dto.TrendStable
	}
}

func sortSemesters(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		si, sj := models.SemesterSequence(names[i]), models.SemesterSequence(names[j])
		if si != sj {
			return si < sj
		}
		return names[i] < names[j]
	})
}

// averager keeps running means per key in first-seen order.
type averager struct {
	keys   []string
	sums   map[string]float64
	counts map[string]int
}

func newAverager() *averager {
	return &averager{sums: map[string]float64{}, counts: map[string]int{}}
}

func (a *averager) add(key string, value float64) {
	if _, ok := a.counts[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.sums[key] += value
	a.counts[key]++
}

func (a *averager) mean(key string) float64 {
	if a.counts[key] == 0 {
		return 0
	}
	return a.sums[key] / float64(a.counts[key])
}

func (a *averager) empty() bool {
	return len(a.keys) == 0
}

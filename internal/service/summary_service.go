package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
)

// SummaryService produces natural-language summaries. Any generator failure,
// or a missing generator, falls back to the rule-based text.
type SummaryService struct {
	generator TextGenerator
	cache     *CacheService
	ttl       time.Duration
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewSummaryService constructs the service. generator may be nil.
func NewSummaryService(generator TextGenerator, cache *CacheService, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{generator: generator, cache: cache, ttl: ttl, metrics: metrics, logger: logger, now: time.Now}
}

func studentSummaryKey(studentID int64) string {
	return CacheKey("performance", "student", studentID, "summary")
}

func offeringInsightsKey(offeringID int64) string {
	return CacheKey("performance", "offering", offeringID, "insights")
}

// StudentSummary returns the summary of a student's performance.
func (s *SummaryService) StudentSummary(ctx context.Context, studentID int64, input StudentSummaryInput) dto.PerformanceSummary {
	key := studentSummaryKey(studentID)
	var cached dto.PerformanceSummary
	if s.cache.Get(ctx, key, &cached) {
		return cached
	}

	summary := dto.PerformanceSummary{GeneratedAt: s.now().UTC()}
	if text, ok := s.generate(ctx, "student_summary", StudentSummaryPrompt(input)); ok {
		summary.Summary, summary.Source = text, dto.SummarySourceAI
	} else {
		summary.Summary, summary.Source = FallbackStudentSummary(input), dto.SummarySourceFallback
	}
	s.metrics.RecordSummary(summary.Source)
	s.cache.Set(ctx, key, summary, s.ttl)
	return summary
}

// ClassInsights returns teaching insights for an offering.
func (s *SummaryService) ClassInsights(ctx context.Context, offeringID int64, scope dto.InsightScope, input ClassInsightInput) dto.ClassInsights {
	key := offeringInsightsKey(offeringID)
	var cached dto.ClassInsights
	if s.cache.Get(ctx, key, &cached) {
		return cached
	}

	insights := dto.ClassInsights{GeneratedAt: s.now().UTC(), Scope: scope}
	if text, ok := s.generate(ctx, "class_insights", ClassInsightPrompt(input)); ok {
		insights.Insights, insights.Source = text, dto.SummarySourceAI
	} else {
		insights.Insights, insights.Source = FallbackClassInsights(input), dto.SummarySourceFallback
	}
	s.metrics.RecordSummary(insights.Source)
	s.cache.Set(ctx, key, insights, s.ttl)
	return insights
}

func (s *SummaryService) generate(ctx context.Context, kind, prompt string) (string, bool) {
	if s.generator == nil {
		return "", false
	}
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("summary generation failed, using fallback", zap.String("kind", kind), zap.Error(err))
		return "", false
	}
	return text, true
}

func performanceBand(avg float64, lowest string) string {
	switch {
	case avg >= 75:
		return "excellent"
	case avg >= 60:
		return "good"
	case avg >= 50:
		return "satisfactory"
	default:
		return lowest
	}
}

func scoreList(scores []SubjectScore, limit int, empty string) string {
	if len(scores) == 0 {
		return empty
	}
	if len(scores) > limit {
		scores = scores[:limit]
	}
	parts := make([]string, 0, len(scores))
	for _, score := range scores {
		parts = append(parts, fmt.Sprintf("%s (%.1f%%)", score.Name, score.Percentage))
	}
	return strings.Join(parts, ", ")
}

func scoreNames(scores []SubjectScore, limit int) string {
	if len(scores) > limit {
		scores = scores[:limit]
	}
	names := make([]string, 0, len(scores))
	for _, score := range scores {
		names = append(names, score.Name)
	}
	return strings.Join(names, ", ")
}

// StudentSummaryPrompt renders the advisor prompt for a student.
func StudentSummaryPrompt(input StudentSummaryInput) string {
	semester := input.CurrentSemester
	if semester == "" {
		semester = "N/A"
	}
	var b strings.Builder
	b.WriteString("You are an academic advisor analyzing student performance data.\n\n")
	b.WriteString("Student Performance Data:\n")
	fmt.Fprintf(&b, "- Total Subjects: %d\n", input.TotalSubjects)
	fmt.Fprintf(&b, "- Current Semester: %s\n", semester)
	fmt.Fprintf(&b, "- Overall Average: %.1f%%\n", input.AveragePercentage)
	fmt.Fprintf(&b, "- Total Backlogs: %d\n\n", input.Backlogs)
	fmt.Fprintf(&b, "Strong Subjects (>=75%%):\n%s\n\n", scoreList(input.StrongSubjects, 3, "None identified yet"))
	fmt.Fprintf(&b, "Weak Subjects (<50%%):\n%s\n\n", scoreList(input.WeakSubjects, 3, "None"))
	fmt.Fprintf(&b, "Exam Performance Trend:\n%s\n\n", input.ExamTrend)
	b.WriteString("Please provide a concise, encouraging performance summary including an overall assessment, ")
	b.WriteString("recognition of strong subjects, areas needing improvement, non-prescriptive study suggestions ")
	b.WriteString("and a motivational closing remark. Keep the tone supportive and constructive. Limit to 150 words.\n")
	return b.String()
}

// FallbackStudentSummary renders the rule-based student summary.
func FallbackStudentSummary(input StudentSummaryInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on your performance data: You have a %s average of %.1f%% across %d subjects. ",
		performanceBand(input.AveragePercentage, "needs improvement"), input.AveragePercentage, input.TotalSubjects)
	if len(input.StrongSubjects) > 0 {
		fmt.Fprintf(&b, "Strong performance in %s. ", scoreNames(input.StrongSubjects, 2))
	}
	if len(input.WeakSubjects) > 0 {
		fmt.Fprintf(&b, "Focus on improving %s. ", scoreNames(input.WeakSubjects, 2))
	}
	if input.Backlogs > 0 {
		fmt.Fprintf(&b, "You have %d backlog(s) to clear. ", input.Backlogs)
	}
	switch input.ExamTrend {
	case dto.TrendImproving:
		b.WriteString("Your scores show an upward trend, keep up the good work! ")
	case dto.TrendDeclining:
		b.WriteString("Recent scores suggest you need to refocus your study approach. ")
	default:
		b.WriteString("Maintain consistent study habits. ")
	}
	b.WriteString("Stay motivated and keep working towards your goals!")
	return b.String()
}

// ClassInsightPrompt renders the consultant prompt for a class.
func ClassInsightPrompt(input ClassInsightInput) string {
	var b strings.Builder
	b.WriteString("You are an educational consultant analyzing class performance data for a teacher.\n\n")
	b.WriteString("Class Performance Data:\n")
	fmt.Fprintf(&b, "- Subject: %s\n", input.SubjectName)
	fmt.Fprintf(&b, "- Section: %s\n", input.SectionName)
	fmt.Fprintf(&b, "- Total Students: %d\n", input.TotalStudents)
	fmt.Fprintf(&b, "- Class Average: %.1f%%\n\n", input.ClassAverage)
	b.WriteString("Exam Performance Comparison:\n")
	if len(input.ExamSessions) == 0 {
		b.WriteString("No exam data available yet\n")
	}
	for _, session := range input.ExamSessions {
		fmt.Fprintf(&b, "%s: %.1f%%\n", session.ExamType, session.Average)
	}
	b.WriteString("\nDistribution:\n")
	if len(input.HighPerformers) > 0 {
		fmt.Fprintf(&b, "- High Performers (>=75%%): %d students scoring above 75%%\n", len(input.HighPerformers))
	} else {
		b.WriteString("- High Performers (>=75%): None yet\n")
	}
	if len(input.LowPerformers) > 0 {
		fmt.Fprintf(&b, "- Struggling Students (<50%%): %d students below 50%%\n", len(input.LowPerformers))
	} else {
		b.WriteString("- Struggling Students (<50%): None\n")
	}
	fmt.Fprintf(&b, "\nOverall Trend:\n%s\n\n", input.ImprovementTrend)
	b.WriteString("Please provide concise teaching insights covering overall class performance, a comparison across ")
	b.WriteString("exam sessions, observed trends, non-prescriptive suggestions to support struggling students ")
	b.WriteString("and an encouraging note for the teacher. Keep the tone professional. Limit to 150 words.\n")
	return b.String()
}

// FallbackClassInsights renders the rule-based class insight.
func FallbackClassInsights(input ClassInsightInput) string {
	subject := input.SubjectName
	if subject == "" {
		subject = "this subject"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Class Performance Analysis: Your section has an %s average of %.1f%% in %s with %d students. ",
		performanceBand(input.ClassAverage, "needs attention"), input.ClassAverage, subject, input.TotalStudents)
	if len(input.HighPerformers) > 0 {
		fmt.Fprintf(&b, "%d students are performing excellently (>=75%%). ", len(input.HighPerformers))
	}
	if len(input.LowPerformers) > 0 {
		fmt.Fprintf(&b, "%d students need additional support (<50%%). ", len(input.LowPerformers))
		b.WriteString("Consider targeted interventions for struggling students. ")
	} else {
		b.WriteString("All students are maintaining passing grades. ")
	}
	switch input.ImprovementTrend {
	case dto.TrendImproving:
		b.WriteString("The class shows an improving trend across exam sessions. ")
	case dto.TrendDeclining:
		b.WriteString("Recent scores indicate a declining trend, review recent topics. ")
	default:
		b.WriteString("Performance remains stable. ")
	}
	b.WriteString("Keep up the good work with your teaching methods!")
	return b.String()
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/pkg/config"
)

type stubGenerator struct {
	text    string
	err     error
	prompts []string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.text, g.err
}

func sampleStudentInput() StudentSummaryInput {
	return StudentSummaryInput{
		TotalSubjects:     4,
		CurrentSemester:   "2-1",
		AveragePercentage: 68.5,
		StrongSubjects:    []SubjectScore{{Name: "Maths", Percentage: 88}},
		WeakSubjects:      []SubjectScore{{Name: "Physics", Percentage: 41}},
		ExamTrend:         dto.TrendImproving,
		Backlogs:          1,
	}
}

func TestStudentSummaryUsesGenerator(t *testing.T) {
	gen := &stubGenerator{text: "Great progress."}
	svc := NewSummaryService(gen, nil, 0, nil, nil)

	summary := svc.StudentSummary(context.Background(), 1, sampleStudentInput())
	assert.Equal(t, dto.SummarySourceAI, summary.Source)
	assert.Equal(t, "Great progress.", summary.Summary)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Maths (88.0%)")
	assert.Contains(t, gen.prompts[0], "- Current Semester: 2-1")
}

func TestStudentSummaryFallsBackOnError(t *testing.T) {
	svc := NewSummaryService(&stubGenerator{err: errors.New("quota exceeded")}, nil, 0, nil, nil)

	summary := svc.StudentSummary(context.Background(), 1, sampleStudentInput())
	assert.Equal(t, dto.SummarySourceFallback, summary.Source)
	assert.Contains(t, summary.Summary, "a good average of 68.5% across 4 subjects")
	assert.Contains(t, summary.Summary, "Focus on improving Physics")
	assert.Contains(t, summary.Summary, "1 backlog(s)")
	assert.Contains(t, summary.Summary, "upward trend")
}

func TestClassInsightsFallbackWithoutGenerator(t *testing.T) {
	svc := NewSummaryService(nil, nil, 0, nil, nil)
	input := ClassInsightInput{
		SubjectName:      "Maths",
		TotalStudents:    30,
		ClassAverage:     45,
		LowPerformers:    []string{"23CSE0001", "23CSE0002"},
		ImprovementTrend: dto.TrendDeclining,
	}

	insights := svc.ClassInsights(context.Background(), 5, dto.InsightScope{Subject: "Maths"}, input)
	assert.Equal(t, dto.SummarySourceFallback, insights.Source)
	assert.Equal(t, "Maths", insights.Scope.Subject)
	assert.Contains(t, insights.Insights, "needs attention average of 45.0% in Maths with 30 students")
	assert.Contains(t, insights.Insights, "2 students need additional support")
	assert.Contains(t, insights.Insights, "declining trend")
}

func TestClassInsightPromptWithoutSessions(t *testing.T) {
	prompt := ClassInsightPrompt(ClassInsightInput{SubjectName: "Maths", SectionName: "cse-a"})
	assert.Contains(t, prompt, "No exam data available yet")
	assert.Contains(t, prompt, "- High Performers (>=75%): None yet")
}

func TestNewGeminiGeneratorDisabled(t *testing.T) {
	gen, err := NewGeminiGenerator(context.Background(), config.SummaryConfig{Enabled: true})
	require.NoError(t, err)
	assert.Nil(t, gen)

	gen, err = NewGeminiGenerator(context.Background(), config.SummaryConfig{APIKey: "key"})
	require.NoError(t, err)
	assert.Nil(t, gen)
}

func geminiAPIKey(r *http.Request) string {
	if key := r.Header.Get("x-goog-api-key"); key != "" {
		return key
	}
	return r.URL.Query().Get("key")
}

func newTestGemini(t *testing.T, serverURL, apiKey string) *GeminiGenerator {
	t.Helper()
	gen, err := NewGeminiGenerator(context.Background(), config.SummaryConfig{
		Enabled:         true,
		APIKey:          apiKey,
		Model:           "gemini-pro",
		Endpoint:        serverURL + "/",
		APIVersion:      "v1beta",
		Timeout:         5 * time.Second,
		MaxOutputTokens: 300,
		Temperature:     0.7,
	})
	require.NoError(t, err)
	require.NotNil(t, gen)
	return gen
}

func TestGeminiGeneratorGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1beta/models/gemini-pro:generateContent"), r.URL.Path)
		assert.Equal(t, "secret", geminiAPIKey(r))

		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			GenerationConfig struct {
				MaxOutputTokens int `json:"maxOutputTokens"`
			} `json:"generationConfig"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Contents)
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)
		assert.Equal(t, 300, req.GenerationConfig.MaxOutputTokens)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":" Well done. "},{"text":"Keep going."}]}}]}`))
	}))
	defer server.Close()

	text, err := newTestGemini(t, server.URL, "secret").Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Well done. Keep going.", text)
}

func TestGeminiGeneratorErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if geminiAPIKey(r) == "bad" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied","status":"PERMISSION_DENIED"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := newTestGemini(t, server.URL, "bad").Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")

	_, err = newTestGemini(t, server.URL, "ok").Generate(context.Background(), "x")
	assert.EqualError(t, err, "empty response from model")

	var disabled *GeminiGenerator
	_, err = disabled.Generate(context.Background(), "x")
	assert.Error(t, err)
}

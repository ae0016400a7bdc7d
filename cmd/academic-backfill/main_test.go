package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

func TestParseOptionsDefaults(t *testing.T) {
	opts, err := parseOptions(nil, 500)
	require.NoError(t, err)
	assert.Empty(t, opts.phases)
	assert.Equal(t, 500, opts.batchSize)
	assert.False(t, opts.migrate)
	assert.False(t, opts.reset)
}

func TestParseOptionsPhases(t *testing.T) {
	opts, err := parseOptions([]string{"-phase", "marks, batches", "-reset", "-batch-size", "50"}, 500)
	require.NoError(t, err)
	assert.Equal(t, []models.BackfillPhase{models.BackfillMarks, models.BackfillBatches}, opts.phases)
	assert.True(t, opts.reset)
	assert.Equal(t, 50, opts.batchSize)
}

func TestParseOptionsRejectsBadInput(t *testing.T) {
	_, err := parseOptions([]string{"-phase", "grades"}, 500)
	assert.ErrorContains(t, err, `unknown phase "grades"`)

	_, err = parseOptions([]string{"-batch-size", "0"}, 500)
	assert.Error(t, err)
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, &models.MarksValidationReport{Total: 4, NullExamSessionID: 1, FullyMigrated: 3})
	out := buf.String()
	assert.Contains(t, out, "null exam_session_id")
	assert.Contains(t, out, "3 (75.00%)")
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	printResults(&buf, []models.BackfillResult{{Phase: models.BackfillSections, RowsAffected: 12, LastProcessedID: 40, Duration: time.Second}})
	assert.Contains(t, buf.String(), "sections")
	assert.Contains(t, buf.String(), "PHASE")
}

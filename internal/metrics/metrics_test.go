package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	counts map[string]int
	err    error
}

func (f fakeCounter) CountByStatus(context.Context) (map[string]int, error) {
	return f.counts, f.err
}

func TestReviewCollector(t *testing.T) {
	c := NewReviewCollector(fakeCounter{counts: map[string]int{"pending": 3, "approved": 1}}, nil)

	expected := `
# HELP missioncontrol_reviews Current number of reviews by status
# TYPE missioncontrol_reviews gauge
missioncontrol_reviews{status="approved"} 1
missioncontrol_reviews{status="pending"} 3
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}

func TestReviewCollectorError(t *testing.T) {
	c := NewReviewCollector(fakeCounter{err: errors.New("db down")}, nil)
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(sourceFetches.WithLabelValues("agents", "mock"))
	RecordSourceFetch("agents", "mock")
	assert.Equal(t, before+1, testutil.ToFloat64(sourceFetches.WithLabelValues("agents", "mock")))

	before = testutil.ToFloat64(reviewDecisions.WithLabelValues("approved"))
	RecordDecision("approved")
	RecordDecision("approved")
	assert.Equal(t, before+2, testutil.ToFloat64(reviewDecisions.WithLabelValues("approved")))

	before = testutil.ToFloat64(tierFallbacks.WithLabelValues("cron", "gateway"))
	RecordTierFallback("cron", "gateway")
	assert.Equal(t, before+1, testutil.ToFloat64(tierFallbacks.WithLabelValues("cron", "gateway")))
}

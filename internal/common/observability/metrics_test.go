package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func familyNames(t *testing.T, reg *promclient.Registry) []string {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	return names
}

func hasPrefix(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

func TestObservability_RecordsFinderMetrics(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := New("venue-finder-test", WithRegisterer(reg))
	t.Cleanup(obs.Shutdown)

	ctx := context.Background()
	obs.RecordPipelineRun(ctx, 3, 2*time.Millisecond)
	obs.RecordEvent(ctx, "marker_click", "selected")
	obs.RecordJobProcessed(ctx, "completed")
	obs.RecordJobDuration(ctx, 5*time.Millisecond, "completed")

	names := familyNames(t, reg)
	assert.True(t, hasPrefix(names, "finder_pipeline_runs"), "families: %v", names)
	assert.True(t, hasPrefix(names, "finder_events"), "families: %v", names)
	assert.True(t, hasPrefix(names, "jobs_processed"), "families: %v", names)
}

func TestObservability_StartSpanWithoutTracer(t *testing.T) {
	obs := &Observability{}
	ctx, span := obs.StartSpan(context.Background(), "finder.refilter")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
}

func TestObservability_ZeroValueIsSafe(t *testing.T) {
	obs := &Observability{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		obs.RecordPipelineRun(ctx, 0, time.Millisecond)
		obs.RecordEvent(ctx, "empty_click", "cleared")
		obs.RecordJobProcessed(ctx, "failed")
	})
}

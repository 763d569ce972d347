package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"flowmate/domain"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestEvaluationEmitsSpan(t *testing.T) {
	recorder := recordSpans(t)

	task := testTask("t-1", "Chase invoice", "To Do")
	task.DueDate = baseTime.Add(-time.Hour).Format(time.RFC3339)
	newTestBoard(t, domain.Snapshot{
		Columns: testColumns(),
		Tasks:   []domain.Task{task},
		Rules:   []domain.Rule{overdueRule("col-blocked")},
	})

	spans := recorder.Ended()
	require.NotEmpty(t, spans)
	span := spans[len(spans)-1]
	require.Equal(t, "automation.evaluate", span.Name())
	require.Equal(t, codes.Ok, span.Status().Code)

	attrs := spanAttrs(span)
	require.EqualValues(t, 1, attrs["flowmate.automation.rules_enabled"].AsInt64())
	require.EqualValues(t, 1, attrs["flowmate.automation.tasks_seen"].AsInt64())
	require.EqualValues(t, 1, attrs["flowmate.automation.moves_applied"].AsInt64())
	require.GreaterOrEqual(t, attrs["flowmate.automation.total_ms"].AsFloat64(), 0.0)
}

func TestEvaluationSpanReportsPassCap(t *testing.T) {
	recorder := recordSpans(t)

	task := testTask("t-1", "Tug of war", "To Do")
	task.CustomFields = []domain.CustomField{{ID: "cf-1", Name: "Team", Value: "Core"}}
	newTestBoard(t, domain.Snapshot{
		Columns: testColumns(),
		Tasks:   []domain.Task{task},
		Rules: []domain.Rule{
			fieldRule("rule-a", "Pull to In Progress", "Team", "Core", "col-doing"),
			fieldRule("rule-b", "Pull to Blocked", "Team", "Core", "col-blocked"),
		},
	})

	spans := recorder.Ended()
	require.NotEmpty(t, spans)
	span := spans[len(spans)-1]
	require.Equal(t, codes.Error, span.Status().Code)
	require.EqualValues(t, 4, spanAttrs(span)["flowmate.automation.passes"].AsInt64())
}

package board

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	evalTracerName = "flowmate/board"
	evalSpanName   = "automation.evaluate"
)

// evalMetrics records one settle run: an otel span for tracing backends and
// a structured log record for everything else.
type evalMetrics struct {
	logger       *log.Logger
	span         trace.Span
	start        time.Time
	rulesEnabled int
	tasksSeen    int
	passMoves    []int
	capped       bool
}

func newEvalMetrics(ctx context.Context, logger *log.Logger) *evalMetrics {
	_, span := otel.Tracer(evalTracerName).Start(ctx, evalSpanName)
	return &evalMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
	}
}

func (m *evalMetrics) ObservePass(moves int) {
	m.passMoves = append(m.passMoves, moves)
}

func (m *evalMetrics) SetRulesEnabled(n int) { m.rulesEnabled = n }

func (m *evalMetrics) SetTasksSeen(n int) { m.tasksSeen = n }

func (m *evalMetrics) SetCapped() { m.capped = true }

func (m *evalMetrics) Done(passes, movesApplied int) {
	if m == nil {
		return
	}
	elapsed := time.Since(m.start)

	m.span.SetAttributes(
		attribute.Int("flowmate.automation.rules_enabled", m.rulesEnabled),
		attribute.Int("flowmate.automation.tasks_seen", m.tasksSeen),
		attribute.Int("flowmate.automation.passes", passes),
		attribute.Int("flowmate.automation.moves_applied", movesApplied),
		attribute.Float64("flowmate.automation.total_ms", durationToMillis(elapsed)),
	)
	if m.capped {
		m.span.SetStatus(codes.Error, "evaluation pass cap reached")
	} else {
		m.span.SetStatus(codes.Ok, "")
	}
	m.span.End()

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"rules_enabled": m.rulesEnabled,
		"tasks_seen":    m.tasksSeen,
		"passes":        passes,
		"moves_applied": movesApplied,
		"total_ms":      durationToMillis(elapsed),
	}
	if m.capped {
		fields["capped"] = true
	}
	entry := m.logger.WithFields(fields)
	if movesApplied > 0 || m.capped {
		entry.Info("automation.evaluation.metrics")
	} else {
		entry.Debug("automation.evaluation.metrics")
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}

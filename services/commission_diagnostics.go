package services

import (
	"context"
	"log/slog"

	"github.com/HSouheill/barrim_commission/logger"
)

// DiagnosticReason names a data-quality anomaly met while computing commissions.
type DiagnosticReason string

const (
	ReasonAgentNotFound       DiagnosticReason = "agent_not_found"
	ReasonUnsupportedRateType DiagnosticReason = "unsupported_rate_type"
)

// Diagnostic is emitted instead of an error when a level is skipped or the chain ends early.
type Diagnostic struct {
	TransactionID string
	Level         int
	AgentID       string
	Reason        DiagnosticReason
	RateType      string
}

// DiagnosticSink receives diagnostics. Implementations must be safe for concurrent use.
type DiagnosticSink interface {
	Emit(ctx context.Context, d Diagnostic)
}

// DiagnosticSinkFunc adapts a function to DiagnosticSink.
type DiagnosticSinkFunc func(ctx context.Context, d Diagnostic)

func (f DiagnosticSinkFunc) Emit(ctx context.Context, d Diagnostic) {
	f(ctx, d)
}

type discardSink struct{}

func (discardSink) Emit(context.Context, Diagnostic) {}

// LogDiagnosticSink writes diagnostics as structured warnings. With a nil logger it
// uses the logger carried by the context.
type LogDiagnosticSink struct {
	log *slog.Logger
}

func NewLogDiagnosticSink(log *slog.Logger) *LogDiagnosticSink {
	return &LogDiagnosticSink{log: log}
}

func (s *LogDiagnosticSink) Emit(ctx context.Context, d Diagnostic) {
	attrs := []any{
		"reason", string(d.Reason),
		"chainLevel", d.Level,
		"agentId", d.AgentID,
	}
	if d.TransactionID != "" {
		attrs = append(attrs, "transactionId", d.TransactionID)
	}
	if d.RateType != "" {
		attrs = append(attrs, "rateType", d.RateType)
	}
	log := s.log
	if log == nil {
		log = logger.FromContext(ctx)
	}
	log.WarnContext(ctx, "Commission diagnostic", attrs...)
}

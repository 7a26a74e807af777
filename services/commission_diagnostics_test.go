package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/HSouheill/barrim_commission/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogDiagnosticSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogDiagnosticSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	sink.Emit(context.Background(), Diagnostic{
		TransactionID: "tx-1",
		Level:         2,
		AgentID:       "A7",
		Reason:        ReasonUnsupportedRateType,
		RateType:      "bonus",
	})

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "unsupported_rate_type", entry["reason"])
	assert.Equal(t, "A7", entry["agentId"])
	assert.Equal(t, "bonus", entry["rateType"])
	assert.Equal(t, "tx-1", entry["transactionId"])
	assert.EqualValues(t, 2, entry["chainLevel"])
}

func TestLogDiagnosticSinkUsesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := logger.WithContext(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)).With("worker", "commission"))

	NewLogDiagnosticSink(nil).Emit(ctx, Diagnostic{Level: 3, AgentID: "A3", Reason: ReasonAgentNotFound})

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "agent_not_found", entry["reason"])
	assert.Equal(t, "commission", entry["worker"])
	assert.NotContains(t, entry, "rateType")
}

func TestDiagnosticSinkFunc(t *testing.T) {
	var got []Diagnostic
	sink := DiagnosticSinkFunc(func(_ context.Context, d Diagnostic) { got = append(got, d) })

	sink.Emit(context.Background(), Diagnostic{AgentID: "A1"})
	assert.Len(t, got, 1)
}

package audit

import (
	"context"
	"io"
	"log/slog"

	"github.com/Sentinel-Gate/toolgate/internal/domain/audit"
)

// auditMessage is the slog message of every audit line.
const auditMessage = "audit"

// LogRecorder writes each event as one slog text line on the diagnostic
// stream. It uses its own handler so audit lines are emitted whatever the
// configured log level.
type LogRecorder struct {
	handler slog.Handler
}

// NewLogRecorder returns a LogRecorder writing to w, normally os.Stderr.
func NewLogRecorder(w io.Writer) *LogRecorder {
	return &LogRecorder{
		handler: slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}
}

// Record writes the event, stamped with the event's own timestamp.
func (r *LogRecorder) Record(ctx context.Context, event audit.Event) error {
	rec := slog.NewRecord(event.Timestamp, slog.LevelInfo, auditMessage, 0)
	rec.AddAttrs(
		slog.String("decision", string(event.Decision)),
		slog.String("tool", event.ToolName),
		slog.String("service", event.Service),
		slog.String("operation", event.Operation),
	)
	if event.Reason != "" {
		rec.AddAttrs(slog.String("reason", event.Reason))
	}
	if event.RequestID != "" {
		rec.AddAttrs(slog.String("request_id", event.RequestID))
	}
	rec.AddAttrs(
		slog.String("policy_version", event.PolicyVersion),
		slog.String("session_id", event.SessionID),
		slog.String("event_id", event.ID),
	)
	return r.handler.Handle(ctx, rec)
}

// Package notify delivers alert notifications to care teams. Delivery is best
// effort: callers log and count failures but never roll back the alert.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Notification is the wire shape published for every created alert.
type Notification struct {
	AlertID       string    `json:"alert_id"`
	PatientID     string    `json:"patient_id"`
	Severity      string    `json:"severity"`
	Reason        string    `json:"reason"`
	Escalation    bool      `json:"escalation"`
	SourceEventID string    `json:"source_event_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (n Notification) encode() ([]byte, error) {
	return json.Marshal(n)
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the structured log. It is the default sink
// and the fallback behind BreakerNotifier.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	level := slog.LevelInfo
	if n.Escalation || n.Severity == "URGENT" {
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, "care team notified",
		"alert_id", n.AlertID,
		"patient_id", n.PatientID,
		"severity", n.Severity,
		"escalation", n.Escalation,
		"reason", n.Reason,
	)
	return nil
}

// Package envelope - Envelope logging and audit
package envelope

import (
	"time"

	"go.uber.org/zap"
)

// AuditEntry is a log entry for an envelope
type AuditEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	InputHash  string         `json:"input_hash"`
	Envelope   *InputEnvelope `json:"envelope"`
	RequestID  string         `json:"request_id,omitempty"`
	ClientIP   string         `json:"client_ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
}

// AuditLogger records envelopes for audit and replay
type AuditLogger interface {
	Log(entry AuditEntry)
}

// ZapAuditLogger writes audit entries as structured log lines
type ZapAuditLogger struct {
	Logger *zap.Logger
}

// Log logs an audit entry
func (l ZapAuditLogger) Log(entry AuditEntry) {
	fields := []zap.Field{
		zap.String("input_hash", entry.InputHash),
		zap.String("request_id", entry.RequestID),
		zap.String("client_ip", entry.ClientIP),
		zap.Int64("duration_ms", entry.DurationMs),
		zap.Bool("success", entry.Success),
	}
	if entry.Envelope != nil {
		fields = append(fields,
			zap.Float64("monthly_salary", entry.Envelope.MonthlySalary),
			zap.String("input_currency", string(entry.Envelope.InputCurrency)),
			zap.String("display_currency", string(entry.Envelope.DisplayCurrency)),
			zap.String("rate_snapshot", entry.Envelope.RateSnapshotID))
	}
	if entry.Error != "" {
		fields = append(fields, zap.String("error", entry.Error))
	}
	l.Logger.Info("calculation audit", fields...)
}

// CreateAuditEntry creates an audit entry from an envelope
func CreateAuditEntry(env *InputEnvelope, requestID, clientIP, userAgent string) AuditEntry {
	return AuditEntry{
		Timestamp: time.Now().UTC(),
		InputHash: env.InputHash,
		Envelope:  env,
		RequestID: requestID,
		ClientIP:  clientIP,
		UserAgent: userAgent,
		Success:   true,
	}
}

// MarkFailed marks the audit entry as failed
func (e *AuditEntry) MarkFailed(err error) {
	e.Success = false
	e.Error = err.Error()
}

// SetDuration sets the duration
func (e *AuditEntry) SetDuration(d time.Duration) {
	e.DurationMs = d.Milliseconds()
}

package goAuthClient

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Audit event types.
const (
	AuditRefreshSuccess = "refresh_success"
	AuditRefreshFailure = "refresh_failure"
	AuditReauthDeclined = "reauth_declined"
	AuditTokensCleared  = "tokens_cleared"
	AuditLogin          = "login"
	AuditLogout         = "logout"
)

// AuditEvent is one security-relevant pipeline event. It never carries token
// material.
type AuditEvent struct {
	Timestamp     time.Time         `json:"timestamp"`
	EventType     string            `json:"event_type"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	RefreshID     string            `json:"refresh_id,omitempty"`
	Method        string            `json:"method,omitempty"`
	Path          string            `json:"path,omitempty"`
	StatusCode    int               `json:"status_code,omitempty"`
	Success       bool              `json:"success"`
	Error         string            `json:"error,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink forwards events to a buffered channel.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// LogrusSink writes events as structured log entries at Info level, or Warn
// for unsuccessful events.
type LogrusSink struct {
	log logrus.FieldLogger
}

func NewLogrusSink(log logrus.FieldLogger) *LogrusSink {
	return &LogrusSink{log: log}
}

func (s *LogrusSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil || s.log == nil {
		return
	}
	fields := logrus.Fields{
		"audit":   event.EventType,
		"success": event.Success,
	}
	if event.CorrelationID != "" {
		fields["id"] = event.CorrelationID
	}
	if event.RefreshID != "" {
		fields["refresh_id"] = event.RefreshID
	}
	if event.Path != "" {
		fields["path"] = event.Path
	}
	if event.StatusCode != 0 {
		fields["status"] = event.StatusCode
	}
	if event.Error != "" {
		fields["error"] = event.Error
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}
	entry := s.log.WithFields(fields)
	if event.Success {
		entry.Info("goauthclient: audit")
		return
	}
	entry.Warn("goauthclient: audit")
}

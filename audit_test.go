package goAuthClient

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

// gateSink blocks every Emit until gate yields or is closed.
type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{gate: make(chan struct{})}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

func TestAuditDisabledReturnsNilDispatcher(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: false, BufferSize: 8}, sink)
	if d != nil {
		t.Fatal("expected nil dispatcher when audit is disabled")
	}

	d.Emit(context.Background(), AuditEvent{EventType: AuditLogin})
	d.Close()
	if d.Dropped() != 0 || sink.count.Load() != 0 {
		t.Fatal("nil dispatcher must be inert")
	}
}

func TestAuditDispatcherFlushesOnClose(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 64}, sink)

	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: AuditRefreshSuccess})
	}
	d.Close()

	if got := sink.count.Load(); got != 50 {
		t.Fatalf("expected all queued events delivered, got %d", got)
	}
}

func TestAuditBufferFullDropIfFullDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), AuditEvent{EventType: "e1"})
	d.Emit(context.Background(), AuditEvent{EventType: "e2"})

	start := time.Now()
	d.Emit(context.Background(), AuditEvent{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is set")
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestAuditBufferFullBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), AuditEvent{EventType: "e1"})
	d.Emit(context.Background(), AuditEvent{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		d.Emit(context.Background(), AuditEvent{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed once space is available")
	}
}

func TestAuditBlockedEmitHonoursContext(t *testing.T) {
	sink := newGateSink()
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), AuditEvent{EventType: "e1"})
	d.Emit(context.Background(), AuditEvent{EventType: "e2"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	d.Emit(ctx, AuditEvent{EventType: "e3"})
	if time.Since(start) > time.Second {
		t.Fatal("expected emit to give up when ctx ends")
	}
}

func TestAuditCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4, DropIfFull: true}, &countingSink{})

	d.Emit(context.Background(), AuditEvent{EventType: "e1"})
	d.Close()
	d.Close()
	d.Emit(context.Background(), AuditEvent{EventType: "e2"})
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf lockedBuffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), AuditEvent{
		Timestamp:     time.Now().UTC(),
		EventType:     AuditRefreshFailure,
		CorrelationID: "req-1",
		RefreshID:     "ref-1",
		StatusCode:    401,
		Error:         "refresh rejected",
	})

	line := bytes.TrimSpace(buf.Bytes())
	var decoded map[string]any
	if err := json.Unmarshal(line, &decoded); err != nil {
		t.Fatalf("expected one JSON object per line: %v", err)
	}
	if decoded["event_type"] != AuditRefreshFailure || decoded["refresh_id"] != "ref-1" {
		t.Fatalf("unexpected JSON line %s", line)
	}
	if _, ok := decoded["method"]; ok {
		t.Fatal("empty fields should be omitted")
	}
}

func TestLogrusSinkLevels(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	sink := NewLogrusSink(logger)

	sink.Emit(context.Background(), AuditEvent{EventType: AuditLogin, Success: true, Metadata: map[string]string{"method": "password"}})
	sink.Emit(context.Background(), AuditEvent{EventType: AuditRefreshFailure, Error: "boom", StatusCode: 502})

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(entries))
	}
	if entries[0].Level != logrus.InfoLevel || entries[0].Data["method"] != "password" {
		t.Fatalf("unexpected success entry %+v", entries[0].Data)
	}
	if entries[1].Level != logrus.WarnLevel || entries[1].Data["status"] != 502 {
		t.Fatalf("unexpected failure entry %+v", entries[1].Data)
	}
}

func TestAuditDeclinedRetryIsRecorded(t *testing.T) {
	api := newFakeAPI(t)
	api.grant("A1", "R1")
	api.set(func(a *fakeAPI) { a.alwaysDeny = true })
	sink := NewChannelSink(16)
	c := newTestClient(t, api, Credentials{AccessToken: "A1", RefreshToken: "R1"}, func(b *Builder) {
		b.WithAuditSink(sink)
	})

	mustGet(t, c, "/api/orders/7")
	c.Close()

	var declined *AuditEvent
	for len(sink.Events()) > 0 {
		ev := <-sink.Events()
		if ev.EventType == AuditReauthDeclined {
			declined = &ev
		}
	}
	if declined == nil {
		t.Fatal("expected a reauth_declined event")
	}
	if declined.Path != "/api/orders/7" || declined.StatusCode != 401 || declined.CorrelationID == "" {
		t.Fatalf("unexpected declined event %+v", *declined)
	}
}

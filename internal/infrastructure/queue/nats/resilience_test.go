package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/notewise/internal/core/domain"
	"github.com/kirillkom/notewise/internal/infrastructure/resilience"
)

func TestClassifyRecategorizeError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "canceled", err: context.Canceled, retryable: false, record: false},
		{name: "no servers", err: fmt.Errorf("publish: %w", nats.ErrNoServers), retryable: true, record: true},
		{name: "reconnect buffer full", err: nats.ErrReconnectBufExceeded, retryable: true, record: true},
		{name: "open breaker", err: gobreaker.ErrOpenState, retryable: true, record: true},
		{name: "bad subject", err: nats.ErrBadSubject, retryable: false, record: false},
		{name: "closed", err: nats.ErrConnectionClosed, retryable: false, record: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			class := classifyRecategorizeError(tc.err)
			if class.Retryable != tc.retryable || class.RecordFailure != tc.record {
				t.Fatalf("classifyRecategorizeError(%v) = %+v", tc.err, class)
			}
		})
	}
}

func TestClassifyNoteEventErrorNeverRetries(t *testing.T) {
	for _, err := range []error{nats.ErrNoServers, nats.ErrReconnectBufExceeded, nats.ErrConnectionClosed} {
		class := classifyNoteEventError(err)
		if class.Retryable || !class.RecordFailure {
			t.Fatalf("classifyNoteEventError(%v) = %+v", err, class)
		}
	}
	if class := classifyNoteEventError(nats.ErrMaxPayload); class.RecordFailure {
		t.Fatalf("oversized payload should not count against the server: %+v", class)
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(publishRecategorizeOperation, nats.ErrConnectionClosed)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary kind, got %v", err)
	}
	if !errors.Is(err, nats.ErrConnectionClosed) {
		t.Fatalf("expected original error to be preserved, got %v", err)
	}

	permanent := fmt.Errorf("publish: %w", nats.ErrMaxPayload)
	if got := wrapTemporaryIfNeeded(publishRecategorizeOperation, permanent); got != permanent {
		t.Fatalf("expected permanent error unchanged, got %v", got)
	}
	if wrapTemporaryIfNeeded(publishNoteEventOperation, nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func newTestExecutor() *resilience.Executor {
	cfg := resilience.DefaultConfig()
	cfg.RetryInitialBackoff = time.Millisecond
	cfg.RetryMaxBackoff = time.Millisecond
	cfg.BreakerEnabled = false
	return resilience.NewExecutor(cfg)
}

func TestPublishRecategorizeRetriesThroughExecutor(t *testing.T) {
	q := newQueue(nil, Options{ResilienceExecutor: newTestExecutor()})
	attempts := 0
	q.publishMsg = func(subject string, payload []byte) error {
		attempts++
		if attempts < 3 {
			return nats.ErrReconnectBufExceeded
		}
		if subject != DefaultRecategorizeSubject || string(payload) != "42" {
			t.Fatalf("unexpected message %s %q", subject, payload)
		}
		return nil
	}

	if err := q.PublishRecategorize(context.Background(), 42); err != nil {
		t.Fatalf("PublishRecategorize() error = %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestPublishRecategorizeExhaustedIsTemporary(t *testing.T) {
	q := newQueue(nil, Options{ResilienceExecutor: newTestExecutor()})
	q.publishMsg = func(string, []byte) error { return nats.ErrNoServers }

	err := q.PublishRecategorize(context.Background(), 7)
	if !domain.IsKind(err, domain.ErrTemporary) || !errors.Is(err, nats.ErrNoServers) {
		t.Fatalf("expected temporary no-servers error, got %v", err)
	}
}

func TestPublishNoteEventSingleAttempt(t *testing.T) {
	q := newQueue(nil, Options{ResilienceExecutor: newTestExecutor()})
	attempts := 0
	q.publishMsg = func(subject string, _ []byte) error {
		attempts++
		if subject != DefaultEventsSubject {
			t.Fatalf("unexpected subject %s", subject)
		}
		return nats.ErrReconnectBufExceeded
	}

	err := q.PublishNoteEvent(context.Background(), domain.NoteEvent{Kind: domain.NoteCreated, NoteID: 1})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestNewQueueDefaultsSubjects(t *testing.T) {
	q := newQueue(nil, Options{})
	if q.eventsSubject != DefaultEventsSubject || q.recategorizeSubject != DefaultRecategorizeSubject {
		t.Fatalf("unexpected subjects %q %q", q.eventsSubject, q.recategorizeSubject)
	}

	q = newQueue(nil, Options{EventsSubject: "a", RecategorizeSubject: "b"})
	if q.eventsSubject != "a" || q.recategorizeSubject != "b" {
		t.Fatalf("unexpected subjects %q %q", q.eventsSubject, q.recategorizeSubject)
	}
	if err := q.PublishRecategorize(context.Background(), 1); !errors.Is(err, nats.ErrConnectionClosed) {
		t.Fatalf("expected closed connection error without a conn, got %v", err)
	}
	q.Close()
}

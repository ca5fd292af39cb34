package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/notewise/internal/core/domain"
	"github.com/kirillkom/notewise/internal/infrastructure/resilience"
)

const (
	publishNoteEventOperation    = "nats.publish_note_event"
	publishRecategorizeOperation = "nats.publish_recategorize"
)

// connectionErrors are raised while the client is between servers or has
// filled its reconnect buffer; the server may come back.
var connectionErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrDisconnected,
	nats.ErrReconnectBufExceeded,
}

// requestErrors are caused by the message itself and say nothing about the
// server's health.
var requestErrors = []error{
	nats.ErrBadSubject,
	nats.ErrMaxPayload,
	nats.ErrInvalidMsg,
}

// classifyRecategorizeError retries connection trouble: a lost enqueue means
// a note keeps stale categories until someone asks again.
func classifyRecategorizeError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case isContextError(err), isAny(err, requestErrors):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	case resilience.IsCircuitOpen(err), isAny(err, connectionErrors):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
}

// classifyNoteEventError never retries. A change event is a refresh hint
// published after the write already succeeded, so a late copy is worth less
// than a fast response; failures still count toward opening the breaker.
func classifyNoteEventError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case isContextError(err), isAny(err, requestErrors):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	default:
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
}

func classifierFor(operation string) resilience.ErrorClassifier {
	if operation == publishRecategorizeOperation {
		return classifyRecategorizeError
	}
	return classifyNoteEventError
}

// wrapTemporaryIfNeeded marks connection failures and an open breaker as
// ErrTemporary so callers can answer 503 instead of 500.
func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if resilience.IsCircuitOpen(err) || isAny(err, connectionErrors) || errors.Is(err, nats.ErrConnectionClosed) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

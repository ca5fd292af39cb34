package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/notewise/internal/core/domain"
	"github.com/kirillkom/notewise/internal/infrastructure/resilience"
)

const (
	DefaultEventsSubject       = "notes.changed"
	DefaultRecategorizeSubject = "notes.recategorize"
	workerQueueGroup           = "workers"
)

// Queue carries note change events (fan-out) and recategorize requests
// (work queue) over one NATS connection.
type Queue struct {
	conn                *nats.Conn
	eventsSubject       string
	recategorizeSubject string
	executor            *resilience.Executor

	publishMsg func(subject string, payload []byte) error
}

func New(url string) (*Queue, error) {
	return NewWithOptions(url, Options{})
}

type Options struct {
	Name                 string
	EventsSubject        string
	RecategorizeSubject  string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func NewWithOptions(url string, options Options) (*Queue, error) {
	name := options.Name
	if name == "" {
		name = "notewise"
	}
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return newQueue(conn, options), nil
}

func newQueue(conn *nats.Conn, options Options) *Queue {
	events := options.EventsSubject
	if events == "" {
		events = DefaultEventsSubject
	}
	recategorize := options.RecategorizeSubject
	if recategorize == "" {
		recategorize = DefaultRecategorizeSubject
	}
	q := &Queue{
		conn:                conn,
		eventsSubject:       events,
		recategorizeSubject: recategorize,
		executor:            options.ResilienceExecutor,
	}
	q.publishMsg = func(subject string, payload []byte) error {
		if q.conn == nil {
			return nats.ErrConnectionClosed
		}
		return q.conn.Publish(subject, payload)
	}
	return q
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishNoteEvent(ctx context.Context, event domain.NoteEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode note event: %w", err)
	}
	return q.publish(ctx, publishNoteEventOperation, q.eventsSubject, payload)
}

func (q *Queue) PublishRecategorize(ctx context.Context, noteID int64) error {
	return q.publish(ctx, publishRecategorizeOperation, q.recategorizeSubject, []byte(strconv.FormatInt(noteID, 10)))
}

func (q *Queue) publish(ctx context.Context, operation, subject string, payload []byte) error {
	call := func(_ context.Context) error {
		if err := q.publishMsg(subject, payload); err != nil {
			return fmt.Errorf("publish to %s: %w", subject, err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, operation, call, classifierFor(operation))
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}

// SubscribeNoteEvents delivers every note event whose origin differs from
// skipOrigin. It blocks until ctx is done.
func (q *Queue) SubscribeNoteEvents(ctx context.Context, skipOrigin string, handler func(domain.NoteEvent)) error {
	return q.consume(ctx, q.eventsSubject, "", func(_ context.Context, data []byte) error {
		var event domain.NoteEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("decode note event: %w", err)
		}
		if skipOrigin != "" && event.Origin == skipOrigin {
			return nil
		}
		handler(event)
		return nil
	})
}

// SubscribeRecategorize consumes recategorize requests as a member of the
// worker queue group. It blocks until ctx is done.
func (q *Queue) SubscribeRecategorize(ctx context.Context, handler func(context.Context, int64) error) error {
	return q.consume(ctx, q.recategorizeSubject, workerQueueGroup, func(handlerCtx context.Context, data []byte) error {
		noteID, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return domain.WrapError(domain.ErrInvalidInput, "decode recategorize request", err)
		}
		return handler(handlerCtx, noteID)
	})
}

func (q *Queue) consume(ctx context.Context, subject, group string, handle func(context.Context, []byte) error) error {
	callback := func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handle(handlerCtx, msg.Data); err != nil {
			slog.Error("nats_handler_failed", "subject", subject, "payload", string(msg.Data), "error", err)
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if group != "" {
		sub, err = q.conn.QueueSubscribe(subject, group, callback)
	} else {
		sub, err = q.conn.Subscribe(subject, callback)
	}
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

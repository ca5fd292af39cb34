package feed

import (
	"context"
	"sync"

	"github.com/kirillkom/notewise/internal/core/domain"
)

const subscriberBuffer = 16

// Bus fans note change events out to in-process subscribers. A slow
// subscriber loses events rather than blocking the producer; subscribers only
// use events as a refresh signal.
type Bus struct {
	mu     sync.Mutex
	subs   map[chan domain.NoteEvent]struct{}
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan domain.NoteEvent]struct{})}
}

func (b *Bus) Publish(event domain.NoteEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe returns a channel that receives events until ctx is done.
func (b *Bus) Subscribe(ctx context.Context) <-chan domain.NoteEvent {
	ch := make(chan domain.NoteEvent, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.unsubscribe(ch)
	}()
	return ch
}

func (b *Bus) unsubscribe(ch chan domain.NoteEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; !ok {
		return
	}
	delete(b.subs, ch)
	close(ch)
}

func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

package feed

import (
	"context"
	"sync"

	"github.com/kirillkom/notewise/internal/core/domain"
)

// StateBox holds the latest categorization request state. It has one writer
// (the categorizer); readers either poll Current or Subscribe.
type StateBox struct {
	mu      sync.Mutex
	current domain.RequestState
	subs    map[chan domain.RequestState]struct{}
}

func NewStateBox() *StateBox {
	return &StateBox{
		current: domain.IdleState(),
		subs:    make(map[chan domain.RequestState]struct{}),
	}
}

func (s *StateBox) Set(state domain.RequestState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = state
	for ch := range s.subs {
		// keep only the newest value in each subscriber slot
		select {
		case <-ch:
		default:
		}
		ch <- state
	}
}

func (s *StateBox) Current() domain.RequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe delivers the current state immediately, then every change,
// conflated to the latest value, until ctx is done.
func (s *StateBox) Subscribe(ctx context.Context) <-chan domain.RequestState {
	ch := make(chan domain.RequestState, 1)

	s.mu.Lock()
	ch <- s.current
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

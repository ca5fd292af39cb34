package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/kirillkom/notewise/internal/core/domain"
)

type noteRepoFake struct {
	mu      sync.Mutex
	nextID  int64
	notes   map[int64]domain.Note
	creates int
	updates int
	err     error
}

func newNoteRepoFake(seed ...domain.Note) *noteRepoFake {
	f := &noteRepoFake{notes: make(map[int64]domain.Note)}
	for _, note := range seed {
		f.notes[note.ID] = note
		if note.ID > f.nextID {
			f.nextID = note.ID
		}
	}
	return f
}

func (f *noteRepoFake) Create(_ context.Context, note *domain.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	note.ID = f.nextID
	f.notes[note.ID] = *note
	f.creates++
	return nil
}

func (f *noteRepoFake) GetByID(_ context.Context, id int64) (*domain.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	note, ok := f.notes[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNoteNotFound, "get note", errors.New("missing"))
	}
	return &note, nil
}

func (f *noteRepoFake) Update(_ context.Context, note *domain.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.notes[note.ID]; !ok {
		return domain.WrapError(domain.ErrNoteNotFound, "update note", errors.New("missing"))
	}
	f.notes[note.ID] = *note
	f.updates++
	return nil
}

func (f *noteRepoFake) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.notes[id]; !ok {
		return domain.WrapError(domain.ErrNoteNotFound, "delete note", errors.New("missing"))
	}
	delete(f.notes, id)
	return nil
}

func (f *noteRepoFake) ListNewestFirst(context.Context) ([]domain.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Note, 0, len(f.notes))
	for _, note := range f.notes {
		out = append(out, note)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

type classifierFake struct {
	mu       sync.Mutex
	result   domain.ZeroShotResult
	err      error
	calls    int
	requests []domain.ZeroShotRequest
	block    chan struct{}
}

func (f *classifierFake) Classify(ctx context.Context, req domain.ZeroShotRequest) (domain.ZeroShotResult, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return domain.ZeroShotResult{}, ctx.Err()
		}
	}
	if f.err != nil {
		return domain.ZeroShotResult{}, f.err
	}
	return f.result, nil
}

func (f *classifierFake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type stateFake struct {
	mu     sync.Mutex
	states []domain.RequestState
}

func (f *stateFake) Set(state domain.RequestState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
}

func (f *stateFake) last() domain.RequestState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.states) == 0 {
		return domain.IdleState()
	}
	return f.states[len(f.states)-1]
}

type categorizerFake struct {
	labels []string
	calls  int
}

func (f *categorizerFake) Categorize(context.Context, string) domain.Categorization {
	f.calls++
	return domain.Categorization{Labels: f.labels, Source: domain.SourceClassifier}
}

type busFake struct {
	mu        sync.Mutex
	published []domain.NoteEvent
	subs      []chan domain.NoteEvent
}

func (f *busFake) Publish(event domain.NoteEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, event)
	for _, sub := range f.subs {
		select {
		case sub <- event:
		default:
		}
	}
}

func (f *busFake) Subscribe(context.Context) <-chan domain.NoteEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan domain.NoteEvent, 8)
	f.subs = append(f.subs, ch)
	return ch
}

func (f *busFake) kinds() []domain.NoteEventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.NoteEventKind, 0, len(f.published))
	for _, event := range f.published {
		out = append(out, event.Kind)
	}
	return out
}

type publisherFake struct {
	events []domain.NoteEvent
	err    error
}

func (f *publisherFake) PublishNoteEvent(_ context.Context, event domain.NoteEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type recategorizeQueueFake struct {
	published []int64
	failAfter int
}

func (f *recategorizeQueueFake) PublishRecategorize(_ context.Context, noteID int64) error {
	if f.failAfter > 0 && len(f.published) >= f.failAfter {
		return errors.New("queue down")
	}
	f.published = append(f.published, noteID)
	return nil
}

func (f *recategorizeQueueFake) SubscribeRecategorize(context.Context, func(context.Context, int64) error) error {
	return errors.New("not implemented")
}

func strPtr(s string) *string { return &s }

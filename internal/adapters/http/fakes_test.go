package httpadapter

import (
	"context"
	"io"
	"sync"

	"github.com/kirillkom/notewise/internal/config"
	"github.com/kirillkom/notewise/internal/core/domain"
)

type notesFake struct {
	mu      sync.Mutex
	notes   map[int64]domain.Note
	nextID  int64
	err     error
	watchCh chan []domain.Note

	lastFilter domain.NoteFilter
	lastTitle  *string
}

func newNotesFake(notes ...domain.Note) *notesFake {
	f := &notesFake{notes: map[int64]domain.Note{}, nextID: 1}
	for _, n := range notes {
		f.notes[n.ID] = n
		if n.ID >= f.nextID {
			f.nextID = n.ID + 1
		}
	}
	return f
}

func (f *notesFake) Create(_ context.Context, title *string, content string) (*domain.Note, domain.Categorization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, domain.Categorization{}, f.err
	}
	f.lastTitle = title
	note := domain.Note{ID: f.nextID, Title: title, Content: content, Categories: []string{"Work"}, Timestamp: 1}
	f.nextID++
	f.notes[note.ID] = note
	return &note, domain.Categorization{Labels: []string{"Work"}, Source: domain.SourceClassifier}, nil
}

func (f *notesFake) Update(_ context.Context, id int64, title *string, content string) (*domain.Note, domain.Categorization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	note, ok := f.notes[id]
	if !ok {
		return nil, domain.Categorization{}, domain.WrapError(domain.ErrNoteNotFound, "update note", io.EOF)
	}
	note.Title = title
	note.Content = content
	f.notes[id] = note
	return &note, domain.Categorization{Labels: []string{"Ideas"}, Source: domain.SourceFallback, Err: domain.ErrClassifier}, nil
}

func (f *notesFake) ToggleBookmark(_ context.Context, id int64) (*domain.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	note, ok := f.notes[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNoteNotFound, "toggle bookmark", io.EOF)
	}
	note.Bookmarked = !note.Bookmarked
	f.notes[id] = note
	return &note, nil
}

func (f *notesFake) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.notes[id]; !ok {
		return domain.WrapError(domain.ErrNoteNotFound, "delete note", io.EOF)
	}
	delete(f.notes, id)
	return nil
}

func (f *notesFake) Recategorize(ctx context.Context, id int64) (*domain.Note, domain.Categorization, error) {
	note, err := f.Get(ctx, id)
	if err != nil {
		return nil, domain.Categorization{}, err
	}
	return note, domain.Categorization{Labels: note.Categories, Source: domain.SourceClassifier}, nil
}

func (f *notesFake) Get(_ context.Context, id int64) (*domain.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	note, ok := f.notes[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNoteNotFound, "get note", io.EOF)
	}
	return &note, nil
}

func (f *notesFake) List(_ context.Context, filter domain.NoteFilter) ([]domain.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.lastFilter = filter
	out := make([]domain.Note, 0, len(f.notes))
	for _, n := range f.notes {
		out = append(out, n)
	}
	return filter.Apply(out), nil
}

func (f *notesFake) Watch(ctx context.Context, _ domain.NoteFilter) (<-chan []domain.Note, error) {
	return f.watchCh, nil
}

type stateFake struct {
	state domain.RequestState
}

func (s stateFake) Current() domain.RequestState { return s.state }

func (s stateFake) Subscribe(context.Context) <-chan domain.RequestState {
	ch := make(chan domain.RequestState, 1)
	ch <- s.state
	return ch
}

type bulkFake struct {
	queued int
	err    error
}

func (b bulkFake) EnqueueAll(context.Context) (int, error) { return b.queued, b.err }

type exporterFake struct {
	exported []domain.Note
}

func (e *exporterFake) Export(_ context.Context, notes []domain.Note, w io.Writer) error {
	e.exported = notes
	_, err := w.Write([]byte("xlsx-bytes"))
	return err
}

func testConfig() config.Config {
	return config.Config{APIRequestValidation: true}
}

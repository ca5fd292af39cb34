package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/kirillkom/notewise/internal/core/domain"
	"github.com/kirillkom/notewise/internal/core/ports"
)

type NoteUseCase struct {
	repo        ports.NoteRepository
	categorizer ports.NoteCategorizer
	bus         ports.NoteEventBus
	publisher   ports.NoteEventPublisher
	origin      string

	locks               *noteLocks
	recategorizeGroup   singleflight.Group
	recategorizeTimeout time.Duration
	now                 func() int64
}

// DefaultRecategorizeTimeout bounds one shared recategorization run.
const DefaultRecategorizeTimeout = 2 * time.Minute

type NoteOption func(*NoteUseCase)

// WithEventPublisher forwards every change event to other processes as well.
func WithEventPublisher(publisher ports.NoteEventPublisher, origin string) NoteOption {
	return func(uc *NoteUseCase) {
		uc.publisher = publisher
		uc.origin = origin
	}
}

// WithRecategorizeTimeout bounds the shared run behind coalesced
// Recategorize calls, which outlives any single caller.
func WithRecategorizeTimeout(timeout time.Duration) NoteOption {
	return func(uc *NoteUseCase) {
		if timeout > 0 {
			uc.recategorizeTimeout = timeout
		}
	}
}

func WithClock(now func() int64) NoteOption {
	return func(uc *NoteUseCase) {
		uc.now = now
	}
}

func NewNoteUseCase(
	repo ports.NoteRepository,
	categorizer ports.NoteCategorizer,
	bus ports.NoteEventBus,
	opts ...NoteOption,
) *NoteUseCase {
	uc := &NoteUseCase{
		repo:        repo,
		categorizer: categorizer,
		bus:         bus,
		locks:       newNoteLocks(),
		now:         domain.NowMillis,

		recategorizeTimeout: DefaultRecategorizeTimeout,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *NoteUseCase) Create(ctx context.Context, title *string, content string) (*domain.Note, domain.Categorization, error) {
	title, err := validateNoteInput(title, content)
	if err != nil {
		return nil, domain.Categorization{}, err
	}

	categorization := uc.categorizer.Categorize(ctx, content)
	if err := ctx.Err(); err != nil {
		return nil, categorization, err
	}

	note := &domain.Note{
		Title:      title,
		Content:    content,
		Categories: categorization.Labels,
		Timestamp:  uc.now(),
	}
	if err := uc.repo.Create(ctx, note); err != nil {
		return nil, categorization, fmt.Errorf("create note: %w", err)
	}

	uc.emit(ctx, domain.NoteCreated, note.ID)
	return note, categorization, nil
}

func (uc *NoteUseCase) Update(ctx context.Context, id int64, title *string, content string) (*domain.Note, domain.Categorization, error) {
	title, err := validateNoteInput(title, content)
	if err != nil {
		return nil, domain.Categorization{}, err
	}

	unlock := uc.locks.lock(id)
	defer unlock()

	note, err := uc.load(ctx, id)
	if err != nil {
		return nil, domain.Categorization{}, err
	}

	categorization := uc.categorizer.Categorize(ctx, content)
	if err := ctx.Err(); err != nil {
		return nil, categorization, err
	}

	note.Title = title
	note.Content = content
	note.Categories = categorization.Labels
	note.Timestamp = uc.now()
	if err := uc.repo.Update(ctx, note); err != nil {
		return nil, categorization, fmt.Errorf("update note: %w", err)
	}

	uc.emit(ctx, domain.NoteUpdated, note.ID)
	return note, categorization, nil
}

func (uc *NoteUseCase) ToggleBookmark(ctx context.Context, id int64) (*domain.Note, error) {
	unlock := uc.locks.lock(id)
	defer unlock()

	note, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}

	note.Bookmarked = !note.Bookmarked
	if err := uc.repo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("toggle bookmark: %w", err)
	}

	uc.emit(ctx, domain.NoteUpdated, note.ID)
	return note, nil
}

func (uc *NoteUseCase) Delete(ctx context.Context, id int64) error {
	unlock := uc.locks.lock(id)
	defer unlock()

	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	uc.emit(ctx, domain.NoteDeleted, id)
	return nil
}

type recategorizeOutcome struct {
	note           *domain.Note
	categorization domain.Categorization
}

// Recategorize reruns categorization on the stored content. Concurrent calls
// for the same note share one classifier request. The shared run is detached
// from every caller's cancellation; a caller whose ctx ends stops waiting
// without failing the others.
func (uc *NoteUseCase) Recategorize(ctx context.Context, id int64) (*domain.Note, domain.Categorization, error) {
	results := uc.recategorizeGroup.DoChan(strconv.FormatInt(id, 10), func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.recategorizeTimeout)
		defer cancel()
		return uc.recategorize(runCtx, id)
	})

	select {
	case <-ctx.Done():
		return nil, domain.Categorization{}, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, domain.Categorization{}, res.Err
		}
		outcome := res.Val.(recategorizeOutcome)
		copyNote := *outcome.note
		return &copyNote, outcome.categorization, nil
	}
}

func (uc *NoteUseCase) recategorize(ctx context.Context, id int64) (recategorizeOutcome, error) {
	unlock := uc.locks.lock(id)
	defer unlock()

	note, err := uc.load(ctx, id)
	if err != nil {
		return recategorizeOutcome{}, err
	}

	categorization := uc.categorizer.Categorize(ctx, note.Content)
	if err := ctx.Err(); err != nil {
		return recategorizeOutcome{}, domain.WrapError(domain.ErrTemporary, "recategorize note", err)
	}

	note.Categories = categorization.Labels
	if err := uc.repo.Update(ctx, note); err != nil {
		return recategorizeOutcome{}, fmt.Errorf("save categories: %w", err)
	}

	uc.emit(ctx, domain.NoteUpdated, note.ID)
	return recategorizeOutcome{note: note, categorization: categorization}, nil
}

func (uc *NoteUseCase) Get(ctx context.Context, id int64) (*domain.Note, error) {
	return uc.load(ctx, id)
}

func (uc *NoteUseCase) List(ctx context.Context, filter domain.NoteFilter) ([]domain.Note, error) {
	notes, err := uc.repo.ListNewestFirst(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return filter.Apply(notes), nil
}

// Watch emits the filtered list immediately and again after every change
// until ctx is cancelled. Bursts of events collapse into one snapshot.
func (uc *NoteUseCase) Watch(ctx context.Context, filter domain.NoteFilter) (<-chan []domain.Note, error) {
	events := uc.bus.Subscribe(ctx)

	initial, err := uc.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make(chan []domain.Note, 1)
	out <- initial

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
			}
			drain(events)

			notes, err := uc.List(ctx, filter)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("note_watch_refresh_failed", "error", err)
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- notes:
			}
		}
	}()

	return out, nil
}

func drain(events <-chan domain.NoteEvent) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (uc *NoteUseCase) load(ctx context.Context, id int64) (*domain.Note, error) {
	note, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch note by id: %w", err)
	}
	return note, nil
}

func (uc *NoteUseCase) emit(ctx context.Context, kind domain.NoteEventKind, id int64) {
	event := domain.NoteEvent{
		Kind:   kind,
		NoteID: id,
		Origin: uc.origin,
		At:     uc.now(),
	}
	if uc.bus != nil {
		uc.bus.Publish(event)
	}
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.PublishNoteEvent(ctx, event); err != nil {
		slog.Warn("note_event_publish_failed", "kind", kind, "note_id", id, "error", err)
	}
}

func validateNoteInput(title *string, content string) (*string, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate note", errors.New("content must not be blank"))
	}
	if title == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*title)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > domain.MaxTitleRunes {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"validate note",
			fmt.Errorf("title longer than %d characters", domain.MaxTitleRunes),
		)
	}
	return &trimmed, nil
}

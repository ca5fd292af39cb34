package ports

import (
	"context"

	"github.com/kirillkom/notewise/internal/core/domain"
)

// NoteCommands is the inbound contract for note mutations.
type NoteCommands interface {
	Create(ctx context.Context, title *string, content string) (*domain.Note, domain.Categorization, error)
	Update(ctx context.Context, id int64, title *string, content string) (*domain.Note, domain.Categorization, error)
	ToggleBookmark(ctx context.Context, id int64) (*domain.Note, error)
	Delete(ctx context.Context, id int64) error
	Recategorize(ctx context.Context, id int64) (*domain.Note, domain.Categorization, error)
}

// NoteQueries is the inbound read model for notes.
type NoteQueries interface {
	Get(ctx context.Context, id int64) (*domain.Note, error)
	List(ctx context.Context, filter domain.NoteFilter) ([]domain.Note, error)
	Watch(ctx context.Context, filter domain.NoteFilter) (<-chan []domain.Note, error)
}

// NoteService combines commands and queries.
type NoteService interface {
	NoteCommands
	NoteQueries
}

// NoteCategorizer maps raw note text to its final category labels.
type NoteCategorizer interface {
	Categorize(ctx context.Context, text string) domain.Categorization
}

// RequestStateReader exposes the latest categorization request state.
type RequestStateReader interface {
	Current() domain.RequestState
	Subscribe(ctx context.Context) <-chan domain.RequestState
}

// BulkRecategorizer enqueues every stored note for recategorization.
type BulkRecategorizer interface {
	EnqueueAll(ctx context.Context) (int, error)
}

// AuthGate is the one-shot credential check performed at client start.
type AuthGate interface {
	Evaluate(ctx context.Context) domain.AuthResult
}

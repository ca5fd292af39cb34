package ports

import (
	"context"
	"io"

	"github.com/kirillkom/notewise/internal/core/domain"
)

// NoteRepository persists notes. IDs are assigned by the store.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	GetByID(ctx context.Context, id int64) (*domain.Note, error)
	Update(ctx context.Context, note *domain.Note) error
	Delete(ctx context.Context, id int64) error
	ListNewestFirst(ctx context.Context) ([]domain.Note, error)
}

// ZeroShotClassifier scores text against candidate labels.
type ZeroShotClassifier interface {
	Classify(ctx context.Context, req domain.ZeroShotRequest) (domain.ZeroShotResult, error)
}

// RequestStateWriter is the single producer side of the request state container.
type RequestStateWriter interface {
	Set(state domain.RequestState)
}

// NoteEventBus fans note change events out to in-process subscribers.
type NoteEventBus interface {
	Publish(event domain.NoteEvent)
	Subscribe(ctx context.Context) <-chan domain.NoteEvent
}

// NoteEventPublisher forwards note change events to other processes.
type NoteEventPublisher interface {
	PublishNoteEvent(ctx context.Context, event domain.NoteEvent) error
}

// RecategorizeQueue publishes/consumes recategorization requests.
type RecategorizeQueue interface {
	PublishRecategorize(ctx context.Context, noteID int64) error
	SubscribeRecategorize(ctx context.Context, handler func(context.Context, int64) error) error
}

// Authenticator is the platform credential capability and prompt.
type Authenticator interface {
	Capability(ctx context.Context) domain.AuthCapability
	Prompt(ctx context.Context, title, description string) domain.AuthResult
}

// TextExtractor pulls plain text out of an importable file.
type TextExtractor interface {
	Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error)
}

// NoteExporter renders notes into a downloadable document.
type NoteExporter interface {
	Export(ctx context.Context, notes []domain.Note, w io.Writer) error
}

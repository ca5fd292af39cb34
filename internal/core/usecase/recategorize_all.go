package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/notewise/internal/core/ports"
)

type RecategorizeAllUseCase struct {
	repo  ports.NoteRepository
	queue ports.RecategorizeQueue
}

func NewRecategorizeAllUseCase(repo ports.NoteRepository, queue ports.RecategorizeQueue) *RecategorizeAllUseCase {
	return &RecategorizeAllUseCase{repo: repo, queue: queue}
}

func (uc *RecategorizeAllUseCase) EnqueueAll(ctx context.Context) (int, error) {
	notes, err := uc.repo.ListNewestFirst(ctx)
	if err != nil {
		return 0, fmt.Errorf("list notes: %w", err)
	}

	for i, note := range notes {
		if err := uc.queue.PublishRecategorize(ctx, note.ID); err != nil {
			return i, fmt.Errorf("publish recategorize event: %w", err)
		}
	}
	return len(notes), nil
}

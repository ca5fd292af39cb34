package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kirillkom/notewise/internal/core/domain"
	"github.com/kirillkom/notewise/internal/core/ports"
)

type CategorizeUseCase struct {
	classifier ports.ZeroShotClassifier
	state      ports.RequestStateWriter
	policy     CategoryPolicy
}

func NewCategorizeUseCase(
	classifier ports.ZeroShotClassifier,
	state ports.RequestStateWriter,
	policy CategoryPolicy,
) *CategorizeUseCase {
	return &CategorizeUseCase{
		classifier: classifier,
		state:      state,
		policy:     policy.normalize(),
	}
}

// Categorize never fails: classifier problems degrade to the fallback label
// and are reported through Categorization.Err and the request state.
func (uc *CategorizeUseCase) Categorize(ctx context.Context, text string) domain.Categorization {
	uc.setState(domain.LoadingState())

	normalized := NormalizeText(text)
	if normalized == "" {
		return uc.fallback(domain.WrapError(domain.ErrInvalidInput, "categorize note", errors.New("empty text")))
	}

	if LooksLikeContact(normalized) {
		labels := []string{domain.CategoryContacts}
		uc.setState(domain.SuccessState(labels))
		return domain.Categorization{Labels: labels, Source: domain.SourceContactPattern}
	}

	result, err := uc.classifier.Classify(ctx, domain.ZeroShotRequest{
		Text:       normalized,
		Candidates: CandidateLabels(),
		MultiLabel: true,
	})
	if err != nil {
		return uc.fallback(err)
	}
	if len(result.Scores) == 0 {
		return uc.fallback(domain.WrapError(domain.ErrClassifier, "categorize note", errors.New("empty classification response")))
	}

	slog.Debug("categorize_scores", "scores", result.Scores)

	labels := uc.policy.Select(result.Scores)
	uc.setState(domain.SuccessState(labels))
	return domain.Categorization{Labels: labels, Source: domain.SourceClassifier}
}

func (uc *CategorizeUseCase) fallback(err error) domain.Categorization {
	slog.Warn("categorize_fallback", "fallback", uc.policy.Fallback, "error", err)
	uc.setState(domain.ErrorState(err.Error()))
	return domain.Categorization{
		Labels: []string{uc.policy.Fallback},
		Source: domain.SourceFallback,
		Err:    err,
	}
}

func (uc *CategorizeUseCase) setState(state domain.RequestState) {
	if uc.state != nil {
		uc.state.Set(state)
	}
}

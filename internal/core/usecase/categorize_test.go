package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kirillkom/notewise/internal/core/domain"
)

func TestCategorizeContactSkipsClassifier(t *testing.T) {
	classifier := &classifierFake{}
	state := &stateFake{}
	uc := NewCategorizeUseCase(classifier, state, DefaultCategoryPolicy())

	got := uc.Categorize(context.Background(), "Dentist\n+44 20 7946 0958")
	if !reflect.DeepEqual(got.Labels, []string{"Contacts"}) {
		t.Fatalf("expected [Contacts], got %v", got.Labels)
	}
	if got.Source != domain.SourceContactPattern {
		t.Fatalf("expected contact pattern source, got %s", got.Source)
	}
	if classifier.callCount() != 0 {
		t.Fatalf("classifier must not be called, got %d calls", classifier.callCount())
	}
	if state.last().Phase != domain.PhaseSuccess {
		t.Fatalf("expected success state, got %+v", state.last())
	}
}

func TestCategorizeAppliesThresholdPolicy(t *testing.T) {
	classifier := &classifierFake{result: domain.ZeroShotResult{Scores: []domain.LabelScore{
		{Label: "Work", Score: 0.4},
		{Label: "Tech", Score: 0.35},
		{Label: "Ideas", Score: 0.1},
	}}}
	state := &stateFake{}
	uc := NewCategorizeUseCase(classifier, state, DefaultCategoryPolicy())

	got := uc.Categorize(context.Background(), "  ship the\n\nrelease   notes ")
	if !reflect.DeepEqual(got.Labels, []string{"Work", "Tech"}) {
		t.Fatalf("expected [Work Tech], got %v", got.Labels)
	}
	if got.Err != nil {
		t.Fatalf("unexpected error: %v", got.Err)
	}

	req := classifier.requests[0]
	if req.Text != "ship the release notes" {
		t.Fatalf("expected normalized text, got %q", req.Text)
	}
	if !req.MultiLabel {
		t.Fatalf("expected multi-label request")
	}
	for _, label := range req.Candidates {
		if label == domain.CategoryContacts {
			t.Fatalf("Contacts sent as candidate")
		}
	}

	if len(state.states) != 2 || state.states[0].Phase != domain.PhaseLoading {
		t.Fatalf("expected loading then success, got %+v", state.states)
	}
	if !reflect.DeepEqual(state.last().Labels, []string{"Work", "Tech"}) {
		t.Fatalf("expected labels in success state, got %+v", state.last())
	}
}

func TestCategorizeLowScoresFallBackWithoutError(t *testing.T) {
	classifier := &classifierFake{result: domain.ZeroShotResult{Scores: []domain.LabelScore{
		{Label: "Work", Score: 0.3},
		{Label: "Tech", Score: 0.2},
	}}}
	uc := NewCategorizeUseCase(classifier, &stateFake{}, DefaultCategoryPolicy())

	got := uc.Categorize(context.Background(), "something vague")
	if !reflect.DeepEqual(got.Labels, []string{"Ideas"}) {
		t.Fatalf("expected [Ideas], got %v", got.Labels)
	}
	if got.Err != nil {
		t.Fatalf("low scores are not an error, got %v", got.Err)
	}
}

func TestCategorizeTransportFailureFallsBackWithErrorState(t *testing.T) {
	classifier := &classifierFake{err: errors.New("dial tcp: connection refused")}
	state := &stateFake{}
	uc := NewCategorizeUseCase(classifier, state, DefaultCategoryPolicy())

	got := uc.Categorize(context.Background(), "plan the offsite")
	if !reflect.DeepEqual(got.Labels, []string{"Ideas"}) {
		t.Fatalf("expected [Ideas], got %v", got.Labels)
	}
	if got.Err == nil {
		t.Fatalf("expected surfaced error")
	}
	if got.Source != domain.SourceFallback {
		t.Fatalf("expected fallback source, got %s", got.Source)
	}
	last := state.last()
	if last.Phase != domain.PhaseError || !strings.Contains(last.Message, "connection refused") {
		t.Fatalf("expected error state with message, got %+v", last)
	}
}

func TestCategorizeEmptyResponseFallsBack(t *testing.T) {
	uc := NewCategorizeUseCase(&classifierFake{}, &stateFake{}, DefaultCategoryPolicy())

	got := uc.Categorize(context.Background(), "anything")
	if !reflect.DeepEqual(got.Labels, []string{"Ideas"}) {
		t.Fatalf("expected [Ideas], got %v", got.Labels)
	}
	if !domain.IsKind(got.Err, domain.ErrClassifier) {
		t.Fatalf("expected classifier error kind, got %v", got.Err)
	}
}

func TestCategorizeUsesConfiguredFallback(t *testing.T) {
	policy := CategoryPolicy{Threshold: 0.5, MaxLabels: 1, Fallback: domain.CategoryPersonal}
	classifier := &classifierFake{result: domain.ZeroShotResult{Scores: []domain.LabelScore{
		{Label: "Work", Score: 0.45},
	}}}
	uc := NewCategorizeUseCase(classifier, nil, policy)

	got := uc.Categorize(context.Background(), "weekly sync")
	if !reflect.DeepEqual(got.Labels, []string{"Personal"}) {
		t.Fatalf("expected configured fallback, got %v", got.Labels)
	}
}

package usecase

import (
	"context"
	"testing"

	"github.com/kirillkom/notewise/internal/core/domain"
)

type authenticatorFake struct {
	capability domain.AuthCapability
	results    []domain.AuthResult
	prompts    int
}

func (f *authenticatorFake) Capability(context.Context) domain.AuthCapability {
	return f.capability
}

func (f *authenticatorFake) Prompt(context.Context, string, string) domain.AuthResult {
	result := f.results[f.prompts]
	f.prompts++
	return result
}

func TestAuthGateBranchesOnCapability(t *testing.T) {
	tests := []struct {
		capability domain.AuthCapability
		want       domain.AuthResult
	}{
		{domain.CapabilityNoHardware, domain.HardwareUnavailable{}},
		{domain.CapabilityHWUnavailable, domain.HardwareUnavailable{}},
		{domain.CapabilityNoneEnrolled, domain.AuthenticationNotSet{}},
	}

	for _, tt := range tests {
		auth := &authenticatorFake{capability: tt.capability}
		gate := NewAuthGateUseCase(auth, "Unlock", "")

		got := gate.Evaluate(context.Background())
		if got != tt.want {
			t.Fatalf("capability %s: got %T, want %T", tt.capability, got, tt.want)
		}
		if auth.prompts != 0 {
			t.Fatalf("capability %s: prompt must not be shown", tt.capability)
		}
		if got.Unlocked() || got.Retryable() {
			t.Fatalf("capability %s: expected blocking non-retryable result", tt.capability)
		}
	}
}

func TestAuthGateRetryAfterFailureThenRemembersSuccess(t *testing.T) {
	auth := &authenticatorFake{
		capability: domain.CapabilityAvailable,
		results: []domain.AuthResult{
			domain.AuthenticationFailed{},
			domain.AuthenticationSuccess{},
		},
	}
	gate := NewAuthGateUseCase(auth, "Unlock", "")

	first := gate.Evaluate(context.Background())
	if first.Unlocked() || !first.Retryable() {
		t.Fatalf("expected retryable failure, got %T", first)
	}

	second := gate.Evaluate(context.Background())
	if !second.Unlocked() {
		t.Fatalf("expected success on retry, got %T", second)
	}

	third := gate.Evaluate(context.Background())
	if !third.Unlocked() || auth.prompts != 2 {
		t.Fatalf("expected cached success without new prompt, prompts=%d", auth.prompts)
	}
}

func TestAuthGateErrorIsRetryable(t *testing.T) {
	auth := &authenticatorFake{
		capability: domain.CapabilityAvailable,
		results:    []domain.AuthResult{domain.AuthenticationError{Message: "cancelled"}},
	}
	got := NewAuthGateUseCase(auth, "Unlock", "").Evaluate(context.Background())

	authErr, ok := got.(domain.AuthenticationError)
	if !ok || authErr.Message != "cancelled" || !got.Retryable() {
		t.Fatalf("expected retryable authentication error, got %#v", got)
	}
}

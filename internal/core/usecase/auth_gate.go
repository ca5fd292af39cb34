package usecase

import (
	"context"
	"sync"

	"github.com/kirillkom/notewise/internal/core/domain"
	"github.com/kirillkom/notewise/internal/core/ports"
)

type AuthGateUseCase struct {
	authenticator ports.Authenticator
	title         string
	description   string

	mu       sync.Mutex
	unlocked bool
}

func NewAuthGateUseCase(authenticator ports.Authenticator, title, description string) *AuthGateUseCase {
	return &AuthGateUseCase{
		authenticator: authenticator,
		title:         title,
		description:   description,
	}
}

// Evaluate checks the credential capability and prompts once. A success is
// remembered for the rest of the process; failures are returned to the
// caller, which decides whether to offer a retry.
func (g *AuthGateUseCase) Evaluate(ctx context.Context) domain.AuthResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.unlocked {
		return domain.AuthenticationSuccess{}
	}

	switch g.authenticator.Capability(ctx) {
	case domain.CapabilityNoHardware, domain.CapabilityHWUnavailable:
		return domain.HardwareUnavailable{}
	case domain.CapabilityNoneEnrolled:
		return domain.AuthenticationNotSet{}
	}

	result := g.authenticator.Prompt(ctx, g.title, g.description)
	if _, ok := result.(domain.AuthenticationSuccess); ok {
		g.unlocked = true
	}
	return result
}

package bootstrap

import (
	"context"
	"time"

	"github.com/kirillkom/notewise/internal/core/domain"
	"github.com/kirillkom/notewise/internal/core/ports"
)

// CategorizationObserver sees every categorization outcome and its latency.
type CategorizationObserver func(result domain.Categorization, elapsed time.Duration)

type observedCategorizer struct {
	next    ports.NoteCategorizer
	observe CategorizationObserver
}

func observeCategorizer(next ports.NoteCategorizer, observe CategorizationObserver) ports.NoteCategorizer {
	return &observedCategorizer{next: next, observe: observe}
}

func (c *observedCategorizer) Categorize(ctx context.Context, text string) domain.Categorization {
	start := time.Now()
	result := c.next.Categorize(ctx, text)
	c.observe(result, time.Since(start))
	return result
}

package usecase

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kirillkom/notewise/internal/core/domain"
)

const (
	DefaultCategoryThreshold = 0.3
	DefaultCategoryMaxLabels = 3

	minContactDigits = 4
	maxContactDigits = 20
)

// contactRunPattern finds runs of digits joined by at most one separator,
// optionally preceded by "+" and a parenthesized area code.
var contactRunPattern = regexp.MustCompile(`(?:\+\s?)?(?:\(\d{1,4}\)[-.\s]?)?\d(?:[-.\s]?\d)*`)

// CategoryPolicy turns classifier scores into the final label list.
type CategoryPolicy struct {
	// Threshold is exclusive: a label needs score > Threshold to be kept.
	Threshold float64
	MaxLabels int
	Fallback  string
}

func DefaultCategoryPolicy() CategoryPolicy {
	return CategoryPolicy{
		Threshold: DefaultCategoryThreshold,
		MaxLabels: DefaultCategoryMaxLabels,
		Fallback:  domain.CategoryIdeas,
	}
}

func (p CategoryPolicy) normalize() CategoryPolicy {
	out := p
	def := DefaultCategoryPolicy()
	if out.Threshold < 0 || out.Threshold >= 1 {
		out.Threshold = def.Threshold
	}
	if out.MaxLabels <= 0 {
		out.MaxLabels = def.MaxLabels
	}
	if !domain.IsKnownCategory(out.Fallback) {
		out.Fallback = def.Fallback
	}
	return out
}

// Select keeps known labels scoring above the threshold, ordered by
// descending score (response order on ties), capped at MaxLabels. When
// nothing qualifies the fallback label is returned.
func (p CategoryPolicy) Select(scores []domain.LabelScore) []string {
	seen := make(map[string]struct{}, len(scores))
	kept := make([]domain.LabelScore, 0, len(scores))
	for _, pair := range scores {
		if !domain.IsKnownCategory(pair.Label) {
			continue
		}
		if _, dup := seen[pair.Label]; dup {
			continue
		}
		seen[pair.Label] = struct{}{}
		if pair.Score > p.Threshold {
			kept = append(kept, pair)
		}
	}

	if len(kept) == 0 {
		return []string{p.Fallback}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if len(kept) > p.MaxLabels {
		kept = kept[:p.MaxLabels]
	}

	labels := make([]string, 0, len(kept))
	for _, pair := range kept {
		labels = append(labels, pair.Label)
	}
	return labels
}

// NormalizeText trims, turns newlines into spaces and collapses whitespace runs.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// LooksLikeContact reports whether text contains a phone-number-like run of
// 4 to 20 digits.
func LooksLikeContact(text string) bool {
	for _, run := range contactRunPattern.FindAllString(text, -1) {
		digits := 0
		for _, r := range run {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits >= minContactDigits && digits <= maxContactDigits {
			return true
		}
	}
	return false
}

// CandidateLabels is the vocabulary offered to the remote classifier.
// Contacts is decided locally and never sent.
func CandidateLabels() []string {
	out := make([]string, 0, len(domain.Vocabulary)-1)
	for _, label := range domain.Vocabulary {
		if label == domain.CategoryContacts {
			continue
		}
		out = append(out, label)
	}
	return out
}

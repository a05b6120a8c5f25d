package usecase

import (
	"context"
	"fmt"
	"strings"

	"licitradar/internal/domain"
	"licitradar/internal/ports"
)

// FilterCandidates reduces a raw discovery batch to the candidates worth
// spending extraction and inference budget on: currently open for bidding,
// matching at least one positive keyword, and not already registered.
//
// Keyword matching is a cheap case-insensitive substring test, not search;
// false positives are corrected later by inference, false negatives are an
// accepted limitation. Source order is preserved.
func FilterCandidates(ctx context.Context, repo ports.TenderRepository, profile domain.Profile, batch []domain.Candidate) ([]domain.Candidate, error) {
	keywords := profile.Keywords()
	if len(keywords) == 0 {
		return nil, nil
	}

	relevant := make([]domain.Candidate, 0, len(batch))
	for _, candidate := range batch {
		if candidate.StatusCode != domain.StatusCodePublished {
			continue
		}
		if !matchesAny(candidate.Name, keywords) {
			continue
		}

		known, err := repo.Exists(ctx, candidate.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("check existing %s: %w", candidate.ExternalID, err)
		}
		if known {
			continue
		}

		relevant = append(relevant, candidate)
	}

	return relevant, nil
}

func matchesAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

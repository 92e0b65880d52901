package skumatch

import (
	"context"
	"strings"

	"github.com/JonMunkholm/merchdesk/internal/domain"
)

// Stats summarises a batch of matches.
type Stats struct {
	Total      int     `json:"total"`
	Exact      int     `json:"exact"`
	Identifier int     `json:"identifier"`
	Fuzzy      int     `json:"fuzzy"`
	None       int     `json:"none"`
	MatchRate  float64 `json:"match_rate"`
}

// Batch is the result of ResolveAll.
type Batch struct {
	Matches map[string]Match `json:"matches"`
	Stats   Stats            `json:"stats"`
}

// ResolveAll resolves each distinct non-blank SKU once. It stops at the
// first store error.
func (m *Matcher) ResolveAll(ctx context.Context, skus []string, source domain.Source) (Batch, error) {
	matches := make(map[string]Match)
	for _, sku := range skus {
		if strings.TrimSpace(sku) == "" {
			continue
		}
		if _, done := matches[sku]; done {
			continue
		}
		match, err := m.Resolve(ctx, sku, source)
		if err != nil {
			return Batch{}, err
		}
		matches[sku] = match
	}
	return Batch{Matches: matches, Stats: Statistics(matches)}, nil
}

// Statistics counts matches per tier. MatchRate is the resolved share as a
// percentage, 0 for an empty batch.
func Statistics(matches map[string]Match) Stats {
	var s Stats
	s.Total = len(matches)
	for _, m := range matches {
		switch m.Confidence {
		case Exact:
			s.Exact++
		case Identifier:
			s.Identifier++
		case Fuzzy:
			s.Fuzzy++
		case None:
			s.None++
		}
	}
	if s.Total > 0 {
		s.MatchRate = float64(s.Exact+s.Identifier+s.Fuzzy) / float64(s.Total) * 100
	}
	return s
}

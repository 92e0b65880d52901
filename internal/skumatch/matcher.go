// Package skumatch resolves vendor SKUs to catalog variants.
//
// Resolution walks four tiers and stops at the first hit:
//
//	exact       variant SKU equals the input
//	identifier  some ProductIdentifier value equals the input
//	fuzzy       trimmed, case-insensitive equality against every variant SKU
//	none        unresolved
//
// A none result is not an error. Callers record it as a warning and carry on.
package skumatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/JonMunkholm/merchdesk/internal/domain"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

// Confidence is the tier that produced a match.
type Confidence string

const (
	Exact      Confidence = "exact"
	Identifier Confidence = "identifier"
	Fuzzy      Confidence = "fuzzy"
	None       Confidence = "none"
)

// MaxSuggestions caps the closest-SKU hints attached to a none result.
const MaxSuggestions = 3

// Store is the subset of the persistence port the matcher reads.
type Store interface {
	FindVariantBySKU(ctx context.Context, sku string) (domain.Variant, error)
	FindIdentifierByValue(ctx context.Context, value string) (domain.Identifier, error)
	ListVariantRefs(ctx context.Context) ([]domain.VariantRef, error)
}

// Match is the outcome of resolving one SKU.
type Match struct {
	VariantID  uuid.NullUUID `json:"variant_id"`
	MatchedSKU string        `json:"matched_sku"`
	Confidence Confidence    `json:"confidence"`
	Source     domain.Source `json:"source"`
	// Suggestions lists near-miss catalog SKUs for unresolved input.
	// They never promote a match out of the none tier.
	Suggestions []string `json:"suggestions,omitempty"`
}

// Resolved reports whether a variant was found.
func (m Match) Resolved() bool {
	return m.VariantID.Valid
}

// Matcher resolves report SKUs to catalog variants. It is safe for
// concurrent use.
type Matcher struct {
	store Store
}

// New returns a Matcher that looks variants up in s.
func New(s Store) *Matcher {
	return &Matcher{store: s}
}

// Resolve maps sku to a variant. Empty input resolves to none without any
// lookup. Errors are returned only for store failures.
func (m *Matcher) Resolve(ctx context.Context, sku string, source domain.Source) (Match, error) {
	if source == "" {
		source = domain.SourceUnknown
	}
	miss := Match{MatchedSKU: sku, Confidence: None, Source: source}
	if strings.TrimSpace(sku) == "" {
		return miss, nil
	}

	v, err := m.store.FindVariantBySKU(ctx, sku)
	switch {
	case err == nil:
		return found(v.ID, v.SKU, Exact, source), nil
	case !errors.Is(err, store.ErrNotFound):
		return miss, fmt.Errorf("exact lookup %q: %w", sku, err)
	}

	id, err := m.store.FindIdentifierByValue(ctx, sku)
	switch {
	case err == nil:
		return found(id.VariantID, sku, Identifier, source), nil
	case !errors.Is(err, store.ErrNotFound):
		return miss, fmt.Errorf("identifier lookup %q: %w", sku, err)
	}

	refs, err := m.store.ListVariantRefs(ctx)
	if err != nil {
		return miss, fmt.Errorf("variant scan for %q: %w", sku, err)
	}

	want := normalize(sku)
	for _, ref := range refs {
		if normalize(ref.SKU) == want {
			return found(ref.ID, ref.SKU, Fuzzy, source), nil
		}
	}

	miss.Suggestions = suggest(want, refs)
	return miss, nil
}

func found(id uuid.UUID, sku string, c Confidence, source domain.Source) Match {
	return Match{
		VariantID:  uuid.NullUUID{UUID: id, Valid: true},
		MatchedSKU: sku,
		Confidence: c,
		Source:     source,
	}
}

func normalize(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

func suggest(want string, refs []domain.VariantRef) []string {
	if len(refs) == 0 {
		return nil
	}
	skus := make([]string, len(refs))
	for i, r := range refs {
		skus[i] = r.SKU
	}

	// Both directions: the input may be a fragment of a catalog SKU, or a
	// catalog SKU may be a fragment of a decorated vendor SKU.
	ranks := fuzzy.RankFindNormalizedFold(want, skus)
	for _, sku := range skus {
		if want != "" && fuzzy.MatchNormalizedFold(sku, want) {
			ranks = append(ranks, fuzzy.Rank{Source: want, Target: sku, Distance: fuzzy.LevenshteinDistance(want, strings.ToUpper(sku))})
		}
	}
	sort.Sort(ranks)

	var out []string
	seen := map[string]bool{}
	for _, r := range ranks {
		if seen[r.Target] {
			continue
		}
		seen[r.Target] = true
		out = append(out, r.Target)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}

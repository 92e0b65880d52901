// Package importer turns vendor CSV exports into catalog, sales and
// inventory records.
//
// Each importer processes rows one at a time. A failing row is recorded in
// the result and the run continues; only setup failures (no rows, unknown
// tour) end a run early. Results carry an error list, which decides
// success, and a warning list for skipped or partially imported rows.
package importer

import (
	"context"
	"strings"
	"time"

	"github.com/JonMunkholm/merchdesk/internal/csvparse"
	"github.com/JonMunkholm/merchdesk/internal/domain"
	"github.com/JonMunkholm/merchdesk/internal/ledger"
	"github.com/JonMunkholm/merchdesk/internal/logging"
	"github.com/JonMunkholm/merchdesk/internal/skumatch"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

const errNoRows = "No data found in CSV file"

// base holds the collaborators every importer shares.
type base struct {
	name    string
	source  domain.Source
	store   store.Store
	matcher *skumatch.Matcher
	ledger  *ledger.Ledger
	now     func() time.Time
}

// Option configures an importer.
type Option func(*base)

// WithClock replaces time.Now, which decides "today" for pricing periods
// and count timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithSource overrides the importer's default data source.
func WithSource(s domain.Source) Option {
	return func(b *base) { b.source = s }
}

func newBase(name string, source domain.Source, s store.Store, opts []Option) base {
	b := base{
		name:    name,
		source:  source,
		store:   s,
		matcher: skumatch.New(s),
		ledger:  ledger.New(s),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) today() time.Time {
	return domain.Date(b.now())
}

// resolve looks up sku and counts the outcome. A store failure degrades to
// an unresolved match plus a warning.
func (b *base) resolve(ctx context.Context, r *Report, sku string) skumatch.Match {
	m, err := b.matcher.Resolve(ctx, sku, b.source)
	if err != nil {
		r.warnf("SKU lookup failed for %s: %v", sku, err)
	}
	observeMatch(b.name, m.Confidence)
	return m
}

// cancelled records a cancellation error and reports whether the run must stop.
func cancelled(ctx context.Context, r *Report) bool {
	if err := ctx.Err(); err != nil {
		r.errorf("Import cancelled: %v", err)
		return true
	}
	return false
}

// complete finalises r, records metrics and writes the run summary log line.
func (b *base) complete(ctx context.Context, r *Report, started time.Time, counts []Count) {
	r.finish()
	observeRun(b.name, *r, started)

	args := []any{"rows", r.Rows, "errors", len(r.Errors), "warnings", len(r.Warnings),
		"duration", time.Since(started).Round(time.Millisecond)}
	for _, c := range counts {
		args = append(args, c.Label, c.N)
	}
	log := logging.WithFields(ctx, "importer", b.name, "source", b.source)
	if r.Success {
		log.Info("import complete", args...)
	} else {
		log.Warn("import finished with errors", args...)
	}
}

func notFoundSuffix(m skumatch.Match) string {
	if len(m.Suggestions) == 0 {
		return ""
	}
	return " (closest: " + strings.Join(m.Suggestions, ", ") + ")"
}

func parse(content string) []csvparse.Row {
	return csvparse.Parse(content, csvparse.Options{})
}

package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/merchdesk/internal/csvparse"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

// Kind names an importer.
type Kind string

const (
	KindCatalog     Kind = "catalog"
	KindSales       Kind = "sales"
	KindVenueSales  Kind = "venue-sales"
	KindVenueTotals Kind = "venue-totals"
	KindMetadata    Kind = "metadata"
)

// Kinds lists every importer in the order they are offered to clients.
var Kinds = []Kind{KindCatalog, KindSales, KindVenueSales, KindVenueTotals, KindMetadata}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown import kind %q", s)
}

// NeedsTour reports whether the importer must be given a tour.
func (k Kind) NeedsTour() bool {
	return k == KindVenueSales || k == KindVenueTotals
}

// ErrTourRequired is returned by Run when a venue import has no tour.
var ErrTourRequired = errors.New("tour id is required for venue imports")

// Request is one import job.
type Request struct {
	Kind   Kind
	Rows   []csvparse.Row
	TourID uuid.NullUUID
	ShowID uuid.NullUUID
}

// Runner runs import jobs against one store, one at a time per limiter slot
// and each within a timeout.
type Runner struct {
	store   store.Store
	limiter *Limiter
	timeout time.Duration
	opts    []Option
}

// NewRunner returns a Runner over s. A nil limiter allows one import at
// a time; a zero timeout means imports run until ctx ends.
func NewRunner(s store.Store, limiter *Limiter, timeout time.Duration, opts ...Option) *Runner {
	if limiter == nil {
		limiter = NewLimiter(1, 0)
	}
	return &Runner{store: s, limiter: limiter, timeout: timeout, opts: opts}
}

// Limiter returns the limiter the runner acquires slots from.
func (r *Runner) Limiter() *Limiter { return r.limiter }

// Run validates req, waits for a slot and dispatches to the importer. The
// returned error covers only rejected requests; row problems are in the
// Result.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	if req.Kind.NeedsTour() && !req.TourID.Valid {
		return nil, ErrTourRequired
	}

	if err := r.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer r.limiter.Release()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	switch req.Kind {
	case KindCatalog:
		return NewCatalog(r.store, r.opts...).ImportRows(ctx, req.Rows), nil
	case KindSales:
		return NewSales(r.store, r.opts...).ImportRows(ctx, req.Rows), nil
	case KindVenueSales:
		opts := VenueSalesOptions{TourID: req.TourID.UUID, ShowID: req.ShowID}
		return NewVenueSales(r.store, r.opts...).ImportRows(ctx, req.Rows, opts), nil
	case KindVenueTotals:
		return NewVenueTotals(r.store, r.opts...).ImportRows(ctx, req.Rows, req.TourID.UUID), nil
	case KindMetadata:
		return NewMetadata(r.store, r.opts...).ImportRows(ctx, req.Rows), nil
	default:
		return nil, fmt.Errorf("unknown import kind %q", req.Kind)
	}
}

// Package store defines the persistence port used by the importers, the
// SKU matcher and the inventory ledger.
//
// Composite-key writes are expressed as find-then-create-or-update pairs
// rather than native upserts, so any backend with plain lookups and
// inserts can implement Store.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/merchdesk/internal/domain"
)

// ErrNotFound is returned by Find/Get methods when no row matches.
var ErrNotFound = errors.New("not found")

// NotFoundError names the missing entity while still matching ErrNotFound.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a NotFoundError.
func NotFound(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}

// Catalog covers products, variants, identifiers, pricing and metadata.
type Catalog interface {
	FindProductBySourceID(ctx context.Context, source domain.Source, sourceID string) (domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	CountProducts(ctx context.Context) (int, error)

	FindVariantBySKU(ctx context.Context, sku string) (domain.Variant, error)
	ListVariantRefs(ctx context.Context) ([]domain.VariantRef, error)
	CreateVariant(ctx context.Context, v *domain.Variant) error

	FindIdentifierByValue(ctx context.Context, value string) (domain.Identifier, error)
	FindIdentifier(ctx context.Context, identifierType, value string) (domain.Identifier, error)
	CreateIdentifier(ctx context.Context, id *domain.Identifier) error
	UpdateIdentifierVariant(ctx context.Context, id, variantID uuid.UUID) error

	FindPricing(ctx context.Context, key domain.PricingKey) (domain.Pricing, error)
	CreatePricing(ctx context.Context, p *domain.Pricing) error
	UpdatePricingAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error

	FindMetadata(ctx context.Context, variantID uuid.UUID) (domain.Metadata, error)
	CreateMetadata(ctx context.Context, m *domain.Metadata) error
	UpdateMetadata(ctx context.Context, m *domain.Metadata) error
}

// Inventory covers current-state rows and the transaction log.
type Inventory interface {
	FindInventoryState(ctx context.Context, key domain.StateKey) (domain.InventoryStateRow, error)
	ListInventoryStates(ctx context.Context, variantID uuid.UUID) ([]domain.InventoryStateRow, error)
	CreateInventoryState(ctx context.Context, s *domain.InventoryStateRow) error
	UpdateInventoryState(ctx context.Context, id uuid.UUID, quantity int, lastCountedAt *time.Time) error
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
}

// Sales covers online orders, tours, shows and venue sales.
type Sales interface {
	SalesOrderExists(ctx context.Context, orderNumber int64, sku string) (bool, error)
	CreateSalesOrder(ctx context.Context, o *domain.SalesOrder) error

	GetTour(ctx context.Context, id uuid.UUID) (domain.Tour, error)
	GetShow(ctx context.Context, id uuid.UUID) (domain.Show, error)
	EarliestShow(ctx context.Context, tourID uuid.UUID) (domain.Show, error)
	FindShow(ctx context.Context, tourID uuid.UUID, venue string, date time.Time) (domain.Show, error)
	CreateShow(ctx context.Context, s *domain.Show) error

	CreateTourSale(ctx context.Context, s *domain.TourSale) error
	VenueNightTotalExists(ctx context.Context, showID uuid.UUID, saleDate time.Time) (bool, error)
	CreateVenueNightTotal(ctx context.Context, t *domain.VenueNightTotal) error
}

// Store is the full persistence port.
type Store interface {
	Catalog
	Inventory
	Sales
}

// Package domain defines the merchandise catalog, inventory and sales
// entities shared by the importers, the ledger and the stores.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uuid.UUID
	Source      Source
	SourceID    string
	Handle      string
	Title       string
	Description string
	Vendor      string
	Type        string
	Tags        []string
	ImageURLs   []string
	Published   bool
	CreatedAt   time.Time
}

// Option is one (name, value) pair of a variant, e.g. ("Size", "M").
type Option struct {
	Name  string
	Value string
}

type Variant struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	SKU        string
	Name       string
	Options    [3]Option
	Weight     decimal.NullDecimal
	WeightUnit string
	Barcode    string
	CreatedAt  time.Time
}

// Identifier maps a variant to an alias used by some source.
// (Type, Value) is unique.
type Identifier struct {
	ID        uuid.UUID
	VariantID uuid.UUID
	Type      string
	Value     string
	Source    Source
	CreatedAt time.Time
}

// PricingKey is the uniqueness key of a ProductPricing row.
type PricingKey struct {
	VariantID     uuid.UUID
	PriceType     PriceType
	Source        Source
	EffectiveFrom time.Time
}

type Pricing struct {
	ID uuid.UUID
	PricingKey
	Amount      decimal.Decimal
	EffectiveTo *time.Time
	UpdatedAt   time.Time
}

// StateKey identifies one InventoryStateRow. TourID is null for
// locations that are not tied to a tour.
type StateKey struct {
	VariantID uuid.UUID
	State     InventoryState
	TourID    uuid.NullUUID
}

// InventoryStateRow is the current quantity held for a StateKey.
// Quantity is never negative.
type InventoryStateRow struct {
	ID uuid.UUID
	StateKey
	Quantity        int
	LocationDetails string
	LastCountedAt   *time.Time
	UpdatedAt       time.Time
}

// Transaction is an append-only record of a quantity movement.
// Sales and comps carry a negative Quantity.
type Transaction struct {
	ID        uuid.UUID
	VariantID uuid.UUID
	Type      TransactionType
	FromState InventoryState
	ToState   InventoryState
	Quantity  int
	TourID    uuid.NullUUID
	ShowID    uuid.NullUUID
	Date      time.Time
	Source    Source
	Notes     string
	CreatedAt time.Time
}

// SalesOrder is one line of an online order. (OrderNumber, SKU) is unique.
type SalesOrder struct {
	ID          uuid.UUID
	OrderNumber int64
	OrderDate   time.Time
	ProductName string
	VariantID   uuid.NullUUID
	SKU         string
	Quantity    int
	GrossSales  decimal.Decimal
	Discounts   decimal.Decimal
	NetSales    decimal.Decimal
	Commission  decimal.Decimal
	Deduction   decimal.Decimal
	Payout      decimal.Decimal
	Source      Source
	CreatedAt   time.Time
}

type Tour struct {
	ID        uuid.UUID
	Name      string
	StartDate *time.Time
	EndDate   *time.Time
}

// Show is one date of a tour. (TourID, Venue, Date) is unique.
type Show struct {
	ID        uuid.UUID
	TourID    uuid.UUID
	Venue     string
	City      string
	State     string
	Date      time.Time
	CreatedAt time.Time
}

// TourSale records units sold, or comped, at a show.
type TourSale struct {
	ID           uuid.UUID
	ShowID       uuid.UUID
	VariantID    uuid.NullUUID
	QuantitySold int
	IsComp       bool
	UnitPrice    decimal.NullDecimal
	GrossRevenue decimal.NullDecimal
	SaleDate     time.Time
	Source       Source
	SourceData   map[string]string
	CreatedAt    time.Time
}

// VenueNightTotal is the aggregate receipts of one show night.
// (ShowID, SaleDate) is unique.
type VenueNightTotal struct {
	ID            uuid.UUID
	ShowID        uuid.UUID
	TotalReceipts decimal.Decimal
	TotalFees     decimal.Decimal
	NetReceipts   decimal.Decimal
	SaleDate      time.Time
	Source        Source
	CreatedAt     time.Time
}

// Metadata holds purchasing details for a variant. One row per variant.
type Metadata struct {
	ID                   uuid.UUID
	VariantID            uuid.UUID
	Category             string
	SupplierManufacturer string
	DatePurchased        *time.Time
	UnitsPurchased       *int
	PrintingCost         decimal.NullDecimal
	PackagingCost        decimal.NullDecimal
	WholesaleCostPerUnit decimal.NullDecimal
	TaxPaid              decimal.NullDecimal
	UpdatedAt            time.Time
}

// VariantRef is the minimal projection used for client-side SKU scans.
type VariantRef struct {
	ID  uuid.UUID
	SKU string
}

// Date truncates t to a calendar date in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

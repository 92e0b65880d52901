package domain

import "fmt"

// InventoryState names the location bucket a quantity sits in.
type InventoryState string

const (
	StateWarehouse InventoryState = "warehouse"
	StateTransfer  InventoryState = "transfer"
	StateTourStart InventoryState = "tour_start"
	StateVenue     InventoryState = "venue"
	StateTour      InventoryState = "tour"
)

// InventoryStates lists every state in display order.
var InventoryStates = []InventoryState{StateWarehouse, StateTransfer, StateTourStart, StateVenue, StateTour}

func (s InventoryState) Valid() bool {
	switch s {
	case StateWarehouse, StateTransfer, StateTourStart, StateVenue, StateTour:
		return true
	}
	return false
}

// ParseInventoryState converts a stored value back into an InventoryState.
func ParseInventoryState(v string) (InventoryState, error) {
	s := InventoryState(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown inventory state %q", v)
	}
	return s, nil
}

// PriceType classifies a ProductPricing row.
type PriceType string

const (
	PriceRetail    PriceType = "retail"
	PriceWholesale PriceType = "wholesale"
	PriceTour      PriceType = "tour"
	PriceCompareAt PriceType = "compare_at"
)

func (p PriceType) Valid() bool {
	switch p {
	case PriceRetail, PriceWholesale, PriceTour, PriceCompareAt:
		return true
	}
	return false
}

func ParsePriceType(v string) (PriceType, error) {
	p := PriceType(v)
	if !p.Valid() {
		return "", fmt.Errorf("unknown price type %q", v)
	}
	return p, nil
}

// TransactionType classifies an inventory movement.
type TransactionType string

const (
	TxSale       TransactionType = "sale"
	TxTransfer   TransactionType = "transfer"
	TxAdjustment TransactionType = "adjustment"
	TxComp       TransactionType = "comp"
	TxShipment   TransactionType = "shipment"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxSale, TxTransfer, TxAdjustment, TxComp, TxShipment:
		return true
	}
	return false
}

func ParseTransactionType(v string) (TransactionType, error) {
	t := TransactionType(v)
	if !t.Valid() {
		return "", fmt.Errorf("unknown transaction type %q", v)
	}
	return t, nil
}

// Source identifies the system a batch of data came from.
type Source string

const (
	SourceAmbientInks Source = "ambient_inks"
	SourceAtVenue     Source = "atvenue"
	SourceDirtwire    Source = "dirtwire"
	SourceManual      Source = "manual"
	SourceUnknown     Source = "unknown"
)

// IdentifierType is the ProductIdentifier type this source tags its own SKUs with.
func (s Source) IdentifierType() string {
	return string(s) + "_sku"
}

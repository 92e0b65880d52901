package importer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/merchdesk/internal/domain"
	"github.com/JonMunkholm/merchdesk/internal/importer"
	"github.com/JonMunkholm/merchdesk/internal/store/memstore"
)

const salesHeader = "Order #,Order Date,Name,Product ID,SKU,QTY,Gross Sales,Discounts,Net sales,Commission,Deduction,Payout\n"

func seededCatalog(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	res := importer.NewCatalog(s, importer.WithClock(fixedClock(1))).Import(context.Background(), teeCatalog)
	require.True(t, res.Success, "errors: %v", res.Errors)
	return s
}

func TestCatalogThenSaleReducesWarehouse(t *testing.T) {
	s := seededCatalog(t)
	small := s.VariantID("TS-S")

	res := importer.NewSales(s).Import(context.Background(),
		salesHeader+"1001,2024-03-02,Logo Tee - S,p1,TS-S,2,$40.00,0,$40.00,$4.00,0,$36.00\n")
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 1, res.OrdersCreated)
	assert.Equal(t, 1, res.TransactionsCreated)

	orders := s.SalesOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, int64(1001), orders[0].OrderNumber)
	assert.Equal(t, uuid.NullUUID{UUID: small, Valid: true}, orders[0].VariantID)
	assert.True(t, orders[0].Payout.Equal(decimal.RequireFromString("36")))

	txs := s.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TxSale, txs[0].Type)
	assert.Equal(t, -2, txs[0].Quantity)
	assert.Equal(t, domain.StateWarehouse, txs[0].FromState)
	assert.Equal(t, "Online sale - Order #1001", txs[0].Notes)

	assert.Equal(t, 3, s.StateQuantity(warehouse(small)))
	assert.Equal(t, 3, s.StateQuantity(warehouse(s.VariantID("TS-M"))))
}

func TestSalesImportIsIdempotent(t *testing.T) {
	s := seededCatalog(t)
	csv := salesHeader + "1001,2024-03-02,Logo Tee - S,p1,TS-S,2,40,0,40,0,0,40\n"

	importer.NewSales(s).Import(context.Background(), csv)
	res := importer.NewSales(s).Import(context.Background(), csv)

	assert.True(t, res.Success)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 0, res.OrdersCreated)
	assert.Len(t, s.SalesOrders(), 1)
	assert.Len(t, s.Transactions(), 1)
	assert.Equal(t, 3, s.StateQuantity(warehouse(s.VariantID("TS-S"))))
}

func TestSalesStockNeverGoesNegative(t *testing.T) {
	s := seededCatalog(t)
	res := importer.NewSales(s).Import(context.Background(),
		salesHeader+"1002,2024-03-02,Logo Tee - M,p1,TS-M,10,200,0,200,0,0,200\n")

	require.True(t, res.Success)
	assert.Equal(t, 0, s.StateQuantity(warehouse(s.VariantID("TS-M"))))
	assert.Equal(t, -10, s.Transactions()[0].Quantity)
}

func TestSalesRowHandling(t *testing.T) {
	t.Run("missing order number", func(t *testing.T) {
		s := seededCatalog(t)
		res := importer.NewSales(s).Import(context.Background(), salesHeader+",2024-03-02,Tee,p1,TS-S,1,20,0,20,0,0,20\n")
		assert.True(t, res.Success)
		assert.Equal(t, []string{"Order without order number (line 2)"}, res.Warnings)
		assert.Empty(t, s.SalesOrders())
	})

	t.Run("invalid date", func(t *testing.T) {
		s := seededCatalog(t)
		res := importer.NewSales(s).Import(context.Background(), salesHeader+"1003,someday,Tee,p1,TS-S,1,20,0,20,0,0,20\n")
		assert.Equal(t, []string{"Order 1003 has invalid date: someday"}, res.Warnings)
		assert.Empty(t, s.SalesOrders())
	})

	t.Run("unknown sku still records the order", func(t *testing.T) {
		s := seededCatalog(t)
		res := importer.NewSales(s).Import(context.Background(), salesHeader+"1004,2024-03-02,Hat,p9,HAT-1,1,15,0,15,0,0,15\n")
		assert.True(t, res.Success)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "SKU not found for order 1004: HAT-1")
		assert.Equal(t, 1, res.OrdersCreated)
		assert.Equal(t, 0, res.TransactionsCreated)
		assert.False(t, s.SalesOrders()[0].VariantID.Valid)
		assert.Empty(t, s.Transactions())
	})

	t.Run("blank sku orders are idempotent", func(t *testing.T) {
		s := seededCatalog(t)
		csv := salesHeader + "1005,2024-03-02,Gift Card,,,1,25,0,25,0,0,25\n"
		importer.NewSales(s).Import(context.Background(), csv)
		res := importer.NewSales(s).Import(context.Background(), csv)
		assert.Empty(t, res.Warnings)
		assert.Len(t, s.SalesOrders(), 1)
	})

	t.Run("transaction failure is a warning", func(t *testing.T) {
		s := seededCatalog(t)
		s.FailOn("CreateTransaction", errors.New("conn reset"))
		res := importer.NewSales(s).Import(context.Background(), salesHeader+"1006,2024-03-02,Tee,p1,TS-S,1,20,0,20,0,0,20\n")
		assert.True(t, res.Success)
		assert.Equal(t, 1, res.OrdersCreated)
		assert.Equal(t, 0, res.TransactionsCreated)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "Failed to create transaction for order 1006")
		assert.Equal(t, 5, s.StateQuantity(warehouse(s.VariantID("TS-S"))))
	})

	t.Run("order failure is an error", func(t *testing.T) {
		s := seededCatalog(t)
		s.FailOn("CreateSalesOrder", errors.New("conn reset"))
		res := importer.NewSales(s).Import(context.Background(), salesHeader+"1007,2024-03-02,Tee,p1,TS-S,1,20,0,20,0,0,20\n")
		assert.False(t, res.Success)
		assert.Equal(t, []string{"Error importing order 1007: create sales order: conn reset"}, res.Errors)
	})

	t.Run("zero quantity records no movement", func(t *testing.T) {
		s := seededCatalog(t)
		res := importer.NewSales(s).Import(context.Background(), salesHeader+"1008,2024-03-02,Tee,p1,TS-S,0,0,0,0,0,0,0\n")
		assert.Equal(t, 1, res.OrdersCreated)
		assert.Empty(t, s.Transactions())
	})
}

package service

import (
	"context"
	"errors"
	"testing"

	"mobile-pos/internal/config"
	"mobile-pos/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingObserver struct {
	completed int
	rejected  []string
}

func (o *recordingObserver) CheckoutCompleted(*domain.Sale) { o.completed++ }
func (o *recordingObserver) CheckoutRejected(reason string) { o.rejected = append(o.rejected, reason) }

func TestCheckout_SingleItemNoDiscount(t *testing.T) {
	store := newMemoryStore()
	item := addItem(t, store, domain.CategoryAccessories, "999.99", 5)

	sale, err := newBilling(store).Checkout(context.Background(), domain.Cart{
		CustomerName: "Asha",
		Lines:        []domain.CartLine{{CatalogItemID: item.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.True(t, sale.Subtotal.Equal(dec("999.99")))
	assert.True(t, sale.DiscountAmount.IsZero())
	assert.True(t, sale.FinalAmount.Equal(dec("999.99")))
	assert.Equal(t, domain.PaymentCash, sale.PaymentMethod)
	assert.Equal(t, domain.SaleCompleted, sale.Status)
}

func TestCheckout_PercentDiscount(t *testing.T) {
	store := newMemoryStore()
	item := addItem(t, store, domain.CategoryChargers, "100.00", 5)

	sale, err := newBilling(store).Checkout(context.Background(), domain.Cart{
		CustomerName:    "Ravi",
		Lines:           []domain.CartLine{{CatalogItemID: item.ID, Quantity: 2}},
		DiscountPercent: dec("10"),
	})
	require.NoError(t, err)

	assert.True(t, sale.Subtotal.Equal(dec("200.00")))
	assert.True(t, sale.DiscountAmount.Equal(dec("20.00")))
	assert.True(t, sale.FinalAmount.Equal(dec("180.00")))

	stored, err := store.Repos().Catalog.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.StockQuantity)
}

func TestCheckout_AllocatesSerial(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	phone := addItem(t, store, domain.CategoryPhones, "500.00", 2, "IMEI1", "IMEI2")

	sale, err := newBilling(store).Checkout(ctx, domain.Cart{
		CustomerName: "Meera",
		Lines:        []domain.CartLine{{CatalogItemID: phone.ID, Quantity: 1, Serial: "IMEI1"}},
	})
	require.NoError(t, err)
	require.Len(t, sale.Lines, 1)
	assert.Equal(t, "IMEI1", sale.Lines[0].ItemSKU)

	available, err := NewSerialRegistry(store, zap.NewNop()).ListAvailable(ctx, phone.ID)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "IMEI2", available[0].Serial)

	sold, err := store.Repos().Serials.FindBySerial(ctx, phone.ID, "IMEI1")
	require.NoError(t, err)
	assert.True(t, sold.Sold)
	require.NotNil(t, sold.SaleLineID)
	assert.Equal(t, sale.Lines[0].ID, *sold.SaleLineID)
}

func TestCheckout_LostSerialRaceLeavesNoTrace(t *testing.T) {
	base := newMemoryStore()
	ctx := context.Background()
	phone := addItem(t, base, domain.CategoryPhones, "500.00", 2, "IMEI1", "IMEI2")
	charger := addItem(t, base, domain.CategoryChargers, "20.00", 10)

	observer := &recordingObserver{}
	store := &racingStore{Store: base, itemID: phone.ID, serial: "IMEI1"}
	svc := NewBillingService(store, noTax, observer, zap.NewNop())

	// The race marks IMEI1 sold before the transaction; capture state after it.
	before := takeSnapshot(t, base, phone, charger)
	before.sold["IMEI1"] = true

	_, err := svc.Checkout(ctx, domain.Cart{
		CustomerName: "Kiran",
		Lines: []domain.CartLine{
			{CatalogItemID: charger.ID, Quantity: 3},
			{CatalogItemID: phone.ID, Quantity: 1, Serial: "IMEI1"},
		},
	})

	var conflict *domain.AllocationConflictError
	require.True(t, errors.As(err, &conflict), "expected allocation conflict, got %v", err)
	assert.Equal(t, 2, conflict.Line)
	assert.Equal(t, "IMEI1", conflict.Serial)
	assert.ErrorIs(t, err, domain.ErrAllocationConflict)

	assert.Equal(t, before, takeSnapshot(t, base, phone, charger))
	assert.Equal(t, []string{"allocation_conflict"}, observer.rejected)
}

func TestCheckout_SoldSerialRejectedBeforeWriting(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	phone := addItem(t, store, domain.CategoryPhones, "500.00", 2, "IMEI1")
	svc := newBilling(store)

	_, err := svc.Checkout(ctx, domain.Cart{
		CustomerName: "A",
		Lines:        []domain.CartLine{{CatalogItemID: phone.ID, Quantity: 1, Serial: "IMEI1"}},
	})
	require.NoError(t, err)

	before := takeSnapshot(t, store, phone)
	_, err = svc.Checkout(ctx, domain.Cart{
		CustomerName: "B",
		Lines:        []domain.CartLine{{CatalogItemID: phone.ID, Quantity: 1, Serial: "IMEI1"}},
	})

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Issues, "serial already sold for line 1")
	assert.Equal(t, before, takeSnapshot(t, store, phone))
}

func TestCheckout_ValidationIssues(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	phone := addItem(t, store, domain.CategoryPhones, "500.00", 2, "IMEI1", "IMEI2")
	charger := addItem(t, store, domain.CategoryChargers, "20.00", 1)
	svc := newBilling(store)

	tests := []struct {
		name  string
		cart  domain.Cart
		issue string
	}{
		{
			name:  "missing customer",
			cart:  domain.Cart{Lines: []domain.CartLine{{CatalogItemID: charger.ID, Quantity: 1}}},
			issue: "missing customer",
		},
		{
			name:  "empty cart",
			cart:  domain.Cart{CustomerName: "A"},
			issue: "empty cart",
		},
		{
			name:  "zero quantity",
			cart:  domain.Cart{CustomerName: "A", Lines: []domain.CartLine{{CatalogItemID: charger.ID, Quantity: 0}}},
			issue: "invalid quantity for line 1",
		},
		{
			name:  "stock exceeded",
			cart:  domain.Cart{CustomerName: "A", Lines: []domain.CartLine{{CatalogItemID: charger.ID, Quantity: 2}}},
			issue: "insufficient stock for line 1",
		},
		{
			name:  "phone without serial",
			cart:  domain.Cart{CustomerName: "A", Lines: []domain.CartLine{{CatalogItemID: phone.ID, Quantity: 1}}},
			issue: "missing serial for line 1",
		},
		{
			name: "same serial twice",
			cart: domain.Cart{CustomerName: "A", Lines: []domain.CartLine{
				{CatalogItemID: phone.ID, Quantity: 1, Serial: "IMEI1"},
				{CatalogItemID: phone.ID, Quantity: 1, Serial: "IMEI1"},
			}},
			issue: "duplicate serial for line 2 (already on line 1)",
		},
		{
			name:  "unknown serial",
			cart:  domain.Cart{CustomerName: "A", Lines: []domain.CartLine{{CatalogItemID: phone.ID, Quantity: 1, Serial: "IMEI9"}}},
			issue: "unknown serial for line 1",
		},
		{
			name:  "serial on accessory",
			cart:  domain.Cart{CustomerName: "A", Lines: []domain.CartLine{{CatalogItemID: charger.ID, Quantity: 1, Serial: "X"}}},
			issue: "serial not applicable for line 1",
		},
		{
			name:  "negative price override",
			cart:  domain.Cart{CustomerName: "A", Lines: []domain.CartLine{{CatalogItemID: charger.ID, Quantity: 1, UnitPrice: decPtr("-1")}}},
			issue: "negative unit price for line 1",
		},
		{
			name:  "bad payment",
			cart:  domain.Cart{CustomerName: "A", PaymentMethod: "cheque", Lines: []domain.CartLine{{CatalogItemID: charger.ID, Quantity: 1}}},
			issue: `invalid payment method "cheque"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := takeSnapshot(t, store, phone, charger)

			_, err := svc.Checkout(ctx, tt.cart)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
			assert.Contains(t, verr.Issues, tt.issue)
			assert.Equal(t, before, takeSnapshot(t, store, phone, charger))
		})
	}
}

func TestCheckout_DiscontinuedItem(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	item := addItem(t, store, domain.CategoryCases, "10.00", 5)
	item.Status = domain.StatusDiscontinued
	require.NoError(t, store.Repos().Catalog.Update(ctx, item))

	_, err := newBilling(store).Checkout(ctx, domain.Cart{
		CustomerName: "A",
		Lines:        []domain.CartLine{{CatalogItemID: item.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorContains(t, err, "item discontinued for line 1")
}

func TestCheckout_LastUnitMarksOutOfStock(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	item := addItem(t, store, domain.CategoryCases, "10.00", 1)

	_, err := newBilling(store).Checkout(ctx, domain.Cart{
		CustomerName: "A",
		Lines:        []domain.CartLine{{CatalogItemID: item.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	stored, err := store.Repos().Catalog.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.StockQuantity)
	assert.Equal(t, domain.StatusOutOfStock, stored.Status)
}

func TestCheckout_RoundTripsLines(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	a := addItem(t, store, domain.CategoryCases, "12.50", 10)
	b := addItem(t, store, domain.CategoryChargers, "7.25", 10)

	sale, err := newBilling(store).Checkout(ctx, domain.Cart{
		CustomerName: "A",
		Lines: []domain.CartLine{
			{CatalogItemID: a.ID, Quantity: 3},
			{CatalogItemID: b.ID, Quantity: 2, UnitPrice: decPtr("6.00")},
		},
	})
	require.NoError(t, err)

	stored, err := NewSaleService(store, zap.NewNop()).Get(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 2)
	for _, line := range stored.Lines {
		assert.True(t, line.LineTotal.Equal(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))))
	}
	assert.True(t, stored.Subtotal.Equal(dec("49.50")))
}

func TestCheckout_RejectsSubCentPrices(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	odd := addItem(t, store, domain.CategoryAccessories, "0.335", 10)
	even := addItem(t, store, domain.CategoryCases, "2.00", 10)
	before := takeSnapshot(t, store, odd)

	_, err := newBilling(store).Checkout(ctx, domain.Cart{
		CustomerName: "Kiran",
		Lines: []domain.CartLine{
			{CatalogItemID: odd.ID, Quantity: 3},
			{CatalogItemID: even.ID, Quantity: 1, UnitPrice: decPtr("1.005")},
			{CatalogItemID: even.ID, Quantity: 1, UnitPrice: decPtr("1.500")},
		},
	})

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	assert.Equal(t, []string{
		"unit price has more than 2 decimal places for line 1",
		"unit price has more than 2 decimal places for line 2",
	}, verr.Issues)
	assert.Equal(t, before, takeSnapshot(t, store, odd))
}

func TestQuote_DoesNotWrite(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	phone := addItem(t, store, domain.CategoryPhones, "500.00", 1, "IMEI1")
	before := takeSnapshot(t, store, phone)

	sale, err := newBilling(store).Quote(ctx, domain.Cart{
		CustomerName: "A",
		Lines:        []domain.CartLine{{CatalogItemID: phone.ID, Quantity: 1, Serial: "IMEI1"}},
	})
	require.NoError(t, err)
	assert.True(t, sale.FinalAmount.Equal(dec("500.00")))
	assert.Equal(t, uuid.Nil, sale.ID)
	for _, line := range sale.Lines {
		assert.Equal(t, uuid.Nil, line.SaleID)
	}
	assert.Equal(t, before, takeSnapshot(t, store, phone))
}

func TestComputeTotals_Taxes(t *testing.T) {
	lines := []domain.SaleLine{{Quantity: 2, UnitPrice: dec("100.00")}}

	taxes := domain.TaxSettings{
		GST:  domain.TaxRule{Enabled: true, Kind: domain.TaxPercent, Value: dec("9")},
		CGST: domain.TaxRule{Enabled: true, Kind: domain.TaxFixed, Value: dec("5")},
	}
	totals := ComputeTotals(lines, dec("10"), taxes)

	assert.True(t, totals.DiscountAmount.Equal(dec("20.00")))
	assert.True(t, totals.GSTAmount.Equal(dec("16.20")))
	assert.True(t, totals.CGSTAmount.Equal(dec("5")))
	assert.True(t, totals.FinalAmount.Equal(dec("201.20")))
	assert.False(t, totals.NeedsAudit)
}

func TestComputeTotals_NegativeClampsAndFlags(t *testing.T) {
	lines := []domain.SaleLine{{Quantity: 1, UnitPrice: dec("10.00")}}
	taxes := domain.TaxSettings{GST: domain.TaxRule{Enabled: true, Kind: domain.TaxFixed, Value: dec("-50")}}

	totals := ComputeTotals(lines, decimal.Zero, taxes)
	assert.True(t, totals.FinalAmount.IsZero())
	assert.True(t, totals.NeedsAudit)
}

func TestTaxSettingsFromConfig(t *testing.T) {
	taxes := TaxSettingsFromConfig(config.BillingConfig{
		GST:  config.TaxConfig{Enabled: true, Kind: "Percent", Value: 9},
		CGST: config.TaxConfig{Enabled: false, Kind: "fixed", Value: 2.5},
	})

	assert.Equal(t, domain.TaxPercent, taxes.GST.Kind)
	assert.True(t, taxes.GST.Value.Equal(dec("9")))
	assert.False(t, taxes.CGST.Enabled)
}

func genLines() gopter.Gen {
	line := gopter.CombineGens(
		gen.IntRange(1, 20),
		gen.Int64Range(0, 500000),
	).Map(func(v []interface{}) domain.SaleLine {
		return domain.SaleLine{
			Quantity:  v[0].(int),
			UnitPrice: decimal.New(v[1].(int64), -2),
		}
	})
	return gen.SliceOfN(5, line)
}

func TestProperty_FinalTotalIsClampedSum(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("final = max(0, subtotal - discount + taxes)", prop.ForAll(
		func(lines []domain.SaleLine, pct int64, fixed int64) bool {
			taxes := domain.TaxSettings{
				GST:  domain.TaxRule{Enabled: true, Kind: domain.TaxPercent, Value: decimal.NewFromInt(9)},
				CGST: domain.TaxRule{Enabled: true, Kind: domain.TaxFixed, Value: decimal.New(fixed, -2)},
			}
			totals := ComputeTotals(lines, decimal.NewFromInt(pct), taxes)

			subtotal := decimal.Zero
			for _, l := range lines {
				subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
			}
			if !totals.Subtotal.Equal(subtotal) {
				t.Logf("FAIL: subtotal %s, expected %s", totals.Subtotal, subtotal)
				return false
			}

			raw := subtotal.Sub(totals.DiscountAmount).Add(totals.GSTAmount).Add(totals.CGSTAmount)
			expected := decimal.Max(decimal.Zero, raw)
			if !totals.FinalAmount.Equal(expected) {
				t.Logf("FAIL: final %s, expected %s", totals.FinalAmount, expected)
				return false
			}
			return totals.NeedsAudit == raw.IsNegative()
		},
		genLines(),
		gen.Int64Range(-50, 150),
		gen.Int64Range(-100000, 100000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_DiscountNeverExceedsSubtotal(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("0 <= discount <= subtotal for any requested percentage", prop.ForAll(
		func(lines []domain.SaleLine, pct int64) bool {
			totals := ComputeTotals(lines, decimal.NewFromInt(pct), noTax)
			if totals.DiscountPercent.IsNegative() || totals.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
				return false
			}
			return !totals.DiscountAmount.IsNegative() && totals.DiscountAmount.LessThanOrEqual(totals.Subtotal)
		},
		genLines(),
		gen.Int64Range(-1000, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

package service

import (
	"context"
	"testing"
	"time"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/repository"
	"mobile-pos/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var noTax = domain.TaxSettings{}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// addItem stores a catalog item directly through the repositories
func addItem(t *testing.T, store repository.Store, category domain.Category, price string, stock int, serials ...string) *domain.CatalogItem {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	item := &domain.CatalogItem{
		ID:            uuid.New(),
		Name:          "Item " + uuid.NewString()[:8],
		Brand:         "Brand",
		Category:      category,
		SKU:           "SKU-" + uuid.NewString()[:8],
		Price:         dec(price),
		CostPrice:     decimal.Zero,
		StockQuantity: stock,
		MinStockLevel: 1,
		Status:        domain.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	item.SyncStockStatus()
	require.NoError(t, item.Specifications.Check(category))
	require.NoError(t, store.Repos().Catalog.Create(ctx, item))

	for i, serial := range serials {
		unit := &domain.SerialUnit{
			ID:            uuid.New(),
			CatalogItemID: item.ID,
			Serial:        serial,
			CreatedAt:     now.Add(time.Duration(i) * time.Millisecond),
		}
		require.NoError(t, store.Repos().Serials.Create(ctx, unit))
	}
	return item
}

// snapshot captures the state checkout is allowed to change
type snapshot struct {
	sales int
	lines int
	stock map[uuid.UUID]int
	sold  map[string]bool
}

func takeSnapshot(t *testing.T, store repository.Store, items ...*domain.CatalogItem) snapshot {
	t.Helper()
	ctx := context.Background()
	repos := store.Repos()

	sales, err := repos.Sales.List(ctx, domain.SaleFilter{})
	require.NoError(t, err)

	snap := snapshot{sales: len(sales), stock: map[uuid.UUID]int{}, sold: map[string]bool{}}
	for _, sale := range sales {
		snap.lines += len(sale.Lines)
	}
	for _, item := range items {
		current, err := repos.Catalog.FindByID(ctx, item.ID)
		require.NoError(t, err)
		snap.stock[item.ID] = current.StockQuantity

		units, err := repos.Serials.ListByItem(ctx, item.ID, false)
		require.NoError(t, err)
		for _, u := range units {
			snap.sold[u.Serial] = u.Sold
		}
	}
	return snap
}

func newBilling(store repository.Store) BillingService {
	return NewBillingService(store, noTax, nil, zap.NewNop())
}

// racingStore sells a serial through a separate write right before the
// checkout transaction starts, as a concurrent sale would.
type racingStore struct {
	repository.Store
	itemID uuid.UUID
	serial string
}

func (r *racingStore) WithTx(ctx context.Context, fn func(repository.Repositories) error) error {
	if err := r.Store.Repos().Serials.MarkSold(ctx, r.itemID, r.serial, uuid.New(), time.Now().UTC()); err != nil {
		return err
	}
	return r.Store.WithTx(ctx, fn)
}

func newMemoryStore() *memory.Store {
	return memory.New()
}

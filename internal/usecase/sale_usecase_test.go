package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/invoice"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/jitter"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCommittedAt = time.Date(2024, time.March, 9, 12, 0, 0, 0, time.UTC)

type saleFixture struct {
	store *memStore
	cache *fakeCache
	uc    *SaleUseCase
}

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()

	store := newMemStore()
	cache := newFakeCache()
	uc := NewSaleUC(
		&fakeTrManager{store: store},
		&fakeProductRepo{s: store},
		&fakeSaleRepo{s: store},
		&fakeOutboxRepo{s: store},
		cache,
		invoice.NewBuilder("Glow", "91", "₹", time.UTC),
		jitter.Policy{Attempts: 3, Base: time.Microsecond, Max: time.Millisecond},
		logger.NewNopLogger(),
	)
	uc.now = func() time.Time { return testCommittedAt }

	return &saleFixture{store: store, cache: cache, uc: uc}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func customer() domain.Customer {
	return domain.Customer{Name: "Asha", Phone: "9876543210", Address: "MG Road"}
}

func (f *saleFixture) product(name string, sell, cost string, qty int64) int64 {
	return f.store.addProduct(domain.Product{Name: name, SellPrice: d(sell), CostPrice: d(cost), Quantity: qty})
}

func TestCommitSale_RecomputesTotalsAndSnapshotsCost(t *testing.T) {
	f := newSaleFixture(t)
	id := f.product("Lipstick", "100", "55", 10)

	res, err := f.uc.CommitSale(context.Background(), &CommitSaleReq{
		Items:    []CommitSaleItemReq{{ProductID: id, QuantitySold: 3, UnitDiscount: d("20")}},
		Customer: customer(),
	})
	require.NoError(t, err)
	require.False(t, res.Replayed)

	sale := res.Sale
	assert.Equal(t, "300.00", sale.Subtotal.StringFixed(2))
	assert.Equal(t, "60.00", sale.DiscountAmount.StringFixed(2))
	assert.Equal(t, "240.00", sale.TotalAmount.StringFixed(2))
	assert.Equal(t, testCommittedAt, sale.CommittedAt)

	require.Len(t, sale.Items, 1)
	item := sale.Items[0]
	assert.Equal(t, "80.00", item.NetPrice.StringFixed(2))
	assert.Equal(t, "240.00", item.TotalPrice.StringFixed(2))
	require.NotNil(t, item.CostPriceAtSale)
	assert.Equal(t, "55.00", item.CostPriceAtSale.StringFixed(2))

	assert.Equal(t, int64(7), f.store.stock(id))
	assert.Equal(t, 1, f.store.outboxCount())
	assert.Contains(t, f.cache.deleted, id)
}

func TestCommitSale_WritesOutboxPayload(t *testing.T) {
	f := newSaleFixture(t)
	id := f.product("Comb", "20", "5", 10)

	res, err := f.uc.CommitSale(context.Background(), &CommitSaleReq{
		Items:    []CommitSaleItemReq{{ProductID: id, QuantitySold: 2}},
		Customer: customer(),
	})
	require.NoError(t, err)

	ev := f.store.outbox[0]
	assert.Equal(t, SaleCommitted, ev.EventType)
	assert.Equal(t, Pending, ev.Status)
	assert.Equal(t, res.Sale.ID, ev.SaleID)

	var payload SaleCommittedPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, ev.EventID, payload.EventID)
	assert.Equal(t, res.Sale.ID, payload.SaleID)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, int64(2), payload.Items[0].QuantitySold)
}

func TestCommitSale_ConcurrentCommitsNeverOversell(t *testing.T) {
	f := newSaleFixture(t)
	id := f.product("Lipstick", "100", "55", 5)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		stockErrs int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.CommitSale(context.Background(), &CommitSaleReq{
				Items:    []CommitSaleItemReq{{ProductID: id, QuantitySold: 3}},
				Customer: customer(),
			})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, e.ErrInsufficientStock) {
				stockErrs++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, stockErrs)
	assert.Equal(t, int64(2), f.store.stock(id))
	assert.Equal(t, 1, f.store.salesCount())
}

func TestCommitSale_InsufficientStockDetails(t *testing.T) {
	f := newSaleFixture(t)
	id := f.product("Lipstick", "100", "55", 5)

	// Повторяющиеся строки одного товара суммируются
	_, err := f.uc.CommitSale(context.Background(), &CommitSaleReq{
		Items: []CommitSaleItemReq{
			{ProductID: id, QuantitySold: 3},
			{ProductID: id, QuantitySold: 3},
		},
		Customer: customer(),
	})
	require.Error(t, err)

	stockErr, ok := e.AsInsufficientStock(err)
	require.True(t, ok)
	assert.Equal(t, id, stockErr.ProductID)
	assert.Equal(t, "Lipstick", stockErr.ProductName)
	assert.Equal(t, int64(6), stockErr.Requested)
	assert.Equal(t, int64(5), stockErr.Available)

	commitErr, ok := e.AsCommit(err)
	require.True(t, ok)
	assert.Equal(t, StageReserving, commitErr.Stage)
	assert.Equal(t, int64(5), f.store.stock(id))
}

func TestCommitSale_IsAtomic(t *testing.T) {
	tests := []struct {
		name  string
		op    string
		stage string
	}{
		{"items insert fails", "sale.create", StagePersisting},
		{"second decrement fails", "product.adjust", StageAdjustingStock},
		{"outbox insert fails", "outbox.create", StagePersisting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSaleFixture(t)
			first := f.product("Lipstick", "100", "55", 5)
			second := f.product("Comb", "20", "5", 5)

			injected := e.WrapStore("injected", assert.AnError)
			if tt.op == "product.adjust" {
				// первая позиция списывается, вторая падает
				f.store.failNext(tt.op, nil, injected)
			} else {
				f.store.failNext(tt.op, injected)
			}

			_, err := f.uc.CommitSale(context.Background(), &CommitSaleReq{
				Items: []CommitSaleItemReq{
					{ProductID: first, QuantitySold: 2},
					{ProductID: second, QuantitySold: 1},
				},
				Customer: customer(),
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, e.ErrStore)

			commitErr, ok := e.AsCommit(err)
			require.True(t, ok)
			assert.Equal(t, tt.stage, commitErr.Stage)

			assert.Equal(t, int64(5), f.store.stock(first))
			assert.Equal(t, int64(5), f.store.stock(second))
			assert.Zero(t, f.store.salesCount())
			assert.Zero(t, f.store.outboxCount())
		})
	}
}

func TestCommitSale_IdempotentReplay(t *testing.T) {
	f := newSaleFixture(t)
	id := f.product("Lipstick", "100", "55", 10)

	req := func() *CommitSaleReq {
		return &CommitSaleReq{
			Items:          []CommitSaleItemReq{{ProductID: id, QuantitySold: 2}},
			Customer:       customer(),
			IdempotencyKey: "till-1-0001",
		}
	}

	first, err := f.uc.CommitSale(context.Background(), req())
	require.NoError(t, err)
	second, err := f.uc.CommitSale(context.Background(), req())
	require.NoError(t, err)

	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Sale.ID, second.Sale.ID)
	assert.Equal(t, int64(8), f.store.stock(id))
	assert.Equal(t, 1, f.store.salesCount())
}

func TestCommitSale_ConcurrentSameKey(t *testing.T) {
	f := newSaleFixture(t)
	id := f.product("Lipstick", "100", "55", 10)

	const workers = 5
	ids := make([]int64, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.uc.CommitSale(context.Background(), &CommitSaleReq{
				Items:          []CommitSaleItemReq{{ProductID: id, QuantitySold: 1}},
				Customer:       customer(),
				IdempotencyKey: "double-click",
			})
			if assert.NoError(t, err) {
				ids[i] = res.Sale.ID
			}
		}()
	}
	wg.Wait()

	for _, saleID := range ids {
		assert.Equal(t, ids[0], saleID)
	}
	assert.Equal(t, int64(9), f.store.stock(id))
}

func TestCommitSale_RetriesOnConflict(t *testing.T) {
	f := newSaleFixture(t)
	id := f.product("Lipstick", "100", "55", 10)

	f.store.failNext("sale.create", &pgconn.PgError{Code: "40001"})

	res, err := f.uc.CommitSale(context.Background(), &CommitSaleReq{
		Items:    []CommitSaleItemReq{{ProductID: id, QuantitySold: 1}},
		Customer: customer(),
	})
	require.NoError(t, err)
	assert.NotZero(t, res.Sale.ID)
	assert.Equal(t, int64(9), f.store.stock(id))
	assert.Equal(t, 1, f.store.salesCount())
}

func TestCommitSale_RetryFindsWinnerOnDuplicateKey(t *testing.T) {
	f := newSaleFixture(t)
	id := f.product("Lipstick", "100", "55", 10)

	winner, err := f.uc.CommitSale(context.Background(), &CommitSaleReq{
		Items:          []CommitSaleItemReq{{ProductID: id, QuantitySold: 1}},
		Customer:       customer(),
		IdempotencyKey: "k-1",
	})
	require.NoError(t, err)

	// Конкурент не увидел продажу при поиске по ключу и упёрся в уникальный индекс
	saleRepo := f.uc.saleRepo
	f.uc.saleRepo = &blindOnceSaleRepo{SaleRepository: saleRepo}

	res, err := f.uc.CommitSale(context.Background(), &CommitSaleReq{
		Items:          []CommitSaleItemReq{{ProductID: id, QuantitySold: 1}},
		Customer:       customer(),
		IdempotencyKey: "k-1",
	})
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, winner.Sale.ID, res.Sale.ID)
	assert.Equal(t, int64(9), f.store.stock(id))
}

// blindOnceSaleRepo при первом поиске по ключу «не видит» продажу.
type blindOnceSaleRepo struct {
	SaleRepository
	once sync.Once
}

func (b *blindOnceSaleRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Sale, bool, error) {
	blind := false
	b.once.Do(func() { blind = true })
	if blind {
		return nil, false, nil
	}
	return b.SaleRepository.GetByIdempotencyKey(ctx, key)
}

func TestCommitSale_InconsistentTotals(t *testing.T) {
	tests := []struct {
		name    string
		totals  *ClientTotals
		line    CommitSaleItemReq
		wantErr bool
	}{
		{
			name:   "matching totals",
			totals: &ClientTotals{Subtotal: dp("300"), DiscountAmount: dp("60"), TotalAmount: dp("240")},
		},
		{
			name:   "within tolerance",
			totals: &ClientTotals{TotalAmount: dp("240.01")},
		},
		{
			name:    "header deviates",
			totals:  &ClientTotals{TotalAmount: dp("250")},
			wantErr: true,
		},
		{
			name:    "line total deviates",
			line:    CommitSaleItemReq{TotalPrice: dp("239.98")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSaleFixture(t)
			id := f.product("Lipstick", "100", "55", 10)

			line := tt.line
			line.ProductID = id
			line.QuantitySold = 3
			line.UnitDiscount = d("20")

			_, err := f.uc.CommitSale(context.Background(), &CommitSaleReq{
				Items:    []CommitSaleItemReq{line},
				Customer: customer(),
				Totals:   tt.totals,
			})
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, e.ErrInconsistentTotals)
			assert.Equal(t, int64(10), f.store.stock(id))
		})
	}
}

func TestCommitSale_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   CommitSaleReq
		field string
	}{
		{"no items", CommitSaleReq{Customer: customer()}, "items"},
		{"zero quantity", CommitSaleReq{Items: []CommitSaleItemReq{{ProductID: 1}}, Customer: customer()}, "items[0].quantity_sold"},
		{"bad product id", CommitSaleReq{Items: []CommitSaleItemReq{{QuantitySold: 1}}, Customer: customer()}, "items[0].product_id"},
		{"negative discount", CommitSaleReq{Items: []CommitSaleItemReq{{ProductID: 1, QuantitySold: 1, UnitDiscount: d("-1")}}, Customer: customer()}, "items[0].unit_discount"},
		{"discount above price", CommitSaleReq{Items: []CommitSaleItemReq{{ProductID: 1, QuantitySold: 1, SellPrice: dp("10"), UnitDiscount: d("11")}}, Customer: customer()}, "items[0].unit_discount"},
		{"three decimals", CommitSaleReq{Items: []CommitSaleItemReq{{ProductID: 1, QuantitySold: 1, SellPrice: dp("1.005")}}, Customer: customer()}, "items[0].sell_price"},
		{"missing phone", CommitSaleReq{Items: []CommitSaleItemReq{{ProductID: 1, QuantitySold: 1}}, Customer: domain.Customer{Name: "Asha"}}, "customer.phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSaleFixture(t)

			_, err := f.uc.CommitSale(context.Background(), &tt.req)
			require.Error(t, err)

			v, ok := e.AsValidation(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, v.Field)

			commitErr, ok := e.AsCommit(err)
			require.True(t, ok)
			assert.Equal(t, StageValidating, commitErr.Stage)
		})
	}
}

func TestCommitSale_UnknownOrArchivedProduct(t *testing.T) {
	f := newSaleFixture(t)
	id := f.product("Lipstick", "100", "55", 10)
	require.NoError(t, (&fakeProductRepo{s: f.store}).Archive(context.Background(), id))

	for _, productID := range []int64{id, 999} {
		_, err := f.uc.CommitSale(context.Background(), &CommitSaleReq{
			Items:    []CommitSaleItemReq{{ProductID: productID, QuantitySold: 1}},
			Customer: customer(),
		})
		assert.ErrorIs(t, err, e.ErrNotFound)
	}
}

func TestCommitSale_HonoursCancelledContext(t *testing.T) {
	f := newSaleFixture(t)
	id := f.product("Lipstick", "100", "55", 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uc.CommitSale(ctx, &CommitSaleReq{
		Items:    []CommitSaleItemReq{{ProductID: id, QuantitySold: 1}},
		Customer: customer(),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(10), f.store.stock(id))
}

func TestAdjustStock(t *testing.T) {
	f := newSaleFixture(t)
	id := f.product("Lipstick", "100", "55", 2)
	ctx := context.Background()

	qty, err := f.uc.AdjustStock(ctx, id, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(7), qty)

	_, err = f.uc.AdjustStock(ctx, id, -8)
	stockErr, ok := e.AsInsufficientStock(err)
	require.True(t, ok)
	assert.Equal(t, int64(7), stockErr.Available)

	_, err = f.uc.AdjustStock(ctx, 404, 1)
	assert.ErrorIs(t, err, e.ErrNotFound)

	_, err = f.uc.AdjustStock(ctx, id, 0)
	assert.ErrorIs(t, err, e.ErrValidation)

	stock, err := f.uc.GetStock(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stock)
}

func TestAdjustStock_ReportsStockReadUnderLock(t *testing.T) {
	f := newSaleFixture(t)
	id := f.product("Comb", "20", "5", 3)

	_, err := f.uc.AdjustStock(context.Background(), id, -4)
	stockErr, ok := e.AsInsufficientStock(err)
	require.True(t, ok)
	assert.Equal(t, int64(3), stockErr.Available)
	assert.Equal(t, int64(4), stockErr.Requested)

	f.store.mu.Lock()
	locked := slices.Clone(f.store.lockedStock)
	f.store.mu.Unlock()
	assert.Equal(t, []int64{id}, locked, "stock must be read with a row lock")
	assert.Equal(t, int64(3), f.store.stock(id))
}

func TestListAndGetSales(t *testing.T) {
	f := newSaleFixture(t)
	id := f.product("Lipstick", "100", "55", 10)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 2; i++ {
		res, err := f.uc.CommitSale(ctx, &CommitSaleReq{
			Items:    []CommitSaleItemReq{{ProductID: id, QuantitySold: 1}},
			Customer: customer(),
		})
		require.NoError(t, err)
		ids = append(ids, res.Sale.ID)
	}

	// Архивный товар остаётся в истории
	require.NoError(t, (&fakeProductRepo{s: f.store}).Archive(ctx, id))

	sales, err := f.uc.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, ids[1], sales[0].ID)
	require.NotNil(t, sales[0].Items[0].Product)
	assert.Equal(t, "Lipstick", sales[0].Items[0].Product.Name)

	sale, err := f.uc.GetSale(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, ids[0], sale.ID)

	_, err = f.uc.GetSale(ctx, 12345)
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestShareLink(t *testing.T) {
	f := newSaleFixture(t)
	id := f.product("Lipstick", "100", "55", 10)

	res, err := f.uc.CommitSale(context.Background(), &CommitSaleReq{
		Items:    []CommitSaleItemReq{{ProductID: id, QuantitySold: 1}},
		Customer: customer(),
	})
	require.NoError(t, err)

	link, err := f.uc.ShareLink(context.Background(), res.Sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "919876543210", link.Phone)
	assert.Contains(t, link.Message, "1. Lipstick x1 @ ₹100.00 = ₹100.00")
	assert.Contains(t, link.URL, "https://wa.me/919876543210?text=")
}

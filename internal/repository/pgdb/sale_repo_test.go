package pgdb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/invoice"
	"github.com/DRSN-tech/pos-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/jitter"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/DRSN-tech/pos-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCustomer = domain.Customer{Name: "Asha", Phone: "9876543210", Address: "MG Road"}

func newSaleRepo(pool *pgxpool.Pool) *SaleRepo {
	return NewSaleRepo(pool, converter.SaleConverter{}, converter.ProductConverter{})
}

// newSaleUC собирает проведение продаж поверх настоящих репозиториев.
func newSaleUC(pool *pgxpool.Pool) *usecase.SaleUseCase {
	return usecase.NewSaleUC(
		tr.NewManager(pool),
		NewProductRepo(pool, converter.ProductConverter{}),
		newSaleRepo(pool),
		NewOutboxEventRepo(pool, converter.OutboxEventConverter{}),
		usecase.NoopCache{},
		invoice.NewBuilder("Test Shop", "91", "INR", time.UTC),
		jitter.Policy{Attempts: 5, Base: time.Millisecond, Max: 10 * time.Millisecond},
		logger.NewNopLogger(),
	)
}

func testSale(key string, items ...domain.SaleItem) *domain.Sale {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.TotalPrice)
	}

	sale := &domain.Sale{
		Customer:       testCustomer,
		Subtotal:       subtotal,
		DiscountAmount: decimal.Zero,
		TotalAmount:    subtotal,
		CommittedAt:    time.Now().UTC().Truncate(time.Microsecond),
		Items:          items,
	}
	if key != "" {
		sale.IdempotencyKey = &key
	}

	return sale
}

func TestSaleRepo_CreateAndReadBack(t *testing.T) {
	pool := newTestDB(t)
	ctx := context.Background()
	repo := newSaleRepo(pool)

	pen := seedProduct(t, pool, "Pen", "10.00", "6.00", 10)
	book := seedProduct(t, pool, "Book", "120.00", "80.00", 10)

	sale := testSale("key-read-back",
		domain.NewSaleItem(pen, decimal.RequireFromString("10.00"), decimal.RequireFromString("1.00"), 3, decimal.RequireFromString("6.00")),
		domain.NewSaleItem(book, decimal.RequireFromString("120.00"), decimal.Zero, 1, decimal.RequireFromString("80.00")),
	)

	var created *domain.Sale
	err := tr.NewManager(pool).Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = repo.Create(ctx, sale)
		return err
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Len(t, created.Items, 2)
	for _, item := range created.Items {
		assert.Equal(t, created.ID, item.SaleID)
		assert.NotZero(t, item.ID)
	}

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Customer.Name)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("147.00")), got.TotalAmount.String())
	require.Len(t, got.Items, 2)

	first := got.Items[0]
	assert.Equal(t, pen, first.ProductID)
	assert.Equal(t, int64(3), first.QuantitySold)
	assert.True(t, first.NetPrice.Equal(decimal.RequireFromString("9.00")))
	require.NotNil(t, first.CostPriceAtSale)
	assert.True(t, first.CostPriceAtSale.Equal(decimal.RequireFromString("6.00")))
	require.NotNil(t, first.Product)
	assert.Equal(t, "Pen", first.Product.Name)
	assert.Equal(t, "Book", got.Items[1].Product.Name)

	byKey, found, err := repo.GetByIdempotencyKey(ctx, "key-read-back")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created.ID, byKey.ID)
	assert.Len(t, byKey.Items, 2)

	_, found, err = repo.GetByIdempotencyKey(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = repo.GetByID(ctx, created.ID+100)
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestSaleRepo_HistoryKeepsArchivedProducts(t *testing.T) {
	pool := newTestDB(t)
	ctx := context.Background()
	repo := newSaleRepo(pool)

	id := seedProduct(t, pool, "Old Pen", "10.00", "6.00", 5)
	err := tr.NewManager(pool).Do(ctx, func(ctx context.Context) error {
		_, err := repo.Create(ctx, testSale("",
			domain.NewSaleItem(id, decimal.RequireFromString("10.00"), decimal.Zero, 1, decimal.RequireFromString("6.00"))))
		return err
	})
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `UPDATE products SET is_archived = TRUE WHERE id = $1`, id)
	require.NoError(t, err)

	sales, err := repo.ListWithItems(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	require.Len(t, sales[0].Items, 1)
	require.NotNil(t, sales[0].Items[0].Product)
	assert.True(t, sales[0].Items[0].Product.IsArchived)
}

func TestSaleRepo_CreateRollsBackOnItemFailure(t *testing.T) {
	pool := newTestDB(t)
	ctx := context.Background()
	repo := newSaleRepo(pool)

	id := seedProduct(t, pool, "Pen", "10.00", "6.00", 5)
	sale := testSale("key-broken",
		domain.NewSaleItem(id, decimal.RequireFromString("10.00"), decimal.Zero, 1, decimal.RequireFromString("6.00")),
		domain.NewSaleItem(id+100, decimal.RequireFromString("10.00"), decimal.Zero, 1, decimal.RequireFromString("6.00")),
	)

	err := tr.NewManager(pool).Do(ctx, func(ctx context.Context) error {
		_, err := repo.Create(ctx, sale)
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrStore)

	assert.Zero(t, countRows(t, pool, "sales"))
	assert.Zero(t, countRows(t, pool, "sale_items"))

	// Пул остаётся рабочим после отката.
	_, found, err := repo.GetByIdempotencyKey(ctx, "key-broken")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaleRepo_DuplicateIdempotencyKeyIsRetryable(t *testing.T) {
	pool := newTestDB(t)
	ctx := context.Background()
	repo := newSaleRepo(pool)
	trm := tr.NewManager(pool)

	id := seedProduct(t, pool, "Pen", "10.00", "6.00", 5)
	item := domain.NewSaleItem(id, decimal.RequireFromString("10.00"), decimal.Zero, 1, decimal.RequireFromString("6.00"))

	create := func() error {
		return trm.Do(ctx, func(ctx context.Context) error {
			_, err := repo.Create(ctx, testSale("key-dup", item))
			return err
		})
	}

	require.NoError(t, create())

	err := create()
	require.Error(t, err)
	assert.True(t, tr.IsUniqueViolation(err), err)
	assert.True(t, tr.IsRetryable(err))
	assert.Equal(t, 1, countRows(t, pool, "sales"))
}

func TestCommitSale_ConcurrentCommitsAgainstPostgres(t *testing.T) {
	pool := newTestDB(t)
	ctx := context.Background()
	uc := newSaleUC(pool)

	id := seedProduct(t, pool, "Pen", "10.00", "6.00", 5)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
		ok   int
	)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := uc.CommitSale(ctx, &usecase.CommitSaleReq{
				Items:    []usecase.CommitSaleItemReq{{ProductID: id, QuantitySold: 3}},
				Customer: testCustomer,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ok++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], e.ErrInsufficientStock)

	assert.Equal(t, int64(2), stockOf(t, pool, id))
	assert.Equal(t, 1, countRows(t, pool, "sales"))
	assert.Equal(t, 1, countRows(t, pool, "sale_items"))
	assert.Equal(t, 1, countRows(t, pool, "outbox_events"))
}

func TestCommitSale_DuplicateKeyRaceReturnsWinner(t *testing.T) {
	pool := newTestDB(t)
	ctx := context.Background()
	uc := newSaleUC(pool)

	id := seedProduct(t, pool, "Pen", "10.00", "6.00", 5)

	// Победитель вставил продажу с ключом, но ещё не закоммитил.
	winner, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = winner.Rollback(ctx) }()

	var winnerID int64
	err = winner.QueryRow(ctx, `
		INSERT INTO sales (customer_name, customer_phone, subtotal, discount_amount, total_amount, idempotency_key)
		VALUES ('Asha', '9876543210', 10, 0, 10, 'key-race')
		RETURNING id`).Scan(&winnerID)
	require.NoError(t, err)

	type result struct {
		res *usecase.CommitSaleRes
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := uc.CommitSale(ctx, &usecase.CommitSaleReq{
			Items:          []usecase.CommitSaleItemReq{{ProductID: id, QuantitySold: 1}},
			Customer:       testCustomer,
			IdempotencyKey: "key-race",
		})
		done <- result{res, err}
	}()

	// Второй запрос упирается в уникальный индекс и ждёт исхода победителя.
	require.Eventually(t, func() bool {
		var waiting int
		err := pool.QueryRow(ctx, `
			SELECT count(*) FROM pg_stat_activity
			WHERE datname = current_database() AND wait_event_type = 'Lock'`).Scan(&waiting)
		return err == nil && waiting > 0
	}, 10*time.Second, 20*time.Millisecond)

	require.NoError(t, winner.Commit(ctx))

	var got result
	select {
	case got = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("commit did not finish after the winner committed")
	}

	require.NoError(t, got.err)
	require.NotNil(t, got.res)
	assert.True(t, got.res.Replayed)
	assert.Equal(t, winnerID, got.res.Sale.ID)

	assert.Equal(t, int64(5), stockOf(t, pool, id))
	assert.Equal(t, 1, countRows(t, pool, "sales"))
	assert.Zero(t, countRows(t, pool, "sale_items"))
	assert.Zero(t, countRows(t, pool, "outbox_events"))
}

package usecase

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/analytics"
	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/shopspring/decimal"
)

// memStore — общее in-memory состояние для фейковых репозиториев.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	products   map[int64]domain.Product
	categories map[int64]domain.Category
	suppliers  map[int64]domain.Supplier
	sales      []domain.Sale
	outbox     []*OutboxEvent

	// lockedStock: id товаров, для которых брали LockStock.
	lockedStock []int64

	// failures[op]: очередь ошибок, которые вернёт операция op (по одной на вызов).
	failures map[string][]error
}

type memSnapshot struct {
	nextID     int64
	products   map[int64]domain.Product
	categories map[int64]domain.Category
	suppliers  map[int64]domain.Supplier
	sales      []domain.Sale
	outbox     []*OutboxEvent
}

func newMemStore() *memStore {
	return &memStore{
		products:   map[int64]domain.Product{},
		categories: map[int64]domain.Category{},
		suppliers:  map[int64]domain.Supplier{},
		failures:   map[string][]error{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) failNext(op string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], errs...)
}

// failure возвращает очередную ошибку для op. Вызывается под s.mu.
func (s *memStore) failure(op string) error {
	queue := s.failures[op]
	if len(queue) == 0 {
		return nil
	}
	s.failures[op] = queue[1:]
	return queue[0]
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return memSnapshot{
		nextID:     s.nextID,
		products:   cloneMap(s.products),
		categories: cloneMap(s.categories),
		suppliers:  cloneMap(s.suppliers),
		sales:      slices.Clone(s.sales),
		outbox:     slices.Clone(s.outbox),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID = snap.nextID
	s.products = snap.products
	s.categories = snap.categories
	s.suppliers = snap.suppliers
	s.sales = snap.sales
	s.outbox = snap.outbox
}

func (s *memStore) addProduct(p domain.Product) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	s.products[p.ID] = p
	return p.ID
}

func (s *memStore) stock(id int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Quantity
}

func (s *memStore) salesCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

func (s *memStore) outboxCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outbox)
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// fakeTrManager выполняет транзакции строго по очереди (как при блокировке строк)
// и откатывает состояние при ошибке.
type fakeTrManager struct {
	store *memStore
	mu    sync.Mutex
}

func (m *fakeTrManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// PRODUCTS

type fakeProductRepo struct{ s *memStore }

func (r *fakeProductRepo) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("product.create"); err != nil {
		return nil, err
	}

	created := *p
	created.ID = r.s.id()
	created.CreatedAt = time.Now()
	r.s.products[created.ID] = created
	return &created, nil
}

func (r *fakeProductRepo) List(_ context.Context) ([]domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if !p.IsArchived {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.Product) int { return int(b.ID - a.ID) })
	return out, nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok || p.IsArchived {
		return nil, e.NewNotFoundError("product", id)
	}
	return &p, nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.products[p.ID]
	if !ok || existing.IsArchived {
		return nil, e.NewNotFoundError("product", p.ID)
	}
	updated := *p
	updated.CreatedAt = existing.CreatedAt
	r.s.products[p.ID] = updated
	return &updated, nil
}

func (r *fakeProductRepo) Archive(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok || p.IsArchived {
		return e.NewNotFoundError("product", id)
	}
	p.IsArchived = true
	r.s.products[id] = p
	return nil
}

func (r *fakeProductRepo) IDsByCategory(_ context.Context, categoryID int64) ([]int64, error) {
	return r.idsBy(func(p domain.Product) bool { return p.CategoryID != nil && *p.CategoryID == categoryID }), nil
}

func (r *fakeProductRepo) IDsBySupplier(_ context.Context, supplierID int64) ([]int64, error) {
	return r.idsBy(func(p domain.Product) bool { return p.SupplierID != nil && *p.SupplierID == supplierID }), nil
}

func (r *fakeProductRepo) idsBy(match func(domain.Product) bool) []int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var ids []int64
	for id, p := range r.s.products {
		if match(p) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *fakeProductRepo) LockForSale(_ context.Context, ids []int64) ([]domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("product.lock"); err != nil {
		return nil, err
	}

	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok && !p.IsArchived {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) GetStock(_ context.Context, id int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok || p.IsArchived {
		return 0, e.NewNotFoundError("product", id)
	}
	return p.Quantity, nil
}

func (r *fakeProductRepo) LockStock(_ context.Context, id int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("product.lock_stock"); err != nil {
		return 0, err
	}
	r.s.lockedStock = append(r.s.lockedStock, id)

	p, ok := r.s.products[id]
	if !ok || p.IsArchived {
		return 0, e.NewNotFoundError("product", id)
	}
	return p.Quantity, nil
}

func (r *fakeProductRepo) AdjustStock(_ context.Context, id, delta int64) (int64, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("product.adjust"); err != nil {
		return 0, false, err
	}

	p, ok := r.s.products[id]
	if !ok || p.IsArchived || p.Quantity+delta < 0 {
		return 0, false, nil
	}
	p.Quantity += delta
	r.s.products[id] = p
	return p.Quantity, true, nil
}

// CATEGORIES / SUPPLIERS

type fakeCategoryRepo struct{ s *memStore }

func (r *fakeCategoryRepo) Create(_ context.Context, c *domain.Category) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.categories {
		if existing.Name == c.Name {
			return nil, e.NewValidationError("name", "already exists")
		}
	}
	created := *c
	created.ID = r.s.id()
	r.s.categories[created.ID] = created
	return &created, nil
}

func (r *fakeCategoryRepo) List(_ context.Context) ([]domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b domain.Category) int { return int(b.ID - a.ID) })
	return out, nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, e.NewNotFoundError("category", id)
	}
	return &c, nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, c *domain.Category) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[c.ID]; !ok {
		return nil, e.NewNotFoundError("category", c.ID)
	}
	r.s.categories[c.ID] = *c
	return c, nil
}

func (r *fakeCategoryRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return e.NewNotFoundError("category", id)
	}
	delete(r.s.categories, id)
	for pid, p := range r.s.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			r.s.products[pid] = p
		}
	}
	return nil
}

type fakeSupplierRepo struct{ s *memStore }

func (r *fakeSupplierRepo) Create(_ context.Context, sup *domain.Supplier) (*domain.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	created := *sup
	created.ID = r.s.id()
	r.s.suppliers[created.ID] = created
	return &created, nil
}

func (r *fakeSupplierRepo) List(_ context.Context) ([]domain.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.Supplier, 0, len(r.s.suppliers))
	for _, sup := range r.s.suppliers {
		out = append(out, sup)
	}
	slices.SortFunc(out, func(a, b domain.Supplier) int { return int(b.ID - a.ID) })
	return out, nil
}

func (r *fakeSupplierRepo) GetByID(_ context.Context, id int64) (*domain.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sup, ok := r.s.suppliers[id]
	if !ok {
		return nil, e.NewNotFoundError("supplier", id)
	}
	return &sup, nil
}

func (r *fakeSupplierRepo) Update(_ context.Context, sup *domain.Supplier) (*domain.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.suppliers[sup.ID]; !ok {
		return nil, e.NewNotFoundError("supplier", sup.ID)
	}
	r.s.suppliers[sup.ID] = *sup
	return sup, nil
}

func (r *fakeSupplierRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.suppliers[id]; !ok {
		return e.NewNotFoundError("supplier", id)
	}
	delete(r.s.suppliers, id)
	return nil
}

// SALES

type fakeSaleRepo struct{ s *memStore }

func (r *fakeSaleRepo) Create(_ context.Context, sale *domain.Sale) (*domain.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("sale.create"); err != nil {
		return nil, err
	}

	if sale.IdempotencyKey != nil {
		for _, existing := range r.s.sales {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *sale.IdempotencyKey {
				return nil, e.WrapStore("fakeSaleRepo.Create", e.ErrAlreadyExists)
			}
		}
	}

	created := *sale
	created.ID = r.s.id()
	created.Items = make([]domain.SaleItem, len(sale.Items))
	for i, item := range sale.Items {
		item.ID = r.s.id()
		item.SaleID = created.ID
		created.Items[i] = item
	}
	r.s.sales = append(r.s.sales, created)
	return &created, nil
}

func (r *fakeSaleRepo) GetByIdempotencyKey(_ context.Context, key string) (*domain.Sale, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, sale := range r.s.sales {
		if sale.IdempotencyKey != nil && *sale.IdempotencyKey == key {
			found := sale
			return &found, true, nil
		}
	}
	return nil, false, nil
}

func (r *fakeSaleRepo) GetByID(_ context.Context, id int64) (*domain.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, sale := range r.s.sales {
		if sale.ID == id {
			found := r.withProducts(sale)
			return &found, nil
		}
	}
	return nil, e.NewNotFoundError("sale", id)
}

func (r *fakeSaleRepo) ListWithItems(_ context.Context) ([]domain.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("sale.list"); err != nil {
		return nil, err
	}

	out := make([]domain.Sale, 0, len(r.s.sales))
	for i := len(r.s.sales) - 1; i >= 0; i-- {
		out = append(out, r.withProducts(r.s.sales[i]))
	}
	return out, nil
}

// withProducts подставляет товары (включая архивные) в строки продажи. Вызывается под s.mu.
func (r *fakeSaleRepo) withProducts(sale domain.Sale) domain.Sale {
	items := make([]domain.SaleItem, len(sale.Items))
	for i, item := range sale.Items {
		if p, ok := r.s.products[item.ProductID]; ok {
			item.Product = &p
		}
		items[i] = item
	}
	sale.Items = items
	return sale
}

// OUTBOX

type fakeOutboxRepo struct{ s *memStore }

func (r *fakeOutboxRepo) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("outbox.create"); err != nil {
		return nil, err
	}

	created := *event
	created.ID = r.s.id()
	r.s.outbox = append(r.s.outbox, &created)
	return &created, nil
}

func (r *fakeOutboxRepo) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*OutboxEvent
	for _, ev := range r.s.outbox {
		if len(out) == limit {
			break
		}
		if ev.Status == Pending {
			ev.Status = Processing
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) MarkAsProcessed(_ context.Context, id int64) error {
	return r.setStatus(id, Processed)
}

func (r *fakeOutboxRepo) ReleaseToPending(_ context.Context, id int64) error {
	return r.setStatus(id, Pending)
}

func (r *fakeOutboxRepo) ResetStale(_ context.Context, _ time.Duration) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, ev := range r.s.outbox {
		if ev.Status == Processing {
			ev.Status = Pending
			n++
		}
	}
	return n, nil
}

func (r *fakeOutboxRepo) setStatus(id int64, status OutboxStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, ev := range r.s.outbox {
		if ev.ID == id {
			ev.Status = status
		}
	}
	return nil
}

// CACHE / STORAGE

type fakeCache struct {
	mu        sync.Mutex
	products  map[int64]domain.Product
	dashboard *analytics.Dashboard
	gen       int64
	err       error
	deleted   []int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{products: map[int64]domain.Product{}}
}

func (c *fakeCache) GetProducts(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}

	out := make(map[int64]domain.Product)
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (c *fakeCache) SetProducts(_ context.Context, products []domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range products {
		c.products[p.ID] = p
	}
	return nil
}

func (c *fakeCache) DeleteProducts(_ context.Context, ids []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.products, id)
	}
	c.deleted = append(c.deleted, ids...)
	return nil
}

func (c *fakeCache) cached(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.products[id]
	return ok
}

func (c *fakeCache) GetDashboard(_ context.Context) (*analytics.Dashboard, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, 0, c.err
	}
	return c.dashboard, c.gen, nil
}

func (c *fakeCache) SetDashboard(_ context.Context, d analytics.Dashboard, gen int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.dashboard = &d
	return nil
}

func (c *fakeCache) DeleteDashboard(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dashboard = nil
	c.gen++
	return nil
}

func (c *fakeCache) cachedDashboard() *analytics.Dashboard {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dashboard
}

type fakeStorage struct {
	mu         sync.Mutex
	objects    map[string][]byte
	presignErr error
}

func (f *fakeStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://storage.local/" + key + "?signature=test", nil
}

func domainProduct(name, sell, cost string, qty int64) domain.Product {
	return domain.Product{
		Name:      name,
		SellPrice: decimal.RequireFromString(sell),
		CostPrice: decimal.RequireFromString(cost),
		Quantity:  qty,
	}
}

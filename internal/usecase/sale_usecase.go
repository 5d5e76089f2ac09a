package usecase

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/invoice"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/jitter"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/DRSN-tech/pos-backend/pkg/tr"
	"github.com/google/uuid"
)

// Этапы проведения продажи. Любая ошибка переводит продажу в RolledBack.
const (
	StageValidating     = "validating"
	StageReserving      = "reserving"
	StagePersisting     = "persisting"
	StageAdjustingStock = "adjusting_stock"
	StageCommitting     = "committing"
	StageCommitted      = "committed"
	StageRolledBack     = "rolled_back"
)

// SaleUseCase проводит продажи и управляет остатками.
type SaleUseCase struct {
	trManager   tr.Manager
	productRepo ProductRepository
	saleRepo    SaleRepository
	outboxRepo  OutboxRepository
	cacheRepo   CacheRepository
	invoice     *invoice.Builder
	retry       jitter.Policy
	logger      logger.Logger
	now         func() time.Time
}

func NewSaleUC(
	trManager tr.Manager,
	productRepo ProductRepository,
	saleRepo SaleRepository,
	outboxRepo OutboxRepository,
	cacheRepo CacheRepository,
	invoiceBuilder *invoice.Builder,
	retry jitter.Policy,
	logger logger.Logger,
) *SaleUseCase {
	return &SaleUseCase{
		trManager:   trManager,
		productRepo: productRepo,
		saleRepo:    saleRepo,
		outboxRepo:  outboxRepo,
		cacheRepo:   cacheRepo,
		invoice:     invoiceBuilder,
		retry:       retry,
		logger:      logger,
		now:         time.Now,
	}
}

// CommitSale атомарно проводит продажу: либо записаны продажа, все её строки и списание остатков,
// либо ничего. Повтор с тем же ключом идемпотентности возвращает уже проведённую продажу.
func (s *SaleUseCase) CommitSale(ctx context.Context, req *CommitSaleReq) (*CommitSaleRes, error) {
	const op = "SaleUseCase.CommitSale"

	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	if err := validateCommit(req); err != nil {
		return nil, e.Wrap(op, &e.CommitError{Stage: StageValidating, Err: err})
	}

	var res *CommitSaleRes
	err := jitter.Retry(ctx, s.retry, tr.IsRetryable, func(ctx context.Context, attempt int) error {
		if attempt > 0 {
			s.logger.Debugf("Retrying sale commit, attempt: %d, idempotency_key: %q", attempt+1, req.IdempotencyKey)
		}

		var err error
		res, err = s.commitOnce(ctx, req)
		return err
	})
	if err != nil {
		if _, ok := e.AsCommit(err); !ok {
			err = &e.CommitError{Stage: StageCommitting, Err: err}
		}
		s.logger.Debugf("Sale %s: %v", StageRolledBack, err)
		return nil, e.Wrap(op, err)
	}

	if !res.Replayed {
		s.invalidateAfterCommit(ctx, res.Sale)
		s.logger.Infof("Sale %s, sale_id: %d, total_amount: %s, items: %d",
			StageCommitted, res.Sale.ID, res.Sale.TotalAmount.StringFixed(2), len(res.Sale.Items))
	}

	return res, nil
}

// commitOnce — одна попытка проведения в одной транзакции.
func (s *SaleUseCase) commitOnce(ctx context.Context, req *CommitSaleReq) (*CommitSaleRes, error) {
	var res *CommitSaleRes

	err := s.trManager.Do(ctx, func(ctx context.Context) error {
		if req.IdempotencyKey != "" {
			existing, found, err := s.saleRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if err != nil {
				return &e.CommitError{Stage: StageReserving, Err: err}
			}
			if found {
				res = &CommitSaleRes{Sale: existing, Replayed: true}
				return nil
			}
		}

		requested, ids := requestedQuantities(req.Items)
		products, err := s.reserve(ctx, ids, requested)
		if err != nil {
			return &e.CommitError{Stage: StageReserving, Err: err}
		}

		sale, err := priceSale(req, products)
		if err != nil {
			return &e.CommitError{Stage: StageReserving, Err: err}
		}
		if req.IdempotencyKey != "" {
			key := req.IdempotencyKey
			sale.IdempotencyKey = &key
		}
		sale.CommittedAt = s.now().UTC()

		created, err := s.saleRepo.Create(ctx, sale)
		if err != nil {
			return &e.CommitError{Stage: StagePersisting, Err: err}
		}

		if err := s.decrementStock(ctx, ids, requested, products); err != nil {
			return &e.CommitError{Stage: StageAdjustingStock, Err: err}
		}

		if err := s.enqueueCommitted(ctx, created); err != nil {
			return &e.CommitError{Stage: StagePersisting, Err: err}
		}

		res = &CommitSaleRes{Sale: created}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// reserve блокирует строки товаров и проверяет, что остатка хватает на суммарное количество.
func (s *SaleUseCase) reserve(ctx context.Context, ids []int64, requested map[int64]int64) (map[int64]domain.Product, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	locked, err := s.productRepo.LockForSale(ctx, sorted)
	if err != nil {
		return nil, err
	}

	products := make(map[int64]domain.Product, len(locked))
	for _, p := range locked {
		products[p.ID] = p
	}

	for _, id := range sorted {
		p, ok := products[id]
		if !ok {
			return nil, e.NewNotFoundError("product", id)
		}
		if requested[id] > p.Quantity {
			return nil, &e.InsufficientStockError{
				ProductID:   id,
				ProductName: p.Name,
				Requested:   requested[id],
				Available:   p.Quantity,
			}
		}
	}

	return products, nil
}

// decrementStock списывает остатки условным UPDATE; строки уже заблокированы, так что отказ здесь: страховка.
func (s *SaleUseCase) decrementStock(ctx context.Context, ids []int64, requested map[int64]int64, products map[int64]domain.Product) error {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	for _, id := range sorted {
		_, applied, err := s.productRepo.AdjustStock(ctx, id, -requested[id])
		if err != nil {
			return err
		}
		if !applied {
			p := products[id]
			return &e.InsufficientStockError{
				ProductID:   id,
				ProductName: p.Name,
				Requested:   requested[id],
				Available:   p.Quantity,
			}
		}
	}

	return nil
}

// enqueueCommitted пишет событие sale.committed в outbox в текущей транзакции.
func (s *SaleUseCase) enqueueCommitted(ctx context.Context, sale *domain.Sale) error {
	eventID := uuid.NewString()

	payload := SaleCommittedPayload{
		EventID:     eventID,
		SaleID:      sale.ID,
		CommittedAt: sale.CommittedAt,
		TotalAmount: sale.TotalAmount,
		Items:       make([]SaleCommittedItemPayload, 0, len(sale.Items)),
	}
	for _, item := range sale.Items {
		payload.Items = append(payload.Items, SaleCommittedItemPayload{
			ProductID:    item.ProductID,
			QuantitySold: item.QuantitySold,
			TotalPrice:   item.TotalPrice,
		})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = s.outboxRepo.Create(ctx, NewOutboxEvent(eventID, sale.ID, data, sale.CommittedAt))
	return err
}

// invalidateAfterCommit сбрасывает кэш проданных товаров и дашборда.
func (s *SaleUseCase) invalidateAfterCommit(ctx context.Context, sale *domain.Sale) {
	const op = "SaleUseCase.invalidateAfterCommit"

	ids := make([]int64, 0, len(sale.Items))
	for _, item := range sale.Items {
		ids = append(ids, item.ProductID)
	}

	if err := s.cacheRepo.DeleteProducts(ctx, ids); err != nil {
		s.logger.Warnf("Failed to delete products from cache: %v", e.Wrap(op, err))
	}
	if err := s.cacheRepo.DeleteDashboard(ctx); err != nil {
		s.logger.Warnf("Failed to delete dashboard from cache: %v", e.Wrap(op, err))
	}
}

// GetStock возвращает остаток товара из базы, минуя кэш.
func (s *SaleUseCase) GetStock(ctx context.Context, productID int64) (int64, error) {
	const op = "SaleUseCase.GetStock"

	qty, err := s.productRepo.GetStock(ctx, productID)
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	return qty, nil
}

// AdjustStock атомарно меняет остаток на delta (приход или списание), не допуская отрицательного остатка.
func (s *SaleUseCase) AdjustStock(ctx context.Context, productID, delta int64) (int64, error) {
	const op = "SaleUseCase.AdjustStock"

	if productID <= 0 {
		return 0, e.Wrap(op, e.NewValidationError("product_id", "must be > 0"))
	}
	if delta == 0 {
		return 0, e.Wrap(op, e.NewValidationError("delta", "must not be zero"))
	}

	var qty int64
	err := s.trManager.Do(ctx, func(ctx context.Context) error {
		current, err := s.productRepo.LockStock(ctx, productID)
		if err != nil {
			return err
		}
		if current+delta < 0 {
			return &e.InsufficientStockError{ProductID: productID, Requested: -delta, Available: current}
		}

		var applied bool
		qty, applied, err = s.productRepo.AdjustStock(ctx, productID, delta)
		if err != nil {
			return err
		}
		if !applied {
			return &e.InsufficientStockError{ProductID: productID, Requested: -delta, Available: current}
		}
		return nil
	})
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	if err := s.cacheRepo.DeleteProducts(ctx, []int64{productID}); err != nil {
		s.logger.Warnf("Failed to delete product from cache: %v", e.Wrap(op, err))
	}

	return qty, nil
}

// ListSales возвращает всю историю продаж со строками, новые первыми.
func (s *SaleUseCase) ListSales(ctx context.Context) ([]domain.Sale, error) {
	const op = "SaleUseCase.ListSales"

	sales, err := s.saleRepo.ListWithItems(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return sales, nil
}

func (s *SaleUseCase) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	const op = "SaleUseCase.GetSale"

	sale, err := s.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return sale, nil
}

// ShareLink формирует ссылку для отправки чека покупателю. Ничего не отправляет.
func (s *SaleUseCase) ShareLink(ctx context.Context, id int64) (*ShareLinkRes, error) {
	const op = "SaleUseCase.ShareLink"

	sale, err := s.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	link, err := s.invoice.ShareLink(sale)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &ShareLinkRes{Phone: link.Phone, Message: link.Message, URL: link.URL}, nil
}

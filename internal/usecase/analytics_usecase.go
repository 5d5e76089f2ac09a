package usecase

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/analytics"
	"github.com/DRSN-tech/pos-backend/internal/report"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/google/uuid"
)

const orphanCleanupTimeout = 10 * time.Second

// ReportOptions — настройки хранения выгруженных отчётов.
type ReportOptions struct {
	Location   *time.Location
	KeyPrefix  string
	PresignTTL time.Duration
}

// AnalyticsUseCase строит дашборд и XLSX-отчёты по истории продаж.
type AnalyticsUseCase struct {
	saleRepo  SaleRepository
	cacheRepo CacheRepository
	storage   ReportStorage
	opts      ReportOptions
	logger    logger.Logger
	now       func() time.Time
}

func NewAnalyticsUC(
	saleRepo SaleRepository,
	cacheRepo CacheRepository,
	storage ReportStorage,
	opts ReportOptions,
	logger logger.Logger,
) *AnalyticsUseCase {
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &AnalyticsUseCase{
		saleRepo:  saleRepo,
		cacheRepo: cacheRepo,
		storage:   storage,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// Dashboard возвращает показатели продаж. Если историю загрузить не удалось,
// отдаёт нулевой дашборд с Degraded = true вместо ошибки.
func (a *AnalyticsUseCase) Dashboard(ctx context.Context) *DashboardRes {
	const op = "AnalyticsUseCase.Dashboard"

	cached, gen, err := a.cacheRepo.GetDashboard(ctx)
	cacheOK := err == nil
	if err != nil {
		a.logger.Warnf("Dashboard cache lookup failed: %v", e.Wrap(op, err))
	} else if cached != nil {
		return &DashboardRes{Dashboard: *cached}
	}

	sales, err := a.saleRepo.ListWithItems(ctx)
	if err != nil {
		a.logger.Errorf(e.Wrap(op, err), "Failed to load sales for dashboard")
		return &DashboardRes{Dashboard: analytics.Empty(), Degraded: true}
	}

	dashboard := analytics.Aggregate(sales, a.opts.Location)

	if cacheOK {
		if err := a.cacheRepo.SetDashboard(ctx, dashboard, gen); err != nil {
			a.logger.Warnf("Failed to cache dashboard: %v", e.Wrap(op, err))
		}
	}

	return &DashboardRes{Dashboard: dashboard}
}

// WriteReport пишет XLSX-отчёт по всей истории продаж в w.
func (a *AnalyticsUseCase) WriteReport(ctx context.Context, w io.Writer) error {
	const op = "AnalyticsUseCase.WriteReport"

	sales, err := a.saleRepo.ListWithItems(ctx)
	if err != nil {
		return e.Wrap(op, err)
	}

	if err := report.Write(w, sales, analytics.Aggregate(sales, a.opts.Location), a.opts.Location); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// StoreReport строит отчёт, сохраняет его в объектное хранилище и возвращает временную ссылку.
func (a *AnalyticsUseCase) StoreReport(ctx context.Context) (*StoredReport, error) {
	const op = "AnalyticsUseCase.StoreReport"

	sales, err := a.saleRepo.ListWithItems(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	data, err := report.Bytes(sales, analytics.Aggregate(sales, a.opts.Location), a.opts.Location)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	now := a.now().In(a.opts.Location)
	key := path.Join(a.opts.KeyPrefix, now.Format("2006/01/02"),
		fmt.Sprintf("sales-%s-%s.xlsx", now.Format("150405"), uuid.NewString()))

	if err := a.storage.Upload(ctx, key, data, report.ContentType); err != nil {
		return nil, e.Wrap(op, err)
	}

	url, err := a.storage.PresignedURL(ctx, key, a.opts.PresignTTL)
	if err != nil {
		a.removeOrphan(key)
		return nil, e.Wrap(op, err)
	}

	a.logger.Infof("Sales report stored, key: %s, size: %d, sales: %d", key, len(data), len(sales))

	return &StoredReport{
		Key:       key,
		URL:       url,
		ExpiresAt: a.now().Add(a.opts.PresignTTL),
		Size:      int64(len(data)),
	}, nil
}

// removeOrphan удаляет загруженный отчёт, на который не удалось выдать ссылку.
func (a *AnalyticsUseCase) removeOrphan(key string) {
	const op = "AnalyticsUseCase.removeOrphan"

	ctx, cancel := context.WithTimeout(context.Background(), orphanCleanupTimeout)
	defer cancel()

	if err := a.storage.Delete(ctx, key); err != nil {
		a.logger.Warnf("Failed to remove orphan report %s: %v", key, e.Wrap(op, err))
	}
}

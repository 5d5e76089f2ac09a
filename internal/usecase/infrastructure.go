package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/analytics"
	"github.com/DRSN-tech/pos-backend/internal/domain"
)

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

// CacheRepository — кэш товаров и дашборда. Ошибки кэша не должны ломать основной сценарий.
type CacheRepository interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	SetProducts(ctx context.Context, products []domain.Product) error
	DeleteProducts(ctx context.Context, ids []int64) error

	// GetDashboard возвращает nil без ошибки при промахе и текущее поколение кэша.
	GetDashboard(ctx context.Context) (*analytics.Dashboard, int64, error)
	// SetDashboard не пишет ничего, если после чтения gen кэш успели сбросить.
	SetDashboard(ctx context.Context, dashboard analytics.Dashboard, gen int64) error
	// DeleteDashboard сбрасывает дашборд и сдвигает поколение.
	DeleteDashboard(ctx context.Context) error
}

// ReportStorage — объектное хранилище выгруженных отчётов.
type ReportStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// NoopCache — кэш, который ничего не хранит. Для CLI и окружений без Redis.
type NoopCache struct{}

func (NoopCache) GetProducts(context.Context, []int64) (map[int64]domain.Product, error) {
	return map[int64]domain.Product{}, nil
}

func (NoopCache) SetProducts(context.Context, []domain.Product) error { return nil }

func (NoopCache) DeleteProducts(context.Context, []int64) error { return nil }

func (NoopCache) GetDashboard(context.Context) (*analytics.Dashboard, int64, error) {
	return nil, 0, nil
}

func (NoopCache) SetDashboard(context.Context, analytics.Dashboard, int64) error { return nil }

func (NoopCache) DeleteDashboard(context.Context) error { return nil }

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/DRSN-tech/pos-backend/internal/analytics"
	"github.com/DRSN-tech/pos-backend/internal/cfg"
	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/pos-backend/pkg/clients"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const (
	dashboardKey    = "analytics:dashboard"
	dashboardGenKey = "analytics:dashboard:gen"
)

var errStaleDashboard = errors.New("dashboard generation changed")

type CacheRepo struct {
	client      *clients.RedisClient
	productConv converter.ProductConverter
	dashConv    converter.DashboardConverter
	cfg         *cfg.RedisCfg
	logger      logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProducts возвращает закэшированные товары по ID, пропуская промахи
func (c *CacheRepo) GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	if len(ids) == 0 {
		return map[int64]domain.Product{}, nil
	}

	keys := c.buildProductCacheKeys(ids)

	values, err := c.client.Client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warnf("Redis MGET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result := make(map[int64]domain.Product, len(values))
	for i, val := range values {
		data, err := redisValueToBytes(val, keys[i])
		if err != nil {
			c.logger.Warnf("%v", e.Wrap(whereami.WhereAmI(), err))
		}

		if data == nil {
			continue // cache miss
		}

		var model converter.ProductRedisModel
		if err := json.Unmarshal(data, &model); err != nil {
			c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
			continue
		}

		if model.ID != ids[i] {
			c.logger.Warnf("Cache ID mismatch: key_id: %d, model_id: %d", ids[i], model.ID)
			if err := c.client.Client.Del(ctx, keys[i]).Err(); err != nil {
				c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
			}
			continue // cache miss
		}
		result[ids[i]] = *c.productConv.ToEntity(&model)
	}

	return result, nil
}

// SetProducts кэширует несколько товаров одним пайплайном с TTL из конфигурации.
// Ошибки сериализации и записи только логируются.
func (c *CacheRepo) SetProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	pipeline := c.client.Client.Pipeline()
	for _, model := range c.productConv.ToArrRedisModel(products) {
		data, err := json.Marshal(model)
		if err != nil {
			c.logger.Warnf("Failed to marshal product for caching (Product ID: %d): %v", model.ID, e.Wrap(whereami.WhereAmI(), err))
			continue
		}

		pipeline.Set(ctx, productKey(model.ID), data, c.cfg.ProductTTL)
	}

	if _, err := pipeline.Exec(ctx); err != nil {
		c.logger.Warnf("Cache pipeline failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// DeleteProducts удаляет товары из кэша по ID
func (c *CacheRepo) DeleteProducts(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	if err := c.client.Client.Del(ctx, c.buildProductCacheKeys(ids)...).Err(); err != nil {
		c.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// GetDashboard возвращает закэшированный дашборд (nil при промахе) и поколение кэша.
// Оба значения читаются одним MGET, поколение передаётся обратно в SetDashboard.
func (c *CacheRepo) GetDashboard(ctx context.Context) (*analytics.Dashboard, int64, error) {
	values, err := c.client.Client.MGet(ctx, dashboardGenKey, dashboardKey).Result()
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	gen, err := parseGeneration(values[0])
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	data, err := redisValueToBytes(values[1], dashboardKey)
	if err != nil {
		c.logger.Warnf("%v", e.Wrap(whereami.WhereAmI(), err))
		return nil, gen, nil
	}
	if data == nil {
		return nil, gen, nil // cache miss
	}

	var model converter.DashboardRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, gen, nil
	}

	return c.dashConv.ToEntity(&model), gen, nil
}

// SetDashboard кладёт дашборд в кэш, только если поколение не изменилось с момента GetDashboard.
// Иначе между чтением продаж и записью прошла продажа, и посчитанный дашборд уже устарел.
func (c *CacheRepo) SetDashboard(ctx context.Context, dashboard analytics.Dashboard, gen int64) error {
	data, err := json.Marshal(c.dashConv.ToRedisModel(&dashboard))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	err = c.client.Client.Watch(ctx, func(tx *r.Tx) error {
		current, err := tx.Get(ctx, dashboardGenKey).Int64()
		if err != nil && !errors.Is(err, r.Nil) {
			return err
		}
		if current != gen {
			return errStaleDashboard
		}

		_, err = tx.TxPipelined(ctx, func(pipe r.Pipeliner) error {
			pipe.Set(ctx, dashboardKey, data, c.cfg.DashboardTTL)
			return nil
		})
		return err
	}, dashboardGenKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errStaleDashboard), errors.Is(err, r.TxFailedErr):
		c.logger.Debugf("Dashboard cache invalidated while computing, skip caching, generation: %d", gen)
		return nil
	default:
		c.logger.Warnf("Redis SET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return e.Wrap(whereami.WhereAmI(), err)
	}
}

// DeleteDashboard сбрасывает дашборд и увеличивает поколение в одной транзакции MULTI.
func (c *CacheRepo) DeleteDashboard(ctx context.Context) error {
	_, err := c.client.Client.TxPipelined(ctx, func(pipe r.Pipeliner) error {
		pipe.Incr(ctx, dashboardGenKey)
		pipe.Del(ctx, dashboardKey)
		return nil
	})
	if err != nil {
		c.logger.Warnf("Redis dashboard invalidation failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// buildProductCacheKeys формирует Redis-ключи из ID товаров
func (c *CacheRepo) buildProductCacheKeys(ids []int64) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}

	return keys
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// redisValueToBytes конвертирует значение из Redis в []byte.
// Поддерживает string и []byte, возвращает ошибку для неизвестных типов.
func redisValueToBytes(val interface{}, key string) ([]byte, error) {
	switch v := val.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case nil:
		return nil, nil // cache miss
	default:
		return nil, fmt.Errorf("unexpected Redis value type for key %s: %T", key, val)
	}
}

// parseGeneration читает счётчик поколений; отсутствующий ключ равен нулю.
func parseGeneration(val interface{}) (int64, error) {
	data, err := redisValueToBytes(val, dashboardGenKey)
	if err != nil || data == nil {
		return 0, err
	}

	return strconv.ParseInt(string(data), 10, 64)
}

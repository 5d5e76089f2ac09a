package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/cfg"
	"github.com/DRSN-tech/pos-backend/internal/repository/pgdb"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/jitter"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/jackc/pgx/v5"
)

const (
	notificationWait = 30 * time.Second
	reconnectBase    = 2 * time.Second
	reconnectMax     = 30 * time.Second
)

// OutboxWorker публикует события из outbox_events в Kafka.
// Будится через NOTIFY, а также периодически опрашивает таблицу на случай потерянных уведомлений.
type OutboxWorker struct {
	repo      usecase.OutboxRepository
	logger    logger.Logger
	producer  usecase.MessageProducer
	cfg       *cfg.OutboxCfg
	stop      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	dbConnStr string
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	cfg *cfg.OutboxCfg,
	dbConnStr string,
) *OutboxWorker {
	return &OutboxWorker{
		repo:      repo,
		logger:    logger,
		producer:  producer,
		cfg:       cfg,
		stop:      make(chan struct{}),
		dbConnStr: dbConnStr,
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	// Запускаем слушатель уведомлений
	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

func (w *OutboxWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *OutboxWorker) run(ctx context.Context) {
	// Обрабатываем "остатки" при старте
	w.logger.Infof("Draining pending outbox events on startup...")
	w.recoverStale(ctx)
	w.drain(ctx)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Outbox worker stopped by context cancellation")
			return
		case <-w.stop:
			w.logger.Infof("Outbox worker stopped")
			return
		case <-ticker.C:
			w.recoverStale(ctx)
			w.drain(ctx)
		}
	}
}

// recoverStale возвращает в очередь события, которые взял и не довёл до конца упавший воркер.
func (w *OutboxWorker) recoverStale(ctx context.Context) {
	n, err := w.repo.ResetStale(ctx, w.cfg.StaleAfter)
	if err != nil {
		w.logger.Warnf("Reset stale outbox events failed: %v", err)
		return
	}
	if n > 0 {
		w.logger.Warnf("Returned %d stale outbox events to pending", n)
	}
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	var conn *pgx.Conn

	connect := func() error {
		c, err := pgx.Connect(ctx, w.dbConnStr)
		if err != nil {
			return e.Wrap("failed to connect for LISTEN", err)
		}

		if _, err := c.Exec(ctx, "LISTEN "+pgdb.OutboxChannel); err != nil {
			_ = c.Close(ctx)
			return e.Wrap("failed to LISTEN", err)
		}

		conn = c
		w.logger.Infof("Subscribed to '%s' channel", pgdb.OutboxChannel)
		return nil
	}

	defer func() {
		if conn != nil {
			_ = conn.Close(context.Background())
		}
	}()

	for attempt := 0; ; {
		if conn == nil {
			if err := connect(); err != nil {
				w.logger.Warnf("LISTEN connect failed: %v", err)
				if !w.sleep(ctx, jitter.ExponentialBackoff(reconnectBase, reconnectMax, attempt, jitter.DefaultJitter)) {
					return
				}
				attempt++
				continue
			}
			attempt = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		waitCtx, cancel := context.WithTimeout(ctx, notificationWait)
		notif, err := conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				continue
			}
			w.logger.Warnf("Connection lost: %v. Reconnecting...", err)
			_ = conn.Close(ctx)
			conn = nil
			continue
		}

		if notif != nil && notif.Channel == pgdb.OutboxChannel {
			w.logger.Debugf("Received outbox notification, draining outbox events")
			w.drain(ctx)
		}
	}
}

// sleep ждёт d и возвращает false, если воркер остановлен раньше.
func (w *OutboxWorker) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	case <-w.stop:
		return false
	}
}

// drain обрабатывает пачки, пока они не закончатся или публикация не начнёт падать.
func (w *OutboxWorker) drain(ctx context.Context) {
	for {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("Batch processing failed: %v", err)
			return
		}
		if !hasMore {
			return
		}
	}
}

// processBatch возвращает true, если в пачке было хотя бы одно опубликованное событие
// и стоит попробовать следующую.
func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, w.cfg.BatchSize)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	published := 0
	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			w.logger.Warnf("Publish of event %s (sale %d) failed: %v", event.EventID, event.SaleID, err)
			if err := w.repo.ReleaseToPending(ctx, event.ID); err != nil {
				w.logger.Warnf("release to pending failed: %v", err)
			}
			continue
		}
		published++

		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	return published > 0, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) error {
	if err := w.producer.WriteRawMessage(ctx, usecase.NewWriteRawMessageReq(event)); err != nil {
		if isRetryableError(err) {
			return e.Wrap("Temporary Kafka failure, will retry", err)
		}
		return e.Wrap("Permanent Kafka failure", err)
	}
	return nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}

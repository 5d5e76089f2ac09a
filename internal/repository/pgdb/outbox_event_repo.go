package pgdb

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// OutboxChannel — канал LISTEN/NOTIFY, которым воркер будят о новых событиях.
const OutboxChannel = "outbox_pending"

type OutboxEventRepo struct {
	pool *pgxpool.Pool
	conv converter.OutboxEventConverter
}

func NewOutboxEventRepo(pool *pgxpool.Pool, conv converter.OutboxEventConverter) *OutboxEventRepo {
	return &OutboxEventRepo{
		pool: pool,
		conv: conv,
	}
}

// Create пишет событие в текущей транзакции и уведомляет воркер. NOTIFY доставляется только после коммита.
func (o *OutboxEventRepo) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	conn := tr.Conn(ctx, o.pool)
	model := o.conv.ToModel(event)

	query := `
		INSERT INTO outbox_events (
			event_id,
			event_type,
			sale_id,
			payload,
			status,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at;
	`

	if err := conn.QueryRow(ctx, query,
		model.EventID,
		model.EventType,
		model.SaleID,
		model.Payload,
		model.Status,
		model.CreatedAt,
	).Scan(&model.ID, &model.CreatedAt); err != nil {
		if tr.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%s: event with id %s already exists: %w", whereami.WhereAmI(), event.EventID, err)
		}

		return nil, storeErr(whereami.WhereAmI(), err)
	}

	if _, err := conn.Exec(ctx, "NOTIFY "+OutboxChannel); err != nil {
		return nil, storeErr(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(model), nil
}

// GetAndMarkAsProcessing забирает пачку ожидающих событий. SKIP LOCKED позволяет нескольким
// воркерам разбирать outbox параллельно, не получая одно событие дважды.
func (o *OutboxEventRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	query := `
		UPDATE outbox_events
		SET status = $1, processing_started_at = now()
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status = $2
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, event_id, event_type, sale_id, payload, status, created_at, processed_at
	`

	rows, err := o.pool.Query(ctx, query, usecase.Processing, usecase.Pending, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query pending events: %w", whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var models []*converter.OutboxEventModel
	for rows.Next() {
		var model converter.OutboxEventModel
		if err := rows.Scan(
			&model.ID,
			&model.EventID,
			&model.EventType,
			&model.SaleID,
			&model.Payload,
			&model.Status,
			&model.CreatedAt,
			&model.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: failed to scan event: %w", whereami.WhereAmI(), err)
		}

		models = append(models, &model)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iterator error: %w", whereami.WhereAmI(), err)
	}

	return o.conv.ToArrEntity(models), nil
}

func (o *OutboxEventRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_events
		SET status = $1, processed_at = now()
		WHERE id = $2 AND status = $3
	`

	// Ноль затронутых строк: событие уже обработано другим воркером
	if _, err := o.pool.Exec(ctx, query, usecase.Processed, id, usecase.Processing); err != nil {
		return fmt.Errorf("%s: failed to mark event %d as processed: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}

// ReleaseToPending возвращает событие в очередь после неудачной публикации.
func (o *OutboxEventRepo) ReleaseToPending(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_events
		SET status = $1, processing_started_at = NULL
		WHERE id = $2 AND status = $3
	`

	if _, err := o.pool.Exec(ctx, query, usecase.Pending, id, usecase.Processing); err != nil {
		return fmt.Errorf("%s: failed to release event %d: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}

// ResetStale возвращает в очередь события, зависшие в processing дольше olderThan (например, после падения воркера).
func (o *OutboxEventRepo) ResetStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE outbox_events
		SET status = $1, processing_started_at = NULL
		WHERE status = $2 AND processing_started_at < now() - make_interval(secs => $3)
	`

	tag, err := o.pool.Exec(ctx, query, usecase.Pending, usecase.Processing, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("%s: failed to reset stale events: %w", whereami.WhereAmI(), err)
	}

	return tag.RowsAffected(), nil
}

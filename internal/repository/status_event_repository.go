package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workorder-service/internal/domain"
)

// StatusEventRepository stores the append-only transition log.
type StatusEventRepository interface {
	Create(ctx context.Context, event *domain.StatusChangeEvent) error
	ListByWorkOrder(ctx context.Context, workOrderID string) ([]domain.StatusChangeEvent, error)
}

type statusEventRepository struct {
	pool *pgxpool.Pool
}

// NewStatusEventRepository builds repository.
func NewStatusEventRepository(pool *pgxpool.Pool) StatusEventRepository {
	return &statusEventRepository{pool: pool}
}

func (r *statusEventRepository) Create(ctx context.Context, event *domain.StatusChangeEvent) error {
	const query = `
        INSERT INTO status_change_events (work_order_id, old_status, new_status, actor_account_id, actor_role, note)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		event.WorkOrderID,
		event.OldStatus,
		event.NewStatus,
		event.ActorID,
		event.ActorRole,
		event.Note,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *statusEventRepository) ListByWorkOrder(ctx context.Context, workOrderID string) ([]domain.StatusChangeEvent, error) {
	const query = `
        SELECT id, work_order_id, old_status, new_status, actor_account_id, actor_role, note, created_at
        FROM status_change_events WHERE work_order_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusChangeEvent
	for rows.Next() {
		var event domain.StatusChangeEvent
		if err := rows.Scan(
			&event.ID,
			&event.WorkOrderID,
			&event.OldStatus,
			&event.NewStatus,
			&event.ActorID,
			&event.ActorRole,
			&event.Note,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}

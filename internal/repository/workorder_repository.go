package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/pkg/util"
)

// ErrStaleStatus signals that a guarded update matched no row because
// the work order moved to a different status after it was read.
var ErrStaleStatus = errors.New("work order status changed concurrently")

// SQLSTATEs raised by the transition guard trigger (migrations/0002).
const (
	sqlstateInvalidTransition = "WO001"
	sqlstateTerminalStatus    = "WO002"
)

// WorkOrderFilter captures listing parameters. Rows returned are
// assumed already tenancy-filtered by the caller's scope.
type WorkOrderFilter struct {
	OrgID       *string
	BuildingID  *string
	RequesterID *string
	Statuses    []domain.Status
	Severities  []domain.Severity
	Limit       int
	Offset      int
}

// WorkOrderRepository encapsulates work order persistence.
type WorkOrderRepository interface {
	Create(ctx context.Context, order *domain.WorkOrder) error
	GetByID(ctx context.Context, id string) (*domain.WorkOrder, error)
	ListWithFilter(ctx context.Context, filter WorkOrderFilter) ([]domain.WorkOrder, error)
	// UpdateGuarded applies the patch only if the stored status still
	// equals expectedStatus, in the same statement. The actor role is
	// exposed to the transition guard trigger for the duration of the
	// transaction.
	UpdateGuarded(ctx context.Context, order *domain.WorkOrder, expectedStatus domain.Status, actorRole domain.Role) error
}

type workOrderRepository struct {
	pool *pgxpool.Pool
}

// NewWorkOrderRepository instantiates repository.
func NewWorkOrderRepository(pool *pgxpool.Pool) WorkOrderRepository {
	return &workOrderRepository{pool: pool}
}

func (r *workOrderRepository) Create(ctx context.Context, order *domain.WorkOrder) error {
	const query = `
        INSERT INTO work_orders (org_id, building_id, space_id, requester_account_id, status, severity, category, description)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, number, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		order.OrgID,
		order.BuildingID,
		order.SpaceID,
		order.RequesterID,
		order.Status,
		order.Severity,
		order.Category,
		order.Description,
	).Scan(&order.ID, &order.Number, &order.CreatedAt, &order.UpdatedAt)
}

func (r *workOrderRepository) GetByID(ctx context.Context, id string) (*domain.WorkOrder, error) {
	const query = selectColumns + ` FROM work_orders WHERE id=$1`
	var order domain.WorkOrder
	if err := scanWorkOrder(r.pool.QueryRow(ctx, query, id), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *workOrderRepository) UpdateGuarded(ctx context.Context, order *domain.WorkOrder, expectedStatus domain.Status, actorRole domain.Role) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// The trigger re-validates the transition with this role.
	if _, err := tx.Exec(ctx, `SELECT set_config('app.actor_role', $1, true)`, string(actorRole)); err != nil {
		return err
	}

	const query = `
        UPDATE work_orders SET assigned_technician=$1, scheduled_date=$2, scheduled_time_window=$3,
            quote_amount=$4, invoice_number=$5, status=$6, completed_at=$7, updated_at=NOW()
        WHERE id=$8 AND status=$9`
	cmd, err := tx.Exec(ctx, query,
		order.AssignedTechnician,
		order.ScheduledDate,
		order.ScheduledTimeWindow,
		order.QuoteAmount,
		order.InvoiceNumber,
		order.Status,
		order.CompletedAt,
		order.ID,
		expectedStatus,
	)
	if err != nil {
		return translateGuardError(err)
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM work_orders WHERE id=$1)`, order.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrStaleStatus
	}
	return tx.Commit(ctx)
}

func translateGuardError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case sqlstateInvalidTransition, sqlstateTerminalStatus:
		return util.NewDomainError(util.CodeInvalidTransition, pgErr.Message, 409, nil)
	}
	return err
}

func (r *workOrderRepository) ListWithFilter(ctx context.Context, filter WorkOrderFilter) ([]domain.WorkOrder, error) {
	base := selectColumns + ` FROM work_orders`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OrgID != nil {
		args = append(args, *filter.OrgID)
		clauses = append(clauses, fmt.Sprintf("org_id=$%d", len(args)))
	}
	if filter.BuildingID != nil {
		args = append(args, *filter.BuildingID)
		clauses = append(clauses, fmt.Sprintf("building_id=$%d", len(args)))
	}
	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_account_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Severities) > 0 {
		placeholders := make([]string, len(filter.Severities))
		for i, severity := range filter.Severities {
			args = append(args, severity)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("severity IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkOrder
	for rows.Next() {
		var order domain.WorkOrder
		if err := scanWorkOrder(rows, &order); err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, rows.Err()
}

const selectColumns = `
        SELECT id, number, org_id, building_id, space_id, requester_account_id,
               status, severity, category, description,
               assigned_technician, scheduled_date, scheduled_time_window, quote_amount, invoice_number,
               completed_at, created_at, updated_at`

func scanWorkOrder(row pgx.Row, order *domain.WorkOrder) error {
	return row.Scan(
		&order.ID,
		&order.Number,
		&order.OrgID,
		&order.BuildingID,
		&order.SpaceID,
		&order.RequesterID,
		&order.Status,
		&order.Severity,
		&order.Category,
		&order.Description,
		&order.AssignedTechnician,
		&order.ScheduledDate,
		&order.ScheduledTimeWindow,
		&order.QuoteAmount,
		&order.InvoiceNumber,
		&order.CompletedAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workorder-service/internal/domain"
)

// AccountRepository reads caller accounts. Accounts are managed by the
// identity service; this service only resolves roles and recipients.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	ListByOrgAndRoles(ctx context.Context, orgID string, roles []domain.Role) ([]domain.Account, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository constructs repository.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	const query = `
        SELECT id, name, email, phone, role, org_id, active, created_at, updated_at
        FROM accounts WHERE id=$1`
	var account domain.Account
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.Phone,
		&account.Role,
		&account.OrgID,
		&account.Active,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) ListByOrgAndRoles(ctx context.Context, orgID string, roles []domain.Role) ([]domain.Account, error) {
	args := []any{orgID}
	placeholders := make([]string, len(roles))
	for i, role := range roles {
		args = append(args, role)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`
        SELECT id, name, email, phone, role, org_id, active, created_at, updated_at
        FROM accounts WHERE org_id=$1 AND active AND role IN (%s)
        ORDER BY created_at ASC`, strings.Join(placeholders, ","))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.ID,
			&account.Name,
			&account.Email,
			&account.Phone,
			&account.Role,
			&account.OrgID,
			&account.Active,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	return result, rows.Err()
}

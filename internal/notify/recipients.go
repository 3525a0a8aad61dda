package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/internal/repository"
)

// Recipient is a resolved delivery target.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// RecipientResolver resolves delivery targets for an organization or a
// single account.
type RecipientResolver interface {
	OrgRecipients(ctx context.Context, orgID string) ([]Recipient, error)
	AccountRecipient(ctx context.Context, accountID string) (*Recipient, error)
}

// accountResolver reads the account directory, caching per-org lists
// in redis. The directory changes rarely; a short TTL keeps the
// fan-out path off the accounts table.
type accountResolver struct {
	accounts repository.AccountRepository
	cache    *redis.Client
	ttl      time.Duration
	logger   *zap.Logger
}

// NewAccountResolver builds the default resolver. cache may be nil.
func NewAccountResolver(accounts repository.AccountRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) RecipientResolver {
	return &accountResolver{accounts: accounts, cache: cache, ttl: ttl, logger: logger}
}

func (r *accountResolver) OrgRecipients(ctx context.Context, orgID string) ([]Recipient, error) {
	cacheKey := "notify:org:" + orgID

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var recipients []Recipient
			if jsonErr := json.Unmarshal([]byte(cached), &recipients); jsonErr == nil {
				return recipients, nil
			}
		} else if err != redis.Nil {
			r.logger.Debug("recipient cache read failed", zap.Error(err))
		}
	}

	accounts, err := r.accounts.ListByOrgAndRoles(ctx, orgID, []domain.Role{domain.RoleOrgAdmin, domain.RoleOrgMember})
	if err != nil {
		return nil, err
	}
	recipients := make([]Recipient, 0, len(accounts))
	for _, account := range accounts {
		recipients = append(recipients, toRecipient(account))
	}

	if r.cache != nil {
		if payload, err := json.Marshal(recipients); err == nil {
			if err := r.cache.Set(ctx, cacheKey, payload, r.ttl).Err(); err != nil {
				r.logger.Debug("recipient cache write failed", zap.Error(err))
			}
		}
	}
	return recipients, nil
}

func (r *accountResolver) AccountRecipient(ctx context.Context, accountID string) (*Recipient, error) {
	account, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	recipient := toRecipient(*account)
	return &recipient, nil
}

func toRecipient(account domain.Account) Recipient {
	recipient := Recipient{Name: account.Name, Email: account.Email}
	if account.Phone != nil {
		recipient.Phone = *account.Phone
	}
	return recipient
}

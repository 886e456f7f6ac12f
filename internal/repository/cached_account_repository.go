package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chatkit/chat-backend/internal/domain"
)

const accountKeyPrefix = "account:"

// CachedAccountRepository is a read-through Redis cache in front of another
// AccountRepository. Accounts never change after signup, so entries are only
// written, never invalidated. Cache faults fall through to the inner store.
type CachedAccountRepository struct {
	inner  AccountRepository
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

type cachedAccount struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewCachedAccountRepository wraps inner with a Redis cache.
func NewCachedAccountRepository(inner AccountRepository, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CachedAccountRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedAccountRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (r *CachedAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if err := r.inner.Create(ctx, account); err != nil {
		return err
	}
	r.store(ctx, account)
	return nil
}

func (r *CachedAccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	raw, err := r.client.Get(ctx, accountKeyPrefix+username).Bytes()
	switch {
	case err == nil:
		var cached cachedAccount
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return &domain.Account{
				ID:           cached.ID,
				Username:     cached.Username,
				PasswordHash: cached.PasswordHash,
				CreatedAt:    cached.CreatedAt,
			}, nil
		}
		r.logger.Warn("discarding corrupt account cache entry", zap.String("username", username))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("account cache read failed", zap.Error(err))
	}

	account, err := r.inner.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	r.store(ctx, account)
	return account, nil
}

// List always reads from the inner store.
func (r *CachedAccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	return r.inner.List(ctx)
}

func (r *CachedAccountRepository) store(ctx context.Context, account *domain.Account) {
	payload, err := json.Marshal(cachedAccount{
		ID:           account.ID,
		Username:     account.Username,
		PasswordHash: account.PasswordHash,
		CreatedAt:    account.CreatedAt,
	})
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, accountKeyPrefix+account.Username, payload, r.ttl).Err(); err != nil {
		r.logger.Warn("account cache write failed", zap.Error(err))
	}
}

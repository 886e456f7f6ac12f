package repository

import (
	"context"
	"errors"

	"github.com/chatkit/chat-backend/internal/domain"
)

var (
	// ErrAccountNotFound is returned when no account matches a username.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateUsername is returned by Create when the username is taken.
	ErrDuplicateUsername = errors.New("username already registered")
)

// AccountRepository is the account directory keyed by username. Create must
// be atomic with respect to the uniqueness of Username.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chatkit/chat-backend/internal/auth"
	"github.com/chatkit/chat-backend/internal/config"
	"github.com/chatkit/chat-backend/internal/domain"
	"github.com/chatkit/chat-backend/internal/events"
	"github.com/chatkit/chat-backend/internal/repository"
)

var (
	// ErrInvalidCredentials is the common cause of every login failure.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNoSuchUser is returned by Login for an unknown username.
	ErrNoSuchUser = fmt.Errorf("%w: no such user", ErrInvalidCredentials)
	// ErrBadPassword is returned by Login when the password does not match.
	ErrBadPassword = fmt.Errorf("%w: bad password", ErrInvalidCredentials)
	// ErrDuplicateUsername is returned by Signup when the username is taken.
	ErrDuplicateUsername = errors.New("username already registered")
	// ErrInvalidSignup is the common cause of signup input the store can
	// never turn into a usable account.
	ErrInvalidSignup = errors.New("invalid signup")
	// ErrReservedUsername is returned by Signup for the anonymous placeholder
	// identity, which is never reported as a caller.
	ErrReservedUsername = fmt.Errorf("%w: username is reserved", ErrInvalidSignup)
	// ErrPasswordTooLong is returned by Signup when the password exceeds
	// auth.MaxPasswordBytes.
	ErrPasswordTooLong = fmt.Errorf("%w: password exceeds %d bytes", ErrInvalidSignup, auth.MaxPasswordBytes)
)

// AuthService registers accounts and exchanges username/password pairs for
// signed credentials. It has no knowledge of HTTP.
type AuthService struct {
	accounts   repository.AccountRepository
	hasher     *auth.PasswordHasher
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Accounts   repository.AccountRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accounts:   deps.Accounts,
		hasher:     auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL()),
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Signup stores a new account with a hashed password.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*domain.Account, error) {
	if username == auth.AnonymousCaller {
		return nil, ErrReservedUsername
	}
	if _, err := s.accounts.GetByUsername(ctx, username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, err
	}

	account := &domain.Account{Username: username, PasswordHash: hash}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.publish(ctx, events.EventAccountRegistered, username, nil)
	return account, nil
}

// Login verifies the password and issues a credential for the account.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Credential, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			s.publish(ctx, events.EventLoginFailed, username, events.LoginFailedPayload{Reason: "no_such_user"})
			return nil, ErrNoSuchUser
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		s.publish(ctx, events.EventLoginFailed, username, events.LoginFailedPayload{Reason: "bad_password"})
		return nil, ErrBadPassword
	}

	cred, err := s.tokenMgr.Issue(account.Username, s.now())
	if err != nil {
		return nil, fmt.Errorf("issue credential: %w", err)
	}

	s.publish(ctx, events.EventLoginSucceeded, username, events.LoginSucceededPayload{ExpiresAt: cred.ExpiresAt})
	return cred, nil
}

// Logout records the caller leaving. Credentials are stateless, so nothing
// is revoked; the transport clears the client cookie.
func (s *AuthService) Logout(ctx context.Context, username string) error {
	if username == "" {
		return nil
	}
	s.publish(ctx, events.EventLoggedOut, username, nil)
	return nil
}

// ListAccounts returns every registered account.
func (s *AuthService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, subject string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.NewEvent(eventType, subject, s.now(), payload)
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("audit event handler failed",
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}

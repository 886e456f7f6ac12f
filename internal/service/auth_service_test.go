package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/chatkit/chat-backend/internal/auth"
	"github.com/chatkit/chat-backend/internal/config"
	"github.com/chatkit/chat-backend/internal/domain"
	"github.com/chatkit/chat-backend/internal/events"
	"github.com/chatkit/chat-backend/internal/repository"
)

func testConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{
		JWTSecret:       "test-secret",
		TokenTTLMinutes: 60,
		BcryptCost:      bcrypt.MinCost,
		CookieName:      "token",
	}}
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestService(t *testing.T) (*AuthService, *repository.MemoryAccountRepository, *recordedEvents) {
	t.Helper()
	repo := repository.NewMemoryAccountRepository()
	dispatcher := events.NewInMemoryDispatcher()
	rec := &recordedEvents{}
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, rec.handle)
	}
	svc := NewAuthService(testConfig(), AuthDependencies{Accounts: repo, Dispatcher: dispatcher})
	return svc, repo, rec
}

func TestAuthService_SignupThenLogin(t *testing.T) {
	ctx := context.Background()
	pairs := []struct{ username, password string }{
		{"alice", "pw123"},
		{"bob", "correct horse battery staple"},
		{"user@example.com", "p"},
		{"한글", "비밀번호"},
	}

	svc, _, _ := newTestService(t)
	for _, p := range pairs {
		t.Run(p.username, func(t *testing.T) {
			account, err := svc.Signup(ctx, p.username, p.password)
			require.NoError(t, err)
			assert.Equal(t, p.username, account.Username)
			assert.NotEqual(t, p.password, account.PasswordHash)

			cred, err := svc.Login(ctx, p.username, p.password)
			require.NoError(t, err)
			assert.Equal(t, p.username, cred.Subject)

			subject, ok := svc.TokenManager().Verify(cred.Token)
			assert.True(t, ok)
			assert.Equal(t, p.username, subject)
		})
	}
}

func TestAuthService_LoginBadPassword(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := newTestService(t)

	_, err := svc.Signup(ctx, "alice", "pw123")
	require.NoError(t, err)

	for _, wrong := range []string{"", "pw1234", "PW123", "pw12"} {
		cred, err := svc.Login(ctx, "alice", wrong)
		assert.ErrorIs(t, err, ErrBadPassword)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.NotErrorIs(t, err, ErrNoSuchUser)
		assert.Nil(t, cred)
	}

	assert.NotContains(t, rec.types(), events.EventLoginSucceeded)
}

func TestAuthService_LoginUnknownUser(t *testing.T) {
	svc, _, rec := newTestService(t)

	cred, err := svc.Login(context.Background(), "ghost", "anything")
	assert.ErrorIs(t, err, ErrNoSuchUser)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NotErrorIs(t, err, ErrBadPassword)
	assert.Nil(t, cred)

	require.Len(t, rec.events, 1)
	assert.Equal(t, events.EventLoginFailed, rec.events[0].Type)
	assert.Equal(t, events.LoginFailedPayload{Reason: "no_such_user"}, rec.events[0].Payload)
}

func TestAuthService_SignupDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	_, err := svc.Signup(ctx, "alice", "pw123")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "alice", "different")
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	accounts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	_, err = svc.Login(ctx, "alice", "pw123")
	assert.NoError(t, err, "original password still valid")
}

func TestAuthService_ConcurrentSignupCreatesOneAccount(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		succeeded  int
		duplicates int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Signup(ctx, "alice", fmt.Sprintf("pw%d", i))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, ErrDuplicateUsername) {
				duplicates++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 7, duplicates)
	accounts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestAuthService_SignupRejectsEmptyPassword(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), "alice", "")
	assert.Error(t, err)

	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestAuthService_SignupRejectsUnusableInput(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "anonymous placeholder username", username: auth.AnonymousCaller, password: "pw123", wantErr: ErrReservedUsername},
		{name: "password over bcrypt limit", username: "alice", password: strings.Repeat("p", auth.MaxPasswordBytes+1), wantErr: ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, rec := newTestService(t)

			_, err := svc.Signup(context.Background(), tt.username, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidSignup)

			accounts, err := repo.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, accounts)
			assert.Empty(t, rec.types())
		})
	}
}

func TestAuthService_SignupAcceptsPasswordAtLimit(t *testing.T) {
	svc, _, _ := newTestService(t)
	password := strings.Repeat("p", auth.MaxPasswordBytes)

	_, err := svc.Signup(context.Background(), "alice", password)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice", password)
	assert.NoError(t, err)
}

// failingRepository fails every call with err.
type failingRepository struct {
	err error
}

func (f failingRepository) Create(context.Context, *domain.Account) error { return f.err }
func (f failingRepository) GetByUsername(context.Context, string) (*domain.Account, error) {
	return nil, f.err
}
func (f failingRepository) List(context.Context) ([]domain.Account, error) { return nil, f.err }

func TestAuthService_DirectoryFaultsSurface(t *testing.T) {
	fault := errors.New("directory unavailable")
	svc := NewAuthService(testConfig(), AuthDependencies{Accounts: failingRepository{err: fault}})
	ctx := context.Background()

	_, err := svc.Login(ctx, "alice", "pw")
	assert.ErrorIs(t, err, fault)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Signup(ctx, "alice", "pw")
	assert.ErrorIs(t, err, fault)
	assert.NotErrorIs(t, err, ErrDuplicateUsername)

	_, err = svc.ListAccounts(ctx)
	assert.ErrorIs(t, err, fault)
}

// racingRepository reports no account on lookup but a duplicate on create,
// as when another signup wins between the two calls.
type racingRepository struct {
	repository.AccountRepository
}

func (racingRepository) GetByUsername(context.Context, string) (*domain.Account, error) {
	return nil, repository.ErrAccountNotFound
}

func (racingRepository) Create(context.Context, *domain.Account) error {
	return repository.ErrDuplicateUsername
}

func TestAuthService_SignupLosesRace(t *testing.T) {
	svc := NewAuthService(testConfig(), AuthDependencies{Accounts: racingRepository{}})
	_, err := svc.Signup(context.Background(), "alice", "pw")
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestAuthService_CredentialTimestamps(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := newTestService(t)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	_, err := svc.Signup(ctx, "alice", "pw123")
	require.NoError(t, err)

	cred, err := svc.Login(ctx, "alice", "pw123")
	require.NoError(t, err)
	assert.Equal(t, fixed, cred.IssuedAt.UTC())
	assert.Equal(t, fixed.Add(time.Hour), cred.ExpiresAt.UTC())

	assert.Equal(t, []events.EventType{events.EventAccountRegistered, events.EventLoginSucceeded}, rec.types())
	assert.Equal(t, fixed, rec.events[1].Timestamp)
}

func TestAuthService_Logout(t *testing.T) {
	svc, _, rec := newTestService(t)

	require.NoError(t, svc.Logout(context.Background(), ""))
	assert.Empty(t, rec.types())

	require.NoError(t, svc.Logout(context.Background(), "alice"))
	assert.Equal(t, []events.EventType{events.EventLoggedOut}, rec.types())
	assert.Equal(t, "alice", rec.events[0].Subject)
}

func TestAuthService_ListAccounts(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	accounts, err := svc.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	for _, name := range []string{"alice", "bob"} {
		_, err := svc.Signup(ctx, name, "pw")
		require.NoError(t, err)
	}

	accounts, err = svc.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestAuthService_NilDispatcher(t *testing.T) {
	svc := NewAuthService(testConfig(), AuthDependencies{Accounts: repository.NewMemoryAccountRepository()})
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "pw")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "alice", "pw")
	assert.NoError(t, err)
}

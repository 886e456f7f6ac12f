package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/chatkit/chat-backend/internal/domain"
)

// DefaultTokenTTL is the credential lifetime used when none is configured.
const DefaultTokenTTL = time.Hour

var errEmptySubject = errors.New("token subject is empty")

// CredentialVerifier validates bearer tokens and returns their subject.
type CredentialVerifier interface {
	Verify(token string) (subject string, ok bool)
}

// TokenManager issues and validates HS256 JWT credentials. The secret is
// fixed for the lifetime of the process.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued credentials.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue signs a credential for subject with iat=now and exp=now+TTL.
func (tm *TokenManager) Issue(subject string, now time.Time) (*domain.Credential, error) {
	if subject == "" {
		return nil, errEmptySubject
	}
	issuedAt := now.Truncate(time.Second)
	expiresAt := issuedAt.Add(tm.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return nil, err
	}
	return &domain.Credential{
		Token:     tokenString,
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks the signature and that exp is after the verifier's clock.
// Any failure yields ok=false and no subject.
func (tm *TokenManager) Verify(tokenStr string) (string, bool) {
	if err := tm.validate(tokenStr); err != nil {
		return "", false
	}
	subject, err := decodeSubjectUnchecked(tokenStr)
	if err != nil {
		return "", false
	}
	return subject, true
}

func (tm *TokenManager) validate(tokenStr string) error {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return errors.New("invalid token claims")
	}
	return nil
}

// decodeSubjectUnchecked reads sub without checking the signature. Callers
// must have validated the token first.
func decodeSubjectUnchecked(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errEmptySubject
	}
	return claims.Subject, nil
}

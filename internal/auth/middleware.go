package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// AuthMiddleware resolves the caller of each request from a bearer token
// carried in the Authorization header or the credential cookie. It never
// rejects a request: a missing or invalid token leaves the caller unbound.
type AuthMiddleware struct {
	tokens     CredentialVerifier
	cookieName string
	logger     *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens CredentialVerifier, cookieName string, logger *zap.Logger) *AuthMiddleware {
	if cookieName == "" {
		cookieName = "token"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, cookieName: cookieName, logger: logger}
}

// Handle binds the caller when the request carries a valid credential and
// always continues the chain. Errors that escape the rest of the chain are
// logged and dropped.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if raw := m.extractToken(c); raw != "" {
		if subject, ok := m.tokens.Verify(raw); ok {
			bindCaller(c, subject)
		} else {
			m.logger.Debug("ignoring invalid credential", zap.String("path", c.Path()))
		}
	}

	if err := c.Next(); err != nil {
		m.logger.Error("request forwarding failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return nil
}

func (m *AuthMiddleware) extractToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(header, bearerPrefix) {
		if token := header[len(bearerPrefix):]; token != "" {
			return token
		}
	}
	return c.Cookies(m.cookieName)
}

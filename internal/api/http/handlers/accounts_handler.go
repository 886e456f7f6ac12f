package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/chatkit/chat-backend/internal/api/dto"
	"github.com/chatkit/chat-backend/internal/auth"
	"github.com/chatkit/chat-backend/internal/service"
	apperrors "github.com/chatkit/chat-backend/pkg/util/errorutil"
)

// AccountsHandler exposes the account and session endpoints.
type AccountsHandler struct {
	auth       *service.AuthService
	cookieName string
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(authService *service.AuthService, cookieName string) *AccountsHandler {
	if cookieName == "" {
		cookieName = "token"
	}
	return &AccountsHandler{auth: authService, cookieName: cookieName}
}

// Signup handles POST /api/users/signup.
func (h *AccountsHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.FromValidation(err)
	}

	account, err := h.auth.Signup(c.UserContext(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateUsername):
			return apperrors.NewConflict("username already registered", map[string]any{"username": req.Username})
		case errors.Is(err, service.ErrReservedUsername):
			return apperrors.NewValidationError("request validation failed", map[string]any{"username": "is reserved"})
		case errors.Is(err, service.ErrPasswordTooLong):
			return apperrors.NewValidationError("request validation failed", map[string]any{"password": err.Error()})
		}
		return err
	}

	return c.JSON(fiber.Map{"data": dto.SignupResponse{Username: account.Username}})
}

// Login handles POST /api/users/login. The credential is delivered as an
// HttpOnly cookie.
func (h *AccountsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.FromValidation(err)
	}

	cred, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return apperrors.NewUnauthorized("invalid username or password")
		}
		return err
	}

	h.setCredentialCookie(c, cred.Token, int(cred.TTL().Seconds()))
	return c.JSON(fiber.Map{"data": dto.LoginResponse{Username: cred.Subject, ExpiresAt: cred.ExpiresAt}})
}

// Logout handles POST /api/users/logout by expiring the credential cookie.
func (h *AccountsHandler) Logout(c *fiber.Ctx) error {
	caller, _ := auth.CurrentCaller(c)
	if err := h.auth.Logout(c.UserContext(), caller); err != nil {
		return err
	}

	h.setCredentialCookie(c, "", -1)
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

// Me handles GET /api/users/me.
func (h *AccountsHandler) Me(c *fiber.Ctx) error {
	caller, ok := auth.CurrentCaller(c)
	return c.JSON(fiber.Map{"data": dto.CallerResponse{Authenticated: ok, Username: caller}})
}

// List handles GET /api/users.
func (h *AccountsHandler) List(c *fiber.Ctx) error {
	accounts, err := h.auth.ListAccounts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAccountResponses(accounts)})
}

// setCredentialCookie writes the cookie with exactly HttpOnly, Path and
// Max-Age. fiber.Cookie would add SameSite and cannot emit Max-Age=0, so the
// header is rendered by net/http. A negative maxAge renders as Max-Age=0.
func (h *AccountsHandler) setCredentialCookie(c *fiber.Ctx, value string, maxAge int) {
	cookie := &http.Cookie{
		Name:     h.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	}
	c.Append(fiber.HeaderSetCookie, cookie.String())
}

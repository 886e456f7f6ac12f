package dto

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/chatkit/chat-backend/internal/auth"
	"github.com/chatkit/chat-backend/internal/domain"
)

var errBlank = errors.New("cannot be blank")

// notBlank rejects whitespace-only strings, which validation.Required lets
// through.
func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errBlank
	}
	return nil
}

// Password length is counted in bytes, the unit bcrypt limits.
var passwordLength = validation.Length(1, auth.MaxPasswordBytes)

// SignupRequest payload for new accounts.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.By(notBlank),
			validation.NotIn(auth.AnonymousCaller).Error("is reserved")),
		validation.Field(&r.Password, validation.Required, validation.By(notBlank), passwordLength),
	)
}

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.By(notBlank)),
		validation.Field(&r.Password, validation.Required, validation.By(notBlank), passwordLength),
	)
}

// SignupResponse is returned after registration.
type SignupResponse struct {
	Username string `json:"username"`
}

// LoginResponse is returned after a successful login. The token itself is
// delivered only in the cookie.
type LoginResponse struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CallerResponse describes the caller bound to the current request.
type CallerResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAccountResponses maps accounts to their public view.
func NewAccountResponses(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountResponse{ID: a.ID, Username: a.Username, CreatedAt: a.CreatedAt})
	}
	return out
}

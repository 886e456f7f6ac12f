package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// AnonymousCaller is the placeholder identity some frameworks bind for
// unauthenticated requests. It is never reported as a caller.
const AnonymousCaller = "anonymousUser"

var callerCtxKey = &contextKey{"caller"}

type contextKey struct {
	name string
}

// WithCaller returns a copy of ctx carrying username as the request caller.
func WithCaller(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, callerCtxKey, username)
}

// CallerFromContext returns the caller bound to ctx, if any.
func CallerFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	username, _ := ctx.Value(callerCtxKey).(string)
	return normalizeCaller(username)
}

// CurrentCaller returns the caller bound to the in-flight request.
func CurrentCaller(c *fiber.Ctx) (string, bool) {
	username, _ := c.Locals(callerCtxKey).(string)
	return normalizeCaller(username)
}

func bindCaller(c *fiber.Ctx, username string) {
	c.Locals(callerCtxKey, username)
	c.SetUserContext(WithCaller(c.UserContext(), username))
}

func normalizeCaller(username string) (string, bool) {
	if username == "" || username == AnonymousCaller {
		return "", false
	}
	return username, true
}

package domain

import "time"

// Credential describes a signed bearer token minted at login. It is never
// persisted server-side.
type Credential struct {
	Token     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TTL returns the lifetime the credential was issued with.
func (c Credential) TTL() time.Duration {
	return c.ExpiresAt.Sub(c.IssuedAt)
}

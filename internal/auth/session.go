// Package auth provides session management types.
package auth

import (
	"time"
)

// Session represents an issued login session. Tokens are stateless JWTs,
// so ending a session is a client-side discard; the server keeps no
// session registry.
type Session struct {
	Token     string    `json:"token"`
	ActorID   string    `json:"actorId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsExpired checks if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

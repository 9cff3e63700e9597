package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims binds a signed handle to one discovery session.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionHandle is issued when a discovery session is created and reissued on every session call.
type SessionHandle struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

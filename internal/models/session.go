package models

import "time"

// Session is a server-side login session. Token is the opaque value
// carried by the session cookie.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

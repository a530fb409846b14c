package model

import "time"

// Session binds an opaque token to a user until ExpiresAt.  Sessions
// are created on login or registration and removed on logout, on a
// lookup after expiry, or by the periodic sweep.
//
// Fields:
//  ID        – the token itself (random hex).
//  UserID    – owner of the session.
//  ExpiresAt – instant after which the session is no longer valid.
//  CreatedAt – creation timestamp.
type Session struct {
    ID        string
    UserID    string
    ExpiresAt time.Time
    CreatedAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

package model

import "time"

// Role names accepted by the authorization layer.
const (
    RoleUser  = "user"
    RoleAdmin = "admin"
)

// User represents an account as stored by the entity store.  The
// password is never kept in plain text; PasswordHash holds the bcrypt
// digest.  Email is stored trimmed and lower-cased so that lookups are
// case-insensitive.
//
// Fields:
//  ID           – opaque unique identifier.
//  Name         – display name.
//  Email        – unique, normalized email address.
//  PasswordHash – bcrypt digest of the password.
//  Role         – RoleUser or RoleAdmin.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           string    `json:"id"`
    Name         string    `json:"name"`
    Email        string    `json:"email"`
    PasswordHash string    `json:"-"`
    Role         string    `json:"role"`
    CreatedAt    time.Time `json:"createdAt"`
    UpdatedAt    time.Time `json:"updatedAt"`
}

// AuthUser is the identity handed to request handlers once a session
// has been resolved.  It deliberately has no password field.
type AuthUser struct {
    ID        string    `json:"id"`
    Name      string    `json:"name"`
    Email     string    `json:"email"`
    Role      string    `json:"role"`
    CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports whether the identity carries the admin role.
func (u AuthUser) IsAdmin() bool { return u.Role == RoleAdmin }

// Auth strips the digest from a stored user.
func (u User) Auth() AuthUser {
    return AuthUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

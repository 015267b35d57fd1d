package model

import "time"

// Role is the closed set of roles a user can hold. Keeping it as a
// dedicated type forces handlers and middleware to compare against the
// two constants below instead of free-form strings.
type Role string

const (
    RoleUser  Role = "USER"  // regular customer, may create bookings
    RoleAdmin Role = "ADMIN" // administrator, may manage events
)

// ParseRole normalizes a client-supplied role string. Anything that is
// not recognizably ADMIN falls back to USER, so a missing or garbled
// role never produces an invalid account.
func ParseRole(s string) Role {
    switch s {
    case "ADMIN", "admin", "Admin":
        return RoleAdmin
    default:
        return RoleUser
    }
}

// Valid reports whether r is one of the two known roles. Role values
// read back from storage pass through this before being trusted.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// User represents an application user record as stored in the `users`
// table. IDs are UUID strings so identifiers stay opaque and can be
// shape-checked without leaking record counts.
//
// Fields:
//  ID           – primary key (UUID string).
//  Name         – display name.
//  Email        – unique email address, stored lowercase.
//  PasswordHash – bcrypt hashed password.
//  Role         – USER or ADMIN.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           string    // users.id
    Name         string    // users.name
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         Role      // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// Identity is the authenticated principal bound to a request context by
// the auth middleware after the bearer token has been verified and the
// user re-fetched. Handlers treat it as read-only.
type Identity struct {
    ID   string
    Role Role
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the issued token is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    string     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}

package model

import "time"

// User represents an account as stored in the `users` table.  Staff
// users are administrators; everyone else may only reserve seats.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  IsStaff      – whether the user is an administrator.
//  IsActive     – whether the account is active.
//  DateJoined   – timestamp of creation.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    IsStaff      bool      // users.is_staff
    IsActive     bool      // users.is_active
    DateJoined   time.Time // users.date_joined
}

// Role returns the role name carried in access tokens.
func (u User) Role() string {
    if u.IsStaff {
        return RoleAdmin
    }
    return RoleUser
}

// Role names used in the "role" claim of access tokens.
const (
    RoleAdmin = "ADMIN"
    RoleUser  = "USER"
)

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
}

package model

import "time"

// Application roles stored in the `users` table.  Admin manages
// members and credentials, security operates the gate scanner, cashier
// records payments, member is the self-service login issued through
// credential generation.
const (
    RoleAdmin    = "admin"
    RoleSecurity = "security"
    RoleCashier  = "cashier"
    RoleMember   = "member"
)

// User represents a login account as stored in the `users` table.
// Member logins reference the members row they were generated for via
// MemberID; staff accounts leave it null.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique login email.
//  PasswordHash – bcrypt hashed password.
//  FullName     – display name.
//  Role         – one of admin, security, cashier, member.
//  MemberID     – linked member record for member logins (nullable).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    FullName     string    // users.full_name
    Role         string    // users.role
    MemberID     *uint64   // users.member_id (nullable)
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}

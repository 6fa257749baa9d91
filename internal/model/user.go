package model

import "time"

// User represents a short-lived demo account as stored in the
// `users` table. Accounts are deliberately ephemeral: every user
// expires ten minutes after registration and is removed (together
// with its reservations) either lazily on next access or by the
// background sweeper. The json tags are omitted here because these
// structs are used by the repository layer; handlers define their
// own response types.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique username, stored lower-cased.
//  PasswordHash – bcrypt hashed password.
//  IsPremium    – whether the user has upgraded to premium.
//  CreatedAt    – timestamp of registration.
//  ExpiresAt    – registration time plus the account TTL.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	IsPremium    bool      // users.is_premium
	CreatedAt    time.Time // users.created_at
	ExpiresAt    time.Time // users.expires_at
}

// IsExpired reports whether the account TTL has elapsed. Expiry
// comparisons are always performed in UTC.
func (u User) IsExpired() bool {
	return time.Now().UTC().After(u.ExpiresAt)
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and carries metadata for expiry
// and revocation.  The plain token is never stored; only its
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

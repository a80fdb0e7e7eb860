package model

import "time"

// User roles. Regular passengers are USER; ADMIN unlocks the batch
// matching endpoints.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an application user as stored in the `users` table.
// Accounts are keyed by phone number because login happens via OTP;
// name and email are optional profile data filled in later.
//
// Fields:
//  ID             – primary key identifier.
//  Phone          – unique phone number used for OTP login.
//  Name           – display name, may be empty for fresh accounts.
//  Email          – optional email address.
//  Role           – USER or ADMIN.
//  Rating         – running average of exchange ratings.
//  TotalRatings   – number of ratings received.
//  TotalExchanges – lifetime count of completed exchanges.
//  IsVerified     – whether the phone number has been verified.
//  IsActive       – whether the account is active.
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type User struct {
	ID             uint64    // users.id
	Phone          string    // users.phone
	Name           string    // users.name
	Email          string    // users.email
	Role           string    // users.role
	Rating         float64   // users.rating
	TotalRatings   int       // users.total_ratings
	TotalExchanges int       // users.total_exchanges
	IsVerified     bool      // users.is_verified
	IsActive       bool      // users.is_active
	CreatedAt      time.Time // users.created_at
	UpdatedAt      time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user; the plain token is not stored,
// only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

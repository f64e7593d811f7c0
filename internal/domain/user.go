package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an email identity. It is created implicitly on the first OTP
// request for an unseen address and carries the auth state for that address.
//
// Invariants: at most one active OTP at a time (issuing overwrites the
// previous code and expiry); Verified implies PasswordHash is set; an
// unverified user whose OTP has expired is eligible for reaping.
type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	OTP          string    `json:"-" dynamodbav:"otp"`         // "" when no active code
	OTPExpires   int64     `json:"-" dynamodbav:"otp_expires"` // Unix seconds, 0 when no active code
	Verified     bool      `json:"verified" dynamodbav:"verified"`
	Role         string    `json:"role" dynamodbav:"role"` // RoleUser | RoleAdmin
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// HasActiveOTP reports whether the user holds a code that has not expired at t.
func (u *User) HasActiveOTP(t time.Time) bool {
	return u.OTP != "" && u.OTPExpires > t.Unix()
}

// Reapable reports whether the identity is eligible for background deletion
// at t: never verified and its code expired before t. A verified user is
// never reapable, whatever its OTP state. The reaper's storage filter must
// match this predicate exactly.
func (u *User) Reapable(t time.Time) bool {
	return !u.Verified && u.OTPExpires > 0 && u.OTPExpires < t.Unix()
}

// Package challenge stores short-lived one-time codes and password reset tokens.
//
// OTPs are keyed by email with one live record per email; issuing a new code
// replaces the previous one. Reset tokens are keyed by the token value, so a
// user may hold several live tokens that expire independently. Every consumer
// treats a record as absent once now >= ExpiresAt, whether or not the backing
// store has purged it yet.
package challenge

import (
	"context"
	"errors"
	"time"
)

// ErrContention is returned when an atomic consume could not complete because
// the record kept changing underneath it.
var ErrContention = errors.New("challenge record under contention")

// OTP is a one-time numeric code bound to an email.
type OTP struct {
	Email     string
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ResetToken grants one password change for Email.
type ResetToken struct {
	Token     string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Store persists challenges. ConsumeOTP and ConsumeResetToken must be atomic
// per key: two concurrent consumers of the same record cannot both succeed.
type Store interface {
	// PutOTP stores otp, replacing any record for the same email.
	PutOTP(ctx context.Context, otp OTP) error
	// ConsumeOTP deletes and accepts the record for email when it is live and
	// its code equals code. A mismatched code leaves the record in place.
	ConsumeOTP(ctx context.Context, email, code string, now time.Time) (bool, error)
	// PutResetToken stores token keyed by its value.
	PutResetToken(ctx context.Context, token ResetToken) error
	// ConsumeResetToken deletes the record for token and returns its email
	// when the record was live.
	ConsumeResetToken(ctx context.Context, token string, now time.Time) (string, bool, error)
}

func live(expiresAt, now time.Time) bool {
	return now.Before(expiresAt)
}

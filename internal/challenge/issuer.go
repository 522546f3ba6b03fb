package challenge

import (
	"context"
	"crypto/rand"
	"io"
	"time"
)

// Issuer mints challenges with fixed lifetimes and checks them against a Store.
type Issuer struct {
	store    Store
	otpTTL   time.Duration
	resetTTL time.Duration
	now      func() time.Time
	random   io.Reader
}

// Option customises an Issuer.
type Option func(*Issuer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// WithRandom replaces crypto/rand as the entropy source.
func WithRandom(r io.Reader) Option {
	return func(i *Issuer) { i.random = r }
}

// NewIssuer creates an Issuer over store.
func NewIssuer(store Store, otpTTL, resetTTL time.Duration, opts ...Option) *Issuer {
	i := &Issuer{
		store:    store,
		otpTTL:   otpTTL,
		resetTTL: resetTTL,
		now:      time.Now,
		random:   rand.Reader,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IssueOTP stores a fresh code for email, replacing any outstanding one.
func (i *Issuer) IssueOTP(ctx context.Context, email string) (OTP, error) {
	code, err := GenerateOTP(i.random)
	if err != nil {
		return OTP{}, err
	}
	now := i.now()
	otp := OTP{Email: email, Code: code, IssuedAt: now, ExpiresAt: now.Add(i.otpTTL)}
	if err := i.store.PutOTP(ctx, otp); err != nil {
		return OTP{}, err
	}
	return otp, nil
}

// VerifyOTP consumes the code for email if it is live and matches.
func (i *Issuer) VerifyOTP(ctx context.Context, email, code string) (bool, error) {
	return i.store.ConsumeOTP(ctx, email, code, i.now())
}

// IssueResetToken stores a fresh reset token for email.
func (i *Issuer) IssueResetToken(ctx context.Context, email string) (ResetToken, error) {
	value, err := GenerateResetToken(i.random)
	if err != nil {
		return ResetToken{}, err
	}
	now := i.now()
	token := ResetToken{Token: value, Email: email, IssuedAt: now, ExpiresAt: now.Add(i.resetTTL)}
	if err := i.store.PutResetToken(ctx, token); err != nil {
		return ResetToken{}, err
	}
	return token, nil
}

// RedeemResetToken consumes token and returns the email it was issued for.
func (i *Issuer) RedeemResetToken(ctx context.Context, token string) (string, bool, error) {
	return i.store.ConsumeResetToken(ctx, token, i.now())
}

package challenge

import (
	"bytes"
	"context"
	"crypto/rand"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestGenerateOTPRange(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := GenerateOTP(rand.Reader)
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, otpMin)
		assert.LessOrEqual(t, n, otpMax)
	}
}

func TestGenerateOTPBounds(t *testing.T) {
	low, err := GenerateOTP(bytes.NewReader(make([]byte, 8)))
	require.NoError(t, err)
	assert.Equal(t, "100000", low)
}

func TestGenerateResetTokenShape(t *testing.T) {
	token, err := GenerateResetToken(rand.Reader)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{40}$`), token)

	other, err := GenerateResetToken(rand.Reader)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestIssuerOTPLifetime(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	issuer := NewIssuer(NewMemoryStore(), 5*time.Minute, 15*time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	otp, err := issuer.IssueOTP(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(5*time.Minute), otp.ExpiresAt)

	clock.Advance(5 * time.Minute)
	ok, err := issuer.VerifyOTP(ctx, "a@x.com", otp.Code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIssuerOTPVerifiedOnce(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer := NewIssuer(NewMemoryStore(), 5*time.Minute, 15*time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	otp, err := issuer.IssueOTP(ctx, "a@x.com")
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)
	ok, err := issuer.VerifyOTP(ctx, "a@x.com", otp.Code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = issuer.VerifyOTP(ctx, "a@x.com", otp.Code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIssuerResetTokenLifetime(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer := NewIssuer(NewMemoryStore(), 5*time.Minute, 15*time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	live, err := issuer.IssueResetToken(ctx, "a@x.com")
	require.NoError(t, err)
	stale, err := issuer.IssueResetToken(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, live.Token, stale.Token)

	clock.Advance(14 * time.Minute)
	email, ok, err := issuer.RedeemResetToken(ctx, live.Token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a@x.com", email)

	clock.Advance(time.Minute)
	_, ok, err = issuer.RedeemResetToken(ctx, stale.Token)
	require.NoError(t, err)
	assert.False(t, ok)
}

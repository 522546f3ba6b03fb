package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("super-secret"), time.Hour)

	token, exp, err := issuer.Issue("a@x.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 2*time.Second)

	email, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
}

func TestTokenIssuerRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), time.Hour)
	issued := time.Now()
	issuer.now = func() time.Time { return issued }

	token, _, err := issuer.Issue("a@x.com")
	require.NoError(t, err)

	issuer.now = func() time.Time { return issued.Add(time.Hour + time.Second) }
	_, err = issuer.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuerRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenIssuer([]byte("right-secret"), time.Hour).Issue("a@x.com")
	require.NoError(t, err)

	_, err = NewTokenIssuer([]byte("wrong-secret"), time.Hour).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuerRejectsMalformed(t *testing.T) {
	issuer := NewTokenIssuer([]byte("k"), time.Hour)
	for _, token := range []string{"", "not.a.jwt", "abc"} {
		_, err := issuer.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestTokenIssuerRejectsTamperedPayload(t *testing.T) {
	issuer := NewTokenIssuer([]byte("k"), time.Hour)
	token, _, err := issuer.Issue("a@x.com")
	require.NoError(t, err)

	other, _, err := issuer.Issue("b@x.com")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	forged := parts[0] + "." + otherParts[1] + "." + parts[2]

	_, err = issuer.Verify(forged)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuerRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		Email: "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenIssuer([]byte("k"), time.Hour).Verify(unsigned)
	require.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = NewTokenIssuer([]byte("k"), time.Hour).Verify(hs512)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuerRequiresExpiry(t *testing.T) {
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: "a@x.com"}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = NewTokenIssuer([]byte("k"), time.Hour).Verify(noExp)
	require.ErrorIs(t, err, ErrInvalidToken)
}

package challenge

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"math/big"
	"strconv"
)

const (
	otpMin = 100000
	otpMax = 999999

	// ResetTokenBytes is the entropy of a reset token; hex encoding doubles the length.
	ResetTokenBytes = 20
)

// GenerateOTP returns a 6-digit code drawn uniformly from [100000, 999999].
func GenerateOTP(r io.Reader) (string, error) {
	n, err := rand.Int(r, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// GenerateResetToken returns ResetTokenBytes random bytes, hex encoded.
func GenerateResetToken(r io.Reader) (string, error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

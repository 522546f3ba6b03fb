package challenge

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store. Expired records are never swept; they
// stay until overwritten or consumed.
type MemoryStore struct {
	mu     sync.Mutex
	otps   map[string]OTP
	resets map[string]ResetToken
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		otps:   make(map[string]OTP),
		resets: make(map[string]ResetToken),
	}
}

func (s *MemoryStore) PutOTP(_ context.Context, otp OTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otps[otp.Email] = otp
	return nil
}

func (s *MemoryStore) ConsumeOTP(_ context.Context, email, code string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.otps[email]
	if !ok || !live(rec.ExpiresAt, now) {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return false, nil
	}
	delete(s.otps, email)
	return true, nil
}

func (s *MemoryStore) PutResetToken(_ context.Context, token ResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets[token.Token] = token
	return nil
}

func (s *MemoryStore) ConsumeResetToken(_ context.Context, token string, now time.Time) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.resets[token]
	if !ok || !live(rec.ExpiresAt, now) {
		return "", false, nil
	}
	delete(s.resets, token)
	return rec.Email, true, nil
}

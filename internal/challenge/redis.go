package challenge

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const (
	defaultRedisPrefix = "challenge:v1"
	maxConsumeRetries  = 4
)

type otpRecord struct {
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expires_at"`
}

type resetRecord struct {
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expires_at"`
}

// RedisStore implements Store on Redis. Keys carry a TTL equal to the record
// lifetime so the server purges dead records; the stored expiry is still
// checked on every consume.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore builds a Redis-backed store. An empty prefix selects the default.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) otpKey(email string) string {
	return s.prefix + ":otp:" + email
}

func (s *RedisStore) resetKey(token string) string {
	return s.prefix + ":reset:" + token
}

func (s *RedisStore) PutOTP(ctx context.Context, otp OTP) error {
	ttl := otp.ExpiresAt.Sub(otp.IssuedAt)
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(otpRecord{Code: otp.Code, ExpiresAt: otp.ExpiresAt.UnixMilli()})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.otpKey(otp.Email), payload, ttl).Err(); err != nil {
		return oops.In("challenge").With("operation", "put otp").Wrap(err)
	}
	return nil
}

// ConsumeOTP runs the read-compare-delete under WATCH so a concurrent
// overwrite or consume aborts the transaction instead of being lost.
func (s *RedisStore) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (bool, error) {
	key := s.otpKey(email)

	for i := 0; i < maxConsumeRetries; i++ {
		var accepted bool
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return nil
			}
			if err != nil {
				return err
			}

			var rec otpRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return err
			}
			if !live(time.UnixMilli(rec.ExpiresAt), now) {
				return nil
			}
			if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
				return nil
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}
			accepted = true
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, oops.In("challenge").With("operation", "consume otp").Wrap(err)
		}
		return accepted, nil
	}
	return false, ErrContention
}

func (s *RedisStore) PutResetToken(ctx context.Context, token ResetToken) error {
	ttl := token.ExpiresAt.Sub(token.IssuedAt)
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(resetRecord{Email: token.Email, ExpiresAt: token.ExpiresAt.UnixMilli()})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.resetKey(token.Token), payload, ttl).Err(); err != nil {
		return oops.In("challenge").With("operation", "put reset token").Wrap(err)
	}
	return nil
}

// ConsumeResetToken uses GETDEL, so a token is removed by the first reader
// whether or not it is still live.
func (s *RedisStore) ConsumeResetToken(ctx context.Context, token string, now time.Time) (string, bool, error) {
	data, err := s.client.GetDel(ctx, s.resetKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, oops.In("challenge").With("operation", "consume reset token").Wrap(err)
	}

	var rec resetRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", false, oops.In("challenge").With("operation", "decode reset token").Wrap(err)
	}
	if !live(time.UnixMilli(rec.ExpiresAt), now) {
		return "", false, nil
	}
	return rec.Email, true, nil
}

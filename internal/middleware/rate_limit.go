package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
)

const (
	rateLimitPrefix  = "rl:"
	rateLimitWindow  = time.Minute
	defaultRateLimit = 5
	tooManyAttempts  = "Too many attempts, try again later"
)

// RateLimit caps requests per account (or per client IP when the body names
// no account) to maxPerMin per minute. scope separates counters of different
// endpoints. Counters live in Redis when cache is set and in process memory
// otherwise. Redis errors fail open.
func RateLimit(cache *redis.Client, scope string, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = defaultRateLimit
	}
	if cache == nil {
		return limiter.New(limiter.Config{
			Max:          maxPerMin,
			Expiration:   rateLimitWindow,
			KeyGenerator: func(c *fiber.Ctx) string { return scope + ":" + rateLimitSubject(c) },
			LimitReached: func(*fiber.Ctx) error {
				return fiber.NewError(http.StatusTooManyRequests, tooManyAttempts)
			},
		})
	}
	return func(c *fiber.Ctx) error {
		key := rateLimitPrefix + scope + ":" + rateLimitSubject(c)
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, rateLimitWindow)
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, tooManyAttempts)
		}
		return c.Next()
	}
}

func rateLimitSubject(c *fiber.Ctx) string {
	var req struct {
		Email      string `json:"email"`
		Identifier string `json:"identifier"`
	}
	_ = c.BodyParser(&req)
	subject := strings.TrimSpace(req.Email)
	if subject == "" {
		subject = strings.TrimSpace(req.Identifier)
	}
	if subject == "" {
		subject = c.IP()
	}
	return subject
}

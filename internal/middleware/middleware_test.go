package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passkeep/authsvc/internal/identity"
	"github.com/passkeep/authsvc/internal/logging"
)

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
}

func post(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

type stubVerifier map[string]string

func (s stubVerifier) Verify(token string) (string, error) {
	if email, ok := s[token]; ok {
		return email, nil
	}
	return "", errors.New("bad token")
}

func TestJWTAuth(t *testing.T) {
	app := newApp()
	app.Get("/me", JWTAuth(stubVerifier{"good": "a@x.com"}), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(identity.LocalEmail).(string))
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic good", fiber.StatusUnauthorized},
		{"empty token", "Bearer ", fiber.StatusUnauthorized},
		{"unknown token", "Bearer nope", fiber.StatusUnauthorized},
		{"valid", "Bearer good", fiber.StatusOK},
		{"lowercase scheme", "bearer good", fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.status == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, "a@x.com", string(body))
			}
		})
	}
}

func rateLimitedApp(cache *redis.Client, limit int) *fiber.App {
	app := newApp()
	app.Post("/login", RateLimit(cache, "login", limit), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "ok"})
	})
	return app
}

func TestRateLimitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	app := rateLimitedApp(cache, 2)
	for i := 0; i < 2; i++ {
		status, _ := post(t, app, "/login", `{"email":"a@x.com"}`)
		require.Equal(t, fiber.StatusOK, status)
	}
	status, body := post(t, app, "/login", `{"email":"a@x.com"}`)
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, tooManyAttempts, body["message"])

	// Other accounts have their own counter.
	status, _ = post(t, app, "/login", `{"identifier":"b@x.com"}`)
	assert.Equal(t, fiber.StatusOK, status)

	assert.True(t, mr.Exists("rl:login:a@x.com"))
	assert.Positive(t, mr.TTL("rl:login:a@x.com"))

	mr.FastForward(rateLimitWindow)
	status, _ = post(t, app, "/login", `{"email":"a@x.com"}`)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestRateLimitFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = cache.Close() })
	mr.Close()

	app := rateLimitedApp(cache, 1)
	for i := 0; i < 3; i++ {
		status, _ := post(t, app, "/login", `{"email":"a@x.com"}`)
		assert.Equal(t, fiber.StatusOK, status)
	}
}

func TestRateLimitInMemory(t *testing.T) {
	app := rateLimitedApp(nil, 1)

	status, _ := post(t, app, "/login", `{"email":"a@x.com"}`)
	require.Equal(t, fiber.StatusOK, status)
	status, body := post(t, app, "/login", `{"email":"a@x.com"}`)
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, tooManyAttempts, body["message"])
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	app := newApp()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(LocalRequestID).(string))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	generated := resp.Header.Get(requestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, string(body))

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Header.Get(requestIDHeader))
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	var logs bytes.Buffer
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.NewWithWriter(&logs, "authsvc", "info"))})
	app.Post("/boom", func(*fiber.Ctx) error { return errors.New("pq: connection refused") })
	app.Post("/bad", func(*fiber.Ctx) error { return fiber.NewError(fiber.StatusBadRequest, "Invalid request body") })

	status, body := post(t, app, "/boom", `{}`)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, internalErrorMessage, body["message"])
	assert.Contains(t, logs.String(), "connection refused")

	status, body = post(t, app, "/bad", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", body["message"])
}

func TestAuditLevels(t *testing.T) {
	var logs bytes.Buffer
	app := newApp()
	app.Use(Audit(logging.NewWithWriter(&logs, "authsvc", "info")))
	app.Post("/ok", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"message": "ok"}) })
	app.Post("/bad", func(*fiber.Ctx) error { return fiber.NewError(fiber.StatusBadRequest, "nope") })
	app.Post("/boom", func(*fiber.Ctx) error { return errors.New("boom") })

	levels := func(path string) string {
		logs.Reset()
		post(t, app, path, `{"password":"hunter2"}`)
		var entry map[string]any
		require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
		assert.NotContains(t, logs.String(), "hunter2")
		return entry["level"].(string)
	}

	assert.Equal(t, "INFO", levels("/ok"))
	assert.Equal(t, "WARN", levels("/bad"))
	assert.Equal(t, "ERROR", levels("/boom"))
}

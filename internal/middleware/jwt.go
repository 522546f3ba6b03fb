package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/passkeep/authsvc/internal/identity"
)

// TokenVerifier resolves a session token to the email it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// JWTAuth validates the bearer session token and stores its email in
// c.Locals(identity.LocalEmail).
func JWTAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "Unauthorized")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		if tokenStr == "" {
			return fiber.NewError(http.StatusUnauthorized, "Unauthorized")
		}
		email, err := verifier.Verify(tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "Unauthorized")
		}

		c.Locals(identity.LocalEmail, email)
		return c.Next()
	}
}

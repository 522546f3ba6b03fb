package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/passkeep/authsvc/internal/identity"
)

// RegisterIdentityRoutes wires endpoints for callers holding a session token.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler, authn fiber.Handler) {
	r.Get("/me", authn, h.Me)
}

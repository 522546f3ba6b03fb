package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LocalEmail is the fiber.Ctx local holding the authenticated email.
const LocalEmail = "email"

// Handler exposes identity endpoints for authenticated callers.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type profileResponse struct {
	Message   string    `json:"message"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Me returns the profile of the caller identified by the session token.
func (h *Handler) Me(c *fiber.Ctx) error {
	email, _ := c.Locals(LocalEmail).(string)
	if email == "" {
		return fiber.NewError(http.StatusUnauthorized, "Unauthorized")
	}
	user, err := h.service.Get(c.UserContext(), email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return fiber.NewError(http.StatusUnauthorized, "Unauthorized")
		}
		return err
	}
	return c.Status(http.StatusOK).JSON(profileResponse{Message: "Authenticated", Email: user.Email, CreatedAt: user.CreatedAt})
}

package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/passkeep/authsvc/internal/auth"
	"github.com/passkeep/authsvc/internal/middleware"
)

// RegisterAuthRoutes wires the credential, OTP and reset endpoints. Endpoints
// that check a secret are rate limited per account.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, cache *redis.Client, maxPerMin int) {
	r.Post("/register", h.Register)
	r.Post("/login", middleware.RateLimit(cache, "login", maxPerMin), h.Login)
	r.Post("/send-otp", h.SendOTP)
	r.Post("/verify-otp", middleware.RateLimit(cache, "verify-otp", maxPerMin), h.VerifyOTP)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password", h.ResetPassword)
	r.Post("/forgot-password-otp", h.ForgotPasswordOTP)
	r.Post("/reset-password-otp", middleware.RateLimit(cache, "reset-password-otp", maxPerMin), h.ResetPasswordOTP)
}

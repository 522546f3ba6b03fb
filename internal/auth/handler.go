package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/passkeep/authsvc/internal/identity"
)

// Response messages. They are part of the public API.
const (
	msgRegistered         = "Registered successfully"
	msgLoggedIn           = "Login successful"
	msgOTPSent            = "OTP sent (check server logs)"
	msgOTPVerified        = "OTP verified, login successful"
	msgResetLinkSent      = "If email exists, reset link sent"
	msgResetOTPSent       = "If email exists, OTP sent"
	msgPasswordReset      = "Password reset successfully"
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgUserNotFound       = "User not found"
	msgInvalidOTP         = "Invalid or expired OTP"
	msgInvalidResetToken  = "Invalid or expired reset token"
)

// Handler exposes the credential and challenge endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the auth HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// account carries the account key; "identifier" is accepted as an alias of "email".
type account struct {
	Email      string `json:"email"`
	Identifier string `json:"identifier"`
}

func (a account) email() string {
	if a.Email != "" {
		return a.Email
	}
	return a.Identifier
}

type passwordRequest struct {
	account
	Password string `json:"password"`
}

type otpRequest struct {
	account
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type resetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Register handles POST /register.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req passwordRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	if err := requireFields(req.email(), "email", req.Password, "password"); err != nil {
		return err
	}
	if err := h.svc.Register(c.UserContext(), req.email(), req.Password); err != nil {
		return fail(err)
	}
	return respond(c, msgRegistered)
}

// Login handles POST /login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req passwordRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	sess, err := h.svc.Login(c.UserContext(), req.email(), req.Password)
	if err != nil {
		return fail(err)
	}
	return c.Status(http.StatusOK).JSON(tokenResponse{Message: msgLoggedIn, Token: sess.Token})
}

// SendOTP handles POST /send-otp.
func (h *Handler) SendOTP(c *fiber.Ctx) error {
	var req account
	if err := parse(c, &req); err != nil {
		return err
	}
	if err := h.svc.SendOTP(c.UserContext(), req.email()); err != nil {
		return fail(err)
	}
	return respond(c, msgOTPSent)
}

// VerifyOTP handles POST /verify-otp.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	sess, err := h.svc.VerifyOTP(c.UserContext(), req.email(), req.OTP)
	if err != nil {
		return fail(err)
	}
	return c.Status(http.StatusOK).JSON(tokenResponse{Message: msgOTPVerified, Token: sess.Token})
}

// ForgotPassword handles POST /forgot-password.
func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	var req account
	if err := parse(c, &req); err != nil {
		return err
	}
	if err := h.svc.ForgotPassword(c.UserContext(), req.email()); err != nil {
		return fail(err)
	}
	return respond(c, msgResetLinkSent)
}

// ResetPassword handles POST /reset-password.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req resetRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	if err := h.svc.ResetPassword(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return fail(err)
	}
	return respond(c, msgPasswordReset)
}

// ForgotPasswordOTP handles POST /forgot-password-otp.
func (h *Handler) ForgotPasswordOTP(c *fiber.Ctx) error {
	var req account
	if err := parse(c, &req); err != nil {
		return err
	}
	if err := h.svc.ForgotPasswordOTP(c.UserContext(), req.email()); err != nil {
		return fail(err)
	}
	return respond(c, msgResetOTPSent)
}

// ResetPasswordOTP handles POST /reset-password-otp.
func (h *Handler) ResetPasswordOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	if err := h.svc.ResetPasswordOTP(c.UserContext(), req.email(), req.OTP, req.NewPassword); err != nil {
		return fail(err)
	}
	return respond(c, msgPasswordReset)
}

func parse(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid request body")
	}
	return nil
}

// requireFields takes value, name pairs and rejects the first blank value.
func requireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i]) == "" {
			return fiber.NewError(http.StatusBadRequest, pairs[i+1]+" is required")
		}
	}
	return nil
}

func respond(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusOK).JSON(messageResponse{Message: message})
}

// fail maps domain errors to 400 responses; anything else is left for the
// error handler to render as a generic 500.
func fail(err error) error {
	switch {
	case errors.Is(err, identity.ErrUserExists):
		return fiber.NewError(http.StatusBadRequest, msgUserExists)
	case errors.Is(err, ErrInvalidCredentials):
		return fiber.NewError(http.StatusBadRequest, msgInvalidCredentials)
	case errors.Is(err, identity.ErrUserNotFound):
		return fiber.NewError(http.StatusBadRequest, msgUserNotFound)
	case errors.Is(err, ErrInvalidOTP):
		return fiber.NewError(http.StatusBadRequest, msgInvalidOTP)
	case errors.Is(err, ErrInvalidResetToken):
		return fiber.NewError(http.StatusBadRequest, msgInvalidResetToken)
	case errors.Is(err, identity.ErrInvalidPassword):
		return fiber.NewError(http.StatusBadRequest, "Password must be between 1 and 72 bytes")
	default:
		return err
	}
}

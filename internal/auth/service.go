package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/samber/oops"

	"github.com/passkeep/authsvc/internal/challenge"
	"github.com/passkeep/authsvc/internal/identity"
	"github.com/passkeep/authsvc/internal/notification"
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOTP is returned when a code is absent, expired or mismatched.
	ErrInvalidOTP = errors.New("invalid or expired otp")
	// ErrInvalidResetToken is returned when a reset token is absent or expired.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)

// Flow names reported to the Observer.
const (
	FlowRegister          = "register"
	FlowLogin             = "login"
	FlowSendOTP           = "send_otp"
	FlowVerifyOTP         = "verify_otp"
	FlowForgotPassword    = "forgot_password"
	FlowResetPassword     = "reset_password"
	FlowForgotPasswordOTP = "forgot_password_otp"
	FlowResetPasswordOTP  = "reset_password_otp"
)

// Observer receives the outcome of every flow.
type Observer interface {
	Observe(flow string, err error)
}

// Session is a freshly issued session token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Options tunes a Service.
type Options struct {
	// ResetBaseURL prefixes the reset link, e.g. http://localhost:3000.
	ResetBaseURL string
	Observer     Observer
}

// Service orchestrates registration, login, OTP and password reset flows.
type Service struct {
	users      *identity.Service
	challenges *challenge.Issuer
	tokens     *TokenIssuer
	notifier   notification.Notifier
	opts       Options
}

// NewService wires the flow controller.
func NewService(users *identity.Service, challenges *challenge.Issuer, tokens *TokenIssuer, notifier notification.Notifier, opts Options) *Service {
	return &Service{users: users, challenges: challenges, tokens: tokens, notifier: notifier, opts: opts}
}

// Register creates a credential for email. No session is issued.
func (s *Service) Register(ctx context.Context, email, password string) (err error) {
	defer s.observe(FlowRegister, &err)
	_, err = s.users.Register(ctx, email, password)
	return err
}

// Login verifies the password and issues a session.
func (s *Service) Login(ctx context.Context, email, password string) (sess Session, err error) {
	defer s.observe(FlowLogin, &err)
	ok, err := s.users.Verify(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	return s.issueSession(email)
}

// SendOTP issues a login code for a registered email. Unlike the forgot
// password flows it reports identity.ErrUserNotFound for unknown emails.
func (s *Service) SendOTP(ctx context.Context, email string) (err error) {
	defer s.observe(FlowSendOTP, &err)
	exists, err := s.users.Exists(ctx, email)
	if err != nil {
		return err
	}
	if !exists {
		return identity.ErrUserNotFound
	}
	otp, err := s.challenges.IssueOTP(ctx, email)
	if err != nil {
		return wrap(err, "issue otp", email)
	}
	s.notify(ctx, notification.Message{
		Kind:        notification.KindLoginOTP,
		Destination: email,
		Body:        fmt.Sprintf("OTP for %s: %s", email, otp.Code),
	})
	return nil
}

// VerifyOTP consumes the code and issues a session.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (sess Session, err error) {
	defer s.observe(FlowVerifyOTP, &err)
	ok, err := s.challenges.VerifyOTP(ctx, email, code)
	if err != nil {
		return Session{}, wrap(err, "verify otp", email)
	}
	if !ok {
		return Session{}, ErrInvalidOTP
	}
	return s.issueSession(email)
}

// ForgotPassword sends a reset link when email is registered. The result is
// the same whether or not the email exists.
func (s *Service) ForgotPassword(ctx context.Context, email string) (err error) {
	defer s.observe(FlowForgotPassword, &err)
	exists, err := s.users.Exists(ctx, email)
	if err != nil || !exists {
		return err
	}
	token, err := s.challenges.IssueResetToken(ctx, email)
	if err != nil {
		return wrap(err, "issue reset token", email)
	}
	s.notify(ctx, notification.Message{
		Kind:        notification.KindResetLink,
		Destination: email,
		Body:        "Password reset link: " + s.resetLink(token.Token),
	})
	return nil
}

// ResetPassword redeems a reset token and overwrites the password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	defer s.observe(FlowResetPassword, &err)
	if err := identity.ValidatePassword(newPassword); err != nil {
		return err
	}
	email, ok, err := s.challenges.RedeemResetToken(ctx, token)
	if err != nil {
		return wrap(err, "redeem reset token", "")
	}
	if !ok {
		return ErrInvalidResetToken
	}
	return s.setPassword(ctx, email, newPassword, ErrInvalidResetToken)
}

// ForgotPasswordOTP sends a reset code when email is registered. It shares the
// per-email OTP slot with SendOTP, so either flow replaces the other's code.
func (s *Service) ForgotPasswordOTP(ctx context.Context, email string) (err error) {
	defer s.observe(FlowForgotPasswordOTP, &err)
	exists, err := s.users.Exists(ctx, email)
	if err != nil || !exists {
		return err
	}
	otp, err := s.challenges.IssueOTP(ctx, email)
	if err != nil {
		return wrap(err, "issue otp", email)
	}
	s.notify(ctx, notification.Message{
		Kind:        notification.KindResetOTP,
		Destination: email,
		Body:        fmt.Sprintf("Password reset OTP for %s: %s", email, otp.Code),
	})
	return nil
}

// ResetPasswordOTP consumes the code and overwrites the password.
func (s *Service) ResetPasswordOTP(ctx context.Context, email, code, newPassword string) (err error) {
	defer s.observe(FlowResetPasswordOTP, &err)
	if err := identity.ValidatePassword(newPassword); err != nil {
		return err
	}
	ok, err := s.challenges.VerifyOTP(ctx, email, code)
	if err != nil {
		return wrap(err, "verify otp", email)
	}
	if !ok {
		return ErrInvalidOTP
	}
	return s.setPassword(ctx, email, newPassword, ErrInvalidOTP)
}

// Authenticate verifies a session token and loads its user.
func (s *Service) Authenticate(ctx context.Context, token string) (identity.User, error) {
	email, err := s.tokens.Verify(token)
	if err != nil {
		return identity.User{}, err
	}
	user, err := s.users.Get(ctx, email)
	if errors.Is(err, identity.ErrUserNotFound) {
		return identity.User{}, ErrInvalidToken
	}
	return user, err
}

func (s *Service) setPassword(ctx context.Context, email, password string, missing error) error {
	err := s.users.SetPassword(ctx, email, password)
	if errors.Is(err, identity.ErrUserNotFound) {
		return missing
	}
	return err
}

func (s *Service) issueSession(email string) (Session, error) {
	token, exp, err := s.tokens.Issue(email)
	if err != nil {
		return Session{}, wrap(err, "sign session", email)
	}
	return Session{Token: token, ExpiresAt: exp}, nil
}

func (s *Service) resetLink(token string) string {
	return s.opts.ResetBaseURL + "/reset.html?token=" + url.QueryEscape(token)
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	// Delivery is best effort; the challenge is already stored.
	_ = s.notifier.Send(ctx, msg)
}

func (s *Service) observe(flow string, err *error) {
	if s.opts.Observer != nil {
		s.opts.Observer.Observe(flow, *err)
	}
}

func wrap(err error, operation, email string) error {
	b := oops.In("auth").With("operation", operation)
	if email != "" {
		b = b.With("email", email)
	}
	return b.Wrap(err)
}

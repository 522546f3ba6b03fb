package identity

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// Service manages the credential lifecycle on top of a Repository and a Hasher.
type Service struct {
	repo   Repository
	hasher Hasher
	now    func() time.Time
}

// NewService creates a credential service.
func NewService(repo Repository, hasher Hasher) *Service {
	return &Service{repo: repo, hasher: hasher, now: time.Now}
}

// Register stores a salted hash of password for email. It fails with
// ErrUserExists when email already has a credential.
func (s *Service) Register(ctx context.Context, email, password string) (User, error) {
	if err := ValidatePassword(password); err != nil {
		return User{}, err
	}

	exists, err := s.Exists(ctx, email)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, ErrUserExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return User{}, s.hashError(err, email)
	}

	now := s.now().UTC()
	user := User{Email: email, PasswordHash: hash, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Verify reports whether password matches the current credential for email.
// An unknown email is reported as a mismatch, not an error.
func (s *Service) Verify(ctx context.Context, email, password string) (bool, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.hasher.Compare(user.PasswordHash, password), nil
}

// SetPassword overwrites the credential for email.
func (s *Service) SetPassword(ctx context.Context, email, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return s.hashError(err, email)
	}
	return s.repo.UpdatePasswordHash(ctx, email, hash, s.now().UTC())
}

// Exists reports whether email has a credential.
func (s *Service) Exists(ctx context.Context, email string) (bool, error) {
	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Get returns the user registered under email.
func (s *Service) Get(ctx context.Context, email string) (User, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *Service) hashError(err error, email string) error {
	if errors.Is(err, ErrInvalidPassword) {
		return err
	}
	return oops.In("identity").With("operation", "hash password").With("email", email).Wrap(err)
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	MsgFieldsRequired   = "All fields are required!"
	MsgInvalidEmail     = "Enter a valid email address!"
	MsgWeakPassword     = "Password must be at least 8 chars and include upper, lower, and numbers!"
	MsgPasswordMismatch = "Passwords do not match!"
	MsgEmailTaken       = "Email already registered!"
)

// ValidationError is a rejected submission. Message is shown to the user as is.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

type SignupForm struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate runs the signup checks in order and stops at the first failure.
// Whether the email is taken is left to the store.
func (f SignupForm) Validate() error {
	switch {
	case blank(f.Username) || blank(f.Email) || f.Password == "" || f.ConfirmPassword == "":
		return &ValidationError{Message: MsgFieldsRequired}
	case !IsValidEmail(f.Email):
		return &ValidationError{Message: MsgInvalidEmail}
	case !IsStrongPassword(f.Password):
		return &ValidationError{Message: MsgWeakPassword}
	case f.Password != f.ConfirmPassword:
		return &ValidationError{Message: MsgPasswordMismatch}
	}
	return nil
}

type Service struct {
	store  UserStore
	logger *zap.Logger
}

func NewService(store UserStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Register validates the form and stores a new user with a hashed password.
func (s *Service) Register(ctx context.Context, form SignupForm) (User, error) {
	if err := form.Validate(); err != nil {
		return User{}, err
	}

	email := NormalizeEmail(form.Email)
	if _, err := s.store.Get(ctx, email); err == nil {
		return User{}, &ValidationError{Message: MsgEmailTaken, Err: ErrUserExists}
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, fmt.Errorf("look up user: %w", err)
	}

	hash, err := HashPassword(form.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{
		Email:        email,
		Username:     form.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return User{}, &ValidationError{Message: MsgEmailTaken, Err: err}
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("email", email))
	return user, nil
}

// Authenticate returns the user for matching credentials. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.store.Get(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to retrieve user: %w", err)
	}

	ok, err := VerifyPassword(user.PasswordHash, password)
	if err != nil {
		s.logger.Error("Stored password hash is unreadable", zap.String("email", user.Email), zap.Error(err))
		return User{}, ErrInvalidCredentials
	}
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the entity store
//
// Services receive repository INTERFACES, never a concrete store — the same
// service code runs against the sqlite backend and the jsonfile backend, and
// against in-memory fakes in tests. Services hold no state of their own
// beyond their injected dependencies; every call is request-scoped.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/auth"
	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/repository"
)

// MinPasswordLength is the signup floor. Nothing clever — just long enough
// to rule out trivially guessable passwords.
const MinPasswordLength = 8

// SessionService is the session manager: signup, login, and resolving the
// current user from a token. Logout has no service-side work (there is no
// revocation list); it is purely the handler clearing the cookie.
type SessionService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewSessionService wires the session manager's dependencies.
func NewSessionService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user projection and the issued token so the handler
// can set the cookie and respond in one step.
type AuthResult struct {
	User  model.Profile
	Token string
}

// Signup registers a new account and issues a session token.
//
// Failure order: field validation first, then DuplicateEmail, then
// DuplicateUsername — so "signup with a registered email fails with
// DuplicateEmail regardless of username" holds.
func (s *SessionService) Signup(ctx context.Context, email, password, username string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	// Duplicate checks. GetByEmail returning anything other than NotFound
	// means the email is taken (nil error) or the store failed (other error).
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.DuplicateEmail(email)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/session: checking email: %w", err)
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperror.DuplicateUsername(username)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/session: checking username: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/session: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/session: creating user: %w", err)
	}

	s.logger.Info("user signed up",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/session: issuing token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user.Profile(), Token: token}, nil
}

// Login authenticates an email/password pair and issues a session token.
//
// An unknown email and a wrong password return the SAME InvalidCredentials
// error — callers must not be able to tell which half was wrong.
func (s *SessionService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/session: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/session: issuing token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user.Profile(), Token: token}, nil
}

// CurrentUser resolves a token to its user projection.
//
// An invalid or expired token is NOT an error — it is the absence of a
// session, reported as (nil, nil). Expiry is checked here, lazily, when the
// token is read; nothing expires sessions in the background.
func (s *SessionService) CurrentUser(ctx context.Context, token string) (*model.Profile, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.tokens.Validate(token)
	if err != nil {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Token outlived its user record. Treat as no session.
			return nil, nil
		}
		return nil, fmt.Errorf("service/session: fetching user %s: %w", session.UserID, err)
	}

	profile := user.Profile()
	return &profile, nil
}

// UpdateProfile changes a user's username and/or bio.
// A new username must still be unique.
func (s *SessionService) UpdateProfile(ctx context.Context, userID string, upd repository.UserUpdate) (*model.Profile, error) {
	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if username == "" {
			return nil, apperror.ValidationFailed("username", "username is required")
		}
		if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing.ID != userID {
			return nil, apperror.DuplicateUsername(username)
		} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/session: checking username: %w", err)
		}
		upd.Username = &username
	}

	user, err := s.users.Update(ctx, userID, upd)
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("userID", userID))

	profile := user.Profile()
	return &profile, nil
}

// Package auth provides session token handling and password hashing.
//
// SESSION FLOW:
// 1. signup/login validates credentials and issues a session token
// 2. The handler stores the token in an HttpOnly "authToken" cookie
// 3. On later requests, middleware reads the cookie, validates the token,
//    and puts the user identity in the request context
// 4. Expiry is checked lazily at validation time — there is no background
//    sweeper and no server-side revocation list
//
// TOKEN FORMAT:
// The token is a JWT: a deterministically-encoded payload (user ID in "sub",
// email as a custom claim, absolute expiry in "exp") plus an HMAC-SHA256
// signature. The payload matches what the catalog historically base64-encoded
// without a signature; signing it closes the forgery gap while keeping the
// token self-contained — validation needs no store lookup, only the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the session lifetime used when no override is configured.
// One value for every issue path — signup, login, and cookie refresh all
// agree on how long a session lasts.
const DefaultTTL = 24 * time.Hour

const issuer = "codevault"

// TokenService issues and validates session tokens.
// It holds the HMAC secret and the TTL applied to every token it signs.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and TTL.
// A zero ttl falls back to DefaultTTL. The secret should be at least 32
// bytes of random data in production (e.g. JWT_SECRET=$(openssl rand -hex 32)).
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: token secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the session payload: the standard registered claims (Subject
// holds the user ID, ExpiresAt the absolute expiry instant) plus the user's
// email, which the catalog has always carried in its session token.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given user.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, fast, and right for a
// single-server deployment where the same process signs and verifies.
func (s *TokenService) Generate(userID, email string) (string, error) {
	now := time.Now()

	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// TTL returns the configured session lifetime. Handlers use it for the
// cookie Max-Age so cookie and token expire together.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Session is the identity a validated token yields.
type Session struct {
	UserID string
	Email  string
}

// Validate parses and verifies a token string, returning the session it
// encodes.
//
// CHECKS (performed by the jwt library):
//   - signature is valid (token wasn't tampered with)
//   - token is not expired — this IS the lazy expiry check
//   - issuer matches, so tokens from other apps are rejected
//   - algorithm is HS256 (jwt.WithValidMethods blocks algorithm-confusion
//     attacks, where an attacker submits a token signed with "none")
func (s *TokenService) Validate(tokenStr string) (*Session, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}

	return &Session{UserID: c.Subject, Email: c.Email}, nil
}

// Package auth implements session tokens, password hashing, bearer
// middleware and GitHub token verification for the API server.
//
// AUTHENTICATION FLOW:
//  1. The client logs in with email and password (POST /auth/login), or
//     with a GitHub access token from the device flow (POST /auth/github).
//  2. The server answers with a signed token plus the username and role.
//  3. Every snippet call carries "Authorization: Bearer <token>".
//     RequireAuth validates it, loads the user and stores it in the
//     request context.
//  4. A token that fails validation or names a user that no longer
//     exists gets 401 with error kind "auth_expired", which the client
//     treats as "log in again".
//
// TOKENS are JWTs, three base64url parts joined by dots:
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:    {"alg":"HS256","typ":"JWT"}
//	- Payload:   {"sub":"<user id>","iss":"codemaster","iat":...,"exp":...}
//	- Signature: HMAC-SHA256(header + "." + payload, JWT_SECRET)
//
// Checking the signature needs only the secret. The subject is the internal
// user id rather than the email: ids never change, and the middleware still
// does one lookup per request so a deleted account stops working at once
// instead of when its token expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "codemaster"

	// DefaultTokenTTL is used when NewTokenService is given a zero TTL.
	DefaultTokenTTL = 10 * time.Hour
)

// ErrTokenExpired is returned by Validate for a well-formed token whose exp
// claim is in the past.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService issues and validates session tokens.
//
// HS256 is symmetric: the same secret signs and verifies, which suits a
// single API server. Rotating JWT_SECRET logs every client out.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService returns a TokenService signing with secret.
// Secrets shorter than 16 characters are rejected; production secrets
// should be 32 random bytes, e.g. JWT_SECRET=$(openssl rand -hex 32).
// A zero ttl means DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims carries only the registered fields. The user id goes in "sub";
// username and role are returned in the login response, not the token.
type claims struct {
	jwt.RegisteredClaims
}

// Generate issues a token for userID valid for the service TTL.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration issues a token valid for d. A negative d yields an
// already expired token, which tests use.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
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

// Validate parses tokenStr and returns the user id from its subject.
//
// Checks: the signature, an exp claim that is present and in the future,
// the issuer, and the algorithm. Pinning the algorithm to HS256 blocks
// algorithm confusion, where a token claims "alg":"none" or an asymmetric
// algorithm and tricks the verifier into skipping or misusing the key.
func (s *TokenService) Validate(tokenStr string) (string, error) {
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
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}

// Package auth provides JWT-based authentication for Kotae.
//
// Tokens are signed with HMAC-SHA256 against a shared secret; issuance
// normally lives in an external token service and the core only validates.
// The dev-token endpoint reuses IssueToken outside production.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kotae-ai/kotae/internal/model"
)

// Issuer is the iss/aud value stamped on and required of every token.
const Issuer = "kotae"

// Claims extends jwt.RegisteredClaims with Kotae-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID string     `json:"user_id"`
	Role   model.Role `json:"role"`
}

// JWTManager handles JWT creation and validation using a shared HS256 secret.
type JWTManager struct {
	secret     []byte
	expiration time.Duration
}

// NewJWTManager creates a JWTManager. The secret must be non-empty;
// config.Validate guarantees that before we get here.
func NewJWTManager(secret string, expiration time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth: empty signing secret")
	}
	return &JWTManager{secret: []byte(secret), expiration: expiration}, nil
}

// IssueToken creates a signed JWT for the given user and role.
func (m *JWTManager) IssueToken(userID string, role model.Role) (string, time.Time, error) {
	if !model.ValidRole(role) {
		return "", time.Time{}, fmt.Errorf("auth: unknown role %q", role)
	}

	now := time.Now().UTC()
	exp := now.Add(m.expiration)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Issuer},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.New().String(),
		},
		UserID: userID,
		Role:   role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, exp, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
// Rejects any signing method other than HS256 so an attacker cannot
// downgrade to "none" or smuggle an asymmetric token past the shared secret.
func (m *JWTManager) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithAudience(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: validate token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}

	if claims.Issuer != Issuer {
		return nil, fmt.Errorf("auth: invalid issuer: %s", claims.Issuer)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("auth: token missing user_id claim")
	}
	if !model.ValidRole(claims.Role) {
		return nil, fmt.Errorf("auth: token carries unknown role %q", claims.Role)
	}

	return claims, nil
}

package auth

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"rocket-admin/internal/metadata"
)

// Issuer is stamped on every token and required when parsing one.
const Issuer = "rocket-admin"

const DefaultTokenTTL = 12 * time.Hour

// Claims carries the caller's identity and the role set permission
// decisions are made against.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// User rebuilds the caller from the token.
func (c *Claims) User() *metadata.UserContext {
	return &metadata.UserContext{ID: c.Subject, Roles: normalizeRoles(c.Roles)}
}

// IssueToken signs a token for user valid for ttl.
func IssueToken(user *metadata.UserContext, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: normalizeRoles(user.Roles),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token for user %s: %w", user.ID, err)
	}
	return signed, nil
}

// ParseToken verifies signature, issuer and expiry.
func ParseToken(tokenStr string, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// normalizeRoles lower-cases, sorts and de-duplicates roles so equal role
// sets produce equal tokens and equal permission cache keys.
func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

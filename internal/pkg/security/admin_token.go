package security

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin        = "admin"
	adminTokenIssuer = "agendamento"
)

// AdminClaims identifies a moderator acting on the admin endpoints.
type AdminClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAdminToken signs an HS256 admin token for subject valid for ttl.
func GenerateAdminToken(subject, name string, ttl time.Duration, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required for token generation")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject is required")
	}
	now := time.Now()
	claims := AdminClaims{
		Name: name,
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    adminTokenIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyAdminToken checks signature, expiry, issuer and role.
func VerifyAdminToken(tokenStr, secret string) (*AdminClaims, error) {
	if secret == "" {
		return nil, errors.New("secret is required for token verification")
	}
	var claims AdminClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(adminTokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Role != RoleAdmin {
		return nil, errors.New("token does not grant admin role")
	}
	return &claims, nil
}

// Moderator returns the display name recorded as moderated_by.
func (c *AdminClaims) Moderator() string {
	if strings.TrimSpace(c.Name) != "" {
		return c.Name
	}
	return c.Subject
}

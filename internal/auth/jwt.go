package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/relaycrm/backend/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// RoleClaim is the role snapshot embedded in a token at issuance. Permission
// checks read this list instead of hitting the store, so a revoked
// permission stays usable until the token expires or is re-issued.
type RoleClaim struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// ImpersonationClaim marks a token issued on behalf of another user, with
// the original caller embedded for audit.
type ImpersonationClaim struct {
	OriginalUserID uuid.UUID `json:"original_user_id"`
}

// Claims holds JWT claims including the materialized role.
type Claims struct {
	UserID         uuid.UUID           `json:"user_id"`
	Email          string              `json:"email"`
	OrganizationID uuid.UUID           `json:"organization_id"`
	Role           RoleClaim           `json:"role"`
	Impersonating  *ImpersonationClaim `json:"impersonating,omitempty"`
	jwt.RegisteredClaims
}

// HasPermission reports whether the embedded permission set contains key.
// Fails closed: a token without a role or permission list never matches.
func (c *Claims) HasPermission(key string) bool {
	if c.Role.Name == "" || len(c.Role.Permissions) == 0 {
		return false
	}
	for _, p := range c.Role.Permissions {
		if p == key {
			return true
		}
	}
	return false
}

// JWTService handles token generation and validation.
type JWTService struct {
	secret        []byte
	expireMinutes int
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireMinutes int) *JWTService {
	return &JWTService{
		secret:        []byte(secret),
		expireMinutes: expireMinutes,
	}
}

// Generate creates a token for the user embedding the role name and its
// permission keys as of now.
func (s *JWTService) Generate(user *models.User, roleName string, permissions []string) (string, error) {
	return s.sign(user, roleName, permissions, nil)
}

// GenerateImpersonated creates a token for the target user with the
// original caller's id embedded.
func (s *JWTService) GenerateImpersonated(target *models.User, roleName string, permissions []string, originalUserID uuid.UUID) (string, error) {
	return s.sign(target, roleName, permissions, &ImpersonationClaim{OriginalUserID: originalUserID})
}

func (s *JWTService) sign(user *models.User, roleName string, permissions []string, imp *ImpersonationClaim) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:         user.ID,
		Email:          user.Email,
		OrganizationID: user.OrganizationID,
		Role:           RoleClaim{Name: roleName, Permissions: permissions},
		Impersonating:  imp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expireMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a token, returning claims or error. The
// permission set is taken verbatim from the token; it is not re-queried.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == uuid.Nil || claims.OrganizationID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

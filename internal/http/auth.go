package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"choir-library/internal/domain"
)

const (
	ctxRoleKey   = "auth.role"
	ctxUserIDKey = "auth.userID"
)

type authClaims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func issueToken(secret string, ttl time.Duration, user *domain.User) (string, error) {
	now := time.Now()
	claims := authClaims{
		UserID: user.ID,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// authMiddleware resolves the bearer token to a role. Requests without a
// valid token proceed as anonymous; each operation decides what that means.
func authMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxRoleKey, domain.RoleAnonymous)

		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims := &authClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.Next()
			return
		}

		role := domain.Role(claims.Role)
		if !role.Authenticated() {
			c.Next()
			return
		}

		c.Set(ctxRoleKey, role)
		c.Set(ctxUserIDKey, claims.UserID)
		c.Next()
	}
}

func currentRole(c *gin.Context) domain.Role {
	if v, ok := c.Get(ctxRoleKey); ok {
		if role, ok := v.(domain.Role); ok {
			return role
		}
	}
	return domain.RoleAnonymous
}

package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
)

func parseBearer(c *gin.Context, secret []byte) (sub string, role Role, ok bool) {
	h := c.GetHeader("Authorization")
	if h == "" {
		return "", "", false
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "", false
	}

	tokenStr := strings.TrimSpace(parts[1])
	if tokenStr == "" {
		return "", "", false
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		// Pin the alg (avoids alg=none and key-confusion tricks).
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || token == nil || !token.Valid {
		return "", "", false
	}

	claims, claimsOK := token.Claims.(jwt.MapClaims)
	if !claimsOK {
		return "", "", false
	}

	subAny, hasSub := claims["sub"]
	subStr, subOK := subAny.(string)
	if !hasSub || !subOK || subStr == "" {
		return "", "", false
	}

	roleStr, _ := claims["role"].(string)
	parsedRole, roleOK := ParseRole(roleStr)
	if !roleOK {
		return "", "", false
	}

	return subStr, parsedRole, true
}

// RequireAuth validates "Authorization: Bearer <token>" and stores sub/role
// in the gin context.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, role, ok := parseBearer(c, secret)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			return
		}
		c.Set(CtxUserIDKey, sub)
		c.Set(CtxRoleKey, role)
		c.Next()
	}
}

// OptionalAuth stores sub/role when a valid token is present and lets the
// request through anonymously otherwise. Used by the public catalogue
// endpoints, where the projection depends on who is asking.
func OptionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sub, role, ok := parseBearer(c, secret); ok {
			c.Set(CtxUserIDKey, sub)
			c.Set(CtxRoleKey, role)
		}
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated caller holds one of
// the given roles. Must run after RequireAuth.
func RequireRole(roles ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := CallerRole(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

// RequireManager admits proprietors and librarians.
func RequireManager() gin.HandlerFunc {
	return RequireRole(RoleProprietor, RoleLibrarian)
}

func CallerID(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func CallerRole(c *gin.Context) (Role, bool) {
	v, ok := c.Get(CtxRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(Role)
	return role, ok
}

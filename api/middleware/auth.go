package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"coderanker/pkg/messages"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated caller.
type Identity struct {
	UserID   string
	Username string
	Admin    bool
}

// Claims carried by the access tokens.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Auth verifies the HS256 access tokens.
type Auth struct {
	secret []byte
}

// NewAuth creates the middleware factory with the signing secret.
func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// ParseToken validates the token and returns the caller identity.
func (a *Auth) ParseToken(token string) (*Identity, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{UserID: claims.ID, Username: claims.Username, Admin: claims.Admin}, nil
}

// Optional stores the identity when a valid token is present and never rejects.
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := tokenFrom(c); token != "" {
			if identity, err := a.ParseToken(token); err == nil {
				c.Set(identityKey, identity)
			}
		}
		c.Next()
	}
}

// Required rejects the requests without a valid token.
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := a.ParseToken(tokenFrom(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": messages.Unauthorized})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// AdminOnly must run after Required.
func (a *Auth) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok || !identity.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": messages.Forbidden})
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity stored by the middleware.
func IdentityFrom(c *gin.Context) (*Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := value.(*Identity)
	return identity, ok
}

// Bearer header first, the query token is used by the websocket clients.
func tokenFrom(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

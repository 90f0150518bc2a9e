package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/haneul-academy/portal-be/internal/models"
)

var jwtKey []byte

// Init sets the signing key for session tokens. Must be called before any
// token is issued or validated.
func Init(secret string) {
	jwtKey = []byte(secret)
}

// Claims defines the JWT claims structure. Role is the role in effect for
// this session, which for a passphrase-elevated login can be higher than the
// role stored on the account.
type Claims struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	Guest    bool        `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts the claims into the request identity.
func (c *Claims) Identity() models.Identity {
	return models.Identity{Username: c.Username, Role: c.Role, Guest: c.Guest}
}

type contextKey string

// IdentityKey is the context key for the authenticated identity's claims.
const IdentityKey = contextKey("identity")

// GenerateToken creates a session JWT for an identity.
func GenerateToken(ident models.Identity) (string, error) {
	expirationTime := time.Now().Add(24 * time.Hour)
	claims := &Claims{
		Username: ident.Username,
		Role:     ident.Role,
		Guest:    ident.Guest,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// ValidateToken parses and validates a session JWT.
func ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// IdentityFromContext returns the identity stored by Middleware, or false
// when the request was not authenticated.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	claims, ok := ctx.Value(IdentityKey).(*Claims)
	if !ok {
		return models.Identity{}, false
	}
	return claims.Identity(), true
}

// Middleware protects routes, accepting the token from the Authorization
// header or the session cookie and stashing the identity in the context.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenStr string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, "Bearer ")
				if len(parts) == 2 {
					tokenStr = parts[1]
				}
			}

			if tokenStr == "" {
				cookie, err := r.Cookie("token")
				if err != nil {
					http.Error(w, "Missing auth token", http.StatusUnauthorized)
					return
				}
				tokenStr = cookie.Value
			}

			claims, err := ValidateToken(tokenStr)
			if err != nil {
				http.Error(w, "Invalid auth token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

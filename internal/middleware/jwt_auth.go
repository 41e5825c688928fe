package middleware

import (
	"errors"
	"strings"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// UserContextKey is where the authenticated claims are stored on the echo context.
const UserContextKey = "user"

var errNoToken = errors.New("no bearer token")

// JWTAuthMiddleware checks for a valid JWT and extracts user claims. Claims
// already stored by OptionalJWTAuth are reused.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := c.Get(UserContextKey).(*models.JwtCustomClaims); ok {
				return next(c)
			}
			claims, err := parseBearer(c, secret)
			if errors.Is(err, errNoToken) {
				return apperrors.Unauthorized("missing bearer token")
			}
			if err != nil {
				return apperrors.Unauthorized("invalid token")
			}
			c.Set(UserContextKey, claims)
			return next(c)
		}
	}
}

// OptionalJWTAuth stores claims when a valid token is present and lets
// anonymous requests through. A malformed or expired token is still rejected.
func OptionalJWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseBearer(c, secret)
			if errors.Is(err, errNoToken) {
				return next(c)
			}
			if err != nil {
				return apperrors.Unauthorized("invalid token")
			}
			c.Set(UserContextKey, claims)
			return next(c)
		}
	}
}

// RequireRole admits only callers holding one of roles. Must run after
// JWTAuthMiddleware.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(UserContextKey).(*models.JwtCustomClaims)
			if !ok {
				return apperrors.Unauthorized("authentication required")
			}
			for _, r := range roles {
				if claims.Role == r {
					return next(c)
				}
			}
			return apperrors.Forbidden("insufficient role")
		}
	}
}

func parseBearer(c echo.Context, secret string) (*models.JwtCustomClaims, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return nil, errNoToken
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, errors.New("invalid Authorization header format")
	}

	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

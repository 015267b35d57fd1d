package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"  // context for the identity lookup
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming
    "time"     // timeout for the identity lookup

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/event-ticketing/internal/model"
)

// identityKey is the context key under which JWTAuth stores the
// resolved identity. Handlers read it through IdentityFrom and must
// never write it.
const identityKey = "identity"

// IdentityStore resolves a user id to its current record. It is
// satisfied by *repository.UserRepo; tests substitute an in-memory
// implementation.
type IdentityStore interface {
    GetByID(ctx context.Context, id string) (model.User, error)
}

// JWTAuth returns an Echo middleware that authenticates a request from
// its Bearer access token. The signature and expiry are checked first,
// then the subject is re-fetched from the store so that a token whose
// user has since been removed or deactivated no longer authenticates.
// On success the resolved model.Identity is bound to the request
// context; every failure is a terminal 401 for the request.
func JWTAuth(secret string, users IdentityStore) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse with the HS256 secret; reject any other signing
            // method so an attacker cannot downgrade to "none" or swap
            // in an asymmetric key.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            sub, ok := claims["sub"].(string)
            if !ok || sub == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            // Fetch fresh user data: the token alone is not proof that
            // the account still exists or is still active.
            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()
            u, err := users.GetByID(ctx, sub)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
            }
            if !u.IsActive || !u.Role.Valid() {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
            }

            c.Set(identityKey, model.Identity{ID: u.ID, Role: u.Role})
            return next(c)
        }
    }
}

// IdentityFrom returns the identity bound by JWTAuth. The boolean is
// false when the middleware did not run on this route.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
    id, ok := c.Get(identityKey).(model.Identity)
    return id, ok
}

// RequireRole returns a middleware that enforces an exact role match
// on the authenticated identity. Requests with a different role are
// rejected with 403 regardless of anything else in the request. It
// assumes JWTAuth ran earlier in the chain.
func RequireRole(role model.Role) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id, ok := IdentityFrom(c)
            if !ok || id.Role != role {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}

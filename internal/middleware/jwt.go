package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "errors"
    "net/http" // HTTP status codes for responses
    "strconv"
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/stadium-seat-reservation/internal/repository"
    "github.com/iliyamo/stadium-seat-reservation/internal/service"
    "github.com/iliyamo/stadium-seat-reservation/internal/utils"
)

// Context keys set by Authenticate.
const (
    ctxActor  = "actor"
    ctxUserID = "user_id"
)

// Authenticate returns an Echo middleware that resolves the caller of a
// request into a service.Actor.  Requests without an Authorization header
// continue as the anonymous actor; a header that is not a valid Bearer
// access token is rejected with 401.  The secret must match the one used
// when issuing tokens.
//
// The token's user is reloaded from users on every request, so a deleted
// or deactivated account is rejected and a demoted admin loses admin
// rights before the token expires.  With a nil users the role claim is
// trusted as issued.
func Authenticate(secret string, users repository.UserRepo) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if auth == "" {
                c.Set(ctxActor, service.AnonymousActor)
                return next(c)
            }
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Authorization header must contain a Bearer token."})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            // Signature, algorithm, expiry and subject are all checked here.
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Given token not valid for any token type"})
            }
            actor := service.ActorFromClaims(claims)
            if users != nil {
                u, err := users.GetByID(c.Request().Context(), actor.UserID)
                switch {
                case errors.Is(err, repository.ErrNotFound):
                    return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "User not found", "code": "user_not_found"})
                case err != nil:
                    c.Logger().Errorf("authenticate: load user %d: %v", actor.UserID, err)
                    return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "internal server error"})
                case !u.IsActive:
                    return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "User is inactive", "code": "user_inactive"})
                }
                actor = service.ActorForUser(u)
            }
            c.Set(ctxActor, actor)
            c.Set(ctxUserID, strconv.FormatUint(actor.UserID, 10))
            return next(c)
        }
    }
}

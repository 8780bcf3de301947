package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/stadium-seat-reservation/internal/middleware"
    "github.com/iliyamo/stadium-seat-reservation/internal/model"
    "github.com/iliyamo/stadium-seat-reservation/internal/service"
)

// AccountHandler serves registration, login and token endpoints.
type AccountHandler struct {
    Accounts *service.Accounts
}

func NewAccountHandler(a *service.Accounts) *AccountHandler { return &AccountHandler{Accounts: a} }

// ----- DTOs -----

type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    Refresh string `json:"refresh"`
}
type verifyReq struct {
    Token string `json:"token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID    uint64 `json:"id"`
    Email string `json:"email"`
    Role  string `json:"role"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

func newAuthResp(u *model.User, pair service.TokenPair) authResp {
    return authResp{
        User:    userPart{ID: u.ID, Email: u.Email, Role: u.Role()},
        Access:  tokenPart{Token: pair.Access.Token, Expires: pair.Access.Exp},
        Refresh: tokenPart{Token: pair.Refresh.Raw, Expires: pair.Refresh.Exp}, // raw back to client
    }
}

// Register creates a regular account.  Callers that already carry a
// token are rejected.
func (h *AccountHandler) Register(c echo.Context) error {
    var req service.RegisterInput
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    u, err := h.Accounts.Register(ctx, middleware.ActorFrom(c), req)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"email": u.Email})
}

// Login verifies the password and returns a new token pair.
func (h *AccountHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    u, pair, err := h.Accounts.Login(ctx, middleware.ActorFrom(c), req.Email, req.Password)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, newAuthResp(u, pair))
}

// Refresh rotates a refresh token: the old one is revoked and a new pair
// is issued.
func (h *AccountHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    u, pair, err := h.Accounts.Refresh(ctx, req.Refresh)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, newAuthResp(u, pair))
}

// Verify answers 200 for a valid access token and 401 otherwise.
func (h *AccountHandler) Verify(c echo.Context) error {
    var req verifyReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    if _, err := h.Accounts.Verify(req.Token); err != nil {
        if _, ok := service.FieldMessages(err); ok {
            return respondError(c, err)
        }
        return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Token is invalid or expired"})
    }
    return c.JSON(http.StatusOK, echo.Map{})
}

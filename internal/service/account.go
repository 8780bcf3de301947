package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/stadium-seat-reservation/internal/model"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
	"github.com/iliyamo/stadium-seat-reservation/internal/utils"
)

// ErrInvalidCredentials is returned by Login and Refresh when the email,
// password or refresh token doesn't match an active account.
var ErrInvalidCredentials = errors.New("no active account found with the given credentials")

// TokenPair is an access token with its refresh token.
type TokenPair struct {
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// Accounts registers users and issues their tokens.
type Accounts struct {
	Users      repository.UserRepo
	Tokens     repository.TokenRepo
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// Register creates a regular (non-staff) user.  Only anonymous callers
// may register.
func (a *Accounts) Register(ctx context.Context, actor Actor, in RegisterInput) (*model.User, error) {
	if err := actor.RequireAnonymous(); err != nil {
		return nil, err
	}
	in, err := ValidateRegistration(in)
	if err != nil {
		return nil, err
	}
	if _, err := a.Users.GetByEmail(ctx, in.Email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	hash, err := utils.HashPassword(in.Password, a.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{Email: in.Email, PasswordHash: hash, IsActive: true}
	if err := a.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailTaken()
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// CreateAdmin creates a staff user.  It backs the CLI and has no HTTP
// route.
func (a *Accounts) CreateAdmin(ctx context.Context, email, password string) (*model.User, error) {
	in, err := ValidateRegistration(RegisterInput{Email: email, Password: password, ConfirmPassword: password})
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password, a.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{Email: in.Email, PasswordHash: hash, IsStaff: true, IsActive: true}
	if err := a.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailTaken()
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return u, nil
}

// Login checks the password and issues a new token pair.  Only anonymous
// callers may log in.
func (a *Accounts) Login(ctx context.Context, actor Actor, email, password string) (*model.User, TokenPair, error) {
	if err := actor.RequireAnonymous(); err != nil {
		return nil, TokenPair{}, err
	}
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		var errs ValidationErrors
		if email == "" {
			errs = append(errs, invalid(CodeRequired, "email", msgRequired))
		}
		if password == "" {
			errs = append(errs, invalid(CodeRequired, "password", msgRequired))
		}
		return nil, TokenPair{}, errs
	}
	u, err := a.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := a.issue(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh exchanges a refresh token for a new pair and revokes the old
// refresh token.
func (a *Accounts) Refresh(ctx context.Context, raw string) (*model.User, TokenPair, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, TokenPair{}, invalid(CodeRequired, "refresh", msgRequired)
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := a.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, fmt.Errorf("validate refresh: %w", err)
	}
	if err := a.Tokens.RevokeByHash(ctx, hash); err != nil {
		return nil, TokenPair{}, fmt.Errorf("revoke refresh: %w", err)
	}
	u, err := a.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := a.issue(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Verify checks an access token.
func (a *Accounts) Verify(raw string) (*utils.Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, invalid(CodeRequired, "token", msgRequired)
	}
	claims, err := utils.ParseAccessToken(a.Secret, raw)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

func (a *Accounts) issue(ctx context.Context, u *model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(a.Secret, u.ID, u.Role(), a.AccessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access: %w", err)
	}
	refresh, err := utils.NewRefreshToken(a.RefreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh: %w", err)
	}
	if err := a.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return TokenPair{}, fmt.Errorf("save refresh: %w", err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func emailTaken() *ValidationError {
	return invalid(CodeDuplicateEmail, "email", "A user with that email address already exists.")
}

// ActorFromClaims maps verified access-token claims to an Actor.
func ActorFromClaims(c *utils.Claims) Actor {
	if c == nil {
		return AnonymousActor
	}
	id, err := c.UserID()
	if err != nil || id == 0 {
		return AnonymousActor
	}
	if c.Role == model.RoleAdmin {
		return Actor{UserID: id, Capability: Admin}
	}
	return Actor{UserID: id, Capability: Authenticated}
}

// ActorForUser is the actor of a stored account.  Inactive accounts act
// as anonymous and the capability follows the current staff flag.
func ActorForUser(u *model.User) Actor {
	if u == nil || u.ID == 0 || !u.IsActive {
		return AnonymousActor
	}
	if u.IsStaff {
		return Actor{UserID: u.ID, Capability: Admin}
	}
	return Actor{UserID: u.ID, Capability: Authenticated}
}

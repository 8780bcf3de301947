package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/stadium-seat-reservation/internal/model"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository/memory"
	"github.com/iliyamo/stadium-seat-reservation/internal/service"
)

func newAccounts() *service.Accounts {
	st := memory.New()
	return &service.Accounts{
		Users:      st.Users(),
		Tokens:     st.Tokens(),
		Secret:     "test-secret",
		AccessTTL:  5 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	a := newAccounts()
	ctx := context.Background()

	u, err := a.Register(ctx, service.AnonymousActor, service.RegisterInput{
		Email: "Ali@Example.com", Password: "s3cret", ConfirmPassword: "s3cret",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ali@example.com", u.Email)
	assert.False(t, u.IsStaff)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	_, err = a.Register(ctx, service.AnonymousActor, service.RegisterInput{
		Email: "ali@example.com", Password: "x", ConfirmPassword: "x",
	})
	assert.ErrorIs(t, err, service.ErrDuplicateEmail)

	_, err = a.Register(ctx, buyer, service.RegisterInput{
		Email: "other@example.com", Password: "x", ConfirmPassword: "x",
	})
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, _, err = a.Login(ctx, service.AnonymousActor, "ali@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, _, err = a.Login(ctx, service.AnonymousActor, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, _, err = a.Login(ctx, service.AnonymousActor, "", "")
	assert.ErrorIs(t, err, service.ErrRequired)

	got, pair, err := a.Login(ctx, service.AnonymousActor, "ALI@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, pair.Access.Token)
	assert.NotEmpty(t, pair.Refresh.Raw)

	claims, err := a.Verify(pair.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, claims.Role)
	assert.Equal(t, service.Actor{UserID: u.ID, Capability: service.Authenticated}, service.ActorFromClaims(claims))

	_, err = a.Verify("garbage")
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestRefreshRotatesToken(t *testing.T) {
	a := newAccounts()
	ctx := context.Background()
	_, err := a.Register(ctx, service.AnonymousActor, service.RegisterInput{
		Email: "ali@example.com", Password: "pw", ConfirmPassword: "pw",
	})
	require.NoError(t, err)
	_, first, err := a.Login(ctx, service.AnonymousActor, "ali@example.com", "pw")
	require.NoError(t, err)

	_, second, err := a.Refresh(ctx, first.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEqual(t, first.Refresh.Raw, second.Refresh.Raw)

	_, _, err = a.Refresh(ctx, first.Refresh.Raw)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials, "old refresh token is revoked")

	_, _, err = a.Refresh(ctx, second.Refresh.Raw)
	assert.NoError(t, err)

	_, _, err = a.Refresh(ctx, "")
	assert.ErrorIs(t, err, service.ErrRequired)
}

func TestCreateAdmin(t *testing.T) {
	a := newAccounts()
	ctx := context.Background()

	u, err := a.CreateAdmin(ctx, "boss@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, u.IsStaff)

	_, pair, err := a.Login(ctx, service.AnonymousActor, "boss@example.com", "pw")
	require.NoError(t, err)
	claims, err := a.Verify(pair.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, service.Admin, service.ActorFromClaims(claims).Capability)

	_, err = a.CreateAdmin(ctx, "boss@example.com", "pw")
	assert.ErrorIs(t, err, service.ErrDuplicateEmail)
}

func TestActorForUser(t *testing.T) {
	assert.Equal(t, service.AnonymousActor, service.ActorForUser(nil))
	assert.Equal(t, service.AnonymousActor, service.ActorForUser(&model.User{ID: 4}))
	assert.Equal(t, service.Actor{UserID: 4, Capability: service.Authenticated},
		service.ActorForUser(&model.User{ID: 4, IsActive: true}))
	assert.Equal(t, service.Actor{UserID: 4, Capability: service.Admin},
		service.ActorForUser(&model.User{ID: 4, IsActive: true, IsStaff: true}))
}

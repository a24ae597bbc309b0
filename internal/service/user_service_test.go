package service

import (
	"context"
	"testing"

	"Jazz_Forum/internal/apperr"
	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/pkg"
	"Jazz_Forum/internal/repository/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUserService(t *testing.T) (*UserService, *redis.SessionRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sessions := redis.NewSessionRepository(rdb)
	return NewUserService(openTestDB(t), sessions, zap.NewNop()), sessions
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newUserService(t)

	u, err := svc.Register(ctx, "bix", "Bix B.", "cornet-1924", "bix@example.ie")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.RoleMember, u.Role)

	_, err = svc.Register(ctx, "bix", "", "cornet-1924", "other@example.ie")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Register(ctx, "bix2", "", "short", "bix2@example.ie")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = svc.Login(ctx, "bix", "wrong-password")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	pair, user, err := svc.Login(ctx, "bix@example.ie", "cornet-1924")
	require.NoError(t, err)
	assert.Equal(t, u.ID, user.ID)
	stored, err := sessions.GetUserToken(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, pair.AccessToken, stored)

	claims, err := pkg.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.RoleMember, claims.Role)

	require.NoError(t, svc.Logout(ctx, u.ID))
	_, err = sessions.GetUserToken(ctx, u.ID)
	assert.ErrorIs(t, err, redis.ErrTokenNotFound)
}

func TestChangeRoleAndRefresh(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newUserService(t)
	require.NoError(t, svc.EnsureSuperAdmin(ctx, "root", "super-secret", "root@example.ie"))
	require.NoError(t, svc.EnsureSuperAdmin(ctx, "root", "super-secret", "root@example.ie"))

	_, rootUser, err := svc.Login(ctx, "root", "super-secret")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.RoleSuperAdmin, rootUser.Role)
	root := lifecycle.Actor{ID: rootUser.ID, Role: rootUser.Role}

	u, err := svc.Register(ctx, "nina", "", "high-priestess", "nina@example.ie")
	require.NoError(t, err)
	pair, _, err := svc.Login(ctx, "nina", "high-priestess")
	require.NoError(t, err)

	member := lifecycle.Actor{ID: u.ID, Role: lifecycle.RoleMember}
	assert.ErrorIs(t, svc.ChangeRole(ctx, member, root.ID, lifecycle.RoleMember), apperr.ErrForbidden)
	assert.ErrorIs(t, svc.ChangeRole(ctx, root, u.ID, "owner"), apperr.ErrValidation)
	assert.ErrorIs(t, svc.ChangeRole(ctx, root, 9999, lifecycle.RoleAdmin), apperr.ErrNotFound)

	require.NoError(t, svc.ChangeRole(ctx, root, u.ID, lifecycle.RoleAdmin))
	// 旧会话作废
	_, err = sessions.GetUserToken(ctx, u.ID)
	assert.ErrorIs(t, err, redis.ErrTokenNotFound)

	refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	claims, err := pkg.ParseAccess(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.RoleAdmin, claims.Role)
	stored, err := sessions.GetUserToken(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, refreshed.AccessToken, stored)

	_, err = svc.Refresh(ctx, "not-a-token")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/model"
	"Jazz_Forum/internal/repository/mysql"
	"Jazz_Forum/internal/repository/redis"
	"Jazz_Forum/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type env struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
	users  *service.UserService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, mysql.AutoMigrate(db))

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := zap.NewNop()
	sessions := redis.NewSessionRepository(rdb)
	users := service.NewUserService(db, sessions, log)
	threads := service.NewThreadService(db, log)
	engine := InitRouter(Deps{
		Users:         users,
		WorkingGroups: service.NewWorkingGroupService(db, log),
		Threads:       threads,
		Posts:         service.NewPostService(db, threads, log),
		Lifecycle:     service.NewLifecycleService(db, log),
		Sessions:      sessions,
		Log:           log,
	})
	return &env{t: t, engine: engine, db: db, users: users}
}

// login 注册并按需提升角色后登录，返回 access token
func (e *env) login(name, role string) string {
	e.t.Helper()
	ctx := context.Background()
	u, err := e.users.Register(ctx, name, "", "password-"+name, name+"@example.ie")
	require.NoError(e.t, err)
	if role != lifecycle.RoleMember {
		require.NoError(e.t, e.db.Model(&model.User{}).Where("id = ?", u.ID).Update("role", role).Error)
	}
	pair, _, err := e.users.Login(ctx, name, "password-"+name)
	require.NoError(e.t, err)
	return pair.AccessToken
}

func (e *env) do(method, path, token string, body any) (int, map[string]any) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	var out map[string]any
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func idOf(t *testing.T, body map[string]any, key string) string {
	t.Helper()
	obj, ok := body[key].(map[string]any)
	require.True(t, ok, "missing %s in %v", key, body)
	return strconv.FormatUint(uint64(obj["id"].(float64)), 10)
}

func TestDeleteListRestoreOverHTTP(t *testing.T) {
	e := newEnv(t)
	admin := e.login("admin", lifecycle.RoleAdmin)
	root := e.login("root", lifecycle.RoleSuperAdmin)
	member := e.login("member", lifecycle.RoleMember)

	code, body := e.do(http.MethodPost, "/api/working-groups", admin, gin.H{"name": "Advocacy"})
	require.Equal(t, http.StatusOK, code, body)
	groupID := idOf(t, body, "workingGroup")

	code, body = e.do(http.MethodPost, "/api/threads", member, gin.H{"title": "Funding call", "workingGroupIds": []string{}})
	require.Equal(t, http.StatusOK, code, body)
	threadID := idOf(t, body, "thread")

	code, body = e.do(http.MethodDelete, "/api/working-groups/advocacy", member, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, false, body["success"])

	code, body = e.do(http.MethodDelete, "/api/working-groups/advocacy", admin, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["deleted"])

	code, _ = e.do(http.MethodGet, "/api/working-groups/advocacy", member, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = e.do(http.MethodGet, "/api/admin/deleted", admin, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["success"])
	groups := body["workingGroups"].([]any)
	require.Len(t, groups, 1)
	entry := groups[0].(map[string]any)
	assert.Equal(t, "advocacy", entry["slug"])
	assert.EqualValues(t, 7, entry["daysUntilPermanent"])
	assert.Equal(t, false, entry["expiringSoon"])
	assert.Equal(t, "admin@example.ie", entry["deletedBy"].(map[string]any)["email"])
	assert.Empty(t, body["threads"])
	assert.Empty(t, body["posts"])

	code, _ = e.do(http.MethodGet, "/api/admin/deleted", member, nil)
	assert.Equal(t, http.StatusForbidden, code)

	restore := gin.H{"type": "workingGroup", "id": groupID}
	code, body = e.do(http.MethodPost, "/api/admin/restore", admin, restore)
	assert.Equal(t, http.StatusForbidden, code)
	assert.NotEmpty(t, body["error"])

	code, body = e.do(http.MethodPost, "/api/admin/restore", root, restore)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["success"])

	code, _ = e.do(http.MethodPost, "/api/admin/restore", root, restore)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = e.do(http.MethodGet, "/api/working-groups/advocacy", member, nil)
	assert.Equal(t, http.StatusOK, code)

	// 帖子主题删除后回复也不可见
	code, _ = e.do(http.MethodDelete, "/api/threads/"+threadID, admin, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = e.do(http.MethodGet, "/api/threads/"+threadID+"/posts", member, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWorkingGroupRoutesBySlug(t *testing.T) {
	e := newEnv(t)
	admin := e.login("admin", lifecycle.RoleAdmin)
	member := e.login("member", lifecycle.RoleMember)

	code, body := e.do(http.MethodPost, "/api/working-groups", admin, gin.H{"name": "Late Night Sessions"})
	require.Equal(t, http.StatusOK, code, body)
	groupID := idOf(t, body, "workingGroup")
	const path = "/api/working-groups/late-night-sessions"

	code, body = e.do(http.MethodPost, path+"/join", member, nil)
	require.Equal(t, http.StatusOK, code, body)
	var n int64
	require.NoError(t, e.db.Model(&model.WorkingGroupMember{}).Where("working_group_id = ?", groupID).Count(&n).Error)
	assert.EqualValues(t, 2, n)

	code, body = e.do(http.MethodPost, path+"/leave", member, nil)
	require.Equal(t, http.StatusOK, code, body)

	// 数字 id 不是 slug
	code, _ = e.do(http.MethodDelete, "/api/working-groups/"+groupID, admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = e.do(http.MethodDelete, path, admin, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, groupID, strconv.FormatUint(uint64(body["id"].(float64)), 10))

	code, _ = e.do(http.MethodPost, path+"/join", member, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = e.do(http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPostAuthorDeletesOwnReply(t *testing.T) {
	e := newEnv(t)
	admin := e.login("admin", lifecycle.RoleAdmin)
	author := e.login("author", lifecycle.RoleMember)
	other := e.login("other", lifecycle.RoleMember)

	code, body := e.do(http.MethodPost, "/api/threads", author, gin.H{"title": "Trad session"})
	require.Equal(t, http.StatusOK, code, body)
	threadID := idOf(t, body, "thread")

	code, body = e.do(http.MethodPost, "/api/threads/"+threadID+"/posts", author, gin.H{"content": "<p>count me in</p>"})
	require.Equal(t, http.StatusOK, code, body)
	postID := idOf(t, body, "post")

	code, _ = e.do(http.MethodDelete, "/api/posts/"+postID, other, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = e.do(http.MethodDelete, "/api/posts/"+postID, author, nil)
	require.Equal(t, http.StatusOK, code)

	code, body = e.do(http.MethodGet, "/api/threads/"+threadID+"/posts", other, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["list"])

	code, body = e.do(http.MethodGet, "/api/admin/deleted", admin, nil)
	require.Equal(t, http.StatusOK, code)
	posts := body["posts"].([]any)
	require.Len(t, posts, 1)
	assert.Equal(t, "count me in", posts[0].(map[string]any)["preview"])

	// 回复允许 admin 恢复
	code, _ = e.do(http.MethodPost, "/api/admin/restore", admin, gin.H{"type": "post", "id": postID})
	assert.Equal(t, http.StatusOK, code)
}

func TestRequestErrors(t *testing.T) {
	e := newEnv(t)
	root := e.login("root", lifecycle.RoleSuperAdmin)

	code, body := e.do(http.MethodGet, "/api/admin/deleted", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, false, body["success"])

	code, _ = e.do(http.MethodGet, "/api/admin/deleted", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = e.do(http.MethodPost, "/api/admin/restore", root, gin.H{"type": "community", "id": "1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "unknown type")

	code, _ = e.do(http.MethodPost, "/api/admin/restore", root, gin.H{"type": "thread", "id": "abc"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(http.MethodPost, "/api/admin/restore", root, gin.H{"type": "thread"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(http.MethodPost, "/api/admin/restore", root, gin.H{"type": "thread", "id": "77"})
	assert.Equal(t, http.StatusNotFound, code)

	// 登出后旧 token 失效
	code, _ = e.do(http.MethodPost, "/api/user/logout", root, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = e.do(http.MethodGet, "/api/user/me", root, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

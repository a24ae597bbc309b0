package service

import (
	"context"
	"testing"
	"time"

	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/model"
	"Jazz_Forum/internal/repository/mysql"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, mysql.AutoMigrate(db))
	return db
}

// fixture 一套共享同一个库和可拨动时钟的服务
type fixture struct {
	db        *gorm.DB
	clock     time.Time
	lifecycle *LifecycleService
	groups    *WorkingGroupService
	threads   *ThreadService
	posts     *PostService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := openTestDB(t)
	log := zap.NewNop()
	f := &fixture{db: db, clock: t0}
	f.lifecycle = NewLifecycleService(db, log)
	f.lifecycle.now = func() time.Time { return f.clock }
	f.groups = NewWorkingGroupService(db, log)
	f.threads = NewThreadService(db, log)
	f.posts = NewPostService(db, f.threads, log)
	return f
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func (f *fixture) user(t *testing.T, name, role string) lifecycle.Actor {
	t.Helper()
	u := &model.User{Username: name, DisplayName: name + " display", Password: "x", Role: role, Email: name + "@example.ie"}
	require.NoError(t, f.db.Create(u).Error)
	return lifecycle.Actor{ID: u.ID, Role: role}
}

func (f *fixture) group(t *testing.T, admin lifecycle.Actor, name string) *model.WorkingGroup {
	t.Helper()
	g, err := f.groups.Create(context.Background(), admin, CreateWorkingGroupInput{Name: name})
	require.NoError(t, err)
	return g
}

func (f *fixture) thread(t *testing.T, author lifecycle.Actor, title string, groupIDs ...uint64) *model.Thread {
	t.Helper()
	th, err := f.threads.Create(context.Background(), author, CreateThreadInput{Title: title, WorkingGroupIDs: groupIDs})
	require.NoError(t, err)
	return th
}

func (f *fixture) post(t *testing.T, author lifecycle.Actor, threadID uint64, content string) *model.Post {
	t.Helper()
	p, err := f.posts.Create(context.Background(), author, threadID, content, nil)
	require.NoError(t, err)
	return p
}

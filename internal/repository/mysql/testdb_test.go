package mysql

import (
	"context"
	"testing"
	"time"

	"Jazz_Forum/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB 内存 SQLite，单连接保证同一个库
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
	require.NoError(t, AutoMigrate(db))
	return db
}

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, db *gorm.DB, username, role string) *model.User {
	t.Helper()
	u := &model.User{Username: username, DisplayName: username, Password: "x", Role: role, Email: username + "@example.ie"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedGroup(t *testing.T, db *gorm.DB, name, slug string) *model.WorkingGroup {
	t.Helper()
	g := &model.WorkingGroup{Name: name, Slug: slug, IsActive: true}
	require.NoError(t, NewWorkingGroupRepository(db).Create(context.Background(), g))
	return g
}

func seedThread(t *testing.T, db *gorm.DB, authorID uint64, slug string, groupIDs ...uint64) *model.Thread {
	t.Helper()
	th := &model.Thread{Title: slug, Slug: slug, AuthorID: authorID, Status: model.ThreadActive, WorkingGroupIDs: groupIDs}
	require.NoError(t, NewThreadRepository(db).Create(context.Background(), th))
	return th
}

func seedPost(t *testing.T, db *gorm.DB, threadID, authorID uint64, content string) *model.Post {
	t.Helper()
	p := &model.Post{ThreadID: threadID, AuthorID: authorID, Content: content}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), p))
	return p
}

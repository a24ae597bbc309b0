package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ThreadActive    = "active"
	ThreadResolved  = "resolved"
	ThreadArchived  = "archived"
	ThreadStalled   = "stalled"
	ThreadAbandoned = "abandoned"
)

func ValidThreadStatus(s string) bool {
	switch s {
	case ThreadActive, ThreadResolved, ThreadArchived, ThreadStalled, ThreadAbandoned:
		return true
	}
	return false
}

type Thread struct {
	ID         uint64                      `gorm:"primaryKey" json:"id"`
	Title      string                      `gorm:"size:200;not null" json:"title"`
	Slug       string                      `gorm:"uniqueIndex;size:240;not null" json:"slug"`
	AuthorID   uint64                      `gorm:"not null;index" json:"authorId"`
	Status     string                      `gorm:"size:16;not null;default:active" json:"status"`
	Pinned     bool                        `gorm:"not null" json:"pinned"`
	ReplyCount int64                       `gorm:"not null;default:0" json:"replyCount"`
	ViewCount  int64                       `gorm:"not null;default:0" json:"viewCount"`
	Tags       datatypes.JSONSlice[string] `json:"tags"`
	SoftDelete
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// 所属工作组，为空表示全站公共帖
	WorkingGroupIDs []uint64 `gorm:"-" json:"workingGroupIds"`
}

// ThreadGroup 帖子与工作组的关联
type ThreadGroup struct {
	ThreadID       uint64 `gorm:"primaryKey;autoIncrement:false"`
	WorkingGroupID uint64 `gorm:"primaryKey;autoIncrement:false;index"`
}

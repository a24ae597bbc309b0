package model

import (
	"time"

	"gorm.io/datatypes"
)

type Post struct {
	ID          uint64                      `gorm:"primaryKey" json:"id"`
	ThreadID    uint64                      `gorm:"not null;index:idx_thread_time,priority:1" json:"threadId"`
	AuthorID    uint64                      `gorm:"not null;index" json:"authorId"`
	Content     string                      `gorm:"type:text;not null" json:"content"`
	Attachments datatypes.JSONSlice[string] `json:"attachments"`
	EditedAt    *time.Time                  `json:"editedAt"`
	EditedBy    *uint64                     `json:"editedBy"`
	EditCount   int                         `gorm:"not null;default:0" json:"editCount"`
	SoftDelete
	CreatedAt time.Time `gorm:"index:idx_thread_time,priority:2" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

package model

import "time"

// SoftDelete 三类实体共用的软删除字段；Deleted 与 DeletedAt 始终同时变更
type SoftDelete struct {
	Deleted   bool       `gorm:"not null;default:false;index" json:"deleted"`
	DeletedAt *time.Time `gorm:"index" json:"deletedAt"`
	DeletedBy *uint64    `json:"deletedBy"`
}

// LifecycleEvent 生命周期事件 outbox 表
type LifecycleEvent struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:16;not null"` // soft_deleted / restored / purged
	Kind      string `gorm:"size:16;not null"`
	EntityID  uint64 `gorm:"not null;index"`
	ActorID   uint64 `gorm:"not null;default:0"`
	Payload   string `gorm:"type:text;not null"`
	Status    int8   `gorm:"not null;default:0;index;comment:'0=pending,1=sent,2=failed'"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LifecycleEvent) TableName() string { return "lifecycle_outbox" }

const (
	EventSoftDeleted = "soft_deleted"
	EventRestored    = "restored"
	EventPurged      = "purged"

	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

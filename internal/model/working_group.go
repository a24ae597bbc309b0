package model

import "time"

type WorkingGroup struct {
	ID            uint64  `gorm:"primaryKey" json:"id"`
	Name          string  `gorm:"size:128;not null" json:"name"`
	Slug          string  `gorm:"uniqueIndex;size:128;not null" json:"slug"`
	Description   string  `gorm:"type:text" json:"description"`
	CoordinatorID *uint64 `gorm:"index" json:"coordinatorId"`
	IsPrivate     bool    `gorm:"not null" json:"isPrivate"`
	IsActive      bool    `gorm:"not null" json:"isActive"`
	SoftDelete
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const (
	MemberRoleMember      = "member"
	MemberRoleCoordinator = "coordinator"
)

type WorkingGroupMember struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	WorkingGroupID uint64    `gorm:"not null;index;uniqueIndex:uk_group_user" json:"workingGroupId"`
	UserID         uint64    `gorm:"not null;index;uniqueIndex:uk_group_user" json:"userId"`
	Role           string    `gorm:"size:16;not null" json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
}

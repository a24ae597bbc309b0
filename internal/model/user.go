package model

import "time"

type User struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;size:32;not null" json:"username"`
	DisplayName string    `gorm:"size:64;not null" json:"displayName"`
	Password    string    `gorm:"size:255;not null" json:"-"`
	Role        string    `gorm:"size:16;not null;default:member" json:"role"`
	Email       string    `gorm:"uniqueIndex;size:64;not null" json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

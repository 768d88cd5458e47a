package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a marketplace account bound to an identity-provider subject.
type User struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UUID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Auth0Sub string    `gorm:"column:auth0_sub;size:255;uniqueIndex;not null" json:"-"`
	Nickname string    `gorm:"size:64" json:"nickname"`
	Desc     string    `gorm:"column:description;size:1000" json:"desc"`
	Avatar   string    `gorm:"size:1024" json:"avatar,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	return nil
}

// Role is an identity-provider role assigned to a subject.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Asset is a sellable catalog entry owned by exactly one user.
type Asset struct {
	ID       uint                        `gorm:"primaryKey" json:"id"`
	UUID     uuid.UUID                   `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Price    float64                     `gorm:"not null;index" json:"price"`
	Rating   float64                     `gorm:"not null;default:0" json:"rating"`
	Likes    int                         `gorm:"not null;default:0" json:"likes"`
	Discount int                         `gorm:"not null;default:0" json:"discount"` // 0 means no discount
	Pictures datatypes.JSONSlice[string] `gorm:"not null" json:"pictures"`
	File     *string                     `gorm:"size:1024" json:"file,omitempty"`

	UserID uint  `gorm:"not null;index" json:"-"`
	User   *User `gorm:"constraint:OnDelete:CASCADE;" json:"user,omitempty"`

	Translations []AssetTranslation `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE;" json:"translations"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	if a.Pictures == nil {
		a.Pictures = datatypes.JSONSlice[string]{}
	}
	return nil
}

// OwnedBy reports whether the asset belongs to user.
func (a *Asset) OwnedBy(user *User) bool {
	return user != nil && a.UserID == user.ID
}

// AssetTranslation holds one locale's title and description of an asset.
type AssetTranslation struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	AssetID  uint   `gorm:"not null;index" json:"-"`
	Language string `gorm:"size:16;not null;index" json:"language"`
	Title    string `gorm:"size:255;not null" json:"title"`
	Desc     string `gorm:"column:description;type:text" json:"desc"`
}

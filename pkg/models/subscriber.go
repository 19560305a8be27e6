package models

import (
	"time"
)

// Subscriber is a mobile-app customer identity, keyed by mobile number
type Subscriber struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Mobile    string    `gorm:"unique;not null" json:"mobile"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	CityID    *int      `gorm:"index" json:"cityId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	City *City `gorm:"foreignKey:CityID;references:ID" json:"city,omitempty"`
}

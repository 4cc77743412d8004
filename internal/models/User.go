package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Username  string `json:"username" gorm:"uniqueIndex;not null"`
	Email     string `json:"email" gorm:"uniqueIndex;not null"`
	FirstName string `json:"first_name"`
	Password  string `json:"-" gorm:"not null"`
	IsActive  bool   `json:"is_active" gorm:"not null"`

	Membership *Membership `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"membership,omitempty"`
}

// DisplayName falls back to the username when no first name was given.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

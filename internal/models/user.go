package models

import "time"

// User represents a registered stokvel member.
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	FirstName      string    `json:"first_name" gorm:"type:varchar(100);not null"`
	Surname        string    `json:"surname" gorm:"type:varchar(100);not null"`
	Email          string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password       string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialized
	Phone          string    `json:"phone" gorm:"type:varchar(32)"`
	Province       string    `json:"province" gorm:"type:varchar(100)"`
	Address        string    `json:"address" gorm:"type:varchar(255)"`
	ProfilePicture *string   `json:"profile_picture,omitempty" gorm:"type:varchar(255)"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName keeps the table name stable regardless of GORM naming strategy.
func (User) TableName() string { return "users" }

package models

import "time"

// Membership links a user to a stokvel they joined.
type Membership struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_member_stokvel"`
	StokvelID uint      `json:"stokvel_id" gorm:"not null;uniqueIndex:idx_member_stokvel"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Stokvel   *Stokvel  `json:"-" gorm:"foreignKey:StokvelID"`
	JoinedAt  time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

func (Membership) TableName() string { return "stokvel_members" }

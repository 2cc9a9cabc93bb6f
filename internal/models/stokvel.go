package models

import "time"

// Stokvel is a member-run savings group with a shared target amount and duration.
type Stokvel struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID         uint      `json:"user_id" gorm:"index;not null"` // owner
	Owner          *User     `json:"-" gorm:"foreignKey:UserID"`
	Name           string    `json:"name" gorm:"type:varchar(100);not null"`
	Description    string    `json:"description" gorm:"type:text"`
	Category       string    `json:"category" gorm:"type:varchar(100)"`
	TargetAmount   float64   `json:"target_amount"`
	DurationMonths int       `json:"duration_months"`
	MaxMembers     int       `json:"max_members"`
	CurrentAmount  float64   `json:"current_amount" gorm:"default:0"`
	CurrentMembers int       `json:"current_members" gorm:"default:0"`
	ManagedGrowth  bool      `json:"grow_with_sami" gorm:"column:grow_with_sami"`
	JoinCode       string    `json:"join_code,omitempty" gorm:"uniqueIndex;type:varchar(16);not null"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Stokvel) TableName() string { return "stokvels" }

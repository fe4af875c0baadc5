package models

import "time"

// User represents a registered account. Users are created only through a
// completed OTP-verified registration and are never updated or deleted.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	History []HistoryEntry `gorm:"foreignKey:UserID" json:"history,omitempty"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

package models

import "time"

// HistoryEntry is one generated summary kept for a user. Entries are
// immutable once written; created_at is the sole sort key.
type HistoryEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Summary   string    `gorm:"type:text;not null" json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for HistoryEntry model
func (HistoryEntry) TableName() string {
	return "history"
}

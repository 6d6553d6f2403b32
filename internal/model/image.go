package model

import "time"

// Image holds base64-encoded image bytes uploaded with a chat turn.
// Immutable once written; referenced by at most one Message per turn.
type Image struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	UserID         string    `gorm:"size:36;not null;index" json:"user_id"`
	ConversationID string    `gorm:"size:36;not null" json:"conversation_id"`
	Data           string    `gorm:"type:longtext;not null" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

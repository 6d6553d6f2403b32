package model

import "time"

// Message is one half of a turn: either a user input or a bot reply. Rows are
// append-only; nothing updates or deletes them. Bot replies store the raw
// markdown, not the rendered HTML.
type Message struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	UserID         string    `gorm:"size:36;not null;index:idx_messages_user_conversation" json:"user_id"`
	ConversationID string    `gorm:"size:36;not null;index:idx_messages_user_conversation" json:"conversation_id"`
	Text           string    `gorm:"type:text;not null" json:"message"`
	IsBot          bool      `gorm:"not null" json:"is_bot"`
	CreatedAt      time.Time `json:"created_at"`
	ImageID        string    `gorm:"size:36" json:"image_id,omitempty"`
}

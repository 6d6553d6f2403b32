package repository

import (
	"fmt"

	"gorm.io/gorm"

	"olive-chat-server/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

// ListByConversation returns every message of one conversation in ascending
// time order.
func (r *MessageRepository) ListByConversation(userID, conversationID string) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.
		Where("user_id = ? AND conversation_id = ?", userID, conversationID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list conversation messages failed: %w", err)
	}
	return messages, nil
}

// ListByUser returns all messages a user has across every conversation,
// ascending, for grouping into conversation summaries.
func (r *MessageRepository) ListByUser(userID string) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list user messages failed: %w", err)
	}
	return messages, nil
}

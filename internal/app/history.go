package app

import (
	"time"

	"go.uber.org/zap"

	"olive-chat-server/internal/model"
)

type MessageView struct {
	Message   string    `json:"message"`
	IsBot     bool      `json:"is_bot"`
	Timestamp time.Time `json:"timestamp"`
	ImageID   string    `json:"image_id,omitempty"`
}

// ConversationGroup is the derived view of one conversation: its id, the
// most recent message and timestamp, and the full ordered message list.
type ConversationGroup struct {
	ID          string        `json:"id"`
	LastMessage string        `json:"last_message"`
	Timestamp   time.Time     `json:"timestamp"`
	Messages    []MessageView `json:"messages"`
}

// ListConversations returns every conversation a user has, grouped and
// ordered, with bot messages rendered to sanitized HTML.
func (s *ChatService) ListConversations(userID string) ([]ConversationGroup, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	messages, err := s.messages.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	groups := groupByConversation(messages)
	s.renderBotMessages(groups)
	return groups, nil
}

// GetConversation returns the ordered message sequence of one conversation,
// with bot messages rendered to sanitized HTML.
func (s *ChatService) GetConversation(userID, conversationID string) ([]MessageView, error) {
	if userID == "" || conversationID == "" {
		return nil, ErrInvalidInput
	}
	messages, err := s.messages.ListByConversation(userID, conversationID)
	if err != nil {
		return nil, err
	}
	views := make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, toView(msg))
	}
	s.renderBotViews(views)
	return views, nil
}

// groupByConversation folds an ascending message sequence into one group per
// conversation, preserving first-seen conversation order. Last message and
// timestamp track the newest entry of each group.
func groupByConversation(messages []model.Message) []ConversationGroup {
	index := make(map[string]int)
	groups := make([]ConversationGroup, 0)

	for _, msg := range messages {
		i, seen := index[msg.ConversationID]
		if !seen {
			i = len(groups)
			index[msg.ConversationID] = i
			groups = append(groups, ConversationGroup{ID: msg.ConversationID})
		}
		groups[i].Messages = append(groups[i].Messages, toView(msg))
		groups[i].LastMessage = msg.Text
		groups[i].Timestamp = msg.CreatedAt
	}
	return groups
}

func (s *ChatService) renderBotMessages(groups []ConversationGroup) {
	for gi := range groups {
		s.renderBotViews(groups[gi].Messages)
	}
}

func (s *ChatService) renderBotViews(views []MessageView) {
	for i := range views {
		view := &views[i]
		if !view.IsBot {
			continue
		}
		html, err := s.renderer.RenderStored(view.Message)
		if err != nil {
			s.logger.Warn("render stored bot message failed", zap.Error(err))
			continue
		}
		view.Message = html
	}
}

func toView(msg model.Message) MessageView {
	return MessageView{
		Message:   msg.Text,
		IsBot:     msg.IsBot,
		Timestamp: msg.CreatedAt,
		ImageID:   msg.ImageID,
	}
}

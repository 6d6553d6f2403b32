package app

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"olive-chat-server/internal/ai"
	"olive-chat-server/internal/model"
	"olive-chat-server/internal/prompt"
	"olive-chat-server/internal/render"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrMessageEmpty     = errors.New("message content is empty")
	ErrLLMNotConfigured = errors.New("llm client is not configured")
	ErrImageNotFound    = errors.New("image not found")
)

// imageOnlyPlaceholder is stored as the user text when a turn carried an
// image and no message.
const imageOnlyPlaceholder = "[Image uploaded]"

type MessageStore interface {
	Create(message *model.Message) error
	ListByConversation(userID, conversationID string) ([]model.Message, error)
	ListByUser(userID string) ([]model.Message, error)
}

type ImageStore interface {
	Create(image *model.Image) error
	GetByID(id string) (*model.Image, error)
}

type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.Message) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, userID, conversationID string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, userID, conversationID string, messages []model.Message) error
	DeleteHistory(ctx context.Context, userID, conversationID string) error
	MarkDirty(ctx context.Context, userID, conversationID string) error
	IsDirty(ctx context.Context, userID, conversationID string) (bool, error)
}

type ModelGateway interface {
	Ready() bool
	Complete(ctx context.Context, messages []ai.ChatMessage) (ai.Reply, error)
}

// HistoryStatus distinguishes "no prior turns" from "the read failed and the
// request proceeded without history".
type HistoryStatus int

const (
	HistoryOK HistoryStatus = iota
	HistoryEmpty
	HistoryDegraded
)

// PersistOutcome records which halves of the turn were durably handed off.
// Either write may fail independently; neither aborts the response.
type PersistOutcome struct {
	UserMessageSaved bool
	BotMessageSaved  bool
}

type SendMessageInput struct {
	UserID         string
	ConversationID string
	Text           string
	// ImageData is a base64 payload or a full data URI, as uploaded.
	ImageData string
}

type SendMessageResult struct {
	HTML           string
	Raw            string
	ConversationID string
	UsedFallback   bool
	History        HistoryStatus
	Persisted      PersistOutcome
}

type ChatService struct {
	messages     MessageStore
	images       ImageStore
	publisher    AsyncMessagePublisher
	historyCache HistoryCache
	gateway      ModelGateway
	renderer     *render.Renderer
	builder      prompt.Builder
	memoryCutoff int
	logger       *zap.Logger
}

func NewChatService(
	messages MessageStore,
	images ImageStore,
	publisher AsyncMessagePublisher,
	historyCache HistoryCache,
	gateway ModelGateway,
	builder prompt.Builder,
	memoryCutoff int,
	logger *zap.Logger,
) *ChatService {
	if memoryCutoff <= 0 {
		memoryCutoff = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		messages:     messages,
		images:       images,
		publisher:    publisher,
		historyCache: historyCache,
		gateway:      gateway,
		renderer:     render.New(),
		builder:      builder,
		memoryCutoff: memoryCutoff,
		logger:       logger,
	}
}

// Ready reports whether a remote model is configured. Handlers refuse chat
// requests before any side effect when it is not.
func (s *ChatService) Ready() bool {
	return s.gateway != nil && s.gateway.Ready()
}

func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error) {
	if input.UserID == "" {
		return nil, ErrInvalidInput
	}
	text := strings.TrimSpace(input.Text)
	if text == "" && input.ImageData == "" {
		return nil, ErrMessageEmpty
	}
	if !s.Ready() {
		return nil, ErrLLMNotConfigured
	}

	conversationID := input.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	imageID, imageDataURI := s.saveImage(input.UserID, conversationID, input.ImageData)

	history, historyStatus := s.loadRecent(ctx, input.UserID, conversationID, s.memoryCutoff)

	hint := prompt.DetectLanguage(text)
	promptMessages := s.builder.Build(hint, history, text, imageDataURI)

	reply, err := s.gateway.Complete(ctx, promptMessages)
	if err != nil {
		return nil, err
	}
	raw := strings.TrimSpace(reply.Text)
	if raw == "" {
		raw = "The model returned an empty response."
	}

	html, err := s.renderer.Render(raw)
	if err != nil {
		return nil, err
	}

	// Both halves of the turn share one timestamp so ordering within the
	// conversation stays stable.
	now := time.Now()
	userText := text
	if userText == "" {
		userText = imageOnlyPlaceholder
	}

	var outcome PersistOutcome
	outcome.UserMessageSaved = s.append(ctx, model.Message{
		ID:             uuid.NewString(),
		UserID:         input.UserID,
		ConversationID: conversationID,
		Text:           userText,
		IsBot:          false,
		CreatedAt:      now,
		ImageID:        imageID,
	})
	outcome.BotMessageSaved = s.append(ctx, model.Message{
		ID:             uuid.NewString(),
		UserID:         input.UserID,
		ConversationID: conversationID,
		Text:           raw,
		IsBot:          true,
		CreatedAt:      now,
	})

	return &SendMessageResult{
		HTML:           html,
		Raw:            raw,
		ConversationID: conversationID,
		UsedFallback:   reply.UsedFallback,
		History:        historyStatus,
		Persisted:      outcome,
	}, nil
}

// append writes one message, best effort. The publisher path is tried first;
// a synchronous store write covers publish failures. Nothing here aborts the
// response that has already been computed.
func (s *ChatService) append(ctx context.Context, msg model.Message) bool {
	if s.historyCache != nil {
		if err := s.historyCache.MarkDirty(ctx, msg.UserID, msg.ConversationID); err != nil {
			s.logger.Warn("mark history dirty failed", zap.Error(err))
		}
		if err := s.historyCache.DeleteHistory(ctx, msg.UserID, msg.ConversationID); err != nil {
			s.logger.Warn("invalidate history cache failed", zap.Error(err))
		}
	}

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, msg)
		if err == nil {
			return true
		}
		s.logger.Warn("publish message failed, falling back to direct write",
			zap.String("conversation_id", msg.ConversationID),
			zap.Error(err))
	}

	if err := s.messages.Create(&msg); err != nil {
		s.logger.Error("persist message failed",
			zap.String("conversation_id", msg.ConversationID),
			zap.Bool("is_bot", msg.IsBot),
			zap.Error(err))
		return false
	}
	return true
}

// saveImage stores the uploaded image and returns its id plus the data URI
// embedded into the prompt. A storage failure is logged and the turn
// continues without an image reference; the image still reaches the model.
func (s *ChatService) saveImage(userID, conversationID, imageData string) (imageID, dataURI string) {
	if imageData == "" {
		return "", ""
	}

	encoded := prompt.StripDataURIPrefix(imageData)
	dataURI = prompt.ImageDataURI(encoded)

	image := &model.Image{
		ID:             uuid.NewString(),
		UserID:         userID,
		ConversationID: conversationID,
		Data:           encoded,
		CreatedAt:      time.Now(),
	}
	if err := s.images.Create(image); err != nil {
		s.logger.Error("save image failed", zap.Error(err))
		return "", dataURI
	}
	return image.ID, dataURI
}

// loadRecent assembles prompt context: the last limit messages of the
// conversation in ascending order. Read failures are absorbed; the caller
// proceeds without history.
func (s *ChatService) loadRecent(ctx context.Context, userID, conversationID string, limit int) ([]model.Message, HistoryStatus) {
	if conversationID == "" {
		return nil, HistoryEmpty
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, userID, conversationID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, userID, conversationID); cacheErr == nil && hit {
				return finishLoad(trimMessages(cached, limit))
			}
		}
	}

	messages, err := s.messages.ListByConversation(userID, conversationID)
	if err != nil {
		s.logger.Warn("history read failed, proceeding without context",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return nil, HistoryDegraded
	}

	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, userID, conversationID); dirtyErr == nil && !dirty {
			if err := s.historyCache.SetHistory(ctx, userID, conversationID, messages); err != nil {
				s.logger.Warn("set history cache failed", zap.Error(err))
			}
		}
	}

	return finishLoad(trimMessages(messages, limit))
}

func finishLoad(messages []model.Message) ([]model.Message, HistoryStatus) {
	if len(messages) == 0 {
		return nil, HistoryEmpty
	}
	return messages, HistoryOK
}

// trimMessages keeps the most recent limit entries, preserving ascending
// order.
func trimMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}

// GetImage returns the decoded bytes of a stored image, or ErrImageNotFound.
func (s *ChatService) GetImage(imageID string) ([]byte, error) {
	if imageID == "" {
		return nil, ErrInvalidInput
	}
	image, err := s.images.GetByID(imageID)
	if err != nil {
		return nil, err
	}
	if image == nil {
		return nil, ErrImageNotFound
	}
	decoded, err := base64.StdEncoding.DecodeString(image.Data)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

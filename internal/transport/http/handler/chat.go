package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"olive-chat-server/internal/app"
	"olive-chat-server/internal/transport/http/middleware"
	"olive-chat-server/internal/transport/http/response"
)

const gatewayFailureHint = "There was an error processing your request. " +
	"If you uploaded an image, please try again with text only as this model may not support image processing."

type ChatHandler struct {
	chatService *app.ChatService
	logger      *zap.Logger
}

type ChatRequest struct {
	Message        string `json:"message"`
	Image          string `json:"image"`
	ConversationID string `json:"conversation_id"`
}

func NewChatHandler(chatService *app.ChatService, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{chatService: chatService, logger: logger}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusInternalServerError, "session not established")
		return
	}

	if !h.chatService.Ready() {
		response.Error(c, http.StatusInternalServerError, "LLM_API_KEY is not configured")
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.chatService.SendMessage(c.Request.Context(), app.SendMessageInput{
		UserID:         userID,
		ConversationID: req.ConversationID,
		Text:           req.Message,
		ImageData:      req.Image,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMessageEmpty), errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrLLMNotConfigured):
			response.Error(c, http.StatusInternalServerError, err.Error())
		default:
			h.logger.Error("chat request failed", zap.Error(err))
			response.ErrorWithHint(c, http.StatusInternalServerError, err.Error(), gatewayFailureHint)
		}
		return
	}

	if result.Persisted.UserMessageSaved != result.Persisted.BotMessageSaved {
		h.logger.Warn("turn partially persisted",
			zap.String("conversation_id", result.ConversationID),
			zap.Bool("user_saved", result.Persisted.UserMessageSaved),
			zap.Bool("bot_saved", result.Persisted.BotMessageSaved))
	}

	c.JSON(http.StatusOK, response.ChatResponse{
		Response:       result.HTML,
		RawResponse:    result.Raw,
		ConversationID: result.ConversationID,
	})
}

func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusInternalServerError, "session not established")
		return
	}

	if conversationID := c.Query("conversation_id"); conversationID != "" {
		messages, err := h.chatService.GetConversation(userID, conversationID)
		if err != nil {
			h.logger.Error("get conversation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, []app.MessageView{})
			return
		}
		c.JSON(http.StatusOK, messages)
		return
	}

	groups, err := h.chatService.ListConversations(userID)
	if err != nil {
		h.logger.Error("list conversations failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, []app.ConversationGroup{})
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *ChatHandler) Image(c *gin.Context) {
	imageID := c.Param("id")

	data, err := h.chatService.GetImage(imageID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrImageNotFound):
			c.String(http.StatusNotFound, "Image not found")
		case errors.Is(err, app.ErrInvalidInput):
			c.String(http.StatusBadRequest, "Invalid image id")
		default:
			h.logger.Error("get image failed", zap.String("image_id", imageID), zap.Error(err))
			c.String(http.StatusInternalServerError, "Error retrieving image")
		}
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

package http

import (
	"github.com/gin-gonic/gin"

	"olive-chat-server/internal/ai"
	appsvc "olive-chat-server/internal/app"
	"olive-chat-server/internal/bootstrap"
	"olive-chat-server/internal/prompt"
	"olive-chat-server/internal/repository"
	"olive-chat-server/internal/transport/http/handler"
	"olive-chat-server/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	messageRepo := repository.NewMessageRepository(app.MySQL)
	imageRepo := repository.NewImageRepository(app.MySQL)

	gateway := ai.NewGateway(ai.NewOpenAICompatibleClient(), ai.ChatConfig{
		BaseURL:     app.Config.LLM.BaseURL,
		APIKey:      app.Config.LLM.APIKey,
		Model:       app.Config.LLM.Model,
		Temperature: app.Config.LLM.Temperature,
		MaxTokens:   app.Config.LLM.MaxTokens,
	}, app.Logger)

	chatService := appsvc.NewChatService(
		messageRepo,
		imageRepo,
		app.MessagePublisher,
		app.HistoryCache,
		gateway,
		prompt.Builder{Addressee: app.Config.Chat.Addressee},
		app.Config.Chat.MemoryCutoff,
		app.Logger,
	)
	chatHandler := handler.NewChatHandler(chatService, app.Logger)

	api := router.Group("/api")
	api.Use(middleware.Session(app.Config.Session.Secret, app.Config.Session.CookieName, app.Logger))
	api.POST("/chat", chatHandler.Chat)
	api.GET("/history", chatHandler.History)
	api.GET("/images/:id", chatHandler.Image)

	return router
}

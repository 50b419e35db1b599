package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"admissions-advisor/internal/ai"
	appsvc "admissions-advisor/internal/app"
	"admissions-advisor/internal/bootstrap"
	"admissions-advisor/internal/cache"
	"admissions-advisor/internal/convo"
	"admissions-advisor/internal/platform/rabbitmq"
	"admissions-advisor/internal/repository"
	"admissions-advisor/internal/transport/http/handler"
	"admissions-advisor/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.StaticFile("/", "web/index.html")
	router.StaticFile("/admin", "web/admin.html")
	router.Static("/static", "web/static")
	router.GET("/healthz", healthHandler.Check)

	sessionRepo := repository.NewSessionRepository(app.DB)
	messageRepo := repository.NewMessageRepository(app.DB)
	staffRepo := repository.NewStaffRepository(app.DB)
	docRepo := repository.NewDocumentRepository(app.DB)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	generator := ai.NewGeminiClient(ai.GeminiConfig{
		BaseURL: app.Config.Gemini.BaseURL,
		APIKey:  app.Config.Gemini.APIKey,
		Model:   app.Config.Gemini.Model,
		Timeout: time.Duration(app.Config.Gemini.TimeoutSeconds) * time.Second,
	})
	ingestPublisher := rabbitmq.NewIngestPublisher(app.MQConn, app.Config.RabbitMQ.IngestQueue)

	chatService := appsvc.NewChatService(
		sessionRepo,
		messageRepo,
		generator,
		convo.NewHandler(),
		historyCache,
		app.Config.Gemini.MaxContextMessage,
	)
	authService := appsvc.NewAuthService(
		staffRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	docService := appsvc.NewDocumentService(docRepo, ingestPublisher, app.Config.Upload.Dir)

	chatHandler := handler.NewChatHandler(chatService)
	authHandler := handler.NewAuthHandler(authService)
	docHandler := handler.NewDocumentHandler(docService, app.Config.Upload.MaxSizeMB)

	// Browser-facing chat surface; session addressed by cookie token.
	chatGroup := router.Group("/", middleware.ChatSession())
	chatGroup.POST("/chat", chatHandler.Chat)
	chatGroup.POST("/clear_chat", chatHandler.ClearChat)
	chatGroup.GET("/api/current_chat_history", chatHandler.CurrentHistory)

	authRequired := middleware.AuthJWT(app.Config.Auth.JWTSecret, authService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/bootstrap", authHandler.Bootstrap)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authRequired, authHandler.Me)

	staffGroup := v1.Group("")
	staffGroup.Use(authRequired)
	staffGroup.GET("/sessions", chatHandler.ListSessions)
	staffGroup.POST("/documents/upload", docHandler.Upload)
	staffGroup.GET("/documents", docHandler.List)
	staffGroup.DELETE("/documents/:id", docHandler.Delete)
	staffGroup.POST("/staff", authHandler.CreateStaff)
	staffGroup.GET("/staff", authHandler.ListStaff)
	staffGroup.POST("/staff/:id/deactivate", authHandler.DeactivateStaff)

	return router
}

package routes

import (
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"crm-chat-server/internal/config"
	"crm-chat-server/internal/handlers"
	"crm-chat-server/internal/middleware"
	"crm-chat-server/internal/models"
	"crm-chat-server/internal/utils"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) {
	chatHandler := handlers.NewChatHandler(db)

	// Per-user rate limit on sends; everything else is read traffic
	sendLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: uint(cfg.SendRatePerMinute),
	})
	sendLimiter := ratelimit.RateLimiter(sendLimitStore, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			utils.Error(c, 429, "Too many messages, retry at "+info.ResetTime.Format(time.RFC3339))
		},
		KeyFunc: func(c *gin.Context) string {
			userID, _ := middleware.GetUserIDFromContext(c)
			return userID
		},
	})

	private := router.Group("/api/chat")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		// Admins need an active subscription for the conversation surface;
		// users and superadmins pass the gate untouched.
		subscribed := private.Group("")
		subscribed.Use(middleware.SubscribedAdminMiddleware(db))
		{
			subscribed.GET("/conversations", chatHandler.GetConversations)
			subscribed.GET("/messages/:otherUserId", chatHandler.GetMessages)
			subscribed.POST("/send", sendLimiter, chatHandler.SendMessage)
			subscribed.GET("/contacts", chatHandler.GetContacts)
		}

		// Raw room access and global search bypass pairing validation
		superadmin := private.Group("")
		superadmin.Use(middleware.RoleAuthMiddleware(models.RoleSuperAdmin))
		{
			superadmin.GET("/messages/room/:roomId", chatHandler.GetRoomMessages)
			superadmin.GET("/search", chatHandler.SearchMessages)
		}

		private.PUT("/mark-seen/:otherUserId", chatHandler.MarkSeen)
		private.GET("/unread-count", chatHandler.GetUnreadCount)
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}

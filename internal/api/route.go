package api

import (
	"Parley/internal/api/middleware"
	"Parley/internal/pkg/logger"
	"Parley/internal/pkg/security"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, signer *security.Signer, origins middleware.Origins) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware(origins))
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		imGroup := apiGroup.Group("/im")
		imGroup.Use(middleware.AuthMiddleware(signer))
		{
			imGroup.GET("", group.WSHandler.Connect)
			imGroup.GET("/list", group.IMHandler.GetConversationList)
			imGroup.GET("/history", group.IMHandler.GetChatHistory)
			imGroup.POST("/send", group.IMHandler.SendMessage)
			imGroup.POST("/chats", group.IMHandler.CreateChat)
		}
	}

	return r
}

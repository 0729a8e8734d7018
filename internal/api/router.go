package api

import (
	"net/http"

	"brilliox/leadhunter-backend/internal/api/controllers"
	"brilliox/leadhunter-backend/internal/auth"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Controllers bundles the wired controllers the router mounts.
type Controllers struct {
	Auth    *controllers.AuthController
	Leads   *controllers.LeadController
	Hunts   *controllers.HuntController
	Search  *controllers.SearchController
	Chat    *controllers.ChatController
	Webhook *controllers.WebhookController
}

// NewRouter creates and configures a new Gin router
func NewRouter(tokens *auth.TokenService, ctrls Controllers) *gin.Engine {
	router := gin.Default() // Includes Logger and Recovery middleware

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Swagger documentation route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", ctrls.Auth.Login)

		// Meta calls these without a bearer token; verification uses the
		// configured verify token instead.
		v1.GET("/webhooks/whatsapp", ctrls.Webhook.VerifyWhatsApp)
		v1.POST("/webhooks/whatsapp", ctrls.Webhook.HandleWhatsApp)

		authed := v1.Group("", controllers.AuthRequired(tokens))
		{
			authed.GET("/leads", ctrls.Leads.ListLeads)
			authed.GET("/leads/:id", ctrls.Leads.GetLead)
			authed.GET("/dashboard", ctrls.Leads.Dashboard)
			authed.GET("/tasks", ctrls.Leads.ListTasks)
			authed.GET("/hunts", ctrls.Hunts.ListHunts)
			authed.GET("/hunts/:id", ctrls.Hunts.GetHunt)

			write := authed.Group("", controllers.WriteRequired())
			{
				write.POST("/leads", ctrls.Leads.CreateLead)
				write.PATCH("/leads/:id", ctrls.Leads.UpdateLead)
				write.DELETE("/leads/:id", ctrls.Leads.DeleteLead)
				write.POST("/leads/:id/message", ctrls.Leads.SendMessage)
				write.POST("/tasks/:id/complete", ctrls.Leads.CompleteTask)
				write.POST("/hunts", ctrls.Hunts.StartHunt)
				write.POST("/search", ctrls.Search.Search)
				write.POST("/chat", ctrls.Chat.Chat)
				write.POST("/ads/generate", ctrls.Chat.GenerateAdCopy)
			}

			admin := authed.Group("", controllers.AdminRequired())
			{
				admin.POST("/auth/register", ctrls.Auth.Register)
				admin.POST("/admin/commands", ctrls.Chat.MapCommand)
			}
		}
	}

	return router
}
